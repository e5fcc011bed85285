package referral

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Festivemena/ment/app/echoServer/jwtx"
	referralsvc "github.com/Festivemena/ment/service/referral"
	"github.com/Festivemena/ment/util/money"
)

type Controller struct {
	Svc referralsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type applyReq struct {
	ReferralCode string `json:"referral_code" validate:"required,alphanum,min=6,max=8"`
}

type completeReq struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// GET /v1/referrals/info
func (h *Controller) Info(c echo.Context) error {
	uid, _ := jwtx.UserID(c)
	info, err := h.Svc.Info(c.Request().Context(), uid)
	if err != nil {
		return h.referralErr(c, "referral info", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"referral_code": info.Code,
		"stats":         info.Stats,
	})
}

// POST /v1/referrals/apply — applies a code to the calling user.
func (h *Controller) Apply(c echo.Context) error {
	var req applyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "validation error"})
	}
	uid, _ := jwtx.UserID(c)

	ref, err := h.Svc.Apply(c.Request().Context(), req.ReferralCode, uid)
	if err != nil {
		return h.referralErr(c, "referral apply", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"message":  "Referral applied successfully",
		"referral": ref,
	})
}

// POST /v1/referrals/complete — settles the referred user's pending referral.
func (h *Controller) Complete(c echo.Context) error {
	var req completeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "validation error"})
	}

	ref, err := h.Svc.Complete(c.Request().Context(), req.UserID)
	if err != nil {
		return h.referralErr(c, "referral complete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"message":       "Referral completed successfully",
		"reward_amount": money.ToMajor(ref.RewardAmount),
	})
}

// GET /v1/referrals/history?page=&limit=
func (h *Controller) History(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	uid, _ := jwtx.UserID(c)

	rows, total, err := h.Svc.History(c.Request().Context(), uid, page, limit)
	if err != nil {
		return h.referralErr(c, "referral history", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"referrals": rows,
		"total":     total,
	})
}

// GET /v1/referrals/leaderboard (public)
func (h *Controller) Leaderboard(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rows, err := h.Svc.Leaderboard(c.Request().Context(), limit)
	if err != nil {
		return h.referralErr(c, "referral leaderboard", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "leaderboard": rows})
}

// GET /v1/referrals/validate/:code (public)
func (h *Controller) Validate(c echo.Context) error {
	code := c.Param("code")
	if len(code) < 6 || len(code) > 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Referral code must be 6-8 characters"})
	}

	u, reward, err := h.Svc.Validate(c.Request().Context(), code)
	if err != nil {
		return h.referralErr(c, "referral validate", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"message":       "Valid referral code",
		"referrer":      echo.Map{"name": u.FirstName + " " + u.LastName, "username": u.Username},
		"reward_amount": money.ToMajor(reward),
	})
}

func (h *Controller) referralErr(c echo.Context, op string, err error) error {
	switch referralsvc.Code(err) {
	case referralsvc.ErrInvalidCode:
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Invalid referral code"})
	case referralsvc.ErrAlreadyReferred:
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "User has already been referred"})
	case referralsvc.ErrSelfReferral:
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "You cannot refer yourself"})
	case referralsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "No pending referral found for this user"})
	case referralsvc.ErrUserNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "User not found"})
	default:
		h.Log.Error(op+" failed", "err", err,
			"req_id", c.Response().Header().Get(echo.HeaderXRequestID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}
}
