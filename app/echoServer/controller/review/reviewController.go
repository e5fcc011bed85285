package review

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Festivemena/ment/app/echoServer/jwtx"
	reviewsvc "github.com/Festivemena/ment/service/review"
)

type Controller struct {
	Svc reviewsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type rateReq struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// POST /v1/creatives/:id/rate
func (h *Controller) Rate(c echo.Context) error {
	creativeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || creativeID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid creative id"})
	}
	var req rateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Rating must be between 1 and 5"})
	}
	uid, _ := jwtx.UserID(c)

	avg, err := h.Svc.Rate(c.Request().Context(), uid, creativeID, req.Rating, req.Comment)
	if err != nil {
		switch reviewsvc.Code(err) {
		case reviewsvc.ErrInvalidRating:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Rating must be between 1 and 5"})
		case reviewsvc.ErrSelfRating:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "You cannot rate yourself"})
		case reviewsvc.ErrCreativeNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Creative not found"})
		case reviewsvc.ErrAlreadyRated:
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "You have already rated this creative"})
		default:
			h.Log.Error("rate failed", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"message":    "Review submitted successfully",
		"avg_rating": avg,
	})
}

// GET /v1/creatives/:id/reviews
func (h *Controller) List(c echo.Context) error {
	creativeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || creativeID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid creative id"})
	}
	rows, err := h.Svc.ListForCreative(c.Request().Context(), creativeID)
	if err != nil {
		h.Log.Error("review list failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "reviews": rows})
}
