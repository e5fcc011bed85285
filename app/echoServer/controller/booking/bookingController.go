package booking

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Festivemena/ment/app/echoServer/jwtx"
	bookingsvc "github.com/Festivemena/ment/service/booking"
	"github.com/Festivemena/ment/util/money"
)

type Controller struct {
	Svc bookingsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/bookings
// @Summary Create a booking: pays the creative upfront and escrows the rest
// @Success 201 {object} map[string]any
// @Failure 400,404,500
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "validation error"})
	}
	uid, _ := jwtx.UserID(c)

	b, err := h.Svc.Create(c.Request().Context(), bookingsvc.CreateReq{
		ClientID:    uid,
		CreativeID:  req.CreativeID,
		ScheduledAt: req.DateTime,
		LocationLat: req.Location.Lat,
		LocationLng: req.Location.Lng,
		TotalPrice:  money.ToMinor(req.TotalPrice),
	})
	if err != nil {
		return h.bookingErr(c, "booking create", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":          true,
		"message":          "Booking created successfully",
		"booking":          b,
		"upfront_received": money.ToMajor(b.UpfrontAmount),
		"hold_amount":      money.ToMajor(b.HeldAmount),
	})
}

// PATCH /v1/bookings/:id/complete
func (h *Controller) Complete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid booking id"})
	}
	uid, _ := jwtx.UserID(c)

	b, err := h.Svc.Complete(c.Request().Context(), uid, id)
	if err != nil {
		return h.bookingErr(c, "booking complete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Booking completed successfully, payment released",
		"booking": b,
	})
}

// PATCH /v1/bookings/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid booking id"})
	}
	uid, _ := jwtx.UserID(c)

	b, err := h.Svc.Cancel(c.Request().Context(), uid, id)
	if err != nil {
		return h.bookingErr(c, "booking cancel", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Booking cancelled, escrow refunded",
		"booking": b,
	})
}

// POST /v1/creatives/:id/tip
func (h *Controller) Tip(c echo.Context) error {
	creativeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || creativeID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid creative id"})
	}
	var req TipReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "validation error"})
	}
	uid, _ := jwtx.UserID(c)

	if err := h.Svc.Tip(c.Request().Context(), uid, creativeID, money.ToMinor(req.Amount)); err != nil {
		return h.bookingErr(c, "tip", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Tip sent successfully",
	})
}

// GET /v1/bookings/my
func (h *Controller) ListMine(c echo.Context) error {
	uid, _ := jwtx.UserID(c)
	rows, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("booking list failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "bookings": rows})
}

func (h *Controller) bookingErr(c echo.Context, op string, err error) error {
	switch bookingsvc.Code(err) {
	case bookingsvc.ErrInvalidAmount:
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Amount must be greater than 0"})
	case bookingsvc.ErrInsufficientFunds:
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Insufficient balance"})
	case bookingsvc.ErrSelfBooking:
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "You cannot book or tip yourself"})
	case bookingsvc.ErrCreativeNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Creative not found"})
	case bookingsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Booking not found"})
	case bookingsvc.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "forbidden"})
	case bookingsvc.ErrInvalidState:
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "Booking is not in ongoing status"})
	default:
		h.Log.Error(op+" failed", "err", err,
			"req_id", c.Response().Header().Get(echo.HeaderXRequestID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}
}
