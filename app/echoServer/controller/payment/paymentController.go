package payment

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	paymentsvc "github.com/Festivemena/ment/service/payment"
)

type Controller struct {
	Svc paymentsvc.Service
	Log *slog.Logger
}

// POST /v1/wallet/webhook/paystack
//
// The body must reach the service as raw bytes; the signature covers the
// exact payload Paystack sent. A 2xx stops gateway retries, so only genuine
// internal failures return 5xx.
func (h *Controller) HandlePaystack(c echo.Context) error {
	sig := c.Request().Header.Get("x-paystack-signature")
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "unreadable body"})
	}

	if err := h.Svc.HandlePaystack(c.Request().Context(), sig, raw); err != nil {
		if errors.Is(err, paymentsvc.ErrUnauthorized) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid signature"})
		}
		h.Log.Error("webhook processing failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "webhook processing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
