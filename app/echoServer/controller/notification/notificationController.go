package notification

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Festivemena/ment/app/echoServer/jwtx"
	"github.com/Festivemena/ment/service/notify"
)

type Controller struct {
	Svc notify.Service
	Log *slog.Logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// GET /v1/notifications
func (h *Controller) List(c echo.Context) error {
	uid, _ := jwtx.UserID(c)
	rows, err := h.Svc.List(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("notification list failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "notifications": rows})
}

// PATCH /v1/notifications/:id/read
func (h *Controller) MarkRead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid id"})
	}
	uid, _ := jwtx.UserID(c)

	ok, err := h.Svc.MarkRead(c.Request().Context(), uid, id)
	if err != nil {
		h.Log.Error("notification mark read failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "notification not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Notification marked as read"})
}

// GET /v1/notifications/ws
//
// Upgrades to a websocket and registers the connection for live pushes. The
// read loop only detects the peer closing; nothing inbound is interpreted.
func (h *Controller) Stream(c echo.Context) error {
	uid, _ := jwtx.UserID(c)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	reg := h.Svc.Registry()
	reg.Add(uid, conn)
	defer func() {
		reg.Remove(uid, conn)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}
