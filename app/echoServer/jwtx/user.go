package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// UserID reads the user id set by the auth middleware.
func UserID(c echo.Context) (int64, error) {
	if id, ok := c.Get("user_id").(int64); ok && id > 0 {
		return id, nil
	}
	return 0, errors.New("no user id in context")
}

// Role reads the role claim from the verified token. echo-jwt stores the
// parsed *jwt.Token under "user".
func Role(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	r, _ := claims["role"].(string)
	return r
}
