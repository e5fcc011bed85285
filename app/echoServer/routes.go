package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Festivemena/ment/app/echoServer/controller/auth"
	"github.com/Festivemena/ment/app/echoServer/controller/booking"
	"github.com/Festivemena/ment/app/echoServer/controller/notification"
	"github.com/Festivemena/ment/app/echoServer/controller/payment"
	"github.com/Festivemena/ment/app/echoServer/controller/referral"
	"github.com/Festivemena/ment/app/echoServer/controller/review"
	"github.com/Festivemena/ment/app/echoServer/controller/wallet"
	"github.com/Festivemena/ment/app/echoServer/jwtx"
	"github.com/Festivemena/ment/model"
)

type C struct {
	Auth         *auth.Controller
	Wallet       *wallet.Controller
	Booking      *booking.Controller
	Payment      *payment.Controller
	Referral     *referral.Controller
	Review       *review.Controller
	Notification *notification.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Gateway webhook: signature-authenticated, never JWT
	pub.POST("/wallet/webhook/paystack", c.Payment.HandlePaystack)

	pub.GET("/referrals/validate/:code", c.Referral.Validate)
	pub.GET("/referrals/leaderboard", c.Referral.Leaderboard)
	pub.GET("/creatives/:id/reviews", c.Review.List)

	// Auth
	authed := e.Group("/v1")
	authed.Use(authMiddleware(c.JWTSecret))
	authed.Use(extractUserID)

	// Wallet
	authed.POST("/wallet/deposit", c.Wallet.Deposit)
	authed.POST("/wallet/withdraw", c.Wallet.Withdraw)
	authed.POST("/wallet/bank", c.Wallet.RegisterBank)
	authed.GET("/wallet/bank", c.Wallet.GetBank)
	authed.GET("/wallet/balance", c.Wallet.Balance)
	authed.GET("/wallet/transactions", c.Wallet.Transactions)

	// Bookings and escrow
	authed.POST("/bookings", c.Booking.Create)
	authed.PATCH("/bookings/:id/complete", c.Booking.Complete)
	authed.PATCH("/bookings/:id/cancel", c.Booking.Cancel)
	authed.GET("/bookings/my", c.Booking.ListMine)

	// Creatives
	authed.POST("/creatives/:id/tip", c.Booking.Tip)
	authed.POST("/creatives/:id/rate", c.Review.Rate)

	// Referrals
	authed.GET("/referrals/info", c.Referral.Info)
	authed.POST("/referrals/apply", c.Referral.Apply)
	authed.POST("/referrals/complete", c.Referral.Complete, requireRole(model.RoleAdmin))
	authed.GET("/referrals/history", c.Referral.History)

	// Notifications
	authed.GET("/notifications", c.Notification.List)
	authed.PATCH("/notifications/:id/read", c.Notification.MarkRead)
	authed.GET("/notifications/ws", c.Notification.Stream)
}

// authMiddleware validates the Bearer token. echo-jwt's default token
// lookup already cuts the "Bearer " scheme from the Authorization header.
func authMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
	})
}

// extractUserID pulls the sub claim out of the *jwt.Token echo-jwt stores
// under "user" and sets it as user_id.
func extractUserID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, ok := ctx.Get("user").(*jwt.Token)
		if !ok {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
		}
		sub, ok := claims["sub"].(float64)
		if !ok {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
		}
		ctx.Set("user_id", int64(sub))
		return next(ctx)
	}
}

// requireRole rejects callers whose token does not carry the role.
func requireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if jwtx.Role(ctx) != string(role) {
				return ctx.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "forbidden"})
			}
			return next(ctx)
		}
	}
}
