// Package main pic-me marketplace API.
//
// @title           PIC-ME API
// @version         1.0
// @description     Marketplace connecting clients and creatives with an escrowed wallet.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/Festivemena/ment/app/echoServer"
	authctrl "github.com/Festivemena/ment/app/echoServer/controller/auth"
	bookingctrl "github.com/Festivemena/ment/app/echoServer/controller/booking"
	notifctrl "github.com/Festivemena/ment/app/echoServer/controller/notification"
	paymentctrl "github.com/Festivemena/ment/app/echoServer/controller/payment"
	referralctrl "github.com/Festivemena/ment/app/echoServer/controller/referral"
	reviewctrl "github.com/Festivemena/ment/app/echoServer/controller/review"
	walletctrl "github.com/Festivemena/ment/app/echoServer/controller/wallet"
	"github.com/Festivemena/ment/app/echoServer/validation"
	"github.com/Festivemena/ment/config"
	bookingrepo "github.com/Festivemena/ment/repository/booking"
	notificationrepo "github.com/Festivemena/ment/repository/notification"
	paystackrepo "github.com/Festivemena/ment/repository/paystack"
	referralrepo "github.com/Festivemena/ment/repository/referral"
	reviewrepo "github.com/Festivemena/ment/repository/review"
	userrepo "github.com/Festivemena/ment/repository/user"
	walletrepo "github.com/Festivemena/ment/repository/wallet"
	authsvc "github.com/Festivemena/ment/service/auth"
	bookingsvc "github.com/Festivemena/ment/service/booking"
	"github.com/Festivemena/ment/service/notify"
	paymentsvc "github.com/Festivemena/ment/service/payment"
	referralsvc "github.com/Festivemena/ment/service/referral"
	reviewsvc "github.com/Festivemena/ment/service/review"
	walletsvc "github.com/Festivemena/ment/service/wallet"
	"github.com/Festivemena/ment/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *pgxpool.Pool, migrated
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	wr := walletrepo.New(db)
	br := bookingrepo.New(db)
	rr := referralrepo.New(db)
	vr := reviewrepo.New(db)
	nr := notificationrepo.New(db)
	ps := paystackrepo.NewHTTP(cfg.PaystackSecret)

	// services
	ns := notify.New(nr, notify.NewRegistry(), log)
	ws := walletsvc.New(db, ur, wr, ps, ns)
	bs := bookingsvc.New(db, br, ur, wr, ns)
	rs := referralsvc.New(db, rr, ur, wr, ns, cfg.ReferralReward)
	vs := reviewsvc.New(db, vr, ur, ns)
	as := authsvc.New(ur, rs, cfg.JWTSecret)
	pys := paymentsvc.New(db, ps, wr, ns, log)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	walletC := &walletctrl.Controller{Svc: ws, V: v, Log: log}
	bookingC := &bookingctrl.Controller{Svc: bs, V: v, Log: log}
	paymentC := &paymentctrl.Controller{Svc: pys, Log: log}
	referralC := &referralctrl.Controller{Svc: rs, V: v, Log: log}
	reviewC := &reviewctrl.Controller{Svc: vs, V: v, Log: log}
	notifC := &notifctrl.Controller{Svc: ns, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:         authC,
		Wallet:       walletC,
		Booking:      bookingC,
		Payment:      paymentC,
		Referral:     referralC,
		Review:       reviewC,
		Notification: notifC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
