package wallet

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Festivemena/ment/app/echoServer/jwtx"
	walletsvc "github.com/Festivemena/ment/service/wallet"
	"github.com/Festivemena/ment/util/money"
)

type Controller struct {
	Svc walletsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/wallet/deposit
// @Summary Initiate a wallet deposit via the payment gateway
// @Success 200 {object} map[string]any
// @Failure 400,401,503
func (h *Controller) Deposit(c echo.Context) error {
	var req DepositReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "validation error",
			"errors":  map[string]string{"amount": "required, gt 0"},
		})
	}
	uid, _ := jwtx.UserID(c)

	out, err := h.Svc.Deposit(c.Request().Context(), uid, money.ToMinor(req.Amount))
	if err != nil {
		return h.walletErr(c, "deposit", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":           true,
		"message":           "Deposit initiated",
		"reference":         out.Reference,
		"authorization_url": out.AuthorizationURL,
	})
}

// POST /v1/wallet/withdraw
// @Summary Withdraw from the wallet to the registered bank account
// @Success 200 {object} map[string]any
// @Failure 400,401,503
func (h *Controller) Withdraw(c echo.Context) error {
	var req WithdrawReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "validation error"})
	}
	uid, _ := jwtx.UserID(c)

	out, err := h.Svc.Withdraw(c.Request().Context(), uid, money.ToMinor(req.Amount))
	if err != nil {
		return h.walletErr(c, "withdraw", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "Withdrawal initiated successfully",
		"reference": out.Reference,
		"balance":   money.ToMajor(out.Balance),
	})
}

// POST /v1/wallet/bank
func (h *Controller) RegisterBank(c echo.Context) error {
	var req BankDetailsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "validation error"})
	}
	uid, _ := jwtx.UserID(c)

	d, err := h.Svc.RegisterBankDetails(c.Request().Context(), uid, req.AccountNumber, req.BankCode, req.Name)
	if err != nil {
		return h.walletErr(c, "register bank", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"message":      "Bank details added successfully",
		"bank_details": d,
	})
}

// GET /v1/wallet/bank
func (h *Controller) GetBank(c echo.Context) error {
	uid, _ := jwtx.UserID(c)
	d, err := h.Svc.BankDetails(c.Request().Context(), uid)
	if err != nil {
		return h.walletErr(c, "get bank", err)
	}
	if d == nil {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "bank_details": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"bank_details": echo.Map{
			"account_number":     d.AccountNumber,
			"bank_code":          d.BankCode,
			"account_name":       d.AccountName,
			"has_recipient_code": d.RecipientCode != "",
		},
	})
}

// GET /v1/wallet/balance
func (h *Controller) Balance(c echo.Context) error {
	uid, _ := jwtx.UserID(c)
	bal, err := h.Svc.Balance(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("balance failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"balance":  money.ToMajor(bal),
		"currency": "NGN",
	})
}

// GET /v1/wallet/transactions?page=&limit=
func (h *Controller) Transactions(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 20
	}
	if page < 1 || limit < 1 || limit > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid pagination parameters"})
	}
	uid, _ := jwtx.UserID(c)

	rows, total, err := h.Svc.Transactions(c.Request().Context(), uid, page, limit)
	if err != nil {
		h.Log.Error("transactions failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"transactions": rows,
		"pagination": echo.Map{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *Controller) walletErr(c echo.Context, op string, err error) error {
	switch walletsvc.Code(err) {
	case walletsvc.ErrInvalidAmount:
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Amount must be greater than 0"})
	case walletsvc.ErrInsufficientFunds:
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Insufficient funds"})
	case walletsvc.ErrNoBankDetails:
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Please add your bank details first"})
	case walletsvc.ErrUserNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "User not found"})
	case walletsvc.ErrGateway:
		h.Log.Error(op+" gateway call failed", "err", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"success": false, "message": "Payment gateway unavailable"})
	default:
		h.Log.Error(op+" failed", "err", err,
			"req_id", c.Response().Header().Get(echo.HeaderXRequestID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
	}
}
