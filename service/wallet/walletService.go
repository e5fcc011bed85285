package walletsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Festivemena/ment/model"
	paystackrepo "github.com/Festivemena/ment/repository/paystack"
	userrepo "github.com/Festivemena/ment/repository/user"
	walletrepo "github.com/Festivemena/ment/repository/wallet"
	"github.com/Festivemena/ment/service/notify"
	"github.com/Festivemena/ment/util/money"
	"github.com/Festivemena/ment/util/ref"
)

// errors used by controllers

type ErrCode string

const (
	ErrInvalidAmount     ErrCode = "INVALID_AMOUNT"
	ErrInsufficientFunds ErrCode = "INSUFFICIENT_FUNDS"
	ErrNoBankDetails     ErrCode = "NO_BANK_DETAILS"
	ErrUserNotFound      ErrCode = "USER_NOT_FOUND"
	ErrGateway           ErrCode = "GATEWAY"
)

type codedError struct {
	code ErrCode
	err  error
}

func (e codedError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.code, e.err)
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }
func (e codedError) Unwrap() error { return e.err }

func makeErr(c ErrCode) error          { return codedError{code: c} }
func wrapErr(c ErrCode, err error) error { return codedError{code: c, err: err} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// dto

type DepositCreated struct {
	Reference        string
	AuthorizationURL string
}

type WithdrawResult struct {
	Reference string
	Balance   int64
}

// DB is the transaction seam; *pgxpool.Pool satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service interface {
	// Deposit creates a pending deposit entry and returns the gateway
	// checkout link. The balance is untouched until the webhook confirms.
	Deposit(ctx context.Context, userID, amount int64) (*DepositCreated, error)

	// Withdraw moves amount to the user's registered bank account. The
	// debit and the success ledger entry are applied synchronously once the
	// gateway accepts the transfer.
	Withdraw(ctx context.Context, userID, amount int64) (*WithdrawResult, error)

	RegisterBankDetails(ctx context.Context, userID int64, accountNumber, bankCode, name string) (*model.BankDetails, error)
	BankDetails(ctx context.Context, userID int64) (*model.BankDetails, error)

	Balance(ctx context.Context, userID int64) (int64, error)
	Transactions(ctx context.Context, userID int64, page, limit int) ([]model.Transaction, int64, error)
}

type service struct {
	db DB
	ur userrepo.Repo
	wr walletrepo.Repo
	ps paystackrepo.Repo
	n  notify.Emitter
}

func New(db DB, ur userrepo.Repo, wr walletrepo.Repo, ps paystackrepo.Repo, n notify.Emitter) Service {
	return &service{db: db, ur: ur, wr: wr, ps: ps, n: n}
}

func (s *service) Deposit(ctx context.Context, userID, amount int64) (*DepositCreated, error) {
	if amount <= 0 {
		return nil, makeErr(ErrInvalidAmount)
	}
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}

	reference := ref.New(ref.PrefixDeposit)
	init, err := s.ps.InitializeTransaction(paystackrepo.InitializeReq{
		Email:     u.Email,
		Amount:    amount,
		Reference: reference,
	})
	if err != nil {
		return nil, wrapErr(ErrGateway, err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	entry := &model.Transaction{
		UserID:      userID,
		Kind:        model.TxnDeposit,
		Direction:   model.DirCredit,
		Amount:      amount,
		Status:      model.TxnPending,
		Reference:   reference,
		Description: fmt.Sprintf("Wallet deposit of ₦%.2f", money.ToMajor(amount)),
	}
	if err = s.wr.InsertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.n.Notify(ctx, userID, "deposit", "Deposit Started",
		fmt.Sprintf("You started a deposit of ₦%.2f.", money.ToMajor(amount)))

	return &DepositCreated{Reference: reference, AuthorizationURL: init.AuthorizationURL}, nil
}

func (s *service) Withdraw(ctx context.Context, userID, amount int64) (*WithdrawResult, error) {
	if amount <= 0 {
		return nil, makeErr(ErrInvalidAmount)
	}

	bank, err := s.ur.BankDetails(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}
	if bank == nil {
		return nil, makeErr(ErrNoBankDetails)
	}

	// Advisory check before moving real money; the authoritative check is
	// the conditional debit below.
	bal, err := s.wr.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bal < amount {
		return nil, makeErr(ErrInsufficientFunds)
	}

	reference := ref.New(ref.PrefixWithdrawal)
	if _, err = s.ps.Transfer(paystackrepo.TransferReq{
		Amount:        amount,
		RecipientCode: bank.RecipientCode,
		Reason:        "Wallet Withdrawal",
		Reference:     reference,
	}); err != nil {
		return nil, wrapErr(ErrGateway, err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	newBal, err := s.wr.Debit(ctx, tx, userID, amount)
	if err != nil {
		if errors.Is(err, walletrepo.ErrInsufficientFunds) {
			return nil, makeErr(ErrInsufficientFunds)
		}
		return nil, err
	}
	entry := &model.Transaction{
		UserID:       userID,
		Kind:         model.TxnWithdrawal,
		Direction:    model.DirDebit,
		Amount:       amount,
		Status:       model.TxnSuccess,
		Reference:    reference,
		Description:  "Wallet withdrawal to bank account",
		BalanceAfter: &newBal,
	}
	if err = s.wr.InsertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.n.Notify(ctx, userID, "withdrawal", "Withdrawal Successful",
		fmt.Sprintf("You withdrew ₦%.2f from your wallet.", money.ToMajor(amount)))

	return &WithdrawResult{Reference: reference, Balance: newBal}, nil
}

func (s *service) RegisterBankDetails(ctx context.Context, userID int64, accountNumber, bankCode, name string) (*model.BankDetails, error) {
	resolved, err := s.ps.ResolveAccount(paystackrepo.ResolveAccountReq{
		AccountNumber: accountNumber,
		BankCode:      bankCode,
	})
	if err != nil {
		return nil, wrapErr(ErrGateway, err)
	}

	// The resolved name is authoritative over the caller-supplied one.
	recipient, err := s.ps.CreateTransferRecipient(paystackrepo.CreateRecipientReq{
		Name:          resolved.AccountName,
		AccountNumber: accountNumber,
		BankCode:      bankCode,
	})
	if err != nil {
		return nil, wrapErr(ErrGateway, err)
	}

	d := model.BankDetails{
		AccountNumber: accountNumber,
		BankCode:      bankCode,
		AccountName:   resolved.AccountName,
		RecipientCode: recipient.RecipientCode,
	}
	if err := s.ur.SetBankDetails(ctx, userID, d); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}
	return &d, nil
}

func (s *service) BankDetails(ctx context.Context, userID int64) (*model.BankDetails, error) {
	d, err := s.ur.BankDetails(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}
	return d, nil
}

func (s *service) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.wr.Balance(ctx, userID)
}

func (s *service) Transactions(ctx context.Context, userID int64, page, limit int) ([]model.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.wr.List(ctx, userID, page, limit)
}
