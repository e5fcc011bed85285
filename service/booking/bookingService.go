package bookingsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Festivemena/ment/model"
	bookingrepo "github.com/Festivemena/ment/repository/booking"
	userrepo "github.com/Festivemena/ment/repository/user"
	walletrepo "github.com/Festivemena/ment/repository/wallet"
	"github.com/Festivemena/ment/service/notify"
	"github.com/Festivemena/ment/util/money"
	"github.com/Festivemena/ment/util/ref"
)

// upfrontRatioBP is the share of the total released to the creative at
// booking time, in basis points. The remainder is held until completion.
const upfrontRatioBP = 2500

// errors used by controllers

type ErrCode string

const (
	ErrInvalidAmount     ErrCode = "INVALID_AMOUNT"
	ErrInsufficientFunds ErrCode = "INSUFFICIENT_FUNDS"
	ErrCreativeNotFound  ErrCode = "CREATIVE_NOT_FOUND"
	ErrSelfBooking       ErrCode = "SELF_BOOKING"
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrNotOwner          ErrCode = "NOT_OWNER"
	ErrInvalidState      ErrCode = "INVALID_STATE"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// dto

type CreateReq struct {
	ClientID    int64
	CreativeID  int64
	ScheduledAt time.Time
	LocationLat float64
	LocationLng float64
	TotalPrice  int64 // minor units
}

type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service interface {
	// Create takes the full price from the client, pays the upfront share
	// to the creative and escrows the rest. The debit, both credits' ledger
	// entries and the booking row commit as one unit.
	Create(ctx context.Context, req CreateReq) (*model.Booking, error)

	// Complete releases the held remainder to the creative. Only valid from
	// ongoing; a second call fails ErrInvalidState with balances untouched.
	Complete(ctx context.Context, clientID, bookingID int64) (*model.Booking, error)

	// Cancel returns the held remainder to the client. The upfront already
	// paid out stays with the creative; it is non-refundable by policy.
	Cancel(ctx context.Context, clientID, bookingID int64) (*model.Booking, error)

	// Tip moves amount from client to creative immediately, one entry per
	// party under a shared reference stem.
	Tip(ctx context.Context, clientID, creativeID, amount int64) error

	ListMine(ctx context.Context, userID int64) ([]model.Booking, error)
}

type service struct {
	db DB
	br bookingrepo.Repo
	ur userrepo.Repo
	wr walletrepo.Repo
	n  notify.Emitter
}

func New(db DB, br bookingrepo.Repo, ur userrepo.Repo, wr walletrepo.Repo, n notify.Emitter) Service {
	return &service{db: db, br: br, ur: ur, wr: wr, n: n}
}

// Split returns the upfront/held division of a total price. Integer minor
// units keep upfront+held == total exact for any input.
func Split(total int64) (upfront, held int64) {
	upfront = total * upfrontRatioBP / 10000
	return upfront, total - upfront
}

func (s *service) Create(ctx context.Context, req CreateReq) (*model.Booking, error) {
	if req.TotalPrice <= 0 {
		return nil, makeErr(ErrInvalidAmount)
	}
	if req.ClientID == req.CreativeID {
		return nil, makeErr(ErrSelfBooking)
	}

	creative, err := s.ur.ByID(ctx, req.CreativeID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, makeErr(ErrCreativeNotFound)
		}
		return nil, err
	}
	if creative.Role != model.RoleCreative {
		return nil, makeErr(ErrCreativeNotFound)
	}

	upfront, held := Split(req.TotalPrice)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	b := &model.Booking{
		ClientID:      req.ClientID,
		CreativeID:    req.CreativeID,
		ScheduledAt:   req.ScheduledAt,
		LocationLat:   req.LocationLat,
		LocationLng:   req.LocationLng,
		TotalPrice:    req.TotalPrice,
		UpfrontAmount: upfront,
		HeldAmount:    held,
		Status:        model.BookingOngoing,
	}
	if err = s.br.Insert(ctx, tx, b); err != nil {
		return nil, err
	}

	clientBal, err := s.wr.Debit(ctx, tx, req.ClientID, req.TotalPrice)
	if err != nil {
		if errors.Is(err, walletrepo.ErrInsufficientFunds) {
			return nil, makeErr(ErrInsufficientFunds)
		}
		return nil, err
	}
	creativeBal, err := s.wr.Credit(ctx, tx, req.CreativeID, upfront)
	if err != nil {
		return nil, err
	}

	refTable := "bookings"
	if err = s.wr.InsertEntry(ctx, tx, &model.Transaction{
		UserID:       req.ClientID,
		Kind:         model.TxnBookingPayment,
		Direction:    model.DirDebit,
		Amount:       req.TotalPrice,
		Status:       model.TxnSuccess,
		Reference:    ref.New(ref.PrefixBooking),
		Description:  fmt.Sprintf("Booking payment to %s", creative.Username),
		RefTable:     &refTable,
		RefID:        &b.ID,
		BalanceAfter: &clientBal,
	}); err != nil {
		return nil, err
	}
	if err = s.wr.InsertEntry(ctx, tx, &model.Transaction{
		UserID:       req.CreativeID,
		Kind:         model.TxnPayout,
		Direction:    model.DirCredit,
		Amount:       upfront,
		Status:       model.TxnSuccess,
		Reference:    ref.New(ref.PrefixPayout),
		Description:  "Upfront payout for booking",
		RefTable:     &refTable,
		RefID:        &b.ID,
		BalanceAfter: &creativeBal,
	}); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.n.Notify(ctx, req.ClientID, "booking", "Booking Confirmed",
		fmt.Sprintf("You booked %s for ₦%.2f.", creative.Username, money.ToMajor(req.TotalPrice)))
	s.n.Notify(ctx, req.CreativeID, "booking", "New Booking",
		fmt.Sprintf("You were booked. ₦%.2f paid upfront.", money.ToMajor(upfront)))

	return b, nil
}

func (s *service) Complete(ctx context.Context, clientID, bookingID int64) (*model.Booking, error) {
	b, err := s.br.ByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingrepo.ErrNotFound) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if b.ClientID != clientID {
		return nil, makeErr(ErrNotOwner)
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

	creativeID, held, ok, err := s.br.CompleteIfOngoing(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if !ok {
		err = makeErr(ErrInvalidState)
		return nil, err
	}

	creativeBal, err := s.wr.Credit(ctx, tx, creativeID, held)
	if err != nil {
		return nil, err
	}
	refTable := "bookings"
	if err = s.wr.InsertEntry(ctx, tx, &model.Transaction{
		UserID:       creativeID,
		Kind:         model.TxnPayout,
		Direction:    model.DirCredit,
		Amount:       held,
		Status:       model.TxnSuccess,
		Reference:    ref.New(ref.PrefixFinal),
		Description:  "Final payout from booking completion",
		RefTable:     &refTable,
		RefID:        &bookingID,
		BalanceAfter: &creativeBal,
	}); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.n.Notify(ctx, creativeID, "booking", "Booking Completed",
		fmt.Sprintf("You received ₦%.2f from a completed booking.", money.ToMajor(held)))
	s.n.Notify(ctx, clientID, "booking", "Booking Completed",
		"Your booking was marked as completed.")

	b.Status = model.BookingCompleted
	b.HeldAmount = 0
	return b, nil
}

func (s *service) Cancel(ctx context.Context, clientID, bookingID int64) (*model.Booking, error) {
	b, err := s.br.ByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingrepo.ErrNotFound) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if b.ClientID != clientID {
		return nil, makeErr(ErrNotOwner)
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

	ownerID, held, ok, err := s.br.CancelIfOngoing(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if !ok {
		err = makeErr(ErrInvalidState)
		return nil, err
	}

	clientBal, err := s.wr.Credit(ctx, tx, ownerID, held)
	if err != nil {
		return nil, err
	}
	refTable := "bookings"
	if err = s.wr.InsertEntry(ctx, tx, &model.Transaction{
		UserID:       ownerID,
		Kind:         model.TxnRefund,
		Direction:    model.DirCredit,
		Amount:       held,
		Status:       model.TxnSuccess,
		Reference:    ref.New(ref.PrefixRefund),
		Description:  "Escrow refund from cancelled booking",
		RefTable:     &refTable,
		RefID:        &bookingID,
		BalanceAfter: &clientBal,
	}); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.n.Notify(ctx, clientID, "booking", "Booking Cancelled",
		fmt.Sprintf("₦%.2f held for the booking was returned to your wallet.", money.ToMajor(held)))
	s.n.Notify(ctx, b.CreativeID, "booking", "Booking Cancelled",
		"A booking with you was cancelled. The upfront payment is yours to keep.")

	b.Status = model.BookingCancelled
	b.HeldAmount = 0
	return b, nil
}

func (s *service) Tip(ctx context.Context, clientID, creativeID, amount int64) error {
	if amount <= 0 {
		return makeErr(ErrInvalidAmount)
	}
	if clientID == creativeID {
		return makeErr(ErrSelfBooking)
	}

	creative, err := s.ur.ByID(ctx, creativeID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return makeErr(ErrCreativeNotFound)
		}
		return err
	}
	if creative.Role != model.RoleCreative {
		return makeErr(ErrCreativeNotFound)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	clientBal, err := s.wr.Debit(ctx, tx, clientID, amount)
	if err != nil {
		if errors.Is(err, walletrepo.ErrInsufficientFunds) {
			return makeErr(ErrInsufficientFunds)
		}
		return err
	}
	creativeBal, err := s.wr.Credit(ctx, tx, creativeID, amount)
	if err != nil {
		return err
	}

	stem := ref.New(ref.PrefixTip)
	if err = s.wr.InsertEntry(ctx, tx, &model.Transaction{
		UserID:       clientID,
		Kind:         model.TxnTip,
		Direction:    model.DirDebit,
		Amount:       amount,
		Status:       model.TxnSuccess,
		Reference:    stem + "_out",
		Description:  fmt.Sprintf("Tip sent to %s", creative.Username),
		BalanceAfter: &clientBal,
	}); err != nil {
		return err
	}
	if err = s.wr.InsertEntry(ctx, tx, &model.Transaction{
		UserID:       creativeID,
		Kind:         model.TxnTip,
		Direction:    model.DirCredit,
		Amount:       amount,
		Status:       model.TxnSuccess,
		Reference:    stem + "_in",
		Description:  "Tip received",
		BalanceAfter: &creativeBal,
	}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}

	s.n.Notify(ctx, clientID, "tip", "You Tipped a Creative",
		fmt.Sprintf("You sent ₦%.2f to %s.", money.ToMajor(amount), creative.Username))
	s.n.Notify(ctx, creativeID, "tip", "You Got Tipped!",
		fmt.Sprintf("You received a ₦%.2f tip.", money.ToMajor(amount)))

	return nil
}

func (s *service) ListMine(ctx context.Context, userID int64) ([]model.Booking, error) {
	return s.br.ListForUser(ctx, userID)
}
