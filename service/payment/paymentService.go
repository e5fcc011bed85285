package paymentsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	paystackrepo "github.com/Festivemena/ment/repository/paystack"
	walletrepo "github.com/Festivemena/ment/repository/wallet"
	"github.com/Festivemena/ment/service/notify"
	"github.com/Festivemena/ment/util/money"
)

// ErrUnauthorized is returned for a missing or invalid webhook signature;
// nothing may change state before the signature passes.
var ErrUnauthorized = errors.New("webhook signature rejected")

type Service interface {
	// HandlePaystack applies one webhook delivery. Deliveries are
	// at-least-once and unordered; applying the same event twice must be a
	// no-op returning nil so the gateway stops retrying.
	HandlePaystack(ctx context.Context, sigHeader string, raw []byte) error
}

type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type service struct {
	db  DB
	ps  paystackrepo.Repo
	wr  walletrepo.Repo
	n   notify.Emitter
	log *slog.Logger
}

func New(db DB, ps paystackrepo.Repo, wr walletrepo.Repo, n notify.Emitter, log *slog.Logger) Service {
	return &service{db: db, ps: ps, wr: wr, n: n, log: log}
}

type chargeEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"` // minor units
		Status    string `json:"status"`
	} `json:"data"`
}

func (s *service) HandlePaystack(ctx context.Context, sigHeader string, raw []byte) error {
	// Verify over the exact raw bytes before any parsing.
	if err := s.ps.VerifyWebhookSignature(sigHeader, raw); err != nil {
		return ErrUnauthorized
	}

	var ev chargeEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("bad webhook json: %w", err)
	}

	switch ev.Event {
	case "charge.success":
		return s.onChargeSuccess(ctx, ev)
	default:
		// Transfer and other event families are acknowledged untouched.
		return nil
	}
}

func (s *service) onChargeSuccess(ctx context.Context, ev chargeEvent) (err error) {
	if ev.Data.Reference == "" || ev.Data.Amount <= 0 {
		return errors.New("missing charge fields")
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

	userID, _, ok, err := s.wr.MarkSuccessIfPending(ctx, tx, ev.Data.Reference)
	if err != nil {
		return err
	}
	if !ok {
		// Either we never issued this reference or the entry is already
		// terminal. Both are acknowledged so the sender stops retrying.
		// Nothing changed, so release the tx before answering.
		_ = tx.Rollback(ctx)
		if _, ferr := s.wr.FindByReference(ctx, ev.Data.Reference); ferr != nil {
			if errors.Is(ferr, walletrepo.ErrEntryNotFound) {
				s.log.Warn("webhook for unknown reference", "reference", ev.Data.Reference)
				return nil
			}
			return ferr
		}
		s.log.Info("duplicate webhook delivery", "reference", ev.Data.Reference)
		return nil
	}

	// The gateway's amount is authoritative for what was actually charged.
	bal, err := s.wr.Credit(ctx, tx, userID, ev.Data.Amount)
	if err != nil {
		return err
	}
	if err = s.wr.SetBalanceAfter(ctx, tx, ev.Data.Reference, bal); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}

	s.n.Notify(ctx, userID, "deposit", "Deposit Successful",
		fmt.Sprintf("₦%.2f was added to your wallet.", money.ToMajor(ev.Data.Amount)))
	return nil
}
