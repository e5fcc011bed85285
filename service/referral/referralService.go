package referralsvc

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Festivemena/ment/model"
	referralrepo "github.com/Festivemena/ment/repository/referral"
	userrepo "github.com/Festivemena/ment/repository/user"
	walletrepo "github.com/Festivemena/ment/repository/wallet"
	"github.com/Festivemena/ment/service/notify"
	"github.com/Festivemena/ment/util/money"
	"github.com/Festivemena/ment/util/ref"
)

// errors used by controllers

type ErrCode string

const (
	ErrInvalidCode     ErrCode = "INVALID_CODE"
	ErrAlreadyReferred ErrCode = "ALREADY_REFERRED"
	ErrSelfReferral    ErrCode = "SELF_REFERRAL"
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrUserNotFound    ErrCode = "USER_NOT_FOUND"
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

type Info struct {
	Code  string               `json:"referral_code"`
	Stats *model.ReferralStats `json:"stats"`
}

type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service interface {
	// Apply records a pending referral for a newly registered user. A user
	// can only ever be referred once.
	Apply(ctx context.Context, code string, newUserID int64) (*model.Referral, error)

	// Complete settles the unique pending referral for the referred user:
	// the check-and-set and the referrer's reward credit commit together, so
	// a duplicate trigger finds nothing pending and fails ErrNotFound.
	Complete(ctx context.Context, referredUserID int64) (*model.Referral, error)

	Info(ctx context.Context, userID int64) (*Info, error)
	History(ctx context.Context, userID int64, page, limit int) ([]model.Referral, int64, error)
	Leaderboard(ctx context.Context, limit int) ([]referralrepo.LeaderboardRow, error)
	Validate(ctx context.Context, code string) (*model.User, int64, error)
}

type service struct {
	db     DB
	rr     referralrepo.Repo
	ur     userrepo.Repo
	wr     walletrepo.Repo
	n      notify.Emitter
	reward int64 // minor units
}

func New(db DB, rr referralrepo.Repo, ur userrepo.Repo, wr walletrepo.Repo, n notify.Emitter, reward int64) Service {
	return &service{db: db, rr: rr, ur: ur, wr: wr, n: n, reward: reward}
}

func (s *service) Apply(ctx context.Context, code string, newUserID int64) (*model.Referral, error) {
	referrer, err := s.ur.ByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, makeErr(ErrInvalidCode)
		}
		return nil, err
	}
	if referrer.ID == newUserID {
		return nil, makeErr(ErrSelfReferral)
	}

	r := &model.Referral{
		ReferrerID:   referrer.ID,
		ReferredID:   newUserID,
		Code:         code,
		RewardAmount: s.reward,
		Status:       model.ReferralPending,
	}
	if err := s.rr.Insert(ctx, r); err != nil {
		if isUniqueViolation(err) {
			return nil, makeErr(ErrAlreadyReferred)
		}
		return nil, err
	}

	s.n.Notify(ctx, referrer.ID, "referral", "New Referral!",
		"Someone joined using your referral code!")
	return r, nil
}

func (s *service) Complete(ctx context.Context, referredUserID int64) (ret *model.Referral, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	r, err := s.rr.CompletePending(ctx, tx, referredUserID)
	if err != nil {
		if errors.Is(err, referralrepo.ErrNoPending) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	bal, err := s.wr.Credit(ctx, tx, r.ReferrerID, r.RewardAmount)
	if err != nil {
		return nil, err
	}
	refTable := "referrals"
	if err = s.wr.InsertEntry(ctx, tx, &model.Transaction{
		UserID:       r.ReferrerID,
		Kind:         model.TxnReferralReward,
		Direction:    model.DirCredit,
		Amount:       r.RewardAmount,
		Status:       model.TxnSuccess,
		Reference:    ref.New(ref.PrefixReferral),
		Description:  "Referral reward",
		RefTable:     &refTable,
		RefID:        &r.ID,
		BalanceAfter: &bal,
	}); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.n.Notify(ctx, r.ReferrerID, "referral", "Referral Reward Earned!",
		fmt.Sprintf("You earned ₦%.2f for a referral!", money.ToMajor(r.RewardAmount)))
	s.n.Notify(ctx, referredUserID, "referral", "Welcome Bonus!",
		"Thanks for joining through a referral! Your friend has earned a reward.")

	return r, nil
}

func (s *service) Info(ctx context.Context, userID int64) (*Info, error) {
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, makeErr(ErrUserNotFound)
		}
		return nil, err
	}

	code := ""
	if u.ReferralCode != nil {
		code = *u.ReferralCode
	} else {
		code, err = s.assignCode(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	stats, err := s.rr.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Info{Code: code, Stats: stats}, nil
}

// assignCode generates a fresh code, retrying the rare collision with an
// existing user's code.
func (s *service) assignCode(ctx context.Context, userID int64) (string, error) {
	for i := 0; i < 5; i++ {
		code := generateCode()
		err := s.ur.SetReferralCode(ctx, userID, code)
		if err == nil {
			return code, nil
		}
		if isUniqueViolation(err) {
			continue
		}
		if errors.Is(err, userrepo.ErrCodeAlreadySet) {
			// Raced with another request that assigned one.
			u, rerr := s.ur.ByID(ctx, userID)
			if rerr != nil {
				return "", rerr
			}
			if u.ReferralCode != nil {
				return *u.ReferralCode, nil
			}
		}
		return "", err
	}
	return "", errors.New("could not assign referral code")
}

func (s *service) History(ctx context.Context, userID int64, page, limit int) ([]model.Referral, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.rr.History(ctx, userID, page, limit)
}

func (s *service) Leaderboard(ctx context.Context, limit int) ([]referralrepo.LeaderboardRow, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.rr.Leaderboard(ctx, limit)
}

func (s *service) Validate(ctx context.Context, code string) (*model.User, int64, error) {
	u, err := s.ur.ByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, 0, makeErr(ErrInvalidCode)
		}
		return nil, 0, err
	}
	return u, s.reward, nil
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateCode() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
