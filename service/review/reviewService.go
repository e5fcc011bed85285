package reviewsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Festivemena/ment/model"
	reviewrepo "github.com/Festivemena/ment/repository/review"
	userrepo "github.com/Festivemena/ment/repository/user"
	"github.com/Festivemena/ment/service/notify"
)

// errors used by controllers

type ErrCode string

const (
	ErrInvalidRating    ErrCode = "INVALID_RATING"
	ErrCreativeNotFound ErrCode = "CREATIVE_NOT_FOUND"
	ErrAlreadyRated     ErrCode = "ALREADY_RATED"
	ErrSelfRating       ErrCode = "SELF_RATING"
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

type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service interface {
	// Rate appends one review per (creative, client) pair and recomputes
	// the creative's average in the same transaction. The pair uniqueness
	// lives in the database, not an application-level read.
	Rate(ctx context.Context, clientID, creativeID int64, rating int, comment string) (float64, error)

	ListForCreative(ctx context.Context, creativeID int64) ([]model.Review, error)
}

type service struct {
	db DB
	rr reviewrepo.Repo
	ur userrepo.Repo
	n  notify.Emitter
}

func New(db DB, rr reviewrepo.Repo, ur userrepo.Repo, n notify.Emitter) Service {
	return &service{db: db, rr: rr, ur: ur, n: n}
}

func (s *service) Rate(ctx context.Context, clientID, creativeID int64, rating int, comment string) (avg float64, err error) {
	if rating < 1 || rating > 5 {
		return 0, makeErr(ErrInvalidRating)
	}
	if clientID == creativeID {
		return 0, makeErr(ErrSelfRating)
	}

	creative, err := s.ur.ByID(ctx, creativeID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return 0, makeErr(ErrCreativeNotFound)
		}
		return 0, err
	}
	if creative.Role != model.RoleCreative {
		return 0, makeErr(ErrCreativeNotFound)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	rv := &model.Review{CreativeID: creativeID, ClientID: clientID, Rating: rating, Comment: comment}
	if err = s.rr.Insert(ctx, tx, rv); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			err = makeErr(ErrAlreadyRated)
		}
		return 0, err
	}
	avg, err = s.rr.RecalcAvgRating(ctx, tx, creativeID)
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}

	s.n.Notify(ctx, creativeID, "rating", "You Got a Review!",
		fmt.Sprintf("A client rated you %d star(s).", rating))

	return avg, nil
}

func (s *service) ListForCreative(ctx context.Context, creativeID int64) ([]model.Review, error) {
	return s.rr.ListForCreative(ctx, creativeID)
}
