package userrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Festivemena/ment/model"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrCodeAlreadySet = errors.New("referral code already set")
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
	ByReferralCode(ctx context.Context, code string) (*model.User, error)

	SetReferralCode(ctx context.Context, userID int64, code string) error

	// SetBankDetails is an explicit setter for the payout destination; the
	// wallet-adjacent columns are never written via a generic field copy.
	SetBankDetails(ctx context.Context, userID int64, d model.BankDetails) error
	BankDetails(ctx context.Context, userID int64) (*model.BankDetails, error)
}

type repo struct{ db *pgxpool.Pool }

func New(db *pgxpool.Pool) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO users(role, first_name, last_name, username, email, password_hash)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		u.Role, u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
}

const userCols = `id, role, first_name, last_name, username, email, password_hash,
	balance, referral_code, avg_rating, created_at`

func (r *repo) scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Role, &u.FirstName, &u.LastName, &u.Username, &u.Email,
		&u.PasswordHash, &u.Balance, &u.ReferralCode, &u.AvgRating, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.scanUser(r.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	return r.scanUser(r.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *repo) ByReferralCode(ctx context.Context, code string) (*model.User, error) {
	return r.scanUser(r.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE referral_code = upper($1)`, code))
}

func (r *repo) SetReferralCode(ctx context.Context, userID int64, code string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET referral_code = upper($2) WHERE id = $1 AND referral_code IS NULL`,
		userID, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCodeAlreadySet
	}
	return nil
}

func (r *repo) SetBankDetails(ctx context.Context, userID int64, d model.BankDetails) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET bank_account_number=$2, bank_code=$3, bank_account_name=$4, recipient_code=$5
		WHERE id=$1`,
		userID, d.AccountNumber, d.BankCode, d.AccountName, d.RecipientCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) BankDetails(ctx context.Context, userID int64) (*model.BankDetails, error) {
	var acct, code, name, recipient *string
	err := r.db.QueryRow(ctx, `
		SELECT bank_account_number, bank_code, bank_account_name, recipient_code
		FROM users WHERE id=$1`, userID,
	).Scan(&acct, &code, &name, &recipient)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if acct == nil || recipient == nil {
		return nil, nil
	}
	return &model.BankDetails{
		AccountNumber: *acct,
		BankCode:      *code,
		AccountName:   *name,
		RecipientCode: *recipient,
	}, nil
}
