package walletrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Festivemena/ment/model"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrEntryNotFound     = errors.New("ledger entry not found")
)

// Repo holds the only two balance mutations in the system. Both are single
// conditional UPDATEs so concurrent requests serialize at the row; balances
// are never read into memory and written back.
type Repo interface {
	// Credit adds amount to the balance and returns the new balance.
	Credit(ctx context.Context, tx pgx.Tx, userID, amount int64) (int64, error)
	// Debit subtracts amount only if the balance covers it, in one atomic
	// step. Returns ErrInsufficientFunds when it does not.
	Debit(ctx context.Context, tx pgx.Tx, userID, amount int64) (int64, error)

	Balance(ctx context.Context, userID int64) (int64, error)

	// InsertEntry appends one ledger row. Exactly one row per balance
	// mutation; pending gateway entries are inserted before any mutation.
	InsertEntry(ctx context.Context, tx pgx.Tx, e *model.Transaction) error

	FindByReference(ctx context.Context, reference string) (*model.Transaction, error)

	// MarkSuccessIfPending flips a pending entry to success. ok is false when
	// the entry was not pending, which makes repeated webhook delivery a
	// no-op.
	MarkSuccessIfPending(ctx context.Context, tx pgx.Tx, reference string) (userID, amount int64, ok bool, err error)

	SetBalanceAfter(ctx context.Context, tx pgx.Tx, reference string, balanceAfter int64) error

	List(ctx context.Context, userID int64, page, limit int) ([]model.Transaction, int64, error)
}

type repo struct{ db *pgxpool.Pool }

func New(db *pgxpool.Pool) Repo { return &repo{db} }

func (r *repo) Credit(ctx context.Context, tx pgx.Tx, userID, amount int64) (int64, error) {
	const q = `UPDATE users SET balance = balance + $2 WHERE id = $1 RETURNING balance`
	var bal int64
	if err := tx.QueryRow(ctx, q, userID, amount).Scan(&bal); err != nil {
		return 0, err
	}
	return bal, nil
}

func (r *repo) Debit(ctx context.Context, tx pgx.Tx, userID, amount int64) (int64, error) {
	const q = `
UPDATE users SET balance = balance - $2
WHERE id = $1 AND balance >= $2
RETURNING balance`
	var bal int64
	err := tx.QueryRow(ctx, q, userID, amount).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInsufficientFunds
	}
	if err != nil {
		return 0, err
	}
	return bal, nil
}

func (r *repo) Balance(ctx context.Context, userID int64) (int64, error) {
	var bal int64
	err := r.db.QueryRow(ctx, `SELECT balance FROM users WHERE id=$1`, userID).Scan(&bal)
	return bal, err
}

func (r *repo) InsertEntry(ctx context.Context, tx pgx.Tx, e *model.Transaction) error {
	const q = `
INSERT INTO transactions (user_id, kind, direction, amount, status, reference, description, ref_table, ref_id, balance_after)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id, created_at`
	return tx.QueryRow(ctx, q,
		e.UserID, e.Kind, e.Direction, e.Amount, e.Status, e.Reference,
		e.Description, e.RefTable, e.RefID, e.BalanceAfter,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *repo) FindByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	const q = `
SELECT id, user_id, kind, direction, amount, status, reference, description, ref_table, ref_id, balance_after, created_at
FROM transactions WHERE reference = $1`
	e := &model.Transaction{}
	err := r.db.QueryRow(ctx, q, reference).Scan(
		&e.ID, &e.UserID, &e.Kind, &e.Direction, &e.Amount, &e.Status, &e.Reference,
		&e.Description, &e.RefTable, &e.RefID, &e.BalanceAfter, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *repo) MarkSuccessIfPending(ctx context.Context, tx pgx.Tx, reference string) (int64, int64, bool, error) {
	const q = `
UPDATE transactions SET status='success'
WHERE reference = $1 AND status = 'pending'
RETURNING user_id, amount`
	var userID, amount int64
	err := tx.QueryRow(ctx, q, reference).Scan(&userID, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return userID, amount, true, nil
}

func (r *repo) SetBalanceAfter(ctx context.Context, tx pgx.Tx, reference string, balanceAfter int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE transactions SET balance_after=$2 WHERE reference=$1`, reference, balanceAfter)
	return err
}

func (r *repo) List(ctx context.Context, userID int64, page, limit int) ([]model.Transaction, int64, error) {
	const q = `
SELECT id, user_id, kind, direction, amount, status, reference, description, ref_table, ref_id, balance_after, created_at
FROM transactions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, q, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var e model.Transaction
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.Direction, &e.Amount, &e.Status,
			&e.Reference, &e.Description, &e.RefTable, &e.RefID, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
