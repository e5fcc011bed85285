package referralrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Festivemena/ment/model"
)

var ErrNoPending = errors.New("no pending referral")

type LeaderboardRow struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Referrals int64  `json:"total_referrals"`
	Earnings  int64  `json:"total_earnings"`
}

type Repo interface {
	Insert(ctx context.Context, ref *model.Referral) error

	// CompletePending flips the unique pending referral for a referred user
	// to completed in one guarded update. ErrNoPending when there is none;
	// a second completion trigger therefore cannot pay twice.
	CompletePending(ctx context.Context, tx pgx.Tx, referredID int64) (*model.Referral, error)

	Stats(ctx context.Context, referrerID int64) (*model.ReferralStats, error)
	History(ctx context.Context, referrerID int64, page, limit int) ([]model.Referral, int64, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
}

type repo struct{ db *pgxpool.Pool }

func New(db *pgxpool.Pool) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, ref *model.Referral) error {
	const q = `
INSERT INTO referrals (referrer_id, referred_id, code, reward_amount, status)
VALUES ($1,$2,upper($3),$4,'pending')
RETURNING id, created_at`
	return r.db.QueryRow(ctx, q,
		ref.ReferrerID, ref.ReferredID, ref.Code, ref.RewardAmount,
	).Scan(&ref.ID, &ref.CreatedAt)
}

func (r *repo) CompletePending(ctx context.Context, tx pgx.Tx, referredID int64) (*model.Referral, error) {
	const q = `
UPDATE referrals SET status='completed', completed_at=now()
WHERE referred_id = $1 AND status = 'pending'
RETURNING id, referrer_id, referred_id, code, reward_amount, status, completed_at, created_at`
	ref := &model.Referral{}
	err := tx.QueryRow(ctx, q, referredID).Scan(
		&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.Code, &ref.RewardAmount,
		&ref.Status, &ref.CompletedAt, &ref.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoPending
	}
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *repo) Stats(ctx context.Context, referrerID int64) (*model.ReferralStats, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status='completed'),
       COUNT(*) FILTER (WHERE status='pending'),
       COALESCE(SUM(reward_amount) FILTER (WHERE status='completed'), 0)
FROM referrals WHERE referrer_id = $1`
	s := &model.ReferralStats{}
	err := r.db.QueryRow(ctx, q, referrerID).Scan(&s.Total, &s.Completed, &s.Pending, &s.Earnings)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repo) History(ctx context.Context, referrerID int64, page, limit int) ([]model.Referral, int64, error) {
	const q = `
SELECT id, referrer_id, referred_id, code, reward_amount, status, completed_at, created_at
FROM referrals
WHERE referrer_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, q, referrerID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Referral
	for rows.Next() {
		var ref model.Referral
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.Code,
			&ref.RewardAmount, &ref.Status, &ref.CompletedAt, &ref.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM referrals WHERE referrer_id=$1`, referrerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repo) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	const q = `
SELECT r.referrer_id, u.username, COUNT(*), COALESCE(SUM(r.reward_amount),0)
FROM referrals r
JOIN users u ON u.id = r.referrer_id
WHERE r.status = 'completed'
GROUP BY r.referrer_id, u.username
ORDER BY COUNT(*) DESC
LIMIT $1`
	rows, err := r.db.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var lr LeaderboardRow
		if err := rows.Scan(&lr.UserID, &lr.Username, &lr.Referrals, &lr.Earnings); err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}
