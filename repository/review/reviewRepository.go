package reviewrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Festivemena/ment/model"
)

type Repo interface {
	// Insert appends one review. The (creative_id, client_id) unique
	// constraint surfaces a duplicate as a pg unique violation.
	Insert(ctx context.Context, tx pgx.Tx, rv *model.Review) error

	// RecalcAvgRating recomputes the creative's average from the reviews
	// table inside the same transaction as the insert and returns it.
	RecalcAvgRating(ctx context.Context, tx pgx.Tx, creativeID int64) (float64, error)

	ListForCreative(ctx context.Context, creativeID int64) ([]model.Review, error)
}

type repo struct{ db *pgxpool.Pool }

func New(db *pgxpool.Pool) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, rv *model.Review) error {
	const q = `
INSERT INTO reviews (creative_id, client_id, rating, comment)
VALUES ($1,$2,$3,$4)
RETURNING id, created_at`
	return tx.QueryRow(ctx, q, rv.CreativeID, rv.ClientID, rv.Rating, rv.Comment).
		Scan(&rv.ID, &rv.CreatedAt)
}

func (r *repo) RecalcAvgRating(ctx context.Context, tx pgx.Tx, creativeID int64) (float64, error) {
	const q = `
UPDATE users
SET avg_rating = (SELECT COALESCE(AVG(rating),0) FROM reviews WHERE creative_id=$1)
WHERE id = $1
RETURNING avg_rating`
	var avg float64
	if err := tx.QueryRow(ctx, q, creativeID).Scan(&avg); err != nil {
		return 0, err
	}
	return avg, nil
}

func (r *repo) ListForCreative(ctx context.Context, creativeID int64) ([]model.Review, error) {
	const q = `
SELECT id, creative_id, client_id, rating, COALESCE(comment,''), created_at
FROM reviews WHERE creative_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, creativeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.CreativeID, &rv.ClientID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
