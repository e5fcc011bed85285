package notificationrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Festivemena/ment/model"
)

type Repo interface {
	Insert(ctx context.Context, n *model.Notification) error
	ListForUser(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) (bool, error)
}

type repo struct{ db *pgxpool.Pool }

func New(db *pgxpool.Pool) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, n *model.Notification) error {
	const q = `
INSERT INTO notifications (user_id, kind, title, body)
VALUES ($1,$2,$3,$4)
RETURNING id, created_at`
	return r.db.QueryRow(ctx, q, n.UserID, n.Kind, n.Title, n.Body).Scan(&n.ID, &n.CreatedAt)
}

func (r *repo) ListForUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	const q = `
SELECT id, user_id, kind, title, body, read, created_at
FROM notifications WHERE user_id=$1 ORDER BY created_at DESC LIMIT 100`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *repo) MarkRead(ctx context.Context, userID, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET read=TRUE WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
