package bookingrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Festivemena/ment/model"
)

var ErrNotFound = errors.New("booking not found")

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, b *model.Booking) error
	ByID(ctx context.Context, id int64) (*model.Booking, error)

	// CompleteIfOngoing transitions ongoing -> completed and zeroes the hold
	// in one guarded update, returning the creative and the amount that was
	// held. ok is false when the booking was not ongoing.
	CompleteIfOngoing(ctx context.Context, tx pgx.Tx, id int64) (creativeID, held int64, ok bool, err error)

	// CancelIfOngoing transitions ongoing -> cancelled and zeroes the hold,
	// returning the client and the held amount to refund.
	CancelIfOngoing(ctx context.Context, tx pgx.Tx, id int64) (clientID, held int64, ok bool, err error)

	ListForUser(ctx context.Context, userID int64) ([]model.Booking, error)
}

type repo struct{ db *pgxpool.Pool }

func New(db *pgxpool.Pool) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, b *model.Booking) error {
	const q = `
INSERT INTO bookings (client_id, creative_id, scheduled_at, location_lat, location_lng, total_price, upfront_amount, held_amount, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id, created_at`
	return tx.QueryRow(ctx, q,
		b.ClientID, b.CreativeID, b.ScheduledAt, b.LocationLat, b.LocationLng,
		b.TotalPrice, b.UpfrontAmount, b.HeldAmount, b.Status,
	).Scan(&b.ID, &b.CreatedAt)
}

const bookingCols = `id, client_id, creative_id, scheduled_at, location_lat, location_lng,
	total_price, upfront_amount, held_amount, status, created_at`

func (r *repo) ByID(ctx context.Context, id int64) (*model.Booking, error) {
	b := &model.Booking{}
	err := r.db.QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id=$1`, id).Scan(
		&b.ID, &b.ClientID, &b.CreativeID, &b.ScheduledAt, &b.LocationLat, &b.LocationLng,
		&b.TotalPrice, &b.UpfrontAmount, &b.HeldAmount, &b.Status, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) CompleteIfOngoing(ctx context.Context, tx pgx.Tx, id int64) (int64, int64, bool, error) {
	const q = `
UPDATE bookings SET status='completed', held_amount=0
WHERE id = $1 AND status = 'ongoing'
RETURNING creative_id, (SELECT held_amount FROM bookings WHERE id=$1)`
	// RETURNING sees the new row, so the held amount is captured by the
	// subselect evaluated before the update applies.
	var creativeID, held int64
	err := tx.QueryRow(ctx, q, id).Scan(&creativeID, &held)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return creativeID, held, true, nil
}

func (r *repo) CancelIfOngoing(ctx context.Context, tx pgx.Tx, id int64) (int64, int64, bool, error) {
	const q = `
UPDATE bookings SET status='cancelled', held_amount=0
WHERE id = $1 AND status = 'ongoing'
RETURNING client_id, (SELECT held_amount FROM bookings WHERE id=$1)`
	var clientID, held int64
	err := tx.QueryRow(ctx, q, id).Scan(&clientID, &held)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return clientID, held, true, nil
}

func (r *repo) ListForUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + `
FROM bookings WHERE client_id=$1 OR creative_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.ClientID, &b.CreativeID, &b.ScheduledAt,
			&b.LocationLat, &b.LocationLng, &b.TotalPrice, &b.UpfrontAmount,
			&b.HeldAmount, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
