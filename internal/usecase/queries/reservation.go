package queries

import (
	"context"
	"errors"
	"time"

	"flashdrop/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrReservationNotFound = errors.New("reservation not found")

type ReservationView struct {
	ID         uuid.UUID
	DropID     uuid.UUID
	BuyerID    uuid.UUID
	Status     string
	PriceCents int64
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

type ReservationQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*ReservationView, error)
}

type reservationQueriesImpl struct {
	pool *pgxpool.Pool
}

func NewReservationQueries(pool *pgxpool.Pool) ReservationQueries {
	return &reservationQueriesImpl{pool: pool}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	const query = `
SELECT id, drop_id, buyer_id, status, price_cents, created_at, expires_at
FROM reservations
WHERE id = $1`

	var v ReservationView
	err := q.pool.QueryRow(ctx, query, id).
		Scan(&v.ID, &v.DropID, &v.BuyerID, &v.Status, &v.PriceCents, &v.CreatedAt, &v.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to find reservation", err)
	}
	return &v, nil
}

func (q *reservationQueriesImpl) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*ReservationView, error) {
	const query = `
SELECT id, drop_id, buyer_id, status, price_cents, created_at, expires_at
FROM reservations
WHERE buyer_id = $1
ORDER BY created_at DESC`

	rows, err := q.pool.Query(ctx, query, buyerID)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to list reservations", err)
	}
	defer rows.Close()

	var views []*ReservationView
	for rows.Next() {
		var v ReservationView
		if err := rows.Scan(&v.ID, &v.DropID, &v.BuyerID, &v.Status, &v.PriceCents, &v.CreatedAt, &v.ExpiresAt); err != nil {
			return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to scan reservation", err)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to iterate reservations", err)
	}
	return views, nil
}
