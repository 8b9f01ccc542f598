package queries

import (
	"context"
	"errors"
	"time"

	"flashdrop/internal/infra"
	"flashdrop/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDropNotFound = errors.New("drop not found")

type DropView struct {
	ID              uuid.UUID
	Name            string
	PriceCents      int64
	TotalStock      int32
	AvailableStock  int32
	StartsAt        time.Time
	EndsAt          *time.Time
	ImageURL        *string
	CreatedAt       time.Time
	RecentPurchases []PurchaseSummary
}

type PurchaseSummary struct {
	BuyerID        uuid.UUID
	PricePaidCents int64
	CreatedAt      time.Time
}

type DropQueries interface {
	// ListLive returns drops whose sale window contains now, newest first, each
	// with its latest purchases for the storefront ticker.
	ListLive(ctx context.Context) ([]*DropView, error)
	GetByID(ctx context.Context, id uuid.UUID) (*DropView, error)
}

const recentPurchasesPerDrop = 3

type dropQueriesImpl struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

func NewDropQueries(pool *pgxpool.Pool, clk clock.Clock) DropQueries {
	return &dropQueriesImpl{pool: pool, clock: clk}
}

func (q *dropQueriesImpl) ListLive(ctx context.Context) ([]*DropView, error) {
	const query = `
SELECT id, name, price_cents, total_stock, available_stock, starts_at, ends_at, image_url, created_at
FROM drops
WHERE starts_at <= $1 AND (ends_at IS NULL OR ends_at >= $1)
ORDER BY created_at DESC`

	now := q.clock.Now()
	rows, err := q.pool.Query(ctx, query, now)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to list drops", err)
	}
	defer rows.Close()

	var views []*DropView
	for rows.Next() {
		v, err := scanDropView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to iterate drops", err)
	}

	for _, v := range views {
		purchases, err := q.recentPurchases(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		v.RecentPurchases = purchases
	}
	return views, nil
}

func (q *dropQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*DropView, error) {
	const query = `
SELECT id, name, price_cents, total_stock, available_stock, starts_at, ends_at, image_url, created_at
FROM drops
WHERE id = $1`

	v, err := scanDropView(q.pool.QueryRow(ctx, query, id))
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrDropNotFound
		}
		return nil, err
	}

	purchases, err := q.recentPurchases(ctx, id)
	if err != nil {
		return nil, err
	}
	v.RecentPurchases = purchases
	return v, nil
}

func (q *dropQueriesImpl) recentPurchases(ctx context.Context, dropID uuid.UUID) ([]PurchaseSummary, error) {
	const query = `
SELECT buyer_id, price_paid_cents, created_at
FROM purchases
WHERE drop_id = $1
ORDER BY created_at DESC
LIMIT $2`

	rows, err := q.pool.Query(ctx, query, dropID, recentPurchasesPerDrop)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to list recent purchases", err)
	}
	defer rows.Close()

	var purchases []PurchaseSummary
	for rows.Next() {
		var p PurchaseSummary
		if err := rows.Scan(&p.BuyerID, &p.PricePaidCents, &p.CreatedAt); err != nil {
			return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to scan purchase", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to iterate purchases", err)
	}
	return purchases, nil
}

func scanDropView(row pgx.Row) (*DropView, error) {
	var v DropView
	err := row.Scan(&v.ID, &v.Name, &v.PriceCents, &v.TotalStock, &v.AvailableStock, &v.StartsAt, &v.EndsAt, &v.ImageURL, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "drop not found", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to scan drop", err)
	}
	return &v, nil
}
