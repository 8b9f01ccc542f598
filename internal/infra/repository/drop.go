package repository

import (
	"context"
	"errors"
	"time"

	"flashdrop/internal/domain/drop"
	"flashdrop/internal/infra"
	"flashdrop/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type DropRepository struct{}

func NewDropRepository() *DropRepository {
	return &DropRepository{}
}

func (r *DropRepository) Create(ctx context.Context, dbtx db.DBTX, d *drop.Drop) (uuid.UUID, error) {
	const stmt = `
INSERT INTO drops (id, name, price_cents, total_stock, available_stock, starts_at, ends_at, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

	var id uuid.UUID
	err := dbtx.QueryRow(ctx, stmt,
		d.ID(),
		d.Name(),
		d.PriceCents(),
		d.TotalStock(),
		d.AvailableStock(),
		d.StartsAt(),
		d.EndsAt(),
		d.ImageURL(),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, infra.NewRepoErr(infra.KindDuplicateKey, "drop already exists", err)
		}
		return uuid.Nil, infra.NewRepoErr(infra.KindDBFailure, "failed to create drop", err)
	}
	return id, nil
}

func (r *DropRepository) FindForUpdate(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*drop.Drop, error) {
	const query = `
SELECT id, name, price_cents, total_stock, available_stock, starts_at, ends_at, image_url, created_at, updated_at
FROM drops
WHERE id = $1
FOR UPDATE`

	return r.scanDrop(dbtx.QueryRow(ctx, query, id))
}

func (r *DropRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*drop.Drop, error) {
	const query = `
SELECT id, name, price_cents, total_stock, available_stock, starts_at, ends_at, image_url, created_at, updated_at
FROM drops
WHERE id = $1`

	return r.scanDrop(dbtx.QueryRow(ctx, query, id))
}

// DecrementStock affects zero rows when the drop is sold out; callers must
// already hold the row lock so the guard cannot race a concurrent claim.
func (r *DropRepository) DecrementStock(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (int32, error) {
	const stmt = `
UPDATE drops
SET available_stock = available_stock - 1, updated_at = NOW()
WHERE id = $1 AND available_stock > 0
RETURNING available_stock`

	var available int32
	if err := dbtx.QueryRow(ctx, stmt, id).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isCheckViolation(err) {
			return 0, infra.NewRepoErr(infra.KindInvariantViolated, "decrement on exhausted stock", err)
		}
		return 0, infra.NewRepoErr(infra.KindDBFailure, "failed to decrement stock", err)
	}
	return available, nil
}

// IncrementStock refuses to push available above total. Zero affected rows
// means a double release, which is a correctness bug upstream.
func (r *DropRepository) IncrementStock(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (int32, error) {
	const stmt = `
UPDATE drops
SET available_stock = available_stock + 1, updated_at = NOW()
WHERE id = $1 AND available_stock < total_stock
RETURNING available_stock`

	var available int32
	if err := dbtx.QueryRow(ctx, stmt, id).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isCheckViolation(err) {
			return 0, infra.NewRepoErr(infra.KindInvariantViolated, "increment would exceed total stock", err)
		}
		return 0, infra.NewRepoErr(infra.KindDBFailure, "failed to increment stock", err)
	}
	return available, nil
}

func (r *DropRepository) scanDrop(row pgx.Row) (*drop.Drop, error) {
	var (
		id                             uuid.UUID
		name                           string
		priceCents                     int64
		totalStock, availableStock     int32
		startsAt, createdAt, updatedAt time.Time
		endsAt                         *time.Time
		imageURL                       *string
	)
	err := row.Scan(&id, &name, &priceCents, &totalStock, &availableStock, &startsAt, &endsAt, &imageURL, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "drop not found", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to find drop", err)
	}

	return drop.ReconstructDrop(
		id, name, priceCents, totalStock, availableStock,
		startsAt, endsAt, imageURL,
		createdAt, updatedAt,
	), nil
}
