package repository

import (
	"context"
	"errors"
	"time"

	"flashdrop/internal/domain/reservation"
	"flashdrop/internal/infra"
	"flashdrop/internal/infra/db"
	"flashdrop/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReservationRepository struct{}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{}
}

func (r *ReservationRepository) Create(ctx context.Context, dbtx db.DBTX, res *reservation.Reservation) (uuid.UUID, error) {
	const stmt = `
INSERT INTO reservations (id, drop_id, buyer_id, status, price_cents, created_at, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

	var id uuid.UUID
	err := dbtx.QueryRow(ctx, stmt,
		res.ID(),
		res.DropID(),
		res.BuyerID(),
		res.Status().String(),
		res.PriceCents(),
		res.CreatedAt(),
		res.ExpiresAt(),
		res.UpdatedAt(),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			// The partial unique index on (drop_id, buyer_id) WHERE active
			// backstops the in-transaction duplicate check.
			return uuid.Nil, infra.NewRepoErr(infra.KindDuplicateKey, "buyer already holds an active reservation for this drop", err)
		}
		if isForeignKeyViolation(err) {
			return uuid.Nil, infra.NewRepoErr(infra.KindForeignKeyViolated, "drop does not exist", err)
		}
		return uuid.Nil, infra.NewRepoErr(infra.KindDBFailure, "failed to create reservation", err)
	}
	return id, nil
}

func (r *ReservationRepository) FindForUpdate(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*reservation.Reservation, error) {
	const query = `
SELECT id, drop_id, buyer_id, status, price_cents, created_at, expires_at, updated_at
FROM reservations
WHERE id = $1
FOR UPDATE`

	return r.scanReservation(dbtx.QueryRow(ctx, query, id))
}

func (r *ReservationRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*reservation.Reservation, error) {
	const query = `
SELECT id, drop_id, buyer_id, status, price_cents, created_at, expires_at, updated_at
FROM reservations
WHERE id = $1`

	return r.scanReservation(dbtx.QueryRow(ctx, query, id))
}

func (r *ReservationRepository) HasActive(ctx context.Context, dbtx db.DBTX, dropID, buyerID uuid.UUID) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM reservations
	WHERE drop_id = $1 AND buyer_id = $2 AND status = 'active'
)`

	var exists bool
	if err := dbtx.QueryRow(ctx, query, dropID, buyerID).Scan(&exists); err != nil {
		return false, infra.NewRepoErr(infra.KindDBFailure, "failed to check active reservation", err)
	}
	return exists, nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, dbtx db.DBTX, id uuid.UUID, status reservation.Status, now time.Time) error {
	const stmt = `
UPDATE reservations
SET status = $2, updated_at = $3
WHERE id = $1`

	tag, err := dbtx.Exec(ctx, stmt, id, status.String(), now)
	if err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "failed to update reservation status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "reservation not found", nil)
	}
	return nil
}

func (r *ReservationRepository) ListOverdueActive(ctx context.Context, dbtx db.DBTX, now time.Time, limit int32) ([]shared.OverdueHold, error) {
	const query = `
SELECT id, drop_id
FROM reservations
WHERE status = 'active' AND expires_at <= $1
ORDER BY expires_at
LIMIT $2`

	rows, err := dbtx.Query(ctx, query, now, limit)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to list overdue reservations", err)
	}
	defer rows.Close()

	var overdue []shared.OverdueHold
	for rows.Next() {
		var h shared.OverdueHold
		if err := rows.Scan(&h.ReservationID, &h.DropID); err != nil {
			return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to scan overdue reservation", err)
		}
		overdue = append(overdue, h)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to iterate overdue reservations", err)
	}
	return overdue, nil
}

func (r *ReservationRepository) scanReservation(row pgx.Row) (*reservation.Reservation, error) {
	var (
		id, dropID, buyerID             uuid.UUID
		status                          string
		priceCents                      int64
		createdAt, expiresAt, updatedAt time.Time
	)
	err := row.Scan(&id, &dropID, &buyerID, &status, &priceCents, &createdAt, &expiresAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "reservation not found", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to find reservation", err)
	}

	return reservation.ReconstructReservation(
		id, dropID, buyerID,
		reservation.Status(status),
		priceCents,
		createdAt, expiresAt, updatedAt,
	), nil
}
