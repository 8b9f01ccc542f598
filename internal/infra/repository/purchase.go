package repository

import (
	"context"

	"flashdrop/internal/domain/purchase"
	"flashdrop/internal/infra"
	"flashdrop/internal/infra/db"

	"github.com/google/uuid"
)

type PurchaseRepository struct{}

func NewPurchaseRepository() *PurchaseRepository {
	return &PurchaseRepository{}
}

func (r *PurchaseRepository) Create(ctx context.Context, dbtx db.DBTX, p *purchase.Purchase) (uuid.UUID, error) {
	const stmt = `
INSERT INTO purchases (id, reservation_id, drop_id, buyer_id, price_paid_cents, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

	var id uuid.UUID
	err := dbtx.QueryRow(ctx, stmt,
		p.ID(),
		p.ReservationID(),
		p.DropID(),
		p.BuyerID(),
		p.PricePaidCents(),
		p.CreatedAt(),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			// purchases.reservation_id UNIQUE: a reservation yields at most one sale.
			return uuid.Nil, infra.NewRepoErr(infra.KindDuplicateKey, "reservation already purchased", err)
		}
		if isForeignKeyViolation(err) {
			return uuid.Nil, infra.NewRepoErr(infra.KindForeignKeyViolated, "reservation or drop does not exist", err)
		}
		return uuid.Nil, infra.NewRepoErr(infra.KindDBFailure, "failed to create purchase", err)
	}
	return id, nil
}
