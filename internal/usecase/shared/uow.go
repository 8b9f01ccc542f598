package shared

import (
	"context"
	"time"

	"flashdrop/internal/domain/drop"
	"flashdrop/internal/domain/purchase"
	"flashdrop/internal/domain/reservation"
	"flashdrop/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
}

type Tx interface {
	Drops() DropRepository
	Reservations() ReservationRepository
	Purchases() PurchaseRepository
	DB() db.DBTX
}

type DropRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, d *drop.Drop) (uuid.UUID, error)
	// FindForUpdate locks the drop row for the rest of the transaction, which
	// serializes every claim/release touching the same drop.
	FindForUpdate(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*drop.Drop, error)
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*drop.Drop, error)
	// DecrementStock takes one unit; it affects zero rows when available == 0.
	// Returns the new available count.
	DecrementStock(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (int32, error)
	// IncrementStock returns one unit; it refuses to push available above total.
	// Returns the new available count.
	IncrementStock(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (int32, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, res *reservation.Reservation) (uuid.UUID, error)
	FindForUpdate(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*reservation.Reservation, error)
	HasActive(ctx context.Context, dbtx db.DBTX, dropID, buyerID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, dbtx db.DBTX, id uuid.UUID, status reservation.Status, now time.Time) error
	// ListOverdueActive returns active holds whose deadline has passed, oldest
	// first, for the expiration sweep.
	ListOverdueActive(ctx context.Context, dbtx db.DBTX, now time.Time, limit int32) ([]OverdueHold, error)
}

type PurchaseRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, p *purchase.Purchase) (uuid.UUID, error)
}

// OverdueHold is the minimal projection the sweep needs to fire a release.
type OverdueHold struct {
	ReservationID uuid.UUID
	DropID        uuid.UUID
}
