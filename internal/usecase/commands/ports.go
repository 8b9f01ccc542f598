package commands

import (
	"time"

	"flashdrop/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrDropNotFound                = errs.New("drop not found")
	ErrDropNotOnSale               = errs.New("drop is not on sale")
	ErrOutOfStock                  = errs.New("out of stock")
	ErrDuplicateActiveReservation  = errs.New("buyer already has an active reservation")
	ErrReservationNotFound         = errs.New("reservation not found")
	ErrReservationNotActive        = errs.New("reservation is not active")
	ErrReservationInvalidOrExpired = errs.New("reservation is invalid or expired")
	ErrDomainValidation            = errs.New("domain validation error")
	ErrDatabaseOperationFailed     = errs.New("database operation failed")
	ErrStockInvariantViolated      = errs.New("stock invariant violated")
)

// HoldScheduler arms and disarms the expiration timer for a hold. Registration
// happens strictly after the claim transaction commits; a failure here must not
// roll the claim back, only raise an anomaly (the sweep still releases the hold).
type HoldScheduler interface {
	Schedule(reservationID, dropID uuid.UUID, expiresAt time.Time) error
	Cancel(reservationID uuid.UUID)
}

type ClaimResult struct {
	ReservationID  uuid.UUID
	DropID         uuid.UUID
	BuyerID        uuid.UUID
	Status         string
	PriceCents     int64
	ExpiresAt      time.Time
	AvailableStock int32
}

type FinalizeResult struct {
	PurchaseID     uuid.UUID
	ReservationID  uuid.UUID
	DropID         uuid.UUID
	BuyerID        uuid.UUID
	PricePaidCents int64
}

type CreateDropResult struct {
	DropID         uuid.UUID
	AvailableStock int32
}
