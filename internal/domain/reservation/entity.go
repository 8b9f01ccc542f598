package reservation

import (
	"errors"
	"time"

	"flashdrop/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrNotActive     = errors.New("reservation is not active")
	ErrInvalidStatus = errors.New("invalid reservation status")
	ErrNilBuyer      = errors.New("buyer id cannot be nil")
	ErrNilDrop       = errors.New("drop id cannot be nil")
)

// Reservation is a time-bounded hold on exactly one unit of a drop. Once the
// status leaves active the entity is terminal and refuses further transitions.
type Reservation struct {
	id         uuid.UUID
	dropID     uuid.UUID
	buyerID    uuid.UUID
	status     Status
	priceCents int64
	createdAt  time.Time
	expiresAt  time.Time
	updatedAt  time.Time
}

// Factory stamps new reservations with the injected clock and hold TTL.
type Factory struct {
	Clock clock.Clock
	TTL   time.Duration
}

func NewFactory(clk clock.Clock, ttl time.Duration) *Factory {
	return &Factory{Clock: clk, TTL: ttl}
}

func (f *Factory) NewReservation(dropID, buyerID uuid.UUID, priceCents int64) (*Reservation, error) {
	if dropID == uuid.Nil {
		return nil, ErrNilDrop
	}
	if buyerID == uuid.Nil {
		return nil, ErrNilBuyer
	}

	now := f.Clock.Now()
	return &Reservation{
		id:         uuid.New(),
		dropID:     dropID,
		buyerID:    buyerID,
		status:     StatusActive,
		priceCents: priceCents,
		createdAt:  now,
		expiresAt:  now.Add(f.TTL),
		updatedAt:  now,
	}, nil
}

func ReconstructReservation(
	id, dropID, buyerID uuid.UUID,
	status Status,
	priceCents int64,
	createdAt, expiresAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:         id,
		dropID:     dropID,
		buyerID:    buyerID,
		status:     status,
		priceCents: priceCents,
		createdAt:  createdAt,
		expiresAt:  expiresAt,
		updatedAt:  updatedAt,
	}
}

// Complete transitions active→completed (purchase finalized).
func (r *Reservation) Complete(now time.Time) error {
	return r.transition(StatusCompleted, now)
}

// Expire transitions active→expired (TTL elapsed without purchase).
func (r *Reservation) Expire(now time.Time) error {
	return r.transition(StatusExpired, now)
}

// Cancel transitions active→cancelled (buyer gave the unit back).
func (r *Reservation) Cancel(now time.Time) error {
	return r.transition(StatusCancelled, now)
}

func (r *Reservation) transition(to Status, now time.Time) error {
	if !to.Terminal() {
		return ErrInvalidStatus
	}
	if r.status != StatusActive {
		return ErrNotActive
	}
	r.status = to
	r.updatedAt = now
	return nil
}

func (r *Reservation) IsActive() bool {
	return r.status == StatusActive
}

// Overdue reports whether the hold has outlived its deadline. The deadline is
// absolute: it never pauses or restarts.
func (r *Reservation) Overdue(now time.Time) bool {
	return !now.Before(r.expiresAt)
}

func (r *Reservation) ID() uuid.UUID        { return r.id }
func (r *Reservation) DropID() uuid.UUID    { return r.dropID }
func (r *Reservation) BuyerID() uuid.UUID   { return r.buyerID }
func (r *Reservation) Status() Status       { return r.status }
func (r *Reservation) PriceCents() int64    { return r.priceCents }
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }
func (r *Reservation) ExpiresAt() time.Time { return r.expiresAt }
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }
