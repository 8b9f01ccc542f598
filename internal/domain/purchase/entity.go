package purchase

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNegativePrice = errors.New("purchase price cannot be negative")

// Purchase is the immutable sale record produced when a reservation completes.
// Exactly one purchase may exist per reservation.
type Purchase struct {
	id             uuid.UUID
	reservationID  uuid.UUID
	dropID         uuid.UUID
	buyerID        uuid.UUID
	pricePaidCents int64
	createdAt      time.Time
}

func NewPurchase(reservationID, dropID, buyerID uuid.UUID, pricePaidCents int64, now time.Time) (*Purchase, error) {
	if pricePaidCents < 0 {
		return nil, ErrNegativePrice
	}
	return &Purchase{
		id:             uuid.New(),
		reservationID:  reservationID,
		dropID:         dropID,
		buyerID:        buyerID,
		pricePaidCents: pricePaidCents,
		createdAt:      now,
	}, nil
}

func ReconstructPurchase(id, reservationID, dropID, buyerID uuid.UUID, pricePaidCents int64, createdAt time.Time) *Purchase {
	return &Purchase{
		id:             id,
		reservationID:  reservationID,
		dropID:         dropID,
		buyerID:        buyerID,
		pricePaidCents: pricePaidCents,
		createdAt:      createdAt,
	}
}

func (p *Purchase) ID() uuid.UUID            { return p.id }
func (p *Purchase) ReservationID() uuid.UUID { return p.reservationID }
func (p *Purchase) DropID() uuid.UUID        { return p.dropID }
func (p *Purchase) BuyerID() uuid.UUID       { return p.buyerID }
func (p *Purchase) PricePaidCents() int64    { return p.pricePaidCents }
func (p *Purchase) CreatedAt() time.Time     { return p.createdAt }
