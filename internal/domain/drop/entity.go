package drop

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyName         = errors.New("drop name cannot be empty")
	ErrNegativePrice     = errors.New("drop price cannot be negative")
	ErrNegativeStock     = errors.New("drop stock cannot be negative")
	ErrStockExhausted    = errors.New("no available stock to reserve")
	ErrStockOverflow     = errors.New("available stock cannot exceed total stock")
	ErrInvalidSaleWindow = errors.New("sale end must be after sale start")
)

// Drop is a batch of limited-quantity units offered for sale. totalStock is
// immutable after creation; availableStock only moves by one unit at a time
// through Reserve and Release.
type Drop struct {
	id             uuid.UUID
	name           string
	priceCents     int64
	totalStock     int32
	availableStock int32
	startsAt       time.Time
	endsAt         *time.Time
	imageURL       *string
	createdAt      time.Time
	updatedAt      time.Time
}

func NewDrop(name string, priceCents int64, totalStock int32, startsAt time.Time, endsAt *time.Time, imageURL *string) (*Drop, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if priceCents < 0 {
		return nil, ErrNegativePrice
	}
	if totalStock < 0 {
		return nil, ErrNegativeStock
	}
	if endsAt != nil && !endsAt.After(startsAt) {
		return nil, ErrInvalidSaleWindow
	}

	return &Drop{
		id:             uuid.New(),
		name:           name,
		priceCents:     priceCents,
		totalStock:     totalStock,
		availableStock: totalStock,
		startsAt:       startsAt,
		endsAt:         endsAt,
		imageURL:       imageURL,
	}, nil
}

func ReconstructDrop(
	id uuid.UUID,
	name string,
	priceCents int64,
	totalStock, availableStock int32,
	startsAt time.Time,
	endsAt *time.Time,
	imageURL *string,
	createdAt, updatedAt time.Time,
) *Drop {
	return &Drop{
		id:             id,
		name:           name,
		priceCents:     priceCents,
		totalStock:     totalStock,
		availableStock: availableStock,
		startsAt:       startsAt,
		endsAt:         endsAt,
		imageURL:       imageURL,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// Reserve takes one unit out of the available pool.
func (d *Drop) Reserve() error {
	if d.availableStock <= 0 {
		return ErrStockExhausted
	}
	d.availableStock--
	return nil
}

// Release returns one unit to the available pool. Exceeding totalStock means a
// double release happened somewhere, which is a correctness bug, never a
// user-facing condition.
func (d *Drop) Release() error {
	if d.availableStock >= d.totalStock {
		return ErrStockOverflow
	}
	d.availableStock++
	return nil
}

// OnSale reports whether the drop accepts claims at the given instant.
func (d *Drop) OnSale(now time.Time) bool {
	if now.Before(d.startsAt) {
		return false
	}
	if d.endsAt != nil && now.After(*d.endsAt) {
		return false
	}
	return true
}

func (d *Drop) SoldOut() bool {
	return d.availableStock == 0
}

func (d *Drop) ID() uuid.UUID         { return d.id }
func (d *Drop) Name() string          { return d.name }
func (d *Drop) PriceCents() int64     { return d.priceCents }
func (d *Drop) TotalStock() int32     { return d.totalStock }
func (d *Drop) AvailableStock() int32 { return d.availableStock }
func (d *Drop) StartsAt() time.Time   { return d.startsAt }
func (d *Drop) EndsAt() *time.Time    { return d.endsAt }
func (d *Drop) ImageURL() *string     { return d.imageURL }
func (d *Drop) CreatedAt() time.Time  { return d.createdAt }
func (d *Drop) UpdatedAt() time.Time  { return d.updatedAt }
