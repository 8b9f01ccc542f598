package commands

import (
	"context"

	"flashdrop/internal/domain/purchase"
	"flashdrop/internal/domain/reservation"
	"flashdrop/internal/infra"
	"flashdrop/internal/notify"
	"flashdrop/internal/pkg/clock"
	"flashdrop/internal/pkg/config"
	"flashdrop/internal/pkg/errs"
	"flashdrop/internal/usecase/shared"

	"github.com/google/uuid"
)

type PurchaseCommands interface {
	// Finalize converts an active hold into a completed sale, exactly once.
	Finalize(ctx context.Context, reservationID uuid.UUID) (*FinalizeResult, error)
}

type purchaseCommandsImpl struct {
	uow         shared.UnitOfWork
	clock       clock.Clock
	scheduler   HoldScheduler
	notifier    notify.Notifier
	pricePolicy string
}

func NewPurchaseCommands(
	uow shared.UnitOfWork,
	clk clock.Clock,
	scheduler HoldScheduler,
	notifier notify.Notifier,
	cfg config.ReservationConfig,
) PurchaseCommands {
	return &purchaseCommandsImpl{
		uow:         uow,
		clock:       clk,
		scheduler:   scheduler,
		notifier:    notifier,
		pricePolicy: cfg.PricePolicy,
	}
}

func (c *purchaseCommandsImpl) Finalize(ctx context.Context, reservationID uuid.UUID) (*FinalizeResult, error) {
	var result *FinalizeResult

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		// Locking the reservation row serializes this against the expiration
		// path for the same hold: whichever transaction commits first wins, the
		// other sees a non-active status below and rejects.
		held, err := tx.Reservations().FindForUpdate(ctx, tx.DB(), reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationInvalidOrExpired
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if !held.IsActive() {
			return ErrReservationInvalidOrExpired
		}

		pricePaid, err := c.resolvePrice(ctx, tx, held)
		if err != nil {
			return err
		}

		now := c.clock.Now()
		sale, err := purchase.NewPurchase(held.ID(), held.DropID(), held.BuyerID(), pricePaid, now)
		if err != nil {
			return errs.Mark(err, ErrDomainValidation)
		}

		if _, err := tx.Purchases().Create(ctx, tx.DB(), sale); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrReservationInvalidOrExpired
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := tx.Reservations().UpdateStatus(ctx, tx.DB(), held.ID(), reservation.StatusCompleted, now); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		result = &FinalizeResult{
			PurchaseID:     sale.ID(),
			ReservationID:  held.ID(),
			DropID:         held.DropID(),
			BuyerID:        held.BuyerID(),
			PricePaidCents: pricePaid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Safe even if the timer already fired and lost the race: the status check
	// above rejected that case before we got here.
	c.scheduler.Cancel(reservationID)
	c.notifier.PurchaseCompleted(ctx, result.DropID, result.BuyerID)

	return result, nil
}

func (c *purchaseCommandsImpl) resolvePrice(ctx context.Context, tx shared.Tx, held *reservation.Reservation) (int64, error) {
	if c.pricePolicy == config.PricePolicyClaim {
		return held.PriceCents(), nil
	}

	d, err := tx.Drops().FindByID(ctx, tx.DB(), held.DropID())
	if err != nil {
		return 0, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return d.PriceCents(), nil
}
