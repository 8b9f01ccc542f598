package commands

import (
	"context"
	"log/slog"

	"flashdrop/internal/domain/reservation"
	"flashdrop/internal/infra"
	"flashdrop/internal/notify"
	"flashdrop/internal/pkg/clock"
	"flashdrop/internal/pkg/errs"
	"flashdrop/internal/usecase/shared"

	"github.com/google/uuid"
)

type ReservationCommands interface {
	// Claim atomically takes one unit of the drop and opens a time-bounded hold.
	// At most one attempt per call: stock scarcity is a business outcome, not a
	// transient fault, so rejections are never retried internally.
	Claim(ctx context.Context, dropID, buyerID uuid.UUID) (*ClaimResult, error)
	// Cancel releases an active hold immediately, returning its unit to stock.
	Cancel(ctx context.Context, reservationID uuid.UUID) error
}

type reservationCommandsImpl struct {
	uow       shared.UnitOfWork
	factory   *reservation.Factory
	clock     clock.Clock
	scheduler HoldScheduler
	notifier  notify.Notifier
}

func NewReservationCommands(
	uow shared.UnitOfWork,
	factory *reservation.Factory,
	clk clock.Clock,
	scheduler HoldScheduler,
	notifier notify.Notifier,
) ReservationCommands {
	return &reservationCommandsImpl{
		uow:       uow,
		factory:   factory,
		clock:     clk,
		scheduler: scheduler,
		notifier:  notifier,
	}
}

func (c *reservationCommandsImpl) Claim(ctx context.Context, dropID, buyerID uuid.UUID) (*ClaimResult, error) {
	var (
		held      *reservation.Reservation
		available int32
	)

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		// The row lock on the drop serializes this claim against every other
		// claim/release touching the same drop; claims on other drops proceed.
		d, err := tx.Drops().FindForUpdate(ctx, tx.DB(), dropID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrDropNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if !d.OnSale(c.clock.Now()) {
			return ErrDropNotOnSale
		}
		if d.SoldOut() {
			return ErrOutOfStock
		}

		// Stock and duplicate checks share the transaction with the decrement;
		// evaluating either outside it would reopen the check/use race.
		exists, err := tx.Reservations().HasActive(ctx, tx.DB(), dropID, buyerID)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if exists {
			return ErrDuplicateActiveReservation
		}

		available, err = tx.Drops().DecrementStock(ctx, tx.DB(), dropID)
		if err != nil {
			if infra.IsKind(err, infra.KindInvariantViolated) {
				// Guarded UPDATE found no stock despite the locked read above.
				return errs.Mark(err, ErrStockInvariantViolated)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		held, err = c.factory.NewReservation(dropID, buyerID, d.PriceCents())
		if err != nil {
			return errs.Mark(err, ErrDomainValidation)
		}

		if _, err := tx.Reservations().Create(ctx, tx.DB(), held); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrDuplicateActiveReservation
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Timer registration is outside the committed unit: its failure cannot undo
	// the reservation, so it is surfaced as an anomaly and the sweep covers it.
	if err := c.scheduler.Schedule(held.ID(), dropID, held.ExpiresAt()); err != nil {
		slog.Error("expiration timer registration failed",
			"anomaly", "timer_registration_failed",
			"reservation_id", held.ID().String(),
			"drop_id", dropID.String(),
			"expires_at", held.ExpiresAt(),
			"error", err.Error())
	}

	c.notifier.StockChanged(ctx, dropID, available)

	return &ClaimResult{
		ReservationID:  held.ID(),
		DropID:         dropID,
		BuyerID:        buyerID,
		Status:         held.Status().String(),
		PriceCents:     held.PriceCents(),
		ExpiresAt:      held.ExpiresAt(),
		AvailableStock: available,
	}, nil
}

func (c *reservationCommandsImpl) Cancel(ctx context.Context, reservationID uuid.UUID) error {
	var (
		dropID    uuid.UUID
		available int32
	)

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		held, err := tx.Reservations().FindForUpdate(ctx, tx.DB(), reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		now := c.clock.Now()
		if err := held.Cancel(now); err != nil {
			// Lost the race against finalize or expire; their commit won.
			return ErrReservationNotActive
		}

		if err := tx.Reservations().UpdateStatus(ctx, tx.DB(), reservationID, reservation.StatusCancelled, now); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		dropID = held.DropID()
		available, err = tx.Drops().IncrementStock(ctx, tx.DB(), dropID)
		if err != nil {
			if infra.IsKind(err, infra.KindInvariantViolated) {
				return errs.Mark(err, ErrStockInvariantViolated)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.scheduler.Cancel(reservationID)
	c.notifier.StockChanged(ctx, dropID, available)
	return nil
}
