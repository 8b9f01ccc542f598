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

type ExpirationCommands interface {
	// ExpireReservation releases the hold if it is still active. Firing twice
	// for the same id increments stock at most once: the status re-check sits
	// inside the same transaction as the status write.
	ExpireReservation(ctx context.Context, reservationID, dropID uuid.UUID) error
	// ReleaseOverdue expires every active hold past its deadline, covering
	// timers lost to a restart. Returns the number of holds released.
	ReleaseOverdue(ctx context.Context, limit int32) (int, error)
}

type expirationCommandsImpl struct {
	uow      shared.UnitOfWork
	clock    clock.Clock
	notifier notify.Notifier
}

func NewExpirationCommands(uow shared.UnitOfWork, clk clock.Clock, notifier notify.Notifier) ExpirationCommands {
	return &expirationCommandsImpl{
		uow:      uow,
		clock:    clk,
		notifier: notifier,
	}
}

func (c *expirationCommandsImpl) ExpireReservation(ctx context.Context, reservationID, dropID uuid.UUID) error {
	var (
		released  bool
		available int32
	)

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		held, err := tx.Reservations().FindForUpdate(ctx, tx.DB(), reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		now := c.clock.Now()
		if err := held.Expire(now); err != nil {
			// Completed or already released in the window between timer fire and
			// lock acquisition. Nothing to claw back.
			return nil
		}

		if err := tx.Reservations().UpdateStatus(ctx, tx.DB(), reservationID, reservation.StatusExpired, now); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		available, err = tx.Drops().IncrementStock(ctx, tx.DB(), held.DropID())
		if err != nil {
			if infra.IsKind(err, infra.KindInvariantViolated) {
				// Stock already at total: a double release slipped through.
				return errs.Mark(err, ErrStockInvariantViolated)
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		released = true
		return nil
	})
	if err != nil {
		return err
	}

	if released {
		c.notifier.StockChanged(ctx, dropID, available)
	}
	return nil
}

func (c *expirationCommandsImpl) ReleaseOverdue(ctx context.Context, limit int32) (int, error) {
	var overdue []shared.OverdueHold

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		overdue, err = tx.Reservations().ListOverdueActive(ctx, tx.DB(), c.clock.Now(), limit)
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	released := 0
	for _, h := range overdue {
		if err := c.ExpireReservation(ctx, h.ReservationID, h.DropID); err != nil {
			slog.Error("failed to release overdue reservation",
				"reservation_id", h.ReservationID.String(),
				"drop_id", h.DropID.String(),
				"error", err.Error())
			continue
		}
		released++
	}
	return released, nil
}
