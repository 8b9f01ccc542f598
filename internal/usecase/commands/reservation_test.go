//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"flashdrop/internal/domain/reservation"
	"flashdrop/internal/usecase/commands"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("success opens a hold and decrements stock", func(t *testing.T) {
		env := newCmdEnv(t)
		dropID := env.seedDrop(5, 14900)
		buyerID := uuid.New()

		result, err := env.reservations.Claim(ctx, dropID, buyerID)
		require.NoError(t, err)

		expected := &commands.ClaimResult{
			ReservationID:  result.ReservationID,
			DropID:         dropID,
			BuyerID:        buyerID,
			Status:         reservation.StatusActive.String(),
			PriceCents:     14900,
			ExpiresAt:      env.clk.Now().Add(testTTL),
			AvailableStock: 4,
		}
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("unexpected claim result (-want +got):\n%s", diff)
		}
		assert.NotEqual(t, uuid.Nil, result.ReservationID)

		assert.Equal(t, int32(4), env.availableStock(dropID))

		at, ok := env.scheduler.scheduledAt(result.ReservationID)
		require.True(t, ok, "a timer must be armed for the new hold")
		assert.Equal(t, result.ExpiresAt, at)

		require.Equal(t, 1, env.notifier.stockEventCount())
		assert.Equal(t, stockEvent{dropID: dropID, available: 4}, env.notifier.stockEvents[0])
	})

	t.Run("unknown drop", func(t *testing.T) {
		env := newCmdEnv(t)

		_, err := env.reservations.Claim(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, commands.ErrDropNotFound)
	})

	t.Run("sale window", func(t *testing.T) {
		env := newCmdEnv(t)
		now := env.clk.Now()
		pastEnd := now.Add(-time.Minute)

		cases := []struct {
			name     string
			startsAt time.Time
			endsAt   *time.Time
			errIs    error
		}{
			{name: "not started yet", startsAt: now.Add(time.Hour), errIs: commands.ErrDropNotOnSale},
			{name: "already ended", startsAt: now.Add(-2 * time.Hour), endsAt: &pastEnd, errIs: commands.ErrDropNotOnSale},
			{name: "currently open", startsAt: now.Add(-time.Hour)},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				dropID := env.seedDropWithWindow(3, 100, tc.startsAt, tc.endsAt)
				_, err := env.reservations.Claim(ctx, dropID, uuid.New())
				if tc.errIs != nil {
					assert.ErrorIs(t, err, tc.errIs)
					assert.Equal(t, int32(3), env.availableStock(dropID), "rejected claim must not consume stock")
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("sold out drop rejects the claim", func(t *testing.T) {
		env := newCmdEnv(t)
		dropID := env.seedDrop(1, 100)

		_, err := env.reservations.Claim(ctx, dropID, uuid.New())
		require.NoError(t, err)

		_, err = env.reservations.Claim(ctx, dropID, uuid.New())
		assert.ErrorIs(t, err, commands.ErrOutOfStock)
		assert.Equal(t, int32(0), env.availableStock(dropID))
	})

	t.Run("second claim by the same buyer is rejected", func(t *testing.T) {
		env := newCmdEnv(t)
		dropID := env.seedDrop(5, 100)
		buyerID := uuid.New()

		_, err := env.reservations.Claim(ctx, dropID, buyerID)
		require.NoError(t, err)

		_, err = env.reservations.Claim(ctx, dropID, buyerID)
		assert.ErrorIs(t, err, commands.ErrDuplicateActiveReservation)
		assert.Equal(t, int32(4), env.availableStock(dropID), "duplicate claim must not consume a second unit")
	})

	t.Run("same buyer may hold units of different drops", func(t *testing.T) {
		env := newCmdEnv(t)
		firstDrop := env.seedDrop(1, 100)
		secondDrop := env.seedDrop(1, 100)
		buyerID := uuid.New()

		_, err := env.reservations.Claim(ctx, firstDrop, buyerID)
		require.NoError(t, err)
		_, err = env.reservations.Claim(ctx, secondDrop, buyerID)
		assert.NoError(t, err)
	})

	t.Run("timer registration failure does not undo the claim", func(t *testing.T) {
		env := newCmdEnv(t)
		env.scheduler.scheduleErr = errors.New("scheduler unavailable")
		dropID := env.seedDrop(1, 100)

		result, err := env.reservations.Claim(ctx, dropID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusActive, env.reservationStatus(result.ReservationID))
		assert.Equal(t, int32(0), env.availableStock(dropID))
	})

	t.Run("concurrent claims never oversell", func(t *testing.T) {
		env := newCmdEnv(t)
		const stock = 5
		const claimers = 20
		dropID := env.seedDrop(stock, 100)

		var wg sync.WaitGroup
		errs := make([]error, claimers)
		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = env.reservations.Claim(ctx, dropID, uuid.New())
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, commands.ErrOutOfStock)
			}
		}
		assert.Equal(t, stock, succeeded, "exactly one winner per unit")
		assert.Equal(t, int32(0), env.availableStock(dropID))
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns the unit and disarms the timer", func(t *testing.T) {
		env := newCmdEnv(t)
		dropID := env.seedDrop(3, 100)

		result, err := env.reservations.Claim(ctx, dropID, uuid.New())
		require.NoError(t, err)
		require.Equal(t, int32(2), env.availableStock(dropID))

		require.NoError(t, env.reservations.Cancel(ctx, result.ReservationID))

		assert.Equal(t, reservation.StatusCancelled, env.reservationStatus(result.ReservationID))
		assert.Equal(t, int32(3), env.availableStock(dropID))
		assert.Equal(t, 1, env.scheduler.cancelCount(result.ReservationID))
	})

	t.Run("unknown reservation", func(t *testing.T) {
		env := newCmdEnv(t)
		assert.ErrorIs(t, env.reservations.Cancel(ctx, uuid.New()), commands.ErrReservationNotFound)
	})

	t.Run("cancel is not idempotent on released holds", func(t *testing.T) {
		env := newCmdEnv(t)
		dropID := env.seedDrop(1, 100)

		result, err := env.reservations.Claim(ctx, dropID, uuid.New())
		require.NoError(t, err)
		require.NoError(t, env.reservations.Cancel(ctx, result.ReservationID))

		err = env.reservations.Cancel(ctx, result.ReservationID)
		assert.ErrorIs(t, err, commands.ErrReservationNotActive)
		assert.Equal(t, int32(1), env.availableStock(dropID), "second cancel must not release a second unit")
	})

	t.Run("buyer can claim again after cancelling", func(t *testing.T) {
		env := newCmdEnv(t)
		dropID := env.seedDrop(1, 100)
		buyerID := uuid.New()

		first, err := env.reservations.Claim(ctx, dropID, buyerID)
		require.NoError(t, err)
		require.NoError(t, env.reservations.Cancel(ctx, first.ReservationID))

		second, err := env.reservations.Claim(ctx, dropID, buyerID)
		require.NoError(t, err)
		assert.NotEqual(t, first.ReservationID, second.ReservationID)
	})
}
