//go:build unit

package scheduler_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"flashdrop/internal/pkg/clock"
	"flashdrop/internal/scheduler"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiredHold struct {
	reservationID uuid.UUID
	dropID        uuid.UUID
}

type fakeReleaser struct {
	mu      sync.Mutex
	expired []expiredHold

	expiredCh chan expiredHold
	sweepCh   chan struct{}
}

func newFakeReleaser() *fakeReleaser {
	return &fakeReleaser{
		expiredCh: make(chan expiredHold, 16),
		sweepCh:   make(chan struct{}, 16),
	}
}

func (f *fakeReleaser) ExpireReservation(_ context.Context, reservationID, dropID uuid.UUID) error {
	h := expiredHold{reservationID: reservationID, dropID: dropID}
	f.mu.Lock()
	f.expired = append(f.expired, h)
	f.mu.Unlock()
	f.expiredCh <- h
	return nil
}

func (f *fakeReleaser) ReleaseOverdue(_ context.Context, _ int32) (int, error) {
	f.sweepCh <- struct{}{}
	return 0, nil
}

func (f *fakeReleaser) expiredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.expired)
}

func waitFor[T any](t *testing.T, ch <-chan T, why string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", why)
		panic("unreachable")
	}
}

func newTestScheduler(releaser scheduler.Releaser, sweepInterval time.Duration) *scheduler.ExpirationScheduler {
	return scheduler.NewExpirationScheduler(releaser, clock.NewRealClock(), sweepInterval, slog.Default())
}

func TestScheduleFires(t *testing.T) {
	releaser := newFakeReleaser()
	s := newTestScheduler(releaser, time.Hour)

	reservationID := uuid.New()
	dropID := uuid.New()

	require.NoError(t, s.Schedule(reservationID, dropID, time.Now().Add(20*time.Millisecond)))
	assert.Equal(t, 1, s.PendingCount())

	fired := waitFor(t, releaser.expiredCh, "timer to fire")
	assert.Equal(t, reservationID, fired.reservationID)
	assert.Equal(t, dropID, fired.dropID)
	assert.Equal(t, 0, s.PendingCount())
}

func TestSchedulePastDeadlineFiresImmediately(t *testing.T) {
	releaser := newFakeReleaser()
	s := newTestScheduler(releaser, time.Hour)

	require.NoError(t, s.Schedule(uuid.New(), uuid.New(), time.Now().Add(-time.Minute)))
	waitFor(t, releaser.expiredCh, "overdue timer to fire")
}

func TestRescheduleReplacesTimer(t *testing.T) {
	releaser := newFakeReleaser()
	s := newTestScheduler(releaser, time.Hour)

	reservationID := uuid.New()
	require.NoError(t, s.Schedule(reservationID, uuid.New(), time.Now().Add(time.Hour)))
	require.NoError(t, s.Schedule(reservationID, uuid.New(), time.Now().Add(20*time.Millisecond)))
	assert.Equal(t, 1, s.PendingCount())

	waitFor(t, releaser.expiredCh, "replacement timer to fire")
	assert.Equal(t, 1, releaser.expiredCount(), "the replaced timer must not fire")
}

func TestCancelDisarmsTimer(t *testing.T) {
	releaser := newFakeReleaser()
	s := newTestScheduler(releaser, time.Hour)

	reservationID := uuid.New()
	require.NoError(t, s.Schedule(reservationID, uuid.New(), time.Now().Add(30*time.Millisecond)))
	s.Cancel(reservationID)
	assert.Equal(t, 0, s.PendingCount())

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, releaser.expiredCount())
}

func TestCancelUnknownIsNoop(t *testing.T) {
	releaser := newFakeReleaser()
	s := newTestScheduler(releaser, time.Hour)
	s.Cancel(uuid.New())
}

func TestStartSweeps(t *testing.T) {
	releaser := newFakeReleaser()
	s := newTestScheduler(releaser, 30*time.Millisecond)

	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	waitFor(t, releaser.sweepCh, "startup sweep")
	waitFor(t, releaser.sweepCh, "periodic sweep")
}

func TestStop(t *testing.T) {
	releaser := newFakeReleaser()
	s := newTestScheduler(releaser, time.Hour)
	s.Start()
	waitFor(t, releaser.sweepCh, "startup sweep")

	require.NoError(t, s.Schedule(uuid.New(), uuid.New(), time.Now().Add(time.Hour)))

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, 0, s.PendingCount(), "stop disarms pending timers")

	assert.ErrorIs(t, s.Schedule(uuid.New(), uuid.New(), time.Now()), scheduler.ErrSchedulerStopped)

	// Stopping twice is safe.
	require.NoError(t, s.Stop(context.Background()))
}
