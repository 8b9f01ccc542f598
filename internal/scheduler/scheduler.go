// Package scheduler owns the expiration timers for active holds. Timer handles
// are a cache of "a release is due", never a source of truth: the reservation
// row's expires_at is authoritative, and a periodic sweep releases anything a
// lost timer left behind.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"flashdrop/internal/pkg/clock"

	"github.com/google/uuid"
)

var ErrSchedulerStopped = errors.New("expiration scheduler is stopped")

// Releaser is the engine-side operation a firing timer (or the sweep) invokes.
type Releaser interface {
	ExpireReservation(ctx context.Context, reservationID, dropID uuid.UUID) error
	ReleaseOverdue(ctx context.Context, limit int32) (int, error)
}

const (
	expireTimeout   = 10 * time.Second
	sweepBatchLimit = 500
)

type ExpirationScheduler struct {
	releaser      Releaser
	clock         clock.Clock
	sweepInterval time.Duration
	logger        *slog.Logger

	mu      sync.Mutex
	timers  map[uuid.UUID]*time.Timer
	stopped bool

	done   chan struct{}
	firing sync.WaitGroup
}

func NewExpirationScheduler(releaser Releaser, clk clock.Clock, sweepInterval time.Duration, logger *slog.Logger) *ExpirationScheduler {
	return &ExpirationScheduler{
		releaser:      releaser,
		clock:         clk,
		sweepInterval: sweepInterval,
		logger:        logger,
		timers:        make(map[uuid.UUID]*time.Timer),
		done:          make(chan struct{}),
	}
}

// Schedule arms a timer that fires at or after expiresAt, never before.
// Re-scheduling an id replaces its pending timer.
func (s *ExpirationScheduler) Schedule(reservationID, dropID uuid.UUID, expiresAt time.Time) error {
	delay := expiresAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}

	if prev, ok := s.timers[reservationID]; ok {
		prev.Stop()
	}
	s.timers[reservationID] = time.AfterFunc(delay, func() {
		s.fire(reservationID, dropID)
	})
	return nil
}

// Cancel disarms the pending timer if present. No-op if it already fired or
// was never armed.
func (s *ExpirationScheduler) Cancel(reservationID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[reservationID]; ok {
		t.Stop()
		delete(s.timers, reservationID)
	}
}

func (s *ExpirationScheduler) fire(reservationID, dropID uuid.UUID) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, reservationID)
	s.firing.Add(1)
	s.mu.Unlock()
	defer s.firing.Done()

	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()

	if err := s.releaser.ExpireReservation(ctx, reservationID, dropID); err != nil {
		// The sweep retries this hold on its next pass.
		s.logger.Error("failed to expire reservation",
			"reservation_id", reservationID.String(),
			"drop_id", dropID.String(),
			"error", err.Error())
	}
}

// Start runs an immediate sweep to reconcile holds whose timers were lost
// (e.g. across a restart), then sweeps periodically.
func (s *ExpirationScheduler) Start() {
	go s.sweepLoop()
}

func (s *ExpirationScheduler) sweepLoop() {
	s.sweep()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *ExpirationScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()

	released, err := s.releaser.ReleaseOverdue(ctx, sweepBatchLimit)
	if err != nil {
		s.logger.Error("expiration sweep failed", "error", err.Error())
		return
	}
	if released > 0 {
		s.logger.Info("expiration sweep released overdue holds", "released", released)
	}
}

// Stop disarms all pending timers, stops the sweep and waits for in-flight
// expirations to finish. Pending holds are not force-expired: their expires_at
// stays on the row and the next process's startup sweep releases them.
func (s *ExpirationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.done)
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		s.firing.Wait()
		close(drained)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-drained:
		return nil
	}
}

// PendingCount reports how many timers are armed. Used by tests and the
// shutdown log line.
func (s *ExpirationScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
