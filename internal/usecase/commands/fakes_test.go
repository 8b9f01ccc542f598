//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"flashdrop/internal/domain/drop"
	"flashdrop/internal/domain/purchase"
	"flashdrop/internal/domain/reservation"
	"flashdrop/internal/infra"
	"flashdrop/internal/infra/db"
	"flashdrop/internal/notify"
	"flashdrop/internal/pkg/clock"
	"flashdrop/internal/pkg/config"
	"flashdrop/internal/usecase/commands"
	"flashdrop/internal/usecase/shared"

	"github.com/google/uuid"
)

// In-memory store backing the fake repositories. A single mutex plays the role
// of the drop row lock: every transaction runs serialized, the same guarantee
// FOR UPDATE gives the real implementation.
type fakeStore struct {
	mu           sync.Mutex
	drops        map[uuid.UUID]dropRow
	reservations map[uuid.UUID]resRow
	purchases    map[uuid.UUID]purchaseRow // keyed by reservation id
}

type dropRow struct {
	name           string
	priceCents     int64
	totalStock     int32
	availableStock int32
	startsAt       time.Time
	endsAt         *time.Time
}

type resRow struct {
	dropID     uuid.UUID
	buyerID    uuid.UUID
	status     reservation.Status
	priceCents int64
	createdAt  time.Time
	expiresAt  time.Time
	updatedAt  time.Time
}

type purchaseRow struct {
	id             uuid.UUID
	dropID         uuid.UUID
	buyerID        uuid.UUID
	pricePaidCents int64
	createdAt      time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		drops:        make(map[uuid.UUID]dropRow),
		reservations: make(map[uuid.UUID]resRow),
		purchases:    make(map[uuid.UUID]purchaseRow),
	}
}

func (s *fakeStore) snapshot() (map[uuid.UUID]dropRow, map[uuid.UUID]resRow, map[uuid.UUID]purchaseRow) {
	drops := make(map[uuid.UUID]dropRow, len(s.drops))
	for k, v := range s.drops {
		drops[k] = v
	}
	reservations := make(map[uuid.UUID]resRow, len(s.reservations))
	for k, v := range s.reservations {
		reservations[k] = v
	}
	purchases := make(map[uuid.UUID]purchaseRow, len(s.purchases))
	for k, v := range s.purchases {
		purchases[k] = v
	}
	return drops, reservations, purchases
}

type fakeUoW struct {
	store *fakeStore
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	drops, reservations, purchases := u.store.snapshot()
	err := fn(ctx, &fakeTx{store: u.store})
	if err != nil {
		// Rollback
		u.store.drops = drops
		u.store.reservations = reservations
		u.store.purchases = purchases
	}
	return err
}

func (u *fakeUoW) WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	return fn(ctx, nil)
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) Drops() shared.DropRepository               { return &fakeDropRepo{store: t.store} }
func (t *fakeTx) Reservations() shared.ReservationRepository { return &fakeResRepo{store: t.store} }
func (t *fakeTx) Purchases() shared.PurchaseRepository       { return &fakePurchaseRepo{store: t.store} }
func (t *fakeTx) DB() db.DBTX                                { return nil }

type fakeDropRepo struct {
	store *fakeStore
}

func (r *fakeDropRepo) Create(_ context.Context, _ db.DBTX, d *drop.Drop) (uuid.UUID, error) {
	r.store.drops[d.ID()] = dropRow{
		name:           d.Name(),
		priceCents:     d.PriceCents(),
		totalStock:     d.TotalStock(),
		availableStock: d.AvailableStock(),
		startsAt:       d.StartsAt(),
		endsAt:         d.EndsAt(),
	}
	return d.ID(), nil
}

func (r *fakeDropRepo) FindForUpdate(_ context.Context, _ db.DBTX, id uuid.UUID) (*drop.Drop, error) {
	row, ok := r.store.drops[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "drop not found", nil)
	}
	return drop.ReconstructDrop(
		id, row.name, row.priceCents, row.totalStock, row.availableStock,
		row.startsAt, row.endsAt, nil,
		row.startsAt, row.startsAt,
	), nil
}

func (r *fakeDropRepo) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*drop.Drop, error) {
	return r.FindForUpdate(ctx, dbtx, id)
}

func (r *fakeDropRepo) DecrementStock(_ context.Context, _ db.DBTX, id uuid.UUID) (int32, error) {
	row, ok := r.store.drops[id]
	if !ok || row.availableStock <= 0 {
		return 0, infra.NewRepoErr(infra.KindInvariantViolated, "decrement on exhausted stock", nil)
	}
	row.availableStock--
	r.store.drops[id] = row
	return row.availableStock, nil
}

func (r *fakeDropRepo) IncrementStock(_ context.Context, _ db.DBTX, id uuid.UUID) (int32, error) {
	row, ok := r.store.drops[id]
	if !ok || row.availableStock >= row.totalStock {
		return 0, infra.NewRepoErr(infra.KindInvariantViolated, "increment would exceed total stock", nil)
	}
	row.availableStock++
	r.store.drops[id] = row
	return row.availableStock, nil
}

type fakeResRepo struct {
	store *fakeStore
}

func (r *fakeResRepo) Create(_ context.Context, _ db.DBTX, res *reservation.Reservation) (uuid.UUID, error) {
	for _, row := range r.store.reservations {
		if row.dropID == res.DropID() && row.buyerID == res.BuyerID() && row.status == reservation.StatusActive {
			return uuid.Nil, infra.NewRepoErr(infra.KindDuplicateKey, "buyer already holds an active reservation for this drop", nil)
		}
	}
	r.store.reservations[res.ID()] = resRow{
		dropID:     res.DropID(),
		buyerID:    res.BuyerID(),
		status:     res.Status(),
		priceCents: res.PriceCents(),
		createdAt:  res.CreatedAt(),
		expiresAt:  res.ExpiresAt(),
		updatedAt:  res.UpdatedAt(),
	}
	return res.ID(), nil
}

func (r *fakeResRepo) FindForUpdate(_ context.Context, _ db.DBTX, id uuid.UUID) (*reservation.Reservation, error) {
	row, ok := r.store.reservations[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "reservation not found", nil)
	}
	return reservation.ReconstructReservation(
		id, row.dropID, row.buyerID, row.status, row.priceCents,
		row.createdAt, row.expiresAt, row.updatedAt,
	), nil
}

func (r *fakeResRepo) HasActive(_ context.Context, _ db.DBTX, dropID, buyerID uuid.UUID) (bool, error) {
	for _, row := range r.store.reservations {
		if row.dropID == dropID && row.buyerID == buyerID && row.status == reservation.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeResRepo) UpdateStatus(_ context.Context, _ db.DBTX, id uuid.UUID, status reservation.Status, now time.Time) error {
	row, ok := r.store.reservations[id]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "reservation not found", nil)
	}
	row.status = status
	row.updatedAt = now
	r.store.reservations[id] = row
	return nil
}

func (r *fakeResRepo) ListOverdueActive(_ context.Context, _ db.DBTX, now time.Time, limit int32) ([]shared.OverdueHold, error) {
	var overdue []shared.OverdueHold
	for id, row := range r.store.reservations {
		if int32(len(overdue)) >= limit {
			break
		}
		if row.status == reservation.StatusActive && !now.Before(row.expiresAt) {
			overdue = append(overdue, shared.OverdueHold{ReservationID: id, DropID: row.dropID})
		}
	}
	return overdue, nil
}

type fakePurchaseRepo struct {
	store *fakeStore
}

func (r *fakePurchaseRepo) Create(_ context.Context, _ db.DBTX, p *purchase.Purchase) (uuid.UUID, error) {
	if _, exists := r.store.purchases[p.ReservationID()]; exists {
		return uuid.Nil, infra.NewRepoErr(infra.KindDuplicateKey, "reservation already purchased", nil)
	}
	r.store.purchases[p.ReservationID()] = purchaseRow{
		id:             p.ID(),
		dropID:         p.DropID(),
		buyerID:        p.BuyerID(),
		pricePaidCents: p.PricePaidCents(),
		createdAt:      p.CreatedAt(),
	}
	return p.ID(), nil
}

type fakeScheduler struct {
	mu          sync.Mutex
	scheduleErr error
	scheduled   map[uuid.UUID]time.Time
	cancelled   []uuid.UUID
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[uuid.UUID]time.Time)}
}

func (s *fakeScheduler) Schedule(reservationID, _ uuid.UUID, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduleErr != nil {
		return s.scheduleErr
	}
	s.scheduled[reservationID] = expiresAt
	return nil
}

func (s *fakeScheduler) Cancel(reservationID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, reservationID)
}

func (s *fakeScheduler) scheduledAt(id uuid.UUID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.scheduled[id]
	return at, ok
}

func (s *fakeScheduler) cancelCount(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.cancelled {
		if c == id {
			n++
		}
	}
	return n
}

type stockEvent struct {
	dropID    uuid.UUID
	available int32
}

type fakeNotifier struct {
	mu             sync.Mutex
	stockEvents    []stockEvent
	purchaseEvents []uuid.UUID // drop ids
}

var _ notify.Notifier = (*fakeNotifier)(nil)

func (n *fakeNotifier) StockChanged(_ context.Context, dropID uuid.UUID, availableStock int32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stockEvents = append(n.stockEvents, stockEvent{dropID: dropID, available: availableStock})
}

func (n *fakeNotifier) PurchaseCompleted(_ context.Context, dropID, _ uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.purchaseEvents = append(n.purchaseEvents, dropID)
}

func (n *fakeNotifier) stockEventCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.stockEvents)
}

// cmdEnv wires the command implementations against the fakes, mirroring the
// production dependency graph.
type cmdEnv struct {
	store     *fakeStore
	clk       *clock.MockClock
	scheduler *fakeScheduler
	notifier  *fakeNotifier

	drops        commands.DropCommands
	reservations commands.ReservationCommands
	purchases    commands.PurchaseCommands
	expirations  commands.ExpirationCommands
}

const testTTL = 60 * time.Second

var testBaseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newCmdEnv(t *testing.T, opts ...func(*config.ReservationConfig)) *cmdEnv {
	t.Helper()

	cfg := config.ReservationConfig{
		TTL:           testTTL,
		SweepInterval: time.Second,
		PricePolicy:   config.PricePolicyFinalize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := newFakeStore()
	uow := &fakeUoW{store: store}
	clk := clock.NewMockClock(testBaseTime)
	scheduler := newFakeScheduler()
	notifier := &fakeNotifier{}
	factory := reservation.NewFactory(clk, cfg.TTL)

	return &cmdEnv{
		store:        store,
		clk:          clk,
		scheduler:    scheduler,
		notifier:     notifier,
		drops:        commands.NewDropCommands(uow, clk),
		reservations: commands.NewReservationCommands(uow, factory, clk, scheduler, notifier),
		purchases:    commands.NewPurchaseCommands(uow, clk, scheduler, notifier, cfg),
		expirations:  commands.NewExpirationCommands(uow, clk, notifier),
	}
}

// seedDrop inserts a drop that went on sale an hour before the mock clock's
// current time.
func (e *cmdEnv) seedDrop(totalStock int32, priceCents int64) uuid.UUID {
	id := uuid.New()
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.drops[id] = dropRow{
		name:           "test drop",
		priceCents:     priceCents,
		totalStock:     totalStock,
		availableStock: totalStock,
		startsAt:       e.clk.Now().Add(-time.Hour),
	}
	return id
}

func (e *cmdEnv) seedDropWithWindow(totalStock int32, priceCents int64, startsAt time.Time, endsAt *time.Time) uuid.UUID {
	id := uuid.New()
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.drops[id] = dropRow{
		name:           "test drop",
		priceCents:     priceCents,
		totalStock:     totalStock,
		availableStock: totalStock,
		startsAt:       startsAt,
		endsAt:         endsAt,
	}
	return id
}

func (e *cmdEnv) availableStock(id uuid.UUID) int32 {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.store.drops[id].availableStock
}

func (e *cmdEnv) setDropPrice(id uuid.UUID, priceCents int64) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	row := e.store.drops[id]
	row.priceCents = priceCents
	e.store.drops[id] = row
}

func (e *cmdEnv) reservationStatus(id uuid.UUID) reservation.Status {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.store.reservations[id].status
}

func (e *cmdEnv) purchaseCount() int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return len(e.store.purchases)
}
