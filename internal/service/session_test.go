package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Phantawat/car-parking/internal/config"
	"github.com/Phantawat/car-parking/internal/events"
	"github.com/Phantawat/car-parking/internal/inventory"
	"github.com/Phantawat/car-parking/internal/models"
	"github.com/Phantawat/car-parking/internal/repository"
	"github.com/Phantawat/car-parking/internal/service"
	"github.com/Phantawat/car-parking/internal/store"
)

var startTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store *repository.Store
	inv   *inventory.Manager
	clock *clock
	lot   *models.Lot
	level *models.Level
	cfg   *config.Config
}

// newFixture builds lot "Main" at $20/h with level 1 holding spots
// L1-1..L1-{spots}. The level counter starts at capacity.
func newFixture(t *testing.T, capacity, spots int) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := repository.New(ctx, "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))
	s := db.Store()

	lot := &models.Lot{Name: "Main", Address: "1 Main St", Capacity: 100, HourlyRate: 20, IsActive: true}
	require.NoError(t, s.Lots().Create(ctx, lot))
	level := &models.Level{ParkingLotID: lot.ID, Level: 1, Name: "Ground", Capacity: capacity, IsOpen: true}
	require.NoError(t, s.Levels().Create(ctx, level))

	inv := inventory.New(s, zap.NewNop())
	if spots > 0 {
		_, err = inv.GenerateSpots(ctx, level.ID, spots)
		require.NoError(t, err)
	}
	_, err = s.Levels().AdjustAvailableSpaces(ctx, level.ID, capacity)
	require.NoError(t, err)

	return &fixture{
		store: s,
		inv:   inv,
		clock: &clock{now: startTime},
		lot:   lot,
		level: level,
		cfg:   &config.Config{ParkMaxRetries: 3, DefaultHourlyRate: 20},
	}
}

func (f *fixture) service(opts ...service.Option) *service.SessionService {
	return f.serviceOn(f.store, opts...)
}

func (f *fixture) serviceOn(st store.Store, opts ...service.Option) *service.SessionService {
	opts = append([]service.Option{service.WithClock(f.clock.Now)}, opts...)
	return service.NewSessionService(f.cfg, zap.NewNop(), st, inventory.New(st, zap.NewNop()), opts...)
}

func (f *fixture) levelState(t *testing.T) *models.Level {
	t.Helper()
	level, err := f.store.Levels().GetByID(context.Background(), f.level.ID)
	require.NoError(t, err)
	return level
}

func (f *fixture) spot(t *testing.T, number string) *models.Spot {
	t.Helper()
	spots, err := f.store.Spots().List(context.Background(), store.SpotFilter{LevelID: f.level.ID})
	require.NoError(t, err)
	for _, s := range spots {
		if s.Number == number {
			return s
		}
	}
	t.Fatalf("spot %s not found", number)
	return nil
}

func (f *fixture) ticketCount(t *testing.T) int64 {
	t.Helper()
	n, err := f.store.Tickets().Count(context.Background())
	require.NoError(t, err)
	return n
}

func newVehicle(levelID, plate string) service.ParkRequest {
	return service.ParkRequest{LevelID: levelID, Plate: plate, Owner: "Jo", Type: models.VehicleCar}
}

func TestParkAndUnparkEndToEnd(t *testing.T) {
	f := newFixture(t, 10, 10)
	svc := f.service()
	ctx := context.Background()

	ticket, err := svc.Park(ctx, newVehicle(f.level.ID, "ABC"))
	require.NoError(t, err)
	assert.Equal(t, 1, ticket.Level)
	assert.Equal(t, f.level.ID, ticket.LevelID)
	assert.Equal(t, "Main", ticket.LotName)
	assert.Equal(t, "L1-1", ticket.SpotNumber)
	assert.Nil(t, ticket.Price)
	assert.True(t, ticket.StartTime.Equal(startTime))

	spot := f.spot(t, "L1-1")
	assert.True(t, spot.IsOccupied)
	require.NotNil(t, spot.VehicleID)
	assert.Equal(t, ticket.VehicleID, *spot.VehicleID)
	assert.Equal(t, 9, f.levelState(t).AvailableSpaces)

	f.clock.Advance(90 * time.Minute)

	closed, err := svc.Unpark(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.Price)
	assert.Equal(t, 40.0, *closed.Price)
	require.NotNil(t, closed.EndTime)
	assert.True(t, closed.EndTime.Equal(startTime.Add(90*time.Minute)))

	assert.False(t, f.spot(t, "L1-1").IsOccupied)
	assert.Equal(t, 10, f.levelState(t).AvailableSpaces)

	got, err := svc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Price)
	assert.Equal(t, 40.0, *got.Price)

	// the vehicle outlives its ticket
	vehicle, err := f.store.Vehicles().GetByID(ctx, ticket.VehicleID)
	require.NoError(t, err)
	assert.Equal(t, "ABC", vehicle.Plate)
}

func TestUnparkBillsStartedHours(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     float64
	}{
		{"one minute", time.Minute, 20},
		{"exactly one hour", time.Hour, 20},
		{"sixty one minutes", 61 * time.Minute, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 2, 2)
			svc := f.service()
			ctx := context.Background()

			ticket, err := svc.Park(ctx, newVehicle(f.level.ID, "ABC"))
			require.NoError(t, err)

			f.clock.Advance(tt.duration)
			closed, err := svc.Unpark(ctx, ticket.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *closed.Price)
		})
	}
}

func TestUnparkTwiceIsRejected(t *testing.T) {
	f := newFixture(t, 10, 10)
	svc := f.service()
	ctx := context.Background()

	ticket, err := svc.Park(ctx, newVehicle(f.level.ID, "ABC"))
	require.NoError(t, err)
	f.clock.Advance(30 * time.Minute)

	_, err = svc.Unpark(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.levelState(t).AvailableSpaces)

	f.clock.Advance(5 * time.Hour)
	_, err = svc.Unpark(ctx, ticket.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyClosed)
	assert.True(t, models.IsInvalidState(err))

	got, err := svc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, *got.Price)
	assert.Equal(t, 10, f.levelState(t).AvailableSpaces)
}

func TestUnparkUnknownTicket(t *testing.T) {
	f := newFixture(t, 1, 1)

	_, err := f.service().Unpark(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrTicketNotFound)

	_, err = f.service().GetTicket(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}

func TestParkRejectsUnavailableLevels(t *testing.T) {
	ctx := context.Background()

	t.Run("closed", func(t *testing.T) {
		f := newFixture(t, 5, 5)
		level := f.levelState(t)
		level.IsOpen = false
		require.NoError(t, f.store.Levels().Update(ctx, level))

		_, err := f.service().Park(ctx, newVehicle(f.level.ID, "ABC"))
		assert.ErrorIs(t, err, models.ErrLevelUnavailable)
		assert.Zero(t, f.ticketCount(t))
		assert.False(t, f.spot(t, "L1-1").IsOccupied)
	})

	t.Run("full", func(t *testing.T) {
		f := newFixture(t, 5, 5)
		_, err := f.store.Levels().AdjustAvailableSpaces(ctx, f.level.ID, -5)
		require.NoError(t, err)

		_, err = f.service().Park(ctx, newVehicle(f.level.ID, "ABC"))
		assert.ErrorIs(t, err, models.ErrLevelUnavailable)
		assert.Zero(t, f.ticketCount(t))
		assert.False(t, f.spot(t, "L1-1").IsOccupied)
	})

	t.Run("counter drift", func(t *testing.T) {
		f := newFixture(t, 5, 0)

		_, err := f.service().Park(ctx, newVehicle(f.level.ID, "ABC"))
		assert.ErrorIs(t, err, models.ErrNoSpotAvailable)
		assert.Zero(t, f.ticketCount(t))
		assert.Equal(t, 5, f.levelState(t).AvailableSpaces)

		_, err = f.store.Vehicles().GetByPlate(ctx, "ABC")
		assert.ErrorIs(t, err, models.ErrVehicleNotFound)
	})

	t.Run("unknown level", func(t *testing.T) {
		f := newFixture(t, 1, 1)

		_, err := f.service().Park(ctx, newVehicle("missing", "ABC"))
		assert.ErrorIs(t, err, models.ErrLevelNotFound)
	})
}

func TestParkWithRegisteredVehicle(t *testing.T) {
	f := newFixture(t, 5, 5)
	svc := f.service()
	ctx := context.Background()

	vehicle := &models.Vehicle{Plate: "XYZ", Owner: "Sam", Type: models.VehicleMotorcycle}
	require.NoError(t, f.store.Vehicles().Create(ctx, vehicle))

	ticket, err := svc.Park(ctx, service.ParkRequest{LevelID: f.level.ID, VehicleID: vehicle.ID})
	require.NoError(t, err)
	assert.Equal(t, vehicle.ID, ticket.VehicleID)

	_, err = svc.Park(ctx, service.ParkRequest{LevelID: f.level.ID, VehicleID: vehicle.ID})
	assert.ErrorIs(t, err, models.ErrVehicleParked)

	// same plate resolves to the same, already parked, vehicle
	_, err = svc.Park(ctx, newVehicle(f.level.ID, "XYZ"))
	assert.ErrorIs(t, err, models.ErrVehicleParked)

	_, err = svc.Park(ctx, service.ParkRequest{LevelID: f.level.ID, VehicleID: "missing"})
	assert.ErrorIs(t, err, models.ErrVehicleNotFound)

	assert.Equal(t, 4, f.levelState(t).AvailableSpaces)
	assert.Equal(t, int64(1), f.ticketCount(t))

	_, err = svc.Unpark(ctx, ticket.ID)
	require.NoError(t, err)

	again, err := svc.Park(ctx, newVehicle(f.level.ID, "XYZ"))
	require.NoError(t, err)
	assert.Equal(t, vehicle.ID, again.VehicleID)
}

func TestParkValidatesBeforeStoreAccess(t *testing.T) {
	// any store call would panic on the nil embedded interface
	svc := service.NewSessionService(&config.Config{ParkMaxRetries: 3}, zap.NewNop(), panicStore{}, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  service.ParkRequest
	}{
		{"missing level", service.ParkRequest{VehicleID: "v1"}},
		{"no vehicle info", service.ParkRequest{LevelID: "l1"}},
		{"partial vehicle info", service.ParkRequest{LevelID: "l1", Plate: "ABC", Owner: "Jo"}},
		{"unknown type", service.ParkRequest{LevelID: "l1", Plate: "ABC", Owner: "Jo", Type: "truck"}},
		{"blank plate", service.ParkRequest{LevelID: "l1", Plate: "   ", Owner: "Jo", Type: models.VehicleCar}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Park(ctx, tt.req)
			assert.True(t, models.IsValidation(err), "got %v", err)
		})
	}

	_, err := svc.Park(ctx, service.ParkRequest{LevelID: "l1"})
	assert.ErrorIs(t, err, models.ErrMissingVehicleInfo)
}

func TestConcurrentParksNeverShareASpot(t *testing.T) {
	const (
		requests = 8
		spots    = 3
	)
	// the counter claims more room than there are spots
	f := newFixture(t, 10, spots)
	svc := f.service()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes []*models.Ticket
		failures  []error
	)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticket, err := svc.Park(context.Background(), newVehicle(f.level.ID, fmt.Sprintf("CAR-%d", i)))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes = append(successes, ticket)
		}(i)
	}
	wg.Wait()

	require.Len(t, successes, spots)
	require.Len(t, failures, requests-spots)
	for _, err := range failures {
		assert.ErrorIs(t, err, models.ErrNoSpotAvailable)
	}

	seen := make(map[string]bool)
	for _, ticket := range successes {
		assert.False(t, seen[ticket.SpotID], "spot %s allocated twice", ticket.SpotNumber)
		seen[ticket.SpotID] = true
	}
	assert.Equal(t, 10-spots, f.levelState(t).AvailableSpaces)
	assert.Equal(t, int64(spots), f.ticketCount(t))
}

func TestParkRetriesLostReservations(t *testing.T) {
	f := newFixture(t, 5, 5)
	ctx := context.Background()

	conflicts := int32(2)
	svc := f.serviceOn(&conflictStore{Store: f.store, remaining: &conflicts})

	ticket, err := svc.Park(ctx, newVehicle(f.level.ID, "ABC"))
	require.NoError(t, err)
	assert.Equal(t, "L1-1", ticket.SpotNumber)
	assert.Equal(t, 4, f.levelState(t).AvailableSpaces)

	// one vehicle despite three attempts
	vehicles, err := f.store.Vehicles().List(ctx)
	require.NoError(t, err)
	assert.Len(t, vehicles, 1)
}

func TestParkGivesUpAfterMaxRetries(t *testing.T) {
	f := newFixture(t, 5, 5)
	ctx := context.Background()

	conflicts := int32(100)
	svc := f.serviceOn(&conflictStore{Store: f.store, remaining: &conflicts})

	_, err := svc.Park(ctx, newVehicle(f.level.ID, "ABC"))
	assert.ErrorIs(t, err, models.ErrNoSpotAvailable)
	assert.True(t, models.IsConflict(err))
	assert.Equal(t, int32(100-3), atomic.LoadInt32(&conflicts))

	assert.Zero(t, f.ticketCount(t))
	assert.Equal(t, 5, f.levelState(t).AvailableSpaces)
	vehicles, err := f.store.Vehicles().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, vehicles)
}

func TestParkRetriesBusyLevelLock(t *testing.T) {
	f := newFixture(t, 5, 5)
	locker := &busyLocker{busy: 2}

	ticket, err := f.service(service.WithLocker(locker)).Park(context.Background(), newVehicle(f.level.ID, "ABC"))
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, 3, locker.calls)
	assert.Equal(t, 1, locker.unlocked)

	locker = &busyLocker{busy: 10}
	_, err = f.service(service.WithLocker(locker)).Park(context.Background(), newVehicle(f.level.ID, "XYZ"))
	assert.ErrorIs(t, err, models.ErrNoSpotAvailable)
	assert.Equal(t, 3, locker.calls)
}

func TestUnparkToleratesFreedSpot(t *testing.T) {
	f := newFixture(t, 5, 5)
	svc := f.service()
	ctx := context.Background()

	ticket, err := svc.Park(ctx, newVehicle(f.level.ID, "ABC"))
	require.NoError(t, err)
	assert.Equal(t, 4, f.levelState(t).AvailableSpaces)

	released, err := f.store.Spots().Release(ctx, ticket.SpotID, ticket.VehicleID)
	require.NoError(t, err)
	require.True(t, released)

	closed, err := svc.Unpark(ctx, ticket.ID)
	require.NoError(t, err)
	assert.NotNil(t, closed.Price)
	// no release happened, so the counter is left alone
	assert.Equal(t, 4, f.levelState(t).AvailableSpaces)
}

func TestMissingLotFallsBack(t *testing.T) {
	f := newFixture(t, 5, 5)
	f.cfg.DefaultHourlyRate = 15
	svc := f.service()
	ctx := context.Background()

	require.NoError(t, f.store.Lots().Delete(ctx, f.lot.ID))

	ticket, err := svc.Park(ctx, newVehicle(f.level.ID, "ABC"))
	require.NoError(t, err)
	assert.Equal(t, models.UnknownLotName, ticket.LotName)

	f.clock.Advance(90 * time.Minute)
	closed, err := svc.Unpark(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, *closed.Price)
}

func TestParkAndUnparkPublishEvents(t *testing.T) {
	f := newFixture(t, 10, 10)
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.TicketOpened && e.AvailableSpaces == 9 && e.Ticket.SpotNumber == "L1-1"
	})).Return(nil).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.TicketClosed && e.AvailableSpaces == 10 && e.Ticket.Price != nil
	})).Return(fmt.Errorf("broker down")).Once()

	svc := f.service(service.WithPublisher(pub))
	ctx := context.Background()

	ticket, err := svc.Park(ctx, newVehicle(f.level.ID, "ABC"))
	require.NoError(t, err)

	// publish failures do not fail the unpark
	_, err = svc.Unpark(ctx, ticket.ID)
	require.NoError(t, err)

	pub.AssertExpectations(t)
}

func TestListTicketsNewestFirst(t *testing.T) {
	f := newFixture(t, 5, 5)
	svc := f.service()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Park(ctx, newVehicle(f.level.ID, fmt.Sprintf("CAR-%d", i)))
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}

	tickets, total, err := svc.ListTickets(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, tickets, 2)
	assert.Equal(t, "L1-3", tickets[0].SpotNumber)
	assert.Equal(t, "L1-2", tickets[1].SpotNumber)
}

func TestParkRetriesSpotTakenUnderneath(t *testing.T) {
	f := newFixture(t, 5, 5)
	ctx := context.Background()

	// snapshot L1-1 while it is free, then let another request take it
	snapshot, err := f.store.Spots().FindAvailable(ctx, f.level.ID)
	require.NoError(t, err)
	rival, err := f.service().Park(ctx, newVehicle(f.level.ID, "RIVAL"))
	require.NoError(t, err)
	require.Equal(t, snapshot.ID, rival.SpotID)

	stale := &staleStore{Store: f.store, state: &staleState{spot: snapshot}}
	ticket, err := f.serviceOn(stale).Park(ctx, newVehicle(f.level.ID, "ABC"))
	require.NoError(t, err)

	assert.Equal(t, int32(1), stale.state.taken.Load())
	assert.Equal(t, "L1-2", ticket.SpotNumber)
	assert.Equal(t, 3, f.levelState(t).AvailableSpaces)
	assert.Equal(t, int64(2), f.ticketCount(t))

	held := f.spot(t, "L1-1")
	require.NotNil(t, held.VehicleID)
	assert.Equal(t, rival.VehicleID, *held.VehicleID)

	// the vehicle registered by the lost attempt was rolled back
	vehicles, err := f.store.Vehicles().List(ctx)
	require.NoError(t, err)
	assert.Len(t, vehicles, 2)
}

func TestParkLocksLevelInsideTransaction(t *testing.T) {
	f := newFixture(t, 5, 5)
	var locked []string

	_, err := f.serviceOn(&lockingStore{Store: f.store, locked: &locked}).Park(context.Background(), newVehicle(f.level.ID, "ABC"))
	require.NoError(t, err)
	assert.Equal(t, []string{f.level.ID}, locked)
}

func TestOpenTicketRuleHoldsWithoutCheck(t *testing.T) {
	f := newFixture(t, 5, 5)
	ctx := context.Background()

	first, err := f.service().Park(ctx, newVehicle(f.level.ID, "ABC"))
	require.NoError(t, err)

	// the open-ticket lookup misses, as it would for a concurrent park
	svc := f.serviceOn(&blindStore{Store: f.store})
	_, err = svc.Park(ctx, service.ParkRequest{LevelID: f.level.ID, VehicleID: first.VehicleID})
	assert.ErrorIs(t, err, models.ErrVehicleParked)

	assert.Equal(t, int64(1), f.ticketCount(t))
	assert.Equal(t, 4, f.levelState(t).AvailableSpaces)
	assert.False(t, f.spot(t, "L1-2").IsOccupied)
}

// conflictStore makes the next remaining reservations fail as if another
// request had taken the spot first.
type conflictStore struct {
	store.Store
	remaining *int32
}

func (s *conflictStore) Spots() store.SpotStore {
	return &conflictSpots{SpotStore: s.Store.Spots(), remaining: s.remaining}
}

func (s *conflictStore) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &conflictStore{Store: tx, remaining: s.remaining})
	})
}

type conflictSpots struct {
	store.SpotStore
	remaining *int32
}

func (s *conflictSpots) Reserve(ctx context.Context, spotID, vehicleID string) error {
	if atomic.AddInt32(s.remaining, -1) >= 0 {
		return models.ErrSpotTaken
	}
	return s.SpotStore.Reserve(ctx, spotID, vehicleID)
}

type panicStore struct {
	store.Store
}

type busyLocker struct {
	busy     int
	calls    int
	unlocked int
}

func (l *busyLocker) Lock(context.Context, string) (func(), error) {
	l.calls++
	if l.calls <= l.busy {
		return nil, models.ErrLevelBusy
	}
	return func() { l.unlocked++ }, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e events.Event) error {
	return m.Called(ctx, e).Error(0)
}

type staleState struct {
	spot   *models.Spot
	served atomic.Bool
	taken  atomic.Int32
}

// staleStore hands the first spot lookup a copy of a spot read before
// another request reserved it.
type staleStore struct {
	store.Store
	state *staleState
}

func (s *staleStore) Spots() store.SpotStore {
	return &staleSpots{SpotStore: s.Store.Spots(), state: s.state}
}

func (s *staleStore) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &staleStore{Store: tx, state: s.state})
	})
}

type staleSpots struct {
	store.SpotStore
	state *staleState
}

func (s *staleSpots) FindAvailable(ctx context.Context, levelID string) (*models.Spot, error) {
	if s.state.served.CompareAndSwap(false, true) {
		spot := *s.state.spot
		return &spot, nil
	}
	return s.SpotStore.FindAvailable(ctx, levelID)
}

func (s *staleSpots) Reserve(ctx context.Context, spotID, vehicleID string) error {
	err := s.SpotStore.Reserve(ctx, spotID, vehicleID)
	if errors.Is(err, models.ErrSpotTaken) {
		s.state.taken.Add(1)
	}
	return err
}

// lockingStore records level row locks taken inside a transaction.
type lockingStore struct {
	store.Store
	inTx   bool
	locked *[]string
}

func (s *lockingStore) Levels() store.LevelStore {
	return &lockingLevels{LevelStore: s.Store.Levels(), inTx: s.inTx, locked: s.locked}
}

func (s *lockingStore) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &lockingStore{Store: tx, inTx: true, locked: s.locked})
	})
}

type lockingLevels struct {
	store.LevelStore
	inTx   bool
	locked *[]string
}

func (l *lockingLevels) GetForUpdate(ctx context.Context, id string) (*models.Level, error) {
	if l.inTx {
		*l.locked = append(*l.locked, id)
	}
	return l.LevelStore.GetForUpdate(ctx, id)
}

// blindStore never finds an open ticket.
type blindStore struct {
	store.Store
}

func (s *blindStore) Tickets() store.TicketStore {
	return blindTickets{TicketStore: s.Store.Tickets()}
}

func (s *blindStore) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &blindStore{Store: tx})
	})
}

type blindTickets struct {
	store.TicketStore
}

func (blindTickets) FindOpenByVehicle(context.Context, string) (*models.Ticket, error) {
	return nil, models.ErrTicketNotFound
}
