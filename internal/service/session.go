package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Phantawat/car-parking/internal/config"
	"github.com/Phantawat/car-parking/internal/events"
	"github.com/Phantawat/car-parking/internal/inventory"
	"github.com/Phantawat/car-parking/internal/lock"
	"github.com/Phantawat/car-parking/internal/models"
	"github.com/Phantawat/car-parking/internal/pricing"
	"github.com/Phantawat/car-parking/internal/state"
	"github.com/Phantawat/car-parking/internal/store"
)

const publishTimeout = 5 * time.Second

// SessionService opens and closes parking sessions.
type SessionService struct {
	logger       *zap.Logger
	store        store.Store
	inventory    *inventory.Manager
	locker       lock.Locker
	publisher    events.Publisher
	pricing      pricing.Policy
	maxRetries   int
	fallbackRate float64
	now          func() time.Time
}

// Option customizes a SessionService.
type Option func(*SessionService)

// WithLocker serializes park attempts per level through l.
func WithLocker(l lock.Locker) Option {
	return func(s *SessionService) { s.locker = l }
}

// WithPublisher sends ticket events to p.
func WithPublisher(p events.Publisher) Option {
	return func(s *SessionService) { s.publisher = p }
}

// WithPricing replaces the hourly policy.
func WithPricing(p pricing.Policy) Option {
	return func(s *SessionService) { s.pricing = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *SessionService) { s.now = now }
}

// NewSessionService creates the session service.
func NewSessionService(cfg *config.Config, logger *zap.Logger, st store.Store, inv *inventory.Manager, opts ...Option) *SessionService {
	s := &SessionService{
		logger:       logger,
		store:        st,
		inventory:    inv,
		locker:       lock.Nop{},
		publisher:    events.Nop{},
		pricing:      pricing.Hourly{},
		maxRetries:   cfg.ParkMaxRetries,
		fallbackRate: cfg.DefaultHourlyRate,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxRetries < 1 {
		s.maxRetries = 1
	}
	return s
}

// Park reserves the first free spot on the requested level and opens a
// ticket for the vehicle. Losing a spot to a concurrent request is retried a
// bounded number of times before ErrNoSpotAvailable is returned.
func (s *SessionService) Park(ctx context.Context, req ParkRequest) (*models.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		ticket, available, err := s.park(ctx, req)
		if err == nil {
			s.logger.Info("Vehicle parked",
				zap.String("ticket_id", ticket.ID),
				zap.String("vehicle_id", ticket.VehicleID),
				zap.String("spot", ticket.SpotNumber),
				zap.Int("level", ticket.Level),
				zap.Int("available_spaces", available))
			s.publish(ctx, events.TicketOpened, ticket, available)
			return ticket, nil
		}
		if !errors.Is(err, models.ErrSpotTaken) && !errors.Is(err, models.ErrLevelBusy) {
			return nil, err
		}

		s.logger.Debug("Park attempt lost a race, retrying",
			zap.String("level_id", req.LevelID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	s.logger.Warn("Park retries exhausted",
		zap.String("level_id", req.LevelID),
		zap.Int("attempts", s.maxRetries))
	return nil, fmt.Errorf("park after %d attempts: %w", s.maxRetries, models.ErrNoSpotAvailable)
}

// park runs one attempt. The spot reservation, counter update and ticket
// insert commit together or not at all.
func (s *SessionService) park(ctx context.Context, req ParkRequest) (*models.Ticket, int, error) {
	unlock, err := s.locker.Lock(ctx, req.LevelID)
	if err != nil {
		return nil, 0, err
	}
	defer unlock()

	var (
		ticket    *models.Ticket
		available int
	)
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		// parks on this level queue here until the transaction ends, so the
		// spot lookup below always sees the previous winner's reservation
		level, err := tx.Levels().GetForUpdate(ctx, req.LevelID)
		if err != nil {
			return err
		}
		if !level.Accepting() {
			return models.ErrLevelUnavailable
		}

		inv := s.inventory.With(tx)
		spot, err := inv.FindAvailableSpot(ctx, level.ID)
		if errors.Is(err, models.ErrSpotNotFound) {
			s.logger.Warn("Level counter reports space but no spot is free",
				zap.String("level_id", level.ID),
				zap.Int("available_spaces", level.AvailableSpaces))
			return models.ErrNoSpotAvailable
		}
		if err != nil {
			return err
		}

		vehicle, err := s.resolveVehicle(ctx, tx, req)
		if err != nil {
			return err
		}

		if err := inv.Reserve(ctx, spot, vehicle.ID); err != nil {
			return err
		}
		if available, err = inv.AdjustAvailability(ctx, level.ID, -1); err != nil {
			return err
		}

		lotName, err := s.lotName(ctx, tx, level.ParkingLotID)
		if err != nil {
			return err
		}

		ticket = &models.Ticket{
			VehicleID:  vehicle.ID,
			LevelID:    level.ID,
			Level:      level.Level,
			SpotID:     spot.ID,
			SpotNumber: spot.Number,
			LotName:    lotName,
			StartTime:  s.now().UTC(),
		}
		return tx.Tickets().Create(ctx, ticket)
	})
	if err != nil {
		return nil, 0, err
	}
	return ticket, available, nil
}

// resolveVehicle loads the referenced vehicle or registers a new one. A plate
// that is already registered reuses that vehicle. An existing vehicle's row
// stays locked until commit so it cannot be parked twice or deleted meanwhile.
func (s *SessionService) resolveVehicle(ctx context.Context, tx store.Store, req ParkRequest) (*models.Vehicle, error) {
	vehicleID := req.VehicleID

	if vehicleID == "" {
		v, err := tx.Vehicles().GetByPlate(ctx, req.Plate)
		if errors.Is(err, models.ErrVehicleNotFound) {
			vehicle := &models.Vehicle{Plate: req.Plate, Owner: req.Owner, Type: req.Type}
			if err := tx.Vehicles().Create(ctx, vehicle); err != nil {
				return nil, err
			}
			return vehicle, nil
		}
		if err != nil {
			return nil, err
		}
		vehicleID = v.ID
	}

	vehicle, err := tx.Vehicles().GetForUpdate(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Tickets().FindOpenByVehicle(ctx, vehicle.ID); err == nil {
		return nil, models.ErrVehicleParked
	} else if !errors.Is(err, models.ErrTicketNotFound) {
		return nil, err
	}
	return vehicle, nil
}

func (s *SessionService) lotName(ctx context.Context, tx store.Store, lotID string) (string, error) {
	lot, err := tx.Lots().GetByID(ctx, lotID)
	if errors.Is(err, models.ErrLotNotFound) {
		return models.UnknownLotName, nil
	}
	if err != nil {
		return "", err
	}
	return lot.Name, nil
}

// Unpark closes the ticket, frees its spot and bills the session. A ticket
// can be closed once; later calls fail with ErrAlreadyClosed.
func (s *SessionService) Unpark(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var (
		ticket    *models.Ticket
		available int
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		t, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}

		machine := state.NewTicketMachine(t, s.onTransition)
		if !machine.CanClose() {
			return models.ErrAlreadyClosed
		}

		level, err := tx.Levels().GetByID(ctx, t.LevelID)
		if err != nil && !errors.Is(err, models.ErrLevelNotFound) {
			return err
		}
		if level != nil {
			available = level.AvailableSpaces
		}

		if available, err = s.releaseSpot(ctx, tx, t, level, available); err != nil {
			return err
		}

		rate, err := s.hourlyRate(ctx, tx, level)
		if err != nil {
			return err
		}

		end := s.now().UTC()
		price := s.pricing.Price(pricing.BillableHours(t.StartTime, end), rate)

		// price is the closed marker, so it is written last
		if err := tx.Tickets().Close(ctx, t.ID, end, price); err != nil {
			return err
		}
		if err := machine.Close(ctx); err != nil {
			return err
		}

		t.EndTime = &end
		t.Price = &price
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Vehicle unparked",
		zap.String("ticket_id", ticket.ID),
		zap.String("spot", ticket.SpotNumber),
		zap.Float64("price", *ticket.Price))
	s.publish(ctx, events.TicketClosed, ticket, available)
	return ticket, nil
}

// releaseSpot frees the ticket's spot and returns the level counter. A spot
// that is already free, or gone, is logged and skipped.
func (s *SessionService) releaseSpot(ctx context.Context, tx store.Store, t *models.Ticket, level *models.Level, available int) (int, error) {
	spot, err := tx.Spots().GetByID(ctx, t.SpotID)
	if errors.Is(err, models.ErrSpotNotFound) {
		s.logger.Warn("Ticket spot no longer exists",
			zap.String("ticket_id", t.ID),
			zap.String("spot_id", t.SpotID))
		return available, nil
	}
	if err != nil {
		return 0, err
	}

	inv := s.inventory.With(tx)
	released, err := inv.Release(ctx, spot, t.VehicleID)
	if err != nil {
		return 0, err
	}
	if !released || level == nil {
		return available, nil
	}
	return inv.AdjustAvailability(ctx, level.ID, 1)
}

// hourlyRate returns the rate of the level's lot, or the fallback rate when
// the level or lot no longer exists.
func (s *SessionService) hourlyRate(ctx context.Context, tx store.Store, level *models.Level) (float64, error) {
	if level == nil {
		return s.fallbackRate, nil
	}
	lot, err := tx.Lots().GetByID(ctx, level.ParkingLotID)
	if errors.Is(err, models.ErrLotNotFound) {
		return s.fallbackRate, nil
	}
	if err != nil {
		return 0, err
	}
	return lot.HourlyRate, nil
}

// GetTicket returns one ticket.
func (s *SessionService) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return s.store.Tickets().GetByID(ctx, ticketID)
}

// ListTickets returns a page of tickets, newest first, and the total count.
func (s *SessionService) ListTickets(ctx context.Context, limit, offset int) ([]*models.Ticket, int64, error) {
	tickets, err := s.store.Tickets().List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Tickets().Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (s *SessionService) onTransition(ticketID, from, to string) {
	s.logger.Debug("Ticket state changed",
		zap.String("ticket_id", ticketID),
		zap.String("from", from),
		zap.String("to", to))
}

// publish delivers the event outside the request's cancellation. Failures
// never fail the session operation.
func (s *SessionService) publish(ctx context.Context, eventType string, ticket *models.Ticket, available int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, events.Event{
		Type:            eventType,
		Ticket:          ticket,
		AvailableSpaces: available,
		OccurredAt:      s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("Failed to publish ticket event",
			zap.String("type", eventType),
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}
}
