// Package store defines the record store the parking engine persists to.
//
// Implementations must enforce the uniqueness rules (level number per lot,
// spot number, vehicle plate) and provide the conditional updates used for
// spot reservation and ticket closing. Errors wrap the kinds declared in
// internal/models.
package store

import (
	"context"
	"time"

	"github.com/Phantawat/car-parking/internal/models"
)

// LotStore persists parking lots.
type LotStore interface {
	Create(ctx context.Context, lot *models.Lot) error
	GetByID(ctx context.Context, id string) (*models.Lot, error)
	List(ctx context.Context) ([]*models.Lot, error)
	Update(ctx context.Context, lot *models.Lot) error
	Delete(ctx context.Context, id string) error
}

// LevelFilter narrows LevelStore.List. Zero values match everything.
type LevelFilter struct {
	ParkingLotID string
}

// LevelStore persists levels.
type LevelStore interface {
	Create(ctx context.Context, level *models.Level) error
	GetByID(ctx context.Context, id string) (*models.Level, error)

	// GetForUpdate loads the level and locks its row until the enclosing
	// transaction ends. Parks on the same level queue behind the lock.
	GetForUpdate(ctx context.Context, id string) (*models.Level, error)

	List(ctx context.Context, filter LevelFilter) ([]*models.Level, error)

	// Update writes the descriptive fields. The availability counter is never
	// written from the caller's copy; it is only clamped to the new capacity
	// and read back into level.
	Update(ctx context.Context, level *models.Level) error

	Delete(ctx context.Context, id string) error

	// AdjustAvailableSpaces atomically adds delta to the level's counter,
	// clamped to [0, capacity], and returns the new value.
	AdjustAvailableSpaces(ctx context.Context, id string, delta int) (int, error)

	// SetAvailableSpaces overrides the counter, clamped to [0, capacity], and
	// returns the stored value.
	SetAvailableSpaces(ctx context.Context, id string, available int) (int, error)
}

// SpotFilter narrows SpotStore.List.
type SpotFilter struct {
	LevelID string
}

// SpotStore persists spots.
type SpotStore interface {
	CreateBatch(ctx context.Context, spots []*models.Spot) error
	GetByID(ctx context.Context, id string) (*models.Spot, error)
	List(ctx context.Context, filter SpotFilter) ([]*models.Spot, error)
	CountByLevel(ctx context.Context, levelID string) (int, error)

	// FindAvailable returns the free spot with the smallest number on the
	// level, or ErrSpotNotFound.
	FindAvailable(ctx context.Context, levelID string) (*models.Spot, error)

	// Reserve marks the spot occupied by vehicleID only if it is currently
	// free. It returns ErrSpotTaken otherwise.
	Reserve(ctx context.Context, spotID, vehicleID string) error

	// Release frees the spot only if vehicleID occupies it and reports
	// whether anything changed.
	Release(ctx context.Context, spotID, vehicleID string) (bool, error)
}

// VehicleStore persists vehicles.
type VehicleStore interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)

	// GetForUpdate loads the vehicle and locks its row until the enclosing
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Vehicle, error)

	GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error)
	List(ctx context.Context) ([]*models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	Delete(ctx context.Context, id string) error
}

// TicketStore persists tickets.
type TicketStore interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	FindOpenByVehicle(ctx context.Context, vehicleID string) (*models.Ticket, error)
	// List returns tickets newest first.
	List(ctx context.Context, limit, offset int) ([]*models.Ticket, error)
	Count(ctx context.Context) (int64, error)

	// Close sets the end time and price only if the ticket is still open.
	// It returns ErrAlreadyClosed otherwise.
	Close(ctx context.Context, id string, endTime time.Time, price float64) error
}

// Store groups the entity stores and their transaction boundary.
type Store interface {
	Lots() LotStore
	Levels() LevelStore
	Spots() SpotStore
	Vehicles() VehicleStore
	Tickets() TicketStore

	// InTx runs fn against a store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling InTx on a store that is already transactional runs fn in the
	// enclosing transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
}
