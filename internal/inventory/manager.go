// Package inventory keeps spot occupancy and level counters consistent.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Phantawat/car-parking/internal/models"
	"github.com/Phantawat/car-parking/internal/store"
)

// DefaultSpotBatch is the number of spots generated when no count is given.
const DefaultSpotBatch = 10

// Manager owns the spot and level capacity rules.
type Manager struct {
	logger *zap.Logger
	store  store.Store
}

// New creates a Manager over s.
func New(s store.Store, logger *zap.Logger) *Manager {
	return &Manager{logger: logger, store: s}
}

// With returns a Manager bound to tx, so its updates join the caller's
// transaction.
func (m *Manager) With(tx store.Store) *Manager {
	return &Manager{logger: m.logger, store: tx}
}

// FindAvailableSpot returns the free spot with the smallest number on the
// level, or ErrSpotNotFound when every spot is taken.
func (m *Manager) FindAvailableSpot(ctx context.Context, levelID string) (*models.Spot, error) {
	spot, err := m.store.Spots().FindAvailable(ctx, levelID)
	if err != nil {
		return nil, err
	}
	return spot, nil
}

// Reserve marks spot occupied by vehicleID. A spot taken since it was found
// yields ErrSpotTaken.
func (m *Manager) Reserve(ctx context.Context, spot *models.Spot, vehicleID string) error {
	if err := m.store.Spots().Reserve(ctx, spot.ID, vehicleID); err != nil {
		if errors.Is(err, models.ErrSpotTaken) {
			m.logger.Debug("Spot taken concurrently",
				zap.String("spot_id", spot.ID),
				zap.String("number", spot.Number))
		}
		return err
	}

	spot.IsOccupied = true
	spot.VehicleID = &vehicleID
	return nil
}

// Release frees spot if vehicleID holds it. Releasing a free spot is not an
// error; the returned flag tells the caller whether the counter should move.
func (m *Manager) Release(ctx context.Context, spot *models.Spot, vehicleID string) (bool, error) {
	released, err := m.store.Spots().Release(ctx, spot.ID, vehicleID)
	if err != nil {
		return false, err
	}
	if !released {
		m.logger.Warn("Spot already free on release",
			zap.String("spot_id", spot.ID),
			zap.String("number", spot.Number),
			zap.String("vehicle_id", vehicleID))
		return false, nil
	}

	spot.IsOccupied = false
	spot.VehicleID = nil
	return true, nil
}

// AdjustAvailability moves the level counter by delta, clamped to
// [0, capacity], and returns the new value.
func (m *Manager) AdjustAvailability(ctx context.Context, levelID string, delta int) (int, error) {
	return m.store.Levels().AdjustAvailableSpaces(ctx, levelID, delta)
}

// GenerateSpots creates count spots on the level, numbered L{level}-{i}
// after the level's existing spots, and raises its availability.
func (m *Manager) GenerateSpots(ctx context.Context, levelID string, count int) ([]*models.Spot, error) {
	if count <= 0 {
		return nil, &models.ValidationError{Field: "count", Message: "must be greater than 0"}
	}

	var spots []*models.Spot
	err := m.store.InTx(ctx, func(ctx context.Context, tx store.Store) error {
		level, err := tx.Levels().GetForUpdate(ctx, levelID)
		if err != nil {
			return err
		}

		existing, err := tx.Spots().CountByLevel(ctx, levelID)
		if err != nil {
			return err
		}

		spots = make([]*models.Spot, 0, count)
		for i := existing + 1; i <= existing+count; i++ {
			spots = append(spots, &models.Spot{
				Number:  fmt.Sprintf("L%d-%d", level.Level, i),
				LevelID: level.ID,
				Level:   level.Level,
			})
		}
		if err := tx.Spots().CreateBatch(ctx, spots); err != nil {
			return err
		}

		_, err = tx.Levels().AdjustAvailableSpaces(ctx, levelID, count)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("generate spots: %w", err)
	}

	m.logger.Info("Spots generated",
		zap.String("level_id", levelID),
		zap.Int("count", count))
	return spots, nil
}

// ListSpots returns spots ordered by level and spot number. An empty levelID
// lists every level.
func (m *Manager) ListSpots(ctx context.Context, levelID string) ([]*models.Spot, error) {
	return m.store.Spots().List(ctx, store.SpotFilter{LevelID: levelID})
}
