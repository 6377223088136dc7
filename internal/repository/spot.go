package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/Phantawat/car-parking/internal/models"
	"github.com/Phantawat/car-parking/internal/store"
)

// Spot numbers share a prefix per level, so ordering by length first gives
// L1-2 before L1-10.
const spotNumberOrder = "length(number) ASC, number ASC"

// SpotRepository parking spot repository
type SpotRepository struct {
	db bun.IDB
}

// NewSpotRepository creates a spot repository.
func NewSpotRepository(db bun.IDB) *SpotRepository {
	return &SpotRepository{db: db}
}

// CreateBatch inserts spots in one statement.
func (r *SpotRepository) CreateBatch(ctx context.Context, spots []*models.Spot) error {
	if len(spots) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, s := range spots {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.UpdatedAt = now
	}

	if _, err := r.db.NewInsert().Model(&spots).Exec(ctx); err != nil {
		return storeError("insert spots", err, nil)
	}
	return nil
}

// GetByID loads one spot.
func (r *SpotRepository) GetByID(ctx context.Context, id string) (*models.Spot, error) {
	spot := new(models.Spot)
	err := r.db.NewSelect().Model(spot).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, storeError("get spot by id", err, models.ErrSpotNotFound)
	}
	return spot, nil
}

// List returns spots ordered by level number and spot number.
func (r *SpotRepository) List(ctx context.Context, filter store.SpotFilter) ([]*models.Spot, error) {
	spots := make([]*models.Spot, 0)
	q := r.db.NewSelect().Model(&spots)
	if filter.LevelID != "" {
		q = q.Where("level_id = ?", filter.LevelID)
	}
	if err := q.OrderExpr("level ASC, " + spotNumberOrder).Scan(ctx); err != nil {
		return nil, storeError("list spots", err, nil)
	}
	return spots, nil
}

// CountByLevel counts every spot on a level, occupied or not.
func (r *SpotRepository) CountByLevel(ctx context.Context, levelID string) (int, error) {
	n, err := r.db.NewSelect().Model((*models.Spot)(nil)).Where("level_id = ?", levelID).Count(ctx)
	if err != nil {
		return 0, storeError("count spots", err, nil)
	}
	return n, nil
}

// FindAvailable implements store.SpotStore.
func (r *SpotRepository) FindAvailable(ctx context.Context, levelID string) (*models.Spot, error) {
	spot := new(models.Spot)
	err := r.db.NewSelect().
		Model(spot).
		Where("level_id = ?", levelID).
		Where("is_occupied = ?", false).
		OrderExpr(spotNumberOrder).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, storeError("find available spot", err, models.ErrSpotNotFound)
	}
	return spot, nil
}

// Reserve implements store.SpotStore. The is_occupied predicate makes the
// update a compare-and-set.
func (r *SpotRepository) Reserve(ctx context.Context, spotID, vehicleID string) error {
	res, err := r.db.NewUpdate().
		Model((*models.Spot)(nil)).
		Set("is_occupied = ?", true).
		Set("vehicle_id = ?", vehicleID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", spotID).
		Where("is_occupied = ?", false).
		Exec(ctx)
	if err != nil {
		return storeError("reserve spot", err, nil)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, spotID); err != nil {
			return err
		}
		return models.ErrSpotTaken
	}
	return nil
}

// Release implements store.SpotStore.
func (r *SpotRepository) Release(ctx context.Context, spotID, vehicleID string) (bool, error) {
	res, err := r.db.NewUpdate().
		Model((*models.Spot)(nil)).
		Set("is_occupied = ?", false).
		Set("vehicle_id = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", spotID).
		Where("is_occupied = ?", true).
		Where("vehicle_id = ?", vehicleID).
		Exec(ctx)
	if err != nil {
		return false, storeError("release spot", err, nil)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
