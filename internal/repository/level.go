package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/Phantawat/car-parking/internal/models"
	"github.com/Phantawat/car-parking/internal/store"
)

// LevelRepository parking level repository
type LevelRepository struct {
	db bun.IDB
}

// NewLevelRepository creates a level repository.
func NewLevelRepository(db bun.IDB) *LevelRepository {
	return &LevelRepository{db: db}
}

// Create inserts a level. A second level with the same number in the same
// lot fails with ErrDuplicate.
func (r *LevelRepository) Create(ctx context.Context, level *models.Level) error {
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	level.CreatedAt = now
	level.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(level).Exec(ctx); err != nil {
		return storeError("insert level", err, nil)
	}
	return nil
}

// GetByID loads one level.
func (r *LevelRepository) GetByID(ctx context.Context, id string) (*models.Level, error) {
	level := new(models.Level)
	err := r.db.NewSelect().Model(level).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, storeError("get level by id", err, models.ErrLevelNotFound)
	}
	return level, nil
}

// GetForUpdate implements store.LevelStore.
func (r *LevelRepository) GetForUpdate(ctx context.Context, id string) (*models.Level, error) {
	level := new(models.Level)
	q := r.db.NewSelect().Model(level).Where("id = ?", id).Limit(1)
	if err := lockRow(r.db, q).Scan(ctx); err != nil {
		return nil, storeError("lock level", err, models.ErrLevelNotFound)
	}
	return level, nil
}

// List returns levels ordered by lot and level number.
func (r *LevelRepository) List(ctx context.Context, filter store.LevelFilter) ([]*models.Level, error) {
	levels := make([]*models.Level, 0)
	q := r.db.NewSelect().Model(&levels)
	if filter.ParkingLotID != "" {
		q = q.Where("parking_lot_id = ?", filter.ParkingLotID)
	}
	if err := q.Order("parking_lot_id ASC", "level ASC").Scan(ctx); err != nil {
		return nil, storeError("list levels", err, nil)
	}
	return levels, nil
}

// Update implements store.LevelStore. Parks and unparks move the counter
// concurrently, so it is only clamped here and then read back.
func (r *LevelRepository) Update(ctx context.Context, level *models.Level) error {
	level.UpdatedAt = time.Now().UTC()
	res, err := r.db.NewUpdate().
		Model(level).
		Column("parking_lot_id", "level", "name", "capacity", "is_open", "updated_at").
		Set("available_spaces = CASE WHEN available_spaces > ? THEN ? ELSE available_spaces END",
			level.Capacity, level.Capacity).
		WherePK().
		Exec(ctx)
	if err != nil {
		return storeError("update level", err, nil)
	}
	if n, err := rowsAffected(res); err != nil {
		return err
	} else if n == 0 {
		return models.ErrLevelNotFound
	}

	available, err := r.availableSpaces(ctx, level.ID)
	if err != nil {
		return err
	}
	level.AvailableSpaces = available
	return nil
}

// Delete removes a level.
func (r *LevelRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*models.Level)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return storeError("delete level", err, nil)
	}
	if n, err := rowsAffected(res); err != nil {
		return err
	} else if n == 0 {
		return models.ErrLevelNotFound
	}
	return nil
}

// AdjustAvailableSpaces applies delta in a single statement so concurrent
// reserve/release calls cannot lose updates.
func (r *LevelRepository) AdjustAvailableSpaces(ctx context.Context, id string, delta int) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*models.Level)(nil)).
		Set(`available_spaces = CASE
			WHEN available_spaces + ? < 0 THEN 0
			WHEN available_spaces + ? > capacity THEN capacity
			ELSE available_spaces + ? END`, delta, delta, delta).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, storeError("adjust available spaces", err, nil)
	}
	if n, err := rowsAffected(res); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, models.ErrLevelNotFound
	}

	return r.availableSpaces(ctx, id)
}

// SetAvailableSpaces implements store.LevelStore.
func (r *LevelRepository) SetAvailableSpaces(ctx context.Context, id string, available int) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*models.Level)(nil)).
		Set(`available_spaces = CASE
			WHEN ? < 0 THEN 0
			WHEN ? > capacity THEN capacity
			ELSE ? END`, available, available, available).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, storeError("set available spaces", err, nil)
	}
	if n, err := rowsAffected(res); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, models.ErrLevelNotFound
	}
	return r.availableSpaces(ctx, id)
}

func (r *LevelRepository) availableSpaces(ctx context.Context, id string) (int, error) {
	var available int
	err := r.db.NewSelect().
		Model((*models.Level)(nil)).
		Column("available_spaces").
		Where("id = ?", id).
		Scan(ctx, &available)
	if err != nil {
		return 0, storeError("read available spaces", err, models.ErrLevelNotFound)
	}
	return available, nil
}
