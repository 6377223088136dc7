package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/Phantawat/car-parking/internal/models"
)

// LotRepository parking lot repository
type LotRepository struct {
	db bun.IDB
}

// NewLotRepository creates a lot repository.
func NewLotRepository(db bun.IDB) *LotRepository {
	return &LotRepository{db: db}
}

// Create inserts a lot, assigning its id and timestamps.
func (r *LotRepository) Create(ctx context.Context, lot *models.Lot) error {
	if lot.ID == "" {
		lot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lot.CreatedAt = now
	lot.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(lot).Exec(ctx); err != nil {
		return storeError("insert lot", err, nil)
	}
	return nil
}

// GetByID loads one lot.
func (r *LotRepository) GetByID(ctx context.Context, id string) (*models.Lot, error) {
	lot := new(models.Lot)
	err := r.db.NewSelect().Model(lot).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, storeError("get lot by id", err, models.ErrLotNotFound)
	}
	return lot, nil
}

// List returns every lot ordered by name.
func (r *LotRepository) List(ctx context.Context) ([]*models.Lot, error) {
	lots := make([]*models.Lot, 0)
	if err := r.db.NewSelect().Model(&lots).Order("name ASC").Scan(ctx); err != nil {
		return nil, storeError("list lots", err, nil)
	}
	return lots, nil
}

// Update writes the mutable lot fields.
func (r *LotRepository) Update(ctx context.Context, lot *models.Lot) error {
	lot.UpdatedAt = time.Now().UTC()
	res, err := r.db.NewUpdate().
		Model(lot).
		Column("name", "address", "capacity", "hourly_rate", "description", "is_active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return storeError("update lot", err, nil)
	}
	if n, err := rowsAffected(res); err != nil {
		return err
	} else if n == 0 {
		return models.ErrLotNotFound
	}
	return nil
}

// Delete removes a lot.
func (r *LotRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*models.Lot)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return storeError("delete lot", err, nil)
	}
	if n, err := rowsAffected(res); err != nil {
		return err
	} else if n == 0 {
		return models.ErrLotNotFound
	}
	return nil
}
