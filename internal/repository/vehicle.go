package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/Phantawat/car-parking/internal/models"
)

// VehicleRepository vehicle repository
type VehicleRepository struct {
	db bun.IDB
}

// NewVehicleRepository creates a vehicle repository.
func NewVehicleRepository(db bun.IDB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create inserts a vehicle. A duplicate plate fails with ErrDuplicate.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	vehicle.CreatedAt = time.Now().UTC()

	if _, err := r.db.NewInsert().Model(vehicle).Exec(ctx); err != nil {
		return storeError("insert vehicle", err, nil)
	}
	return nil
}

// GetByID loads one vehicle.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	vehicle := new(models.Vehicle)
	err := r.db.NewSelect().Model(vehicle).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, storeError("get vehicle by id", err, models.ErrVehicleNotFound)
	}
	return vehicle, nil
}

// GetForUpdate implements store.VehicleStore.
func (r *VehicleRepository) GetForUpdate(ctx context.Context, id string) (*models.Vehicle, error) {
	vehicle := new(models.Vehicle)
	q := r.db.NewSelect().Model(vehicle).Where("id = ?", id).Limit(1)
	if err := lockRow(r.db, q).Scan(ctx); err != nil {
		return nil, storeError("lock vehicle", err, models.ErrVehicleNotFound)
	}
	return vehicle, nil
}

// GetByPlate loads the vehicle registered under plate.
func (r *VehicleRepository) GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	vehicle := new(models.Vehicle)
	err := r.db.NewSelect().Model(vehicle).Where("plate = ?", plate).Limit(1).Scan(ctx)
	if err != nil {
		return nil, storeError("get vehicle by plate", err, models.ErrVehicleNotFound)
	}
	return vehicle, nil
}

// List returns vehicles, newest first.
func (r *VehicleRepository) List(ctx context.Context) ([]*models.Vehicle, error) {
	vehicles := make([]*models.Vehicle, 0)
	if err := r.db.NewSelect().Model(&vehicles).Order("created_at DESC").Scan(ctx); err != nil {
		return nil, storeError("list vehicles", err, nil)
	}
	return vehicles, nil
}

// Update writes plate, type and owner.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	res, err := r.db.NewUpdate().
		Model(vehicle).
		Column("plate", "type", "owner").
		WherePK().
		Exec(ctx)
	if err != nil {
		return storeError("update vehicle", err, nil)
	}
	if n, err := rowsAffected(res); err != nil {
		return err
	} else if n == 0 {
		return models.ErrVehicleNotFound
	}
	return nil
}

// Delete removes a vehicle.
func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*models.Vehicle)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return storeError("delete vehicle", err, nil)
	}
	if n, err := rowsAffected(res); err != nil {
		return err
	} else if n == 0 {
		return models.ErrVehicleNotFound
	}
	return nil
}
