package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/Phantawat/car-parking/internal/models"
)

// TicketRepository parking ticket repository
type TicketRepository struct {
	db bun.IDB
}

// NewTicketRepository creates a ticket repository.
func NewTicketRepository(db bun.IDB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create inserts an open ticket. A second open ticket for the same vehicle
// fails with ErrVehicleParked.
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if _, err := r.db.NewInsert().Model(ticket).Exec(ctx); err != nil {
		err = storeError("insert ticket", err, nil)
		if errors.Is(err, models.ErrDuplicate) {
			return fmt.Errorf("insert ticket: %w", models.ErrVehicleParked)
		}
		return err
	}
	return nil
}

// Close implements store.TicketStore. price IS NULL is the open marker, so
// only the first close wins.
func (r *TicketRepository) Close(ctx context.Context, id string, endTime time.Time, price float64) error {
	res, err := r.db.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("end_time = ?", endTime).
		Set("price = ?", price).
		Where("id = ?", id).
		Where("price IS NULL").
		Exec(ctx)
	if err != nil {
		return storeError("close ticket", err, nil)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return models.ErrAlreadyClosed
	}
	return nil
}

// GetByID loads one ticket.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	ticket := new(models.Ticket)
	err := r.db.NewSelect().Model(ticket).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, storeError("get ticket by id", err, models.ErrTicketNotFound)
	}
	return ticket, nil
}

// FindOpenByVehicle returns the vehicle's running session, or ErrTicketNotFound.
func (r *TicketRepository) FindOpenByVehicle(ctx context.Context, vehicleID string) (*models.Ticket, error) {
	ticket := new(models.Ticket)
	err := r.db.NewSelect().
		Model(ticket).
		Where("vehicle_id = ?", vehicleID).
		Where("price IS NULL").
		Order("start_time DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, storeError("find open ticket", err, models.ErrTicketNotFound)
	}
	return ticket, nil
}

// List returns tickets by start time, newest first.
func (r *TicketRepository) List(ctx context.Context, limit, offset int) ([]*models.Ticket, error) {
	tickets := make([]*models.Ticket, 0)
	err := r.db.NewSelect().
		Model(&tickets).
		Order("start_time DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, storeError("list tickets", err, nil)
	}
	return tickets, nil
}

// Count counts every ticket.
func (r *TicketRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.db.NewSelect().Model((*models.Ticket)(nil)).Count(ctx)
	if err != nil {
		return 0, storeError("count tickets", err, nil)
	}
	return int64(n), nil
}
