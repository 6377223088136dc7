package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Phantawat/car-parking/internal/models"
	"github.com/Phantawat/car-parking/internal/store"
)

// ListVehicles GET /api/vehicles
func (h *Handler) ListVehicles(c *gin.Context) {
	vehicles, err := h.store.Vehicles().List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "list vehicles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vehicles})
}

// CreateVehicle POST /api/vehicles
func (h *Handler) CreateVehicle(c *gin.Context) {
	var req VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err, "create vehicle")
		return
	}

	vehicle := &models.Vehicle{Plate: req.Plate, Owner: req.Owner, Type: req.Type}
	if err := h.store.Vehicles().Create(c.Request.Context(), vehicle); err != nil {
		h.respondError(c, err, "create vehicle")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": vehicle})
}

// GetVehicle GET /api/vehicles/:id
func (h *Handler) GetVehicle(c *gin.Context) {
	vehicle, err := h.store.Vehicles().GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "get vehicle")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vehicle})
}

// UpdateVehicle PUT /api/vehicles/:id
func (h *Handler) UpdateVehicle(c *gin.Context) {
	var req VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err, "update vehicle")
		return
	}

	ctx := c.Request.Context()
	vehicle, err := h.store.Vehicles().GetByID(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "update vehicle")
		return
	}

	vehicle.Plate = req.Plate
	vehicle.Owner = req.Owner
	vehicle.Type = req.Type
	if err := h.store.Vehicles().Update(ctx, vehicle); err != nil {
		h.respondError(c, err, "update vehicle")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vehicle})
}

// DeleteVehicle DELETE /api/vehicles/:id
func (h *Handler) DeleteVehicle(c *gin.Context) {
	id := c.Param("id")

	// the row lock orders this against a park of the same vehicle
	err := h.store.InTx(c.Request.Context(), func(ctx context.Context, tx store.Store) error {
		if _, err := tx.Vehicles().GetForUpdate(ctx, id); err != nil {
			return err
		}
		// a parked vehicle keeps its record until the ticket is closed
		if _, err := tx.Tickets().FindOpenByVehicle(ctx, id); err == nil {
			return models.ErrVehicleParked
		} else if !errors.Is(err, models.ErrTicketNotFound) {
			return err
		}
		return tx.Vehicles().Delete(ctx, id)
	})
	if err != nil {
		h.respondError(c, err, "delete vehicle")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted"})
}
