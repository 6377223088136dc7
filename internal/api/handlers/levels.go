package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Phantawat/car-parking/internal/models"
	"github.com/Phantawat/car-parking/internal/store"
)

// ListLevels GET /api/levels?parking_lot_id=
func (h *Handler) ListLevels(c *gin.Context) {
	levels, err := h.store.Levels().List(c.Request.Context(), store.LevelFilter{
		ParkingLotID: c.Query("parking_lot_id"),
	})
	if err != nil {
		h.respondError(c, err, "list levels")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": levels})
}

// CreateLevel POST /api/levels
func (h *Handler) CreateLevel(c *gin.Context) {
	var req LevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err, "create level")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.Lots().GetByID(ctx, req.ParkingLotID); err != nil {
		h.respondError(c, err, "create level")
		return
	}

	level := &models.Level{}
	req.apply(level, true)
	if err := h.store.Levels().Create(ctx, level); err != nil {
		h.respondError(c, err, "create level")
		return
	}

	h.logger.Info("Parking level created",
		zap.String("level_id", level.ID),
		zap.String("lot_id", level.ParkingLotID),
		zap.Int("level", level.Level))
	c.JSON(http.StatusCreated, gin.H{"data": level})
}

// GetLevel GET /api/levels/:id
func (h *Handler) GetLevel(c *gin.Context) {
	level, err := h.store.Levels().GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "get level")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": level})
}

// UpdateLevel PUT /api/levels/:id
func (h *Handler) UpdateLevel(c *gin.Context) {
	var req LevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err, "update level")
		return
	}

	ctx := c.Request.Context()
	level, err := h.store.Levels().GetByID(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "update level")
		return
	}
	if req.ParkingLotID != level.ParkingLotID {
		if _, err := h.store.Lots().GetByID(ctx, req.ParkingLotID); err != nil {
			h.respondError(c, err, "update level")
			return
		}
	}

	req.apply(level, false)
	if err := h.store.Levels().Update(ctx, level); err != nil {
		h.respondError(c, err, "update level")
		return
	}
	if req.AvailableSpaces != nil {
		if level.AvailableSpaces, err = h.store.Levels().SetAvailableSpaces(ctx, level.ID, *req.AvailableSpaces); err != nil {
			h.respondError(c, err, "update level")
			return
		}
		h.logger.Warn("Level availability overridden",
			zap.String("level_id", level.ID),
			zap.Int("available_spaces", level.AvailableSpaces))
	}
	c.JSON(http.StatusOK, gin.H{"data": level})
}

// DeleteLevel DELETE /api/levels/:id
func (h *Handler) DeleteLevel(c *gin.Context) {
	if err := h.store.Levels().Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "delete level")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parking level deleted"})
}
