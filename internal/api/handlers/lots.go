package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Phantawat/car-parking/internal/models"
)

// ListLots GET /api/lots
func (h *Handler) ListLots(c *gin.Context) {
	lots, err := h.store.Lots().List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "list lots")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lots})
}

// CreateLot POST /api/lots
func (h *Handler) CreateLot(c *gin.Context) {
	var req LotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err, "create lot")
		return
	}

	lot := &models.Lot{}
	req.apply(lot)
	if err := h.store.Lots().Create(c.Request.Context(), lot); err != nil {
		h.respondError(c, err, "create lot")
		return
	}

	h.logger.Info("Parking lot created", zap.String("lot_id", lot.ID), zap.String("name", lot.Name))
	c.JSON(http.StatusCreated, gin.H{"data": lot})
}

// GetLot GET /api/lots/:id
func (h *Handler) GetLot(c *gin.Context) {
	lot, err := h.store.Lots().GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "get lot")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lot})
}

// UpdateLot PUT /api/lots/:id
func (h *Handler) UpdateLot(c *gin.Context) {
	var req LotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err, "update lot")
		return
	}

	ctx := c.Request.Context()
	lot, err := h.store.Lots().GetByID(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "update lot")
		return
	}

	req.apply(lot)
	if err := h.store.Lots().Update(ctx, lot); err != nil {
		h.respondError(c, err, "update lot")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lot})
}

// DeleteLot DELETE /api/lots/:id
func (h *Handler) DeleteLot(c *gin.Context) {
	if err := h.store.Lots().Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "delete lot")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parking lot deleted"})
}
