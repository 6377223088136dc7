package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Phantawat/car-parking/internal/inventory"
)

// ListTickets lists tickets by start time, newest first.
// GET /api/admin/tickets?page=1&per_page=20
func (h *Handler) ListTickets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage

	tickets, total, err := h.sessions.ListTickets(c.Request.Context(), perPage, offset)
	if err != nil {
		h.respondError(c, err, "list tickets")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": tickets,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// GenerateSpots POST /api/admin/generate-spots
func (h *Handler) GenerateSpots(c *gin.Context) {
	var req GenerateSpotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err, "generate spots")
		return
	}

	count := inventory.DefaultSpotBatch
	if req.Count != nil {
		count = *req.Count
	}

	spots, err := h.inventory.GenerateSpots(c.Request.Context(), req.LevelID, count)
	if err != nil {
		h.respondError(c, err, "generate spots")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":    spots,
		"message": strconv.Itoa(len(spots)) + " spots created",
	})
}

// ListSpots lists spots by level and number, optionally for one level.
// GET /api/admin/spots?level_id=
func (h *Handler) ListSpots(c *gin.Context) {
	spots, err := h.inventory.ListSpots(c.Request.Context(), c.Query("level_id"))
	if err != nil {
		h.respondError(c, err, "list spots")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": spots})
}
