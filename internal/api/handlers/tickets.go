package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Phantawat/car-parking/internal/service"
)

// Park opens a ticket.
// POST /api/tickets
func (h *Handler) Park(c *gin.Context) {
	var req service.ParkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	ticket, err := h.sessions.Park(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "park vehicle")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": ticket})
}

// GetTicket GET /api/tickets/:id
func (h *Handler) GetTicket(c *gin.Context) {
	ticket, err := h.sessions.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "get ticket")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ticket})
}

// Unpark closes a ticket and returns it with its price.
// POST /api/tickets/:id/unpark
func (h *Handler) Unpark(c *gin.Context) {
	ticket, err := h.sessions.Unpark(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "unpark vehicle")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    ticket,
		"message": "Vehicle unparked",
	})
}

// GetTicketQRCode GET /api/tickets/:id/qrcode
func (h *Handler) GetTicketQRCode(c *gin.Context) {
	ticket, err := h.sessions.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "get ticket")
		return
	}

	png, err := h.qr.PNG(ticket)
	if err != nil {
		h.respondError(c, err, "render ticket qr code")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// VerifyTicket decodes a scanned QR payload and returns the ticket it names.
// POST /api/tickets/verify
func (h *Handler) VerifyTicket(c *gin.Context) {
	var req VerifyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err, "verify ticket")
		return
	}

	claims, err := h.qr.Open(req.Payload)
	if err != nil {
		h.respondError(c, err, "verify ticket")
		return
	}

	ticket, err := h.sessions.GetTicket(c.Request.Context(), claims.TicketID)
	if err != nil {
		h.respondError(c, err, "get ticket")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"claims": claims,
			"ticket": ticket,
			"open":   ticket.IsOpen(),
		},
	})
}
