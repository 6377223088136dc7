package handlers

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Phantawat/car-parking/internal/models"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case models.IsValidation(err):
		return http.StatusBadRequest
	case models.IsNotFound(err):
		return http.StatusNotFound
	case models.IsConflict(err), models.IsInvalidState(err):
		return http.StatusConflict
	case models.IsStoreUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...}. Server-side failures are logged
// and their details kept out of the response.
func (h *Handler) respondError(c *gin.Context, err error, action string) {
	status := statusFor(err)

	switch status {
	case http.StatusInternalServerError:
		h.logger.Error("Failed to "+action,
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error"})
	case http.StatusServiceUnavailable:
		h.logger.Warn("Store unavailable",
			zap.String("action", action),
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "Service temporarily unavailable"})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
