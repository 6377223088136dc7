package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Phantawat/car-parking/internal/inventory"
	"github.com/Phantawat/car-parking/internal/qr"
	"github.com/Phantawat/car-parking/internal/service"
	"github.com/Phantawat/car-parking/internal/store"
	"github.com/Phantawat/car-parking/pkg/ws"
)

// Handler serves the parking HTTP API.
type Handler struct {
	logger    *zap.Logger
	store     store.Store
	sessions  *service.SessionService
	inventory *inventory.Manager
	qr        *qr.Generator
	wsHub     *ws.Hub
	upgrader  websocket.Upgrader
}

// NewHandler creates a Handler.
func NewHandler(
	logger *zap.Logger,
	st store.Store,
	sessions *service.SessionService,
	inv *inventory.Manager,
	qrGen *qr.Generator,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:    logger,
		store:     st,
		sessions:  sessions,
		inventory: inv,
		qr:        qrGen,
		wsHub:     wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // dashboards are served from another origin
			},
		},
	}
}

// RegisterRoutes registers every route on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// sessions
		api.POST("/tickets", h.Park)
		api.POST("/tickets/verify", h.VerifyTicket)
		api.GET("/tickets/:id", h.GetTicket)
		api.POST("/tickets/:id/unpark", h.Unpark)
		api.GET("/tickets/:id/qrcode", h.GetTicketQRCode)

		// admin
		admin := api.Group("/admin")
		admin.GET("/tickets", h.ListTickets)
		admin.POST("/generate-spots", h.GenerateSpots)
		admin.GET("/spots", h.ListSpots)

		// lots
		api.GET("/lots", h.ListLots)
		api.POST("/lots", h.CreateLot)
		api.GET("/lots/:id", h.GetLot)
		api.PUT("/lots/:id", h.UpdateLot)
		api.DELETE("/lots/:id", h.DeleteLot)

		// levels
		api.GET("/levels", h.ListLevels)
		api.POST("/levels", h.CreateLevel)
		api.GET("/levels/:id", h.GetLevel)
		api.PUT("/levels/:id", h.UpdateLevel)
		api.DELETE("/levels/:id", h.DeleteLevel)

		// vehicles
		api.GET("/vehicles", h.ListVehicles)
		api.POST("/vehicles", h.CreateVehicle)
		api.GET("/vehicles/:id", h.GetVehicle)
		api.PUT("/vehicles/:id", h.UpdateVehicle)
		api.DELETE("/vehicles/:id", h.DeleteVehicle)
	}

	r.GET("/ws", h.HandleWebSocket)
	r.GET("/health", h.HealthCheck)
}

// HandleWebSocket upgrades the connection and attaches it to the hub.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck reports store reachability and the websocket client count.
func (h *Handler) HealthCheck(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "store unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}

// StoreTimeout bounds every request's store calls by d.
func StoreTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CORS allows browser dashboards on other origins.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:   []string{"X-Request-ID"},
		MaxAge:          12 * time.Hour,
	})
}
