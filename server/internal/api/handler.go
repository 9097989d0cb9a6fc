package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tableside/tableside/pkg/types"
	"github.com/tableside/tableside/server/internal/auth"
	"github.com/tableside/tableside/server/internal/notify"
	"github.com/tableside/tableside/server/internal/store"
)

// Notifier delivers notifications to connected clients. *notify.Dispatcher
// satisfies it.
type Notifier interface {
	NotifyUsers(ids []string, eventType string, payload types.Payload)
	NotifyRoles(roles []string, eventType string, payload types.Payload)
}

// Stats reports live connection counts. *notify.Hub satisfies it.
type Stats interface {
	Count() int
	Stats() notify.RegistryStats
}

// Config wires the optional parts of the router.
type Config struct {
	// AuthMode is "jwt" or "none"; JWTSecret is used in jwt mode.
	AuthMode  string
	JWTSecret string

	// AllowedOrigins restricts CORS. Empty allows every origin.
	AllowedOrigins []string

	// WebSocket, when set, is mounted at /ws and answers upgrades on /.
	WebSocket http.Handler

	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

// Handler is the HTTP handler for the whole REST surface.
type Handler struct {
	store    *store.Store
	notifier Notifier
	stats    Stats
	engine   *gin.Engine
}

// New creates a Handler over st that reports changes to n and registers all
// routes.
func New(st *store.Store, n Notifier, stats Stats, cfg Config) *Handler {
	h := &Handler{store: st, notifier: n, stats: stats, engine: gin.New()}

	r := h.engine
	r.Use(recovery(), requestLog(), cors(cfg.AllowedOrigins))

	r.GET("/health", h.health)
	r.GET("/ws/stats", h.wsStats)
	if cfg.WebSocket != nil {
		r.GET("/ws", gin.WrapH(cfg.WebSocket))
		r.GET("/", gin.WrapH(cfg.WebSocket))
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	authed := r.Group("", auth.JWT(cfg.AuthMode, cfg.JWTSecret))
	admin := auth.RequireRole(cfg.AuthMode, types.RoleAdmin)

	menu := authed.Group("/menu")
	menu.GET("/getMenu", h.getMenu)
	menu.GET("/getMenuItem/:itemId", h.getMenuItem)
	menu.POST("/newMenuItem", admin, h.newMenuItem)
	menu.PUT("/updateMenuItem", admin, h.updateMenuItem)
	menu.DELETE("/deleteMenuItem", admin, h.deleteMenuItem)

	orders := authed.Group("/orders")
	orders.GET("/getAllPendingOrders", h.getAllPendingOrders)
	orders.GET("/getAllActiveOrders", h.getAllActiveOrders)
	orders.GET("/getActiveOrder/:userId", h.getActiveOrder)
	orders.GET("/getPendingOrder/:userId", h.getPendingOrder)
	orders.GET("/getOrderHistory/:userId", h.getOrderHistory)
	orders.POST("/newOrder", h.newOrder)
	orders.PUT("/updateOrderStatus", admin, h.updateOrderStatus)

	res := authed.Group("/reservations")
	res.GET("/getUserReservations/:userId", h.getUserReservations)
	res.GET("/getPendingReservations", h.getPendingReservations)
	res.GET("/getReservations", h.getReservations)
	res.POST("/newReservations", h.newReservation)
	res.PUT("/updateReservationStatus", admin, h.updateReservationStatus)
	res.PUT("/updateReservation", admin, h.updateReservation)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.engine.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /health. A store that cannot be pinged reports
// "degraded" with 503.
func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok"}
	if h.stats != nil {
		resp.Connections = h.stats.Count()
	}
	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("api: health check failed", "err", err)
		resp.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// wsStats returns GET /ws/stats.
func (h *Handler) wsStats(c *gin.Context) {
	var resp StatsResponse
	if h.stats != nil {
		resp = h.stats.Stats()
	}
	if resp.Roles == nil {
		resp.Roles = map[string]int{}
	}
	c.JSON(http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

func fail(c *gin.Context, code int, msg string) {
	c.JSON(code, messageResponse{Message: msg})
}

// failInternal logs err and answers 500 with the cause attached.
func failInternal(c *gin.Context, msg string, err error) {
	slog.Error("api: "+msg, "path", c.FullPath(), "err", err)
	c.JSON(http.StatusInternalServerError, messageResponse{Message: msg, Error: err.Error()})
}

func ok(c *gin.Context, code int, msg string) {
	c.JSON(code, messageResponse{Message: msg})
}

// bind decodes the JSON body into dst, answering 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
