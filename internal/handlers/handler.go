package handlers

import (
	"net/http"

	"solar_follower/internal/logger"
	"solar_follower/internal/metrics"
	"solar_follower/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options carries the optional HTTP-layer dependencies.
type Options struct {
	// AllowedOrigin is the single web origin allowed to call /api and open /ws.
	AllowedOrigin string
	Metrics       *metrics.Metrics
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services      *service.Service
	log           *logger.Logger
	metrics       *metrics.Metrics
	allowedOrigin string
	upgrader      websocket.Upgrader
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	h := &Handler{
		services:      services,
		log:           log,
		metrics:       opts.Metrics,
		allowedOrigin: opts.AllowedOrigin,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger, h.corsMiddleware)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	h.registerAPIRoutes(router)

	// Controller view stream, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		h.registerTelemetryRoutes(api)
		h.registerSettingsRoutes(api)
		api.GET("/events", h.getEvents)
	}
}

func (h *Handler) registerTelemetryRoutes(api *gin.RouterGroup) {
	api.POST("/telemetry", h.ingestTelemetry)
	api.GET("/telemetry", h.listTelemetry)

	// firmware names
	api.POST("/getdata", h.ingestTelemetry)
	api.GET("/data", h.listTelemetry)
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	api.POST("/settings", h.updateSettings)
	api.GET("/settings", h.readSettings)
	api.GET("/settings/current", h.currentSettings)
	api.POST("/mode", h.setMode)
	api.POST("/motor_targets", h.setMotorTargets)
	api.POST("/calibration", h.triggerCalibration)
	api.POST("/heartbeat", h.heartbeat)
	api.OPTIONS("/heartbeat", func(c *gin.Context) { c.Status(http.StatusOK) })

	// firmware names
	api.POST("/coordscheck", legacySchema, h.updateSettings)
	api.GET("/coordscheck", legacySchema, h.readSettings)
	api.POST("/manuell", legacySchema, h.setMode)
}
