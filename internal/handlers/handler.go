package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medsync/internal/logger"
	"medsync/internal/service"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	apiToken string
	log      *logger.Logger
}

// NewHandler constructs an HTTP handler. An empty apiToken disables
// authentication on the API group.
func NewHandler(services *service.Service, apiToken string, log *logger.Logger) *Handler {
	return &Handler{services: services, apiToken: apiToken, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.health)

	api := router.Group("/api/v1", h.tokenMiddleware)
	{
		api.POST("/sync", h.triggerSync)
		api.GET("/runs", h.getRuns)
	}
	return router
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// logAndJSONError logs the failure (when a logger is present) and responds
// with a stable user-facing message.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}
