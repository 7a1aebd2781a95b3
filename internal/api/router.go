package api

import (
	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/askstock/internal/api/chat"
	"github.com/liliang-cn/askstock/internal/api/middleware"
	"github.com/liliang-cn/askstock/internal/observability"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(chatHandler *chat.Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	// Chat API (requires API key when one is configured)
	chatGroup := r.Group("/api/chat")
	chatGroup.Use(middleware.Auth(cfg.APIKey))
	chatHandler.RegisterRoutes(chatGroup)

	return r
}
