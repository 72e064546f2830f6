// Package http wires the gin route tree and the HTTP server lifecycle.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LitFed/internal/interfaces/http/handlers"
	"github.com/turtacn/LitFed/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.
type RouterConfig struct {
	QueryHandler  *handlers.QueryHandler
	ReviewHandler *handlers.ReviewHandler
	HealthHandler *handlers.HealthHandler

	Auth           *middleware.AuthMiddleware
	MetricsHandler http.Handler
	HTTPObserver   middleware.HTTPObserver

	Server config.ServerConfig
	Logger logging.Logger
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Server))
	r.Use(middleware.RequestLogging(cfg.Logger))
	if cfg.HTTPObserver != nil {
		r.Use(middleware.Metrics(cfg.HTTPObserver))
	}

	// Public probes and metrics.
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")
	if cfg.Auth != nil {
		api.Use(cfg.Auth.Handler())
	}

	if h := cfg.QueryHandler; h != nil {
		api.POST("/dry_query", h.DryQuery)
		api.POST("/review/:review_id/query", h.NewQuery)
		api.POST("/persist/:review_id", h.PersistPages)
		api.POST("/persist/:review_id/list", h.PersistList)
	}
	if h := cfg.ReviewHandler; h != nil {
		api.GET("/reviews", h.List)
		api.POST("/reviews", h.Create)
		api.GET("/reviews/:review_id", h.Get)
		api.PUT("/reviews/:review_id", h.Update)
		api.DELETE("/reviews/:review_id", h.Delete)

		api.GET("/results/:review_id", h.Results)
		api.DELETE("/results/:review_id", h.DeleteResults)
		api.POST("/score/:review_id", h.Score)
	}
	return r
}
