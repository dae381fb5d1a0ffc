// Package api exposes the analyzer over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/metacheck/inspector"
	"github.com/seo-optimizer/metacheck/logging"
	"github.com/seo-optimizer/metacheck/metrics"
	"github.com/seo-optimizer/metacheck/middleware"
)

// Deps are the collaborators of the router. Statistics, Metrics and
// RateLimiter are optional.
type Deps struct {
	Inspector      *inspector.Inspector
	Statistics     *logging.Statistics
	Metrics        *metrics.Metrics
	RateLimiter    *middleware.RateLimiter
	Logger         *zap.Logger
	DevMode        bool
	AllowedOrigins []string
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Statistics == nil {
		d.Statistics, _ = logging.NewStatistics("", d.Logger)
	}

	h := &handler{
		inspector: d.Inspector,
		stats:     d.Statistics,
		logger:    d.Logger,
		devMode:   d.DevMode,
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.ErrorHandler(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.CORS(d.AllowedOrigins))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api")
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.RateLimit())
	}
	api.Use(middleware.Stats(d.Statistics, d.Logger))
	{
		api.GET("/health", h.health)
		api.POST("/analyze", h.analyze)
		api.GET("/statistics", h.statistics)
		api.GET("/cache", h.cacheStats)
		api.DELETE("/cache", h.clearCache)
	}

	return r
}
