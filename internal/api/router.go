package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"bandsync/config"
	"bandsync/internal/mw"
	"bandsync/internal/store"
)

// NewRouter creates and configures a new Gin router implementing the schedule
// API.
func NewRouter(s store.Store, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Actor"},
		MaxAge:       12 * time.Hour,
	}))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	handler := NewHandler(s, cfg.AdminName, cacheStore)

	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	api := r.Group("")
	api.Use(rateLimiter)
	{
		api.GET("/events", caching, handler.GetEvents)
		api.POST("/events", requireJSON, handler.PostEvent)
		api.DELETE("/events/:id", handler.DeleteEvent)

		api.GET("/availability", caching, handler.GetAvailability)
		api.POST("/availability", requireJSON, handler.PostAvailability)
	}

	return r
}

// requireJSON rejects mutation requests that do not declare a JSON body.
func requireJSON(c *gin.Context) {
	if c.ContentType() != "application/json" {
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "Content-Type must be application/json"})
		return
	}
	c.Next()
}
