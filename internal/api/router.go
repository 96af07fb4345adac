package api

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"campus-parking-backend/config"
	"campus-parking-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg config.ServerConfig, handler *Handler) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	limit := rate.Inf
	if cfg.RateLimitPerSec > 0 {
		limit = rate.Limit(cfg.RateLimitPerSec)
	}
	rateLimiter := mw.RateLimiter(limit, cfg.RateLimitBurst)

	r.GET("/", handler.GetRoot)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/slots", handler.GetSlots)
		api.GET("/stats", handler.GetStats)
		api.POST("/reserve", handler.PostReserve)
		api.GET("/reservations", handler.GetReservations)
		api.POST("/contact", handler.PostContact)

		// Operator surface
		api.GET("/alerts", handler.GetAlerts)
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
