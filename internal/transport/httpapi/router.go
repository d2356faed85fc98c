// Package httpapi serves the matching engine over JSON/HTTP with gin.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oggyb/tripmate-match/internal/app"
)

// NewRouter wires every route onto a fresh gin engine. gatherer backs
// /metrics; pass prometheus.DefaultGatherer in production.
func NewRouter(appCtx *app.AppContext, h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(appCtx.Logger))

	router.GET("/health", healthCheck(appCtx))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	{
		v1.POST("/swipes", h.Swipe)

		users := v1.Group("/users/:id")
		{
			users.GET("/discover", h.Discover)
			users.GET("/likes/unseen/count", h.UnseenLikesCount)
			users.POST("/likes/seen", h.MarkSeen)
			users.GET("/likes/pending", h.ListPendingLikes)
			users.GET("/matches", h.ListMatches)
			users.PUT("/location", h.UpdateLocation)
		}
	}
	return router
}

// healthCheck pings the database and Redis.
func healthCheck(appCtx *app.AppContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"db": "ok", "redis": "ok"}
		healthy := true

		if sqlDB, err := appCtx.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["db"] = "down"
			healthy = false
		}
		if err := appCtx.RedisCache.Ping(ctx); err != nil {
			checks["redis"] = "down"
			healthy = false
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
