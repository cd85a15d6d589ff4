// Package httpapi exposes the status surface over HTTP: a liveness probe
// and a small stats endpoint for the recorded data.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"recorder/internal/recorder"
)

// Store is the slice of the recorder the API reads from.
type Store interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (recorder.Stats, error)
}

// NewRouter builds the gin router serving /healthz and /stats.
func NewRouter(store Store, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			log.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/stats", func(c *gin.Context) {
		stats, err := store.Stats(c.Request.Context())
		if err != nil {
			log.Error("stats query failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	return r
}
