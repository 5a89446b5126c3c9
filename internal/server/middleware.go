package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/stapsync/internal/origin"
)

const (
	// HeaderRequestID carries the unit-of-work id.
	HeaderRequestID = "X-Request-ID"

	// HeaderSyncSource marks a request as replayed from another system.
	HeaderSyncSource = "X-Sync-Source"
)

// RequestUnit attaches a unit-of-work id to the request context, reusing
// X-Request-ID when the caller sent one.
func RequestUnit(gen origin.UnitGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = gen.Generate()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(origin.WithUnit(c.Request.Context(), id))
		c.Next()
	}
}

// SyncSource marks the request context with the origin named by the
// X-Sync-Source header. Unknown sources are rejected.
func SyncSource() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderSyncSource)
		if raw == "" {
			c.Next()
			return
		}

		m, err := origin.ParseMarker(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Request = c.Request.WithContext(origin.With(c.Request.Context(), m))
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		attrs := []any{
			"unit", origin.Unit(ctx),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if origin.IsRemote(ctx) {
			attrs = append(attrs, "origin", string(origin.Remote))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "request failed", attrs...)
			return
		}
		logger.InfoContext(ctx, "request", attrs...)
	}
}
