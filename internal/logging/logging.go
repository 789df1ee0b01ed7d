// Package logging wires up structured logging shared by every component,
// replacing the teacher's log.Printf call sites with a zap.SugaredLogger —
// grounded in grafana-tempo's go.uber.org/zap dependency.
package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// New builds a production zap logger with the node id attached to every
// line, so logs from a multi-node local cluster stay attributable.
func New(nodeID string) (*zap.SugaredLogger, error) {
	base, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return base.Sugar().With("node_id", nodeID), nil
}

// GinMiddleware logs every request with method, path, status, and latency —
// the structured-logging equivalent of the teacher's api.Logger() Gin
// middleware in internal/api/middleware.go.
func GinMiddleware(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// GinRecovery recovers panics inside handlers and logs them structurally,
// mirroring the teacher's api.Recovery() middleware.
func GinRecovery(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("panic recovered", "panic", r)
				c.AbortWithStatus(500)
			}
		}()
		c.Next()
	}
}
