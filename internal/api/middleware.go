package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mood-insights-go/internal/logger"
)

// RequestLogger tags every request with an id and logs it once finished.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := logger.RequestID(c.Request)
		c.Request.Header.Set("X-Request-ID", id)
		c.Header("X-Request-ID", id)

		c.Next()

		entry := logger.New().WithRequest(c.Request).WithFields(logrus.Fields{
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Request.URL.Path == "/healthz" || c.Request.URL.Path == "/metrics":
			entry.Debug("request handled")
		default:
			entry.Info("request handled")
		}
	}
}
