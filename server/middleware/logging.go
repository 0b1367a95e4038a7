package middleware

import (
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voxboard/logger"
)

const slowRequest = 5 * time.Second

// RequestLogger logs one line per request, at a level picked by status.
// Requests to skip paths (probes) are not logged.
func RequestLogger(log *logger.Logger, skip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if slices.Contains(skip, c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		fields := logger.Fields(
			"method", c.Request.Method,
			"path", c.FullPath(),
			logger.FieldStatus, status,
			logger.FieldDuration, elapsed.Milliseconds(),
			"bytes_in", c.Request.ContentLength,
			"client_ip", c.ClientIP(),
		)
		if client, ok := c.Get(ContextKeyClient); ok {
			fields["client"] = client
		}
		if elapsed > slowRequest {
			fields["slow"] = true
		}
		if len(c.Errors) > 0 {
			fields[logger.FieldError] = c.Errors.String()
		}

		l := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			l.Error("request completed", fields)
		case status >= 400:
			l.Warn("request completed", fields)
		default:
			l.Info("request completed", fields)
		}
	}
}
