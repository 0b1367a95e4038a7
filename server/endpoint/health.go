package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voxboard/component"
)

// HealthChecker returns the current health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

const checkTimeout = 3 * time.Second

// Health aggregates component health. Degraded still answers 200 so a slow
// cache does not pull the instance out of rotation.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var components []component.Health
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
			components = checker(ctx)
			cancel()
		}

		status := component.Overall(components)
		code := http.StatusOK
		if status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}
