package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voxboard/version"
)

var startTime = time.Now()

// Info reports build metadata and uptime.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"build":   version.Get(),
			"release": version.Get().IsRelease(),
			"uptime":  time.Since(startTime).Truncate(time.Second).String(),
		})
	}
}
