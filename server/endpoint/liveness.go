package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Liveness answers 200 whenever the process can serve HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "service": serviceName})
	}
}
