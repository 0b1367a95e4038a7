package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/logger"
)

// Recovery turns a handler panic into a generic 500 and logs the stack.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log.WithContext(c.Request.Context()).Error("panic recovered", logger.Fields(
				logger.FieldError, fmt.Sprintf("%v", rec),
				"stack", string(debug.Stack()),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			))
			if c.Writer.Written() {
				c.Abort()
				return
			}
			abortWithError(c, apperrors.Internal(fmt.Errorf("panic: %v", rec)))
		}()
		c.Next()
	}
}
