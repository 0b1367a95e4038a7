package server

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/voxboard/errors"
)

// StatusClientClosedRequest is written when the caller went away before the
// response was ready. Nobody reads it; it keeps access logs honest.
const StatusClientClosedRequest = 499

// RespondWithError writes err as a structured error body. Anything that is
// not an AppError is reported as a generic internal error.
func RespondWithError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		c.AbortWithStatus(StatusClientClosedRequest)
		return
	}
	appErr := apperrors.Wrap(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
