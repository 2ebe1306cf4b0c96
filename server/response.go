package server

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jbousquie/whisperx-api/errors"
)

// RespondWithError inspects err: if it is an *errors.AppError the status and
// structured body are derived from it; a body that overran the size limit
// maps to 413; anything else is sent as a generic 500. The error is attached
// to the gin context so the telemetry middleware marks the span.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		appErr := errors.PayloadTooLarge(maxErr.Limit)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	if appErr, ok := errors.AsAppError(err); ok {
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, errors.Internal(err).ToResponse())
}
