package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/playcast/internal/apperr"
	"github.com/stwalsh4118/playcast/internal/logger"
	"github.com/stwalsh4118/playcast/internal/middleware"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. Storage failures are logged with
// their cause and answered with a generic message.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	if status == http.StatusInternalServerError {
		logger.Log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("Request failed with storage error")
		_ = c.Error(err)
	}

	code := kind.String()
	if kind == apperr.KindUnknown {
		code = apperr.KindStorageFailure.String()
	}

	c.JSON(status, ErrorResponse{
		Error:   code,
		Message: apperr.PublicMessage(err),
	})
}

// badRequest answers a request body or path that could not be parsed
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: message,
	})
}
