package api

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/playcast/internal/middleware"
)

const defaultRequestTimeout = 5 * time.Second

// idParam parses a positive int64 path parameter
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name+": must be a positive integer")
		return 0, false
	}
	return id, true
}

// caller returns the authenticated user id; RequireUser guarantees it is set
func caller(c *gin.Context) int64 {
	id, _ := middleware.UserID(c)
	return id
}

// requestContext bounds a handler's work by timeout
func requestContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
