package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	logging "github.com/pyra-labs/logger"
)

const panicInfoKey = "logging_panic_info"

/**
 * GinMiddleware returns Gin middleware for request metadata.
 * Attaches request metadata (ID, IP, method, path) to the context and
 * echoes the request ID back to the client.
 *
 * @param logger Logger instance
 * @return gin.HandlerFunc Middleware handler
 */
func GinMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}

		meta := logging.Meta{
			RequestID: reqID,
			IP:        c.ClientIP(),
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			UserAgent: c.Request.UserAgent(),
		}

		ctx := logging.WithMeta(c.Request.Context(), meta)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

/**
 * GinLogger returns Gin middleware that logs all requests through the
 * facade. Server errors and recovered panics are logged at error level,
 * so they also reach the alerting channel under the usual dedup policy.
 *
 * @param logger Logger instance
 * @return gin.HandlerFunc Middleware handler
 */
func GinLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		line := fmt.Sprintf("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, latency)

		switch {
		case status >= 500:
			logger.ErrorWithContext(c.Request.Context(), ginError(c, status))
		case status >= 400:
			logger.Warn(line)
		default:
			logger.Info(line)
		}
	}
}

/**
 * GinRecovery recovers handler panics and stores the panic info for
 * GinLogger, which reports it once as an error-level event. Register it
 * after GinLogger (closest to the handlers) so the logger still runs
 * once the panic has been absorbed.
 *
 * @param logger Logger instance
 * @return gin.HandlerFunc Recovery middleware handler
 */
func GinRecovery(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				c.Set(panicInfoKey, fmt.Sprintf("panic: %v", r))
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()

		c.Next()
	}
}

// ginError picks the most specific failure available for a 5xx response.
func ginError(c *gin.Context, status int) error {
	if info, exists := c.Get(panicInfoKey); exists {
		return fmt.Errorf("%s", info.(string))
	}
	if len(c.Errors) > 0 {
		return fmt.Errorf("%s", c.Errors.String())
	}
	return fmt.Errorf("HTTP %d %s %s", status, c.Request.Method, c.Request.URL.Path)
}
