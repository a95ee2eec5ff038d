package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const RequestIDKey = "X-Request-ID"

// FromContext retrieves the logger from echo.Context with the request ID
// and, on owner-scoped routes, the authenticated owner's id.
func FromContext(c echo.Context) *zap.Logger {
	// Try to get the logger from context first
	if logger, ok := c.Get("logger").(*zap.Logger); ok {
		return withOwner(c, logger)
	}

	// Otherwise, get the global logger and add request ID
	requestID, ok := c.Get(RequestIDKey).(string)
	if !ok {
		requestID = c.Request().Header.Get(RequestIDKey)
		if requestID == "" {
			requestID = "unknown"
		}
	}

	return withOwner(c, GetLogger().With(zap.String("request_id", requestID)))
}

// withOwner scopes the logger to the authenticated owner when the auth
// middleware has stored one.
func withOwner(c echo.Context, log *zap.Logger) *zap.Logger {
	if ownerID, ok := c.Get("owner_id").(string); ok && ownerID != "" {
		return log.With(zap.String("owner_id", ownerID))
	}
	return log
}
