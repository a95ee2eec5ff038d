package middleware

import (
	"net/http"
	"strings"

	"rental-service/pkg/jwtutil"
	"rental-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OwnerIDKey is the context key the authenticated owner's id is stored under
const OwnerIDKey = "owner_id"

// OwnerAuthMiddleware validates the bearer token and stores the owner id
// in the request context. Every tenant, notification and payment route
// sits behind it.
func OwnerAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error":             "unauthorized",
				"error_description": "Authorization required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Warn("Invalid authentication scheme")
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error":             "unauthorized",
				"error_description": "Authorization must use Bearer scheme",
			})
		}

		claims, err := jwtutil.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Warn("Invalid or expired token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error":             "unauthorized",
				"error_description": "Invalid or expired token",
			})
		}

		c.Set(OwnerIDKey, claims.OwnerID)
		return next(c)
	}
}

// OwnerID retrieves the authenticated owner's id from the context
func OwnerID(c echo.Context) string {
	if id, ok := c.Get(OwnerIDKey).(string); ok {
		return id
	}
	return ""
}
