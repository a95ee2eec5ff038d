package handler

import (
	"net/http"
	"time"

	"rental-service/internal/dues"
	"rental-service/internal/middleware"
	"rental-service/internal/model"
	"rental-service/pkg/logger"
	"rental-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RefreshDues recomputes and persists the payment status for every
// tenant of the authenticated owner. The write is one batched update so
// concurrent readers never observe a half-updated tenant set.
func RefreshDues(c echo.Context) error {
	log := logger.FromContext(c)
	ownerID := middleware.OwnerID(c)
	start := time.Now()

	tenants, err := store.TenantsByOwner(c.Request().Context(), ownerID)
	if err != nil {
		log.Error("Failed to load tenants for dues refresh", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to load tenants",
		})
	}

	now := time.Now()
	updates := dues.RefreshStatuses(tenants, now)
	if err := store.BulkUpdateTenantStatus(c.Request().Context(), updates, now); err != nil {
		log.Error("Failed to apply dues refresh", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to update tenant statuses",
		})
	}

	overdue := 0
	for _, u := range updates {
		if u.Status == model.StatusOverdue {
			overdue++
		}
	}
	prometheus.DuesRefreshHistogram.Observe(time.Since(start).Seconds())
	prometheus.TenantsOverdueGauge.Set(float64(overdue))

	log.Info("Dues refresh completed",
		zap.Int("tenants", len(updates)), zap.Int("overdue", overdue))
	return c.JSON(http.StatusOK, echo.Map{
		"tenants_checked": len(updates),
		"overdue":         overdue,
		"up_to_date":      len(updates) - overdue,
		"checked_at":      now.Format(time.RFC3339),
	})
}
