package handler

import (
	"errors"
	"net/http"
	"time"

	"rental-service/internal/middleware"
	"rental-service/internal/model"
	"rental-service/internal/notify"
	"rental-service/internal/repository"
	"rental-service/pkg/logger"
	"rental-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SendNotification dispatches a notification to one tenant or to every
// tenant of the authenticated owner. The response is always 200 when the
// batch was processed; per-tenant delivery outcomes live in the records.
func SendNotification(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Target         string                 `json:"target"` // tenant id or "all"
		Type           model.NotificationType `json:"type"`
		Message        string                 `json:"message"`
		DeliveryMethod model.DeliveryMethod   `json:"delivery_method"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}
	if req.Target == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Target tenant id or \"all\" is required",
		})
	}

	result, err := dispatcher.Dispatch(c.Request().Context(), notify.Request{
		OwnerID:        middleware.OwnerID(c),
		Target:         req.Target,
		Type:           req.Type,
		Message:        req.Message,
		DeliveryMethod: req.DeliveryMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, notify.ErrInvalidRequest):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":             "invalid_request",
				"error_description": err.Error(),
			})
		case errors.Is(err, notify.ErrNotOwned):
			log.Warn("Cross-owner notification rejected", zap.String("target", req.Target))
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":             "forbidden",
				"error_description": "Tenant does not belong to this owner",
			})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":             "not_found",
				"error_description": "Tenant not found",
			})
		default:
			log.Error("Notification dispatch failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":             "server_error",
				"error_description": "Failed to dispatch notification",
			})
		}
	}

	for _, n := range result.Notifications {
		prometheus.RecordNotificationDispatched(string(n.Type), string(n.DeliveryMethod), string(n.DeliveryStatus))
	}
	if result.Skipped > 0 {
		prometheus.NotificationsSkippedCounter.Add(float64(result.Skipped))
	}

	if result.NothingToSend {
		log.Info("Nothing to send", zap.Int("skipped", result.Skipped))
	}
	return c.JSON(http.StatusOK, result)
}

// ListNotifications returns the authenticated owner's dispatch history
func ListNotifications(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	notifications, err := store.NotificationsByOwner(c.Request().Context(), middleware.OwnerID(c))
	if err != nil {
		log.Error("Failed to list notifications", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to list notifications",
		})
	}
	return c.JSON(http.StatusOK, notifications)
}

// DeleteNotification removes one notification record owned by the caller
func DeleteNotification(c echo.Context) error {
	log := logger.FromContext(c)

	id := c.Param("id")
	if err := store.DeleteNotification(c.Request().Context(), middleware.OwnerID(c), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":             "not_found",
				"error_description": "Notification not found",
			})
		}
		log.Error("Failed to delete notification", zap.String("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to delete notification",
		})
	}
	return c.NoContent(http.StatusNoContent)
}
