package handler

import (
	"net/http"
	"time"

	"rental-service/internal/middleware"
	"rental-service/internal/model"
	"rental-service/pkg/logger"
	"rental-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateProperty registers a property under the authenticated owner
func CreateProperty(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Name      string `json:"name"`
		Location  string `json:"location"`
		UnitCount int    `json:"unit_count"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Property name is required",
		})
	}

	property := model.Property{
		OwnerID:   middleware.OwnerID(c),
		Name:      req.Name,
		Location:  req.Location,
		UnitCount: req.UnitCount,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := store.CreateProperty(c.Request().Context(), &property); err != nil {
		log.Error("Failed to create property", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to create property",
		})
	}

	return c.JSON(http.StatusCreated, property)
}

// ListProperties returns every property of the authenticated owner
func ListProperties(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	properties, err := store.PropertiesByOwner(c.Request().Context(), middleware.OwnerID(c))
	if err != nil {
		log.Error("Failed to list properties", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to list properties",
		})
	}
	return c.JSON(http.StatusOK, properties)
}
