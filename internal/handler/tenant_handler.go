package handler

import (
	"errors"
	"net/http"
	"time"

	"rental-service/internal/dues"
	"rental-service/internal/middleware"
	"rental-service/internal/model"
	"rental-service/internal/repository"
	"rental-service/pkg/logger"
	"rental-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateTenant registers a tenant under the authenticated owner
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	ownerID := middleware.OwnerID(c)

	var req struct {
		PropertyID     string               `json:"property_id"`
		Name           string               `json:"name"`
		Phone          string               `json:"phone"`
		Email          string               `json:"email"`
		UnitType       string               `json:"unit_type"`
		DeliveryMethod model.DeliveryMethod `json:"delivery_method"`
		Price          decimal.Decimal      `json:"price"`
		Deposit        decimal.Decimal      `json:"deposit"`
		LeaseStart     *time.Time           `json:"lease_start"`
		LeaseEnd       *time.Time           `json:"lease_end"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}

	if req.Name == "" || req.PropertyID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Name and property id are required",
		})
	}
	if req.Price.IsNegative() || req.Deposit.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Price and deposit must not be negative",
		})
	}
	if req.LeaseStart != nil && req.LeaseEnd != nil && !req.LeaseEnd.After(*req.LeaseStart) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Lease end date must be after lease start date",
		})
	}
	if req.DeliveryMethod == "" {
		req.DeliveryMethod = model.DeliveryApp
	}
	if !req.DeliveryMethod.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Unknown delivery method",
		})
	}

	tenant := model.Tenant{
		PropertyID:     req.PropertyID,
		OwnerID:        ownerID,
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		UnitType:       req.UnitType,
		DeliveryMethod: req.DeliveryMethod,
		Price:          req.Price,
		Deposit:        req.Deposit,
		LeaseStart:     req.LeaseStart,
		LeaseEnd:       req.LeaseEnd,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := store.CreateTenant(c.Request().Context(), &tenant); err != nil {
		log.Error("Failed to create tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to create tenant",
		})
	}

	return c.JSON(http.StatusCreated, tenant)
}

// ListTenants returns every tenant of the authenticated owner
func ListTenants(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	tenants, err := store.TenantsByOwner(c.Request().Context(), middleware.OwnerID(c))
	if err != nil {
		log.Error("Failed to list tenants", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to list tenants",
		})
	}
	return c.JSON(http.StatusOK, tenants)
}

// GetTenant returns one tenant, scoped to the authenticated owner
func GetTenant(c echo.Context) error {
	tenant, ok := ownedTenant(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, tenant)
}

// GetTenantDues computes the current dues breakdown for one tenant
func GetTenantDues(c echo.Context) error {
	tenant, ok := ownedTenant(c)
	if !ok {
		return nil
	}
	breakdown := dues.Compute(*tenant, time.Now())
	return c.JSON(http.StatusOK, breakdown)
}

// ListTenantPayments returns a tenant's payment history
func ListTenantPayments(c echo.Context) error {
	log := logger.FromContext(c)
	tenant, ok := ownedTenant(c)
	if !ok {
		return nil
	}

	payments, err := store.PaymentsByTenant(c.Request().Context(), tenant.ID)
	if err != nil {
		log.Error("Failed to list payments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to list payments",
		})
	}
	return c.JSON(http.StatusOK, payments)
}

// ownedTenant loads the tenant from the path parameter and enforces that
// it belongs to the authenticated owner. On failure it writes the error
// response itself and reports ok=false.
func ownedTenant(c echo.Context) (*model.Tenant, bool) {
	log := logger.FromContext(c)

	tenantID := c.Param("id")
	tenant, err := store.TenantByID(c.Request().Context(), tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{
				"error":             "not_found",
				"error_description": "Tenant not found",
			})
			return nil, false
		}
		log.Error("Failed to fetch tenant", zap.String("tenant_id", tenantID), zap.Error(err))
		_ = c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to fetch tenant",
		})
		return nil, false
	}
	if tenant.OwnerID != middleware.OwnerID(c) {
		log.Warn("Cross-owner tenant access rejected", zap.String("tenant_id", tenantID))
		_ = c.JSON(http.StatusForbidden, echo.Map{
			"error":             "forbidden",
			"error_description": "Tenant does not belong to this owner",
		})
		return nil, false
	}
	return tenant, true
}
