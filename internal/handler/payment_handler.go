package handler

import (
	"errors"
	"net/http"
	"time"

	"rental-service/internal/middleware"
	"rental-service/internal/model"
	"rental-service/internal/mpesa"
	"rental-service/internal/repository"
	"rental-service/pkg/logger"
	"rental-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateInvoice raises a pending invoice for later mobile-money settlement
func CreateInvoice(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		PropertyID string          `json:"property_id"`
		TenantID   string          `json:"tenant_id"`
		UnitType   string          `json:"unit_type"`
		Amount     decimal.Decimal `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}
	if !req.Amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Amount must be positive",
		})
	}

	invoice := model.Invoice{
		OwnerID:    middleware.OwnerID(c),
		PropertyID: req.PropertyID,
		TenantID:   req.TenantID,
		UnitType:   req.UnitType,
		Amount:     req.Amount,
		Status:     model.InvoicePending,
		Reference:  uuid.New().String(),
		ExpiresAt:  time.Now().Add(time.Hour),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := store.CreateInvoice(c.Request().Context(), &invoice); err != nil {
		log.Error("Failed to create invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to create invoice",
		})
	}
	return c.JSON(http.StatusCreated, invoice)
}

// ListInvoices returns the authenticated owner's invoices
func ListInvoices(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	invoices, err := store.InvoicesByOwner(c.Request().Context(), middleware.OwnerID(c))
	if err != nil {
		log.Error("Failed to list invoices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to list invoices",
		})
	}
	return c.JSON(http.StatusOK, invoices)
}

// InitiatePayment starts an STK push for a pending invoice. With
// wait=true the handler watches the transaction to its terminal state on
// the configured cadence; otherwise the client polls PaymentStatus.
func InitiatePayment(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	var req struct {
		Reference string `json:"reference"`
		Phone     string `json:"phone"`
		Wait      bool   `json:"wait"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}
	if req.Reference == "" || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Invoice reference and phone are required",
		})
	}

	invoice, err := store.InvoiceByReference(ctx, req.Reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":             "not_found",
				"error_description": "Invoice not found",
			})
		}
		log.Error("Failed to fetch invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to fetch invoice",
		})
	}
	if invoice.Status != model.InvoicePending {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":             "invalid_state",
			"error_description": "Invoice is no longer pending",
		})
	}
	if invoice.IsExpired(time.Now()) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":             "invalid_state",
			"error_description": "Invoice has expired",
		})
	}

	checkoutID, err := gateway.InitiateSTKPush(ctx, invoice.Amount, req.Phone, invoice.Reference)
	if err != nil {
		prometheus.STKPushCounter.WithLabelValues("rejected").Inc()
		log.Warn("STK push initiation failed", zap.Error(err))
		// The gateway's own message is surfaced verbatim.
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":             "gateway_error",
			"error_description": err.Error(),
		})
	}
	prometheus.STKPushCounter.WithLabelValues("initiated").Inc()

	if err := store.AttachCheckoutID(ctx, invoice.Reference, checkoutID); err != nil {
		log.Error("Failed to record checkout id", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to record payment initiation",
		})
	}

	if !req.Wait {
		return c.JSON(http.StatusAccepted, echo.Map{
			"checkout_id": checkoutID,
			"reference":   invoice.Reference,
			"state":       mpesa.StatePending,
			"message":     "Payment prompt sent. Poll the status endpoint until a terminal state.",
		})
	}

	outcome, err := watcher.Watch(ctx, checkoutID, invoice.Reference)
	if err != nil {
		if errors.Is(err, mpesa.ErrWatchExhausted) {
			return c.JSON(http.StatusAccepted, echo.Map{
				"checkout_id": checkoutID,
				"reference":   invoice.Reference,
				"state":       mpesa.StatePending,
				"message":     err.Error(),
			})
		}
		log.Error("Payment watch failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":             "gateway_error",
			"error_description": err.Error(),
		})
	}
	recordOutcome(outcome)
	return c.JSON(http.StatusOK, outcome)
}

// PaymentStatus performs one status poll for a checkout id, applying any
// terminal transition. Clients call it repeatedly until terminal.
func PaymentStatus(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	checkoutID := c.Param("checkoutId")
	invoice, err := store.InvoiceByCheckoutID(ctx, checkoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error":             "not_found",
				"error_description": "Unknown checkout id",
			})
		}
		log.Error("Failed to fetch invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "Failed to fetch invoice",
		})
	}

	outcome, terminal, err := watcher.Step(ctx, checkoutID, invoice.Reference)
	if err != nil {
		log.Error("Status poll failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":             "gateway_error",
			"error_description": err.Error(),
		})
	}
	if terminal {
		recordOutcome(outcome)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"checkout_id": checkoutID,
		"reference":   invoice.Reference,
		"terminal":    terminal,
		"outcome":     outcome,
	})
}

func recordOutcome(outcome *mpesa.Outcome) {
	prometheus.RecordPaymentOutcome(string(outcome.State))
	if outcome.SettlementApplied {
		prometheus.SettlementCounter.Inc()
	}
}
