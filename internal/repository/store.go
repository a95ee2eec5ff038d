// Package repository provides GORM-backed persistence for the rental
// domain. Handlers and services receive a *Store (or a narrower
// consumer-side interface) instead of touching the database directly.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"rental-service/internal/dues"
	"rental-service/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps a gorm.DB with domain-level persistence operations
type Store struct {
	db *gorm.DB
}

// New creates a Store backed by the given database handle
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- Owners ---

// CreateOwner persists a new owner account
func (s *Store) CreateOwner(ctx context.Context, o *model.Owner) error {
	return s.db.WithContext(ctx).Create(o).Error
}

// OwnerByEmail looks up an owner by login email
func (s *Store) OwnerByEmail(ctx context.Context, email string) (*model.Owner, error) {
	var o model.Owner
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&o).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &o, nil
}

// --- Properties ---

// CreateProperty persists a new property
func (s *Store) CreateProperty(ctx context.Context, p *model.Property) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// PropertiesByOwner lists all properties belonging to an owner
func (s *Store) PropertiesByOwner(ctx context.Context, ownerID string) ([]model.Property, error) {
	var props []model.Property
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&props).Error; err != nil {
		return nil, err
	}
	return props, nil
}

// --- Tenants ---

// CreateTenant persists a new tenant
func (s *Store) CreateTenant(ctx context.Context, t *model.Tenant) error {
	return s.db.WithContext(ctx).Create(t).Error
}

// TenantByID fetches a single tenant
func (s *Store) TenantByID(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}

// TenantsByOwner lists every tenant belonging to an owner
func (s *Store) TenantsByOwner(ctx context.Context, ownerID string) ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// AllTenants lists every tenant across owners, used by the batch dues
// refresh job
func (s *Store) AllTenants(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := s.db.WithContext(ctx).Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// BulkUpdateTenantStatus applies a batch of derived payment statuses in
// one transaction. Updates are grouped by status so the batch issues at
// most two UPDATE statements, never one write per tenant; concurrent
// readers see either the old set or the new set.
func (s *Store) BulkUpdateTenantStatus(ctx context.Context, updates []dues.StatusUpdate, checkedAt time.Time) error {
	if len(updates) == 0 {
		return nil
	}

	byStatus := make(map[model.PaymentStatus][]string)
	for _, u := range updates {
		byStatus[u.Status] = append(byStatus[u.Status], u.TenantID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for status, ids := range byStatus {
			if err := tx.Model(&model.Tenant{}).
				Where("id IN ?", ids).
				Updates(map[string]interface{}{
					"payment_status":    status,
					"status_checked_at": checkedAt,
				}).Error; err != nil {
				return fmt.Errorf("failed to update tenant statuses: %w", err)
			}
		}
		return nil
	})
}

// --- Payments ---

// CreatePayment persists a payment record
func (s *Store) CreatePayment(ctx context.Context, p *model.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// PaymentsByTenant lists payments for one tenant, newest first
func (s *Store) PaymentsByTenant(ctx context.Context, tenantID string) ([]model.Payment, error) {
	var payments []model.Payment
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("payment_date DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// --- Invoices ---

// CreateInvoice persists a new pending invoice
func (s *Store) CreateInvoice(ctx context.Context, i *model.Invoice) error {
	return s.db.WithContext(ctx).Create(i).Error
}

// InvoiceByReference fetches an invoice by its gateway reference
func (s *Store) InvoiceByReference(ctx context.Context, reference string) (*model.Invoice, error) {
	var inv model.Invoice
	if err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&inv).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &inv, nil
}

// InvoiceByCheckoutID fetches an invoice by the gateway transaction
// request id recorded at initiation
func (s *Store) InvoiceByCheckoutID(ctx context.Context, checkoutID string) (*model.Invoice, error) {
	var inv model.Invoice
	if err := s.db.WithContext(ctx).Where("checkout_id = ?", checkoutID).First(&inv).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &inv, nil
}

// AttachCheckoutID records the gateway transaction request id on a
// freshly initiated invoice
func (s *Store) AttachCheckoutID(ctx context.Context, reference, checkoutID string) error {
	return s.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("reference = ?", reference).
		Update("checkout_id", checkoutID).Error
}

// InvoicesByOwner lists invoices raised by an owner, newest first
func (s *Store) InvoicesByOwner(ctx context.Context, ownerID string) ([]model.Invoice, error) {
	var invoices []model.Invoice
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// SettleInvoice marks the invoice identified by reference as completed,
// records the settled payment and rolls the tenant's rent ledger total
// forward, all in one transaction. Settlement is idempotent: settling an
// invoice that already left the pending state, completed or failed, is a
// no-op and reports applied=false. This is the only path that mutates
// ledger totals.
func (s *Store) SettleInvoice(ctx context.Context, reference, providerID string) (applied bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv model.Invoice
		if err := tx.Where("reference = ?", reference).First(&inv).Error; err != nil {
			return wrapNotFound(err)
		}

		if inv.Status != model.InvoicePending {
			// Already terminal, real-money double-count guard.
			return nil
		}

		// Conditional update keyed on the pending state so a racing
		// settlement can win at most once and a failed invoice never
		// transitions again.
		res := tx.Model(&model.Invoice{}).
			Where("reference = ? AND status = ?", reference, model.InvoicePending).
			Updates(map[string]interface{}{
				"status":      model.InvoiceCompleted,
				"provider_id": providerID,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to settle invoice: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		payment := model.Payment{
			TenantID:      inv.TenantID,
			PropertyID:    inv.PropertyID,
			OwnerID:       inv.OwnerID,
			Amount:        inv.Amount,
			Type:          model.PaymentRent,
			Status:        model.PaymentCompleted,
			PaymentDate:   time.Now(),
			TransactionID: providerID,
			Reference:     inv.Reference,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		if inv.TenantID != "" {
			if err := tx.Model(&model.Tenant{}).
				Where("id = ?", inv.TenantID).
				Update("total_rent_paid", gorm.Expr("total_rent_paid + ?", inv.Amount)).Error; err != nil {
				return fmt.Errorf("failed to update tenant ledger: %w", err)
			}
		}

		applied = true
		return nil
	})
	return applied, err
}

// FailInvoice marks a still-pending invoice as failed. Terminal invoices
// are left untouched.
func (s *Store) FailInvoice(ctx context.Context, reference string) error {
	return s.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("reference = ? AND status = ?", reference, model.InvoicePending).
		Update("status", model.InvoiceFailed).Error
}

// --- Notifications ---

// CreateNotification persists an audit record of one dispatch attempt
func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// NotificationsByOwner lists an owner's notification history, newest first
func (s *Store) NotificationsByOwner(ctx context.Context, ownerID string) ([]model.Notification, error) {
	var notifications []model.Notification
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// DeleteNotification removes one notification, scoped to its owner
func (s *Store) DeleteNotification(ctx context.Context, ownerID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
