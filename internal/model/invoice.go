package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the lifecycle state of an invoice.
// An invoice is created pending and transitions exactly once to
// completed or failed.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoiceCompleted InvoiceStatus = "completed"
	InvoiceFailed    InvoiceStatus = "failed"
)

// Invoice is a pending obligation awaiting mobile-money settlement
type Invoice struct {
	ID         string          `gorm:"primaryKey" json:"id"`
	OwnerID    string          `gorm:"index" json:"owner_id"`
	PropertyID string          `gorm:"index" json:"property_id"`
	TenantID   string          `gorm:"index" json:"tenant_id"`
	UnitType   string          `json:"unit_type"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Status     InvoiceStatus   `gorm:"default:pending" json:"status"`
	Reference  string          `gorm:"uniqueIndex" json:"reference"` // correlates to the gateway transaction
	CheckoutID string          `gorm:"index" json:"checkout_id"`     // transaction request id from the gateway
	ProviderID string          `json:"provider_id"`                  // provider reference recorded at settlement
	ExpiresAt  time.Time       `json:"expires_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate hook will be called before creating a new Invoice record
func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == "" {
		i.ID = generateSecureID("inv_")
	}
	return nil
}

// IsExpired checks if the invoice has passed its expiry
func (i *Invoice) IsExpired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}
