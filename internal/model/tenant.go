package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DeliveryMethod represents a tenant's preferred notification channel
type DeliveryMethod string

const (
	DeliveryApp      DeliveryMethod = "app"
	DeliverySMS      DeliveryMethod = "sms"
	DeliveryEmail    DeliveryMethod = "email"
	DeliveryWhatsApp DeliveryMethod = "whatsapp"
	DeliveryBoth     DeliveryMethod = "both" // every external channel the dispatcher supports
)

// Valid reports whether the delivery method is one the dispatcher understands.
func (m DeliveryMethod) Valid() bool {
	switch m {
	case DeliveryApp, DeliverySMS, DeliveryEmail, DeliveryWhatsApp, DeliveryBoth:
		return true
	}
	return false
}

// PaymentStatus is the cached dues classification for a tenant.
// It is derived from the ledger and lease terms, never authoritative.
type PaymentStatus string

const (
	StatusOverdue  PaymentStatus = "overdue"
	StatusUpToDate PaymentStatus = "up-to-date"
)

// Tenant represents a tenant with lease terms and ledger totals
type Tenant struct {
	ID         string `gorm:"primaryKey" json:"id"`
	PropertyID string `gorm:"index" json:"property_id"`
	OwnerID    string `gorm:"index" json:"owner_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	UnitType   string `json:"unit_type"`

	DeliveryMethod DeliveryMethod `gorm:"default:app" json:"delivery_method"`

	// Lease terms
	Price      decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`   // monthly rent
	Deposit    decimal.Decimal `gorm:"type:decimal(12,2)" json:"deposit"` // one-time
	LeaseStart *time.Time      `json:"lease_start,omitempty"`
	LeaseEnd   *time.Time      `json:"lease_end,omitempty"`

	// Ledger totals, rolled forward only by completed payment settlement
	TotalRentPaid    decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_rent_paid"`
	TotalDepositPaid decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_deposit_paid"`
	TotalUtilityPaid decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_utility_paid"`
	WalletBalance    decimal.Decimal `gorm:"type:decimal(12,2)" json:"wallet_balance"` // credit from overpayment

	PaymentStatus   PaymentStatus `gorm:"default:up-to-date" json:"payment_status"`
	StatusCheckedAt *time.Time    `json:"status_checked_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook will be called before creating a new Tenant record
func (t *Tenant) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = generateSecureID("ten_")
	}
	return nil
}
