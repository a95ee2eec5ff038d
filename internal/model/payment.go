package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentType classifies which billing category a payment settles
type PaymentType string

const (
	PaymentRent    PaymentType = "Rent"
	PaymentDeposit PaymentType = "Deposit"
	PaymentUtility PaymentType = "Utility"
	PaymentOther   PaymentType = "Other"
)

// PaymentState represents the processing state of a payment record
type PaymentState string

const (
	PaymentCompleted PaymentState = "completed"
	PaymentPending   PaymentState = "pending"
	PaymentFailed    PaymentState = "failed"
)

// Payment is an immutable record of a settled transaction.
// Only completed payments count toward the tenant ledger totals.
type Payment struct {
	ID            string          `gorm:"primaryKey" json:"id"`
	TenantID      string          `gorm:"index" json:"tenant_id"`
	PropertyID    string          `gorm:"index" json:"property_id"`
	OwnerID       string          `gorm:"index" json:"owner_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Type          PaymentType     `json:"type"`
	Status        PaymentState    `gorm:"default:pending" json:"status"`
	PaymentDate   time.Time       `json:"payment_date"`
	TransactionID string          `json:"transaction_id"` // provider transaction id
	Reference     string          `gorm:"index" json:"reference"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate hook will be called before creating a new Payment record
func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = generateSecureID("pay_")
	}
	return nil
}
