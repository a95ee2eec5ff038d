package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NotificationType classifies what a notification is about
type NotificationType string

const (
	NotifyPayment     NotificationType = "payment"
	NotifyMaintenance NotificationType = "maintenance"
	NotifyTenant      NotificationType = "tenant"
	NotifyOther       NotificationType = "other"
)

// Valid reports whether the notification type is recognised.
func (t NotificationType) Valid() bool {
	switch t {
	case NotifyPayment, NotifyMaintenance, NotifyTenant, NotifyOther:
		return true
	}
	return false
}

// DeliveryStatus is the aggregate outcome of one dispatch attempt
type DeliveryStatus string

const (
	DeliverySuccess  DeliveryStatus = "success"
	DeliveryFailed   DeliveryStatus = "failed"
	DeliveryInFlight DeliveryStatus = "pending" // transient, never persisted as final
)

// Notification is an append-only audit record of one dispatch attempt
// to one tenant. For payment notifications it carries the dues breakdown
// as it was at send time.
type Notification struct {
	ID             string           `gorm:"primaryKey" json:"id"`
	OwnerID        string           `gorm:"index" json:"owner_id"`
	TenantID       string           `gorm:"index" json:"tenant_id"`
	Type           NotificationType `json:"type"`
	Message        string           `gorm:"type:text" json:"message"`
	DeliveryMethod DeliveryMethod   `json:"delivery_method"` // effective channel actually used
	DeliveryStatus DeliveryStatus   `json:"delivery_status"`
	DeliveryError  string           `json:"delivery_error,omitempty"`

	// Dues snapshot, set only for payment-type notifications
	RentDues    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"rent_dues,omitempty"`
	DepositDues *decimal.Decimal `gorm:"type:decimal(12,2)" json:"deposit_dues,omitempty"`
	UtilityDues *decimal.Decimal `gorm:"type:decimal(12,2)" json:"utility_dues,omitempty"`
	TotalDues   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_dues,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook will be called before creating a new Notification record
func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = generateSecureID("ntf_")
	}
	return nil
}
