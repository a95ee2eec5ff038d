package model

import (
	"time"

	"gorm.io/gorm"
)

// Owner represents a property owner account
type Owner struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	Name         string         `json:"name"`
	Email        string         `gorm:"uniqueIndex" json:"email"`
	Phone        string         `json:"phone"`
	PasswordHash string         `json:"-"` // Never expose the hash in JSON responses
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook will be called before creating a new Owner record
func (o *Owner) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == "" {
		o.ID = generateSecureID("own_")
	}
	return nil
}
