package model

import (
	"time"

	"gorm.io/gorm"
)

// Property represents a rental property managed by an owner
type Property struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	OwnerID   string         `gorm:"index" json:"owner_id"`
	Name      string         `json:"name"`
	Location  string         `json:"location"`
	UnitCount int            `json:"unit_count"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook will be called before creating a new Property record
func (p *Property) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = generateSecureID("prp_")
	}
	return nil
}
