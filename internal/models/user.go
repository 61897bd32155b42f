package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a staff member acting on quotes, invoices and stock.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string         `gorm:"size:255" json:"name,omitempty"`
	// ProfileID links the user to an optional staff profile.
	// A nil value means the user has no profile (no default point of sale).
	ProfileID *uint         `gorm:"index" json:"profile_id,omitempty"`
	Profile   *StaffProfile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
}

// StaffProfile holds the point-of-sale context of a user.
type StaffProfile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	DisplayName string         `gorm:"size:255" json:"display_name"`
	Role        string         `gorm:"size:50;default:'cashier'" json:"role"`

	DefaultPointOfSaleID *uint        `gorm:"index" json:"default_point_of_sale_id,omitempty"`
	DefaultPointOfSale   *PointOfSale `gorm:"foreignKey:DefaultPointOfSaleID" json:"default_point_of_sale,omitempty"`
}

// DefaultPOS returns the profile's default point of sale id, if any.
func (p *StaffProfile) DefaultPOS() (uint, bool) {
	if p == nil || p.DefaultPointOfSaleID == nil || *p.DefaultPointOfSaleID == 0 {
		return 0, false
	}
	return *p.DefaultPointOfSaleID, true
}
