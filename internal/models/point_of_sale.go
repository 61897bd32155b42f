package models

import (
	"time"

	"gorm.io/gorm"
)

// PointOfSale is a physical or logical sales location with its own stock.
type PointOfSale struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:255;not null" json:"name"`

	// Address
	Address    string `gorm:"size:500" json:"address,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}

// TableName keeps the plural readable.
func (PointOfSale) TableName() string { return "points_of_sale" }

// FullAddress returns the formatted address printed on invoices.
func (p *PointOfSale) FullAddress() string {
	return formatAddress(p.Address, p.PostalCode, p.City, p.Country)
}
