package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents an item sold at the points of sale.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code          string          `gorm:"size:50;not null;uniqueIndex" json:"code"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"selling_price"`
	Unit          string          `gorm:"size:50;default:'unit'" json:"unit"` // unit, hour, kg, etc.
	Category      string          `gorm:"size:100" json:"category,omitempty"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
}

// Margin returns the unit margin between selling and purchase price.
func (p *Product) Margin() decimal.Decimal {
	return p.SellingPrice.Sub(p.PurchasePrice)
}
