package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrMovementImmutable is returned when a stock movement is updated or deleted.
var ErrMovementImmutable = errors.New("stock movements are append-only")

// MovementDirection tells whether a movement adds or removes stock.
type MovementDirection string

const (
	MovementIn  MovementDirection = "in"
	MovementOut MovementDirection = "out"
)

// MovementReason explains a movement.
type MovementReason string

const (
	ReasonInvoiceIssued    MovementReason = "invoice issued"
	ReasonStockReceived    MovementReason = "stock received"
	ReasonManualAdjustment MovementReason = "manual adjustment"
)

// StockLevel is the on-hand quantity of a product at a point of sale.
type StockLevel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProductID uint     `gorm:"not null;uniqueIndex:idx_stock_product_pos,priority:1" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	PointOfSaleID uint         `gorm:"not null;uniqueIndex:idx_stock_product_pos,priority:2" json:"point_of_sale_id"`
	PointOfSale   *PointOfSale `gorm:"foreignKey:PointOfSaleID" json:"-"`

	Quantity decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity"`
}

// StockMovement is an immutable audit record of a stock change.
type StockMovement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	ProductID     uint `gorm:"index;not null" json:"product_id"`
	PointOfSaleID uint `gorm:"index;not null" json:"point_of_sale_id"`

	Direction      MovementDirection `gorm:"size:10;not null" json:"direction"`
	Quantity       decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"quantity"`
	QuantityBefore decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"quantity_before"`
	QuantityAfter  decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"quantity_after"`
	Reason         MovementReason    `gorm:"size:50;not null" json:"reason"`

	InvoiceID *uint `gorm:"index" json:"invoice_id,omitempty"`
	UserID    uint  `gorm:"index" json:"user_id"`
}

// Delta returns the signed quantity change.
func (m *StockMovement) Delta() decimal.Decimal {
	if m.Direction == MovementOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// BeforeCreate checks that the movement is self-consistent:
// a positive quantity, a known direction, and after = before + delta.
func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.Direction != MovementIn && m.Direction != MovementOut {
		return errors.New("stock movement: unknown direction " + string(m.Direction))
	}
	if !m.Quantity.IsPositive() {
		return errors.New("stock movement: quantity must be positive")
	}
	if !m.QuantityBefore.Add(m.Delta()).Equal(m.QuantityAfter) {
		return errors.New("stock movement: quantity_after does not match quantity_before and delta")
	}
	return nil
}

// BeforeUpdate rejects any change to a recorded movement.
func (m *StockMovement) BeforeUpdate(tx *gorm.DB) error {
	return ErrMovementImmutable
}

// BeforeDelete rejects removal of a recorded movement.
func (m *StockMovement) BeforeDelete(tx *gorm.DB) error {
	return ErrMovementImmutable
}

// DocumentSequence backs document numbering per scope (e.g. "invoice:2026").
type DocumentSequence struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Scope     string    `gorm:"size:50;not null;uniqueIndex" json:"scope"`
	NextValue int64     `gorm:"not null;default:1" json:"next_value"`
}
