package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusIssued    InvoiceStatus = "issued"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice represents a binding sales document.
type Invoice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Invoice identification
	Number string `gorm:"size:50;not null;uniqueIndex" json:"number"`

	// UserID is the staff member who created the invoice.
	UserID uint  `gorm:"index;not null" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"-"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	PointOfSaleID uint         `gorm:"index;not null" json:"point_of_sale_id"`
	PointOfSale   *PointOfSale `gorm:"foreignKey:PointOfSaleID" json:"point_of_sale,omitempty"`

	// SourceQuoteID links the invoice to the quote it was converted from.
	// The unique index allows at most one invoice per quote.
	SourceQuoteID *uint  `gorm:"uniqueIndex" json:"source_quote_id,omitempty"`
	SourceQuote   *Quote `gorm:"foreignKey:SourceQuoteID" json:"-"`

	// Invoice dates
	IssueDate time.Time  `gorm:"not null" json:"issue_date"`
	DueDate   time.Time  `gorm:"not null" json:"due_date"`
	PaidDate  *time.Time `json:"paid_date,omitempty"`

	Status InvoiceStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`

	// Total is the snapshot of Σ(unit price × quantity) at creation.
	Total decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`

	Notes        string `gorm:"type:text" json:"notes,omitempty"`
	PaymentTerms string `gorm:"size:500" json:"payment_terms,omitempty"`

	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// IsDraft returns true if the invoice is in draft status.
func (i *Invoice) IsDraft() bool {
	return i.Status == InvoiceStatusDraft
}

// CanEdit returns true if the invoice can still be edited.
func (i *Invoice) CanEdit() bool {
	return i.Status == InvoiceStatusDraft
}

// AcceptsPayments reports whether payments may be recorded against the invoice.
func (i *Invoice) AcceptsPayments() bool {
	return i.Status == InvoiceStatusIssued || i.Status == InvoiceStatusPartial
}

// ItemsTotal recomputes the total from the line items.
func (i *Invoice) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range i.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// AmountPaid sums the recorded payments.
func (i *Invoice) AmountPaid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range i.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// Balance returns what remains to be paid.
func (i *Invoice) Balance() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid())
}

// DerivedPaymentStatus computes the status implied by the payments.
// Draft and cancelled invoices keep their status.
func (i *Invoice) DerivedPaymentStatus() InvoiceStatus {
	if i.Status == InvoiceStatusDraft || i.Status == InvoiceStatusCancelled {
		return i.Status
	}
	paid := i.AmountPaid()
	switch {
	case paid.IsZero():
		return InvoiceStatusIssued
	case paid.LessThan(i.Total):
		return InvoiceStatusPartial
	default:
		return InvoiceStatusPaid
	}
}

// InvoiceItem represents a line item on an invoice.
type InvoiceItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Parent invoice
	InvoiceID uint `gorm:"index;not null" json:"invoice_id"`

	ProductID uint     `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	// Item details (copied from the quote line)
	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`

	// Position for ordering
	Position int `gorm:"default:0" json:"position"`
}

// LineTotal returns unit price × quantity.
func (item *InvoiceItem) LineTotal() decimal.Decimal {
	return item.UnitPrice.Mul(item.Quantity)
}

// Payment records money received against an invoice.
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	InvoiceID uint            `gorm:"index;not null" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Method    string          `gorm:"size:50;not null" json:"method"` // cash, card, transfer, cheque
	Reference string          `gorm:"size:100" json:"reference,omitempty"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
	UserID    uint            `gorm:"index" json:"user_id"`
}
