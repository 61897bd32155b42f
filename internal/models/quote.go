package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteStatus represents the lifecycle state of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusSent      QuoteStatus = "sent"
	QuoteStatusAccepted  QuoteStatus = "accepted"
	QuoteStatusConverted QuoteStatus = "converted"
	QuoteStatusRejected  QuoteStatus = "rejected"
	QuoteStatusExpired   QuoteStatus = "expired"
)

// quoteTransitions lists the forward moves allowed from each status.
// Conversion is only reachable through the conversion service.
var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusDraft:    {QuoteStatusSent, QuoteStatusConverted, QuoteStatusRejected, QuoteStatusExpired},
	QuoteStatusSent:     {QuoteStatusAccepted, QuoteStatusConverted, QuoteStatusRejected, QuoteStatusExpired},
	QuoteStatusAccepted: {QuoteStatusConverted, QuoteStatusExpired},
}

// ConvertibleQuoteStatuses returns the statuses a quote may be converted from.
func ConvertibleQuoteStatuses() []QuoteStatus {
	return []QuoteStatus{QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted}
}

// SourceStatuses returns every status from which next is reachable.
func SourceStatuses(next QuoteStatus) []QuoteStatus {
	var from []QuoteStatus
	for _, s := range []QuoteStatus{QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted} {
		if s.CanTransitionTo(next) {
			from = append(from, s)
		}
	}
	return from
}

// Convertible reports whether a quote in this status may become an invoice.
func (s QuoteStatus) Convertible() bool {
	return s.CanTransitionTo(QuoteStatusConverted)
}

// CanTransitionTo reports whether next is a legal forward move from s.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsFinal reports whether no further transition is possible.
func (s QuoteStatus) IsFinal() bool {
	return len(quoteTransitions[s]) == 0
}

// Quote is a non-binding sales proposal addressed to a client.
type Quote struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Number is assigned once at creation and never rewritten.
	Number string `gorm:"size:50;not null;uniqueIndex" json:"number"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	CreatedByID uint `gorm:"index" json:"created_by_id"`

	Status      QuoteStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`
	ValidUntil  *time.Time  `json:"valid_until,omitempty"`
	ConvertedAt *time.Time  `json:"converted_at,omitempty"`
	Notes       string      `gorm:"type:text" json:"notes,omitempty"`

	Items []QuoteItem `gorm:"foreignKey:QuoteID" json:"items,omitempty"`
}

// IsConverted returns true once an invoice has been produced from the quote.
func (q *Quote) IsConverted() bool {
	return q.Status == QuoteStatusConverted
}

// CanEdit returns true while the quote lines may still change.
func (q *Quote) CanEdit() bool {
	return q.Status == QuoteStatusDraft
}

// Total returns the sum of line totals.
func (q *Quote) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range q.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// QuoteItem is a line of a quote.
type QuoteItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	QuoteID uint `gorm:"index;not null" json:"quote_id"`

	ProductID uint     `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	Description string          `gorm:"size:500" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`

	Position int `gorm:"default:0" json:"position"`
}

// LineTotal returns unit price × quantity.
func (item *QuoteItem) LineTotal() decimal.Decimal {
	return item.UnitPrice.Mul(item.Quantity)
}
