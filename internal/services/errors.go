package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/validation"
	"github.com/shopspring/decimal"
)

var (
	ErrQuoteNotFound       = errors.New("quote not found")
	ErrEmptyQuote          = errors.New("quote has no line items")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrNoPointOfSale       = errors.New("no point of sale given and the user has no default point of sale")
	ErrPointOfSaleNotFound = errors.New("point of sale not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidQuantity     = errors.New("quantity must be non-zero")
	ErrOverpayment         = errors.New("payment exceeds the invoice balance")
)

// ConversionStateError reports a quote that cannot be converted in its current status.
// An already converted quote is the idempotence case.
type ConversionStateError struct {
	QuoteID     uint
	QuoteNumber string
	Status      models.QuoteStatus
	// Busy is set when another conversion of the same quote holds the lock.
	Busy bool
}

func (e *ConversionStateError) Error() string {
	if e.Busy {
		return fmt.Sprintf("quote %s is being converted by another request (status %s)", e.QuoteNumber, e.Status)
	}
	return fmt.Sprintf("quote %s cannot be converted from status %s", e.QuoteNumber, e.Status)
}

// StockShortfall is one product lacking stock.
type StockShortfall struct {
	ProductID   uint            `json:"product_id"`
	ProductCode string          `json:"product_code"`
	Required    decimal.Decimal `json:"required"`
	Available   decimal.Decimal `json:"available"`
	Shortfall   decimal.Decimal `json:"shortfall"`
}

func newShortfall(productID uint, code string, required, available decimal.Decimal) StockShortfall {
	return StockShortfall{
		ProductID:   productID,
		ProductCode: code,
		Required:    required,
		Available:   available,
		Shortfall:   required.Sub(available),
	}
}

// InsufficientStockError reports every product whose on-hand quantity at the
// point of sale is below what was requested. The top-level fields describe the
// first offending product.
type InsufficientStockError struct {
	PointOfSaleID uint
	ProductID     uint
	ProductCode   string
	Required      decimal.Decimal
	Available     decimal.Decimal
	Shortfall     decimal.Decimal
	Items         []StockShortfall
}

func newInsufficientStockError(posID uint, items []StockShortfall) *InsufficientStockError {
	first := items[0]
	return &InsufficientStockError{
		PointOfSaleID: posID,
		ProductID:     first.ProductID,
		ProductCode:   first.ProductCode,
		Required:      first.Required,
		Available:     first.Available,
		Shortfall:     first.Shortfall,
		Items:         items,
	}
}

func (e *InsufficientStockError) Error() string {
	msg := fmt.Sprintf("insufficient stock for product %s at point of sale %d: required %s, available %s, short by %s",
		e.ProductCode, e.PointOfSaleID, e.Required, e.Available, e.Shortfall)
	if len(e.Items) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(e.Items)-1)
	}
	return msg
}

// PersistenceError wraps a store failure. The operation is not retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// TransitionError reports an illegal quote status change.
type TransitionError struct {
	QuoteID uint
	From    models.QuoteStatus
	To      models.QuoteStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("quote %d cannot move from %s to %s", e.QuoteID, e.From, e.To)
}

// InvoiceStateError reports an operation not allowed in the invoice status.
type InvoiceStateError struct {
	InvoiceNumber string
	Status        models.InvoiceStatus
	Op            string
}

func (e *InvoiceStateError) Error() string {
	return fmt.Sprintf("invoice %s: cannot %s while %s", e.InvoiceNumber, e.Op, e.Status)
}

// isDomainError reports errors that already carry their own meaning and must
// not be rewrapped as persistence failures.
func isDomainError(err error) bool {
	var (
		cse *ConversionStateError
		ise *InsufficientStockError
		pe  *PersistenceError
		te  *TransitionError
		ie  *InvoiceStateError
	)
	switch {
	case errors.As(err, &cse), errors.As(err, &ise), errors.As(err, &pe),
		errors.As(err, &te), errors.As(err, &ie):
		return true
	}
	if _, ok := validation.AsViolations(err); ok {
		return true
	}
	for _, sentinel := range []error{
		ErrQuoteNotFound, ErrEmptyQuote, ErrInvoiceNotFound, ErrNoPointOfSale,
		ErrPointOfSaleNotFound, ErrProductNotFound, ErrClientNotFound, ErrUserNotFound,
		ErrInvalidQuantity, ErrOverpayment,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// classify keeps domain errors as they are and wraps anything else,
// typically a failed commit, as a PersistenceError.
func classify(op string, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
