// Package numbering allocates human readable document numbers such as
// INV-2026-0001 for invoices and Q-1001 for quotes.
package numbering

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Scopes used by the services.
const (
	ScopeInvoice = "invoice"
	ScopeQuote   = "quote"
)

// Sequence hands out unique document numbers for a scope.
// tx is the caller's transaction; counters that live in the database use it
// so a rolled back document also rolls back its number.
type Sequence interface {
	Next(ctx context.Context, tx *gorm.DB, scope string) (string, error)
}

// Counter is a monotonically increasing integer per key.
type Counter interface {
	Increment(ctx context.Context, tx *gorm.DB, key string) (int64, error)
}

// Scheme describes how numbers of one scope are rendered.
type Scheme struct {
	Prefix string
	// Yearly restarts the counter each year and prints the year.
	Yearly bool
	// Width left-pads the counter with zeros.
	Width int
	// Offset is added to the counter before rendering.
	Offset int64
}

// Format renders n with the scheme for the given year.
func Format(s Scheme, year int, n int64) string {
	num := strconv.FormatInt(n+s.Offset, 10)
	if s.Width > 0 {
		num = fmt.Sprintf("%0*d", s.Width, n+s.Offset)
	}
	if s.Yearly {
		return fmt.Sprintf("%s-%d-%s", s.Prefix, year, num)
	}
	return s.Prefix + "-" + num
}

// Generator implements Sequence on top of a Counter.
type Generator struct {
	counter Counter
	schemes map[string]Scheme
	now     func() time.Time
}

// NewGenerator returns a Generator using the given schemes by scope.
func NewGenerator(counter Counter, schemes map[string]Scheme) *Generator {
	return &Generator{counter: counter, schemes: schemes, now: time.Now}
}

// DefaultSchemes returns the invoice and quote schemes.
// Quotes start at 1001; invoices restart yearly.
func DefaultSchemes(invoicePrefix, quotePrefix string, width int) map[string]Scheme {
	return map[string]Scheme{
		ScopeInvoice: {Prefix: invoicePrefix, Yearly: true, Width: width},
		ScopeQuote:   {Prefix: quotePrefix, Offset: 1000},
	}
}

// WithClock overrides the time source used for yearly schemes.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Next allocates the next number for scope.
func (g *Generator) Next(ctx context.Context, tx *gorm.DB, scope string) (string, error) {
	scheme, ok := g.schemes[scope]
	if !ok {
		return "", fmt.Errorf("numbering: unknown scope %q", scope)
	}
	year := g.now().Year()
	key := scope
	if scheme.Yearly {
		key = fmt.Sprintf("%s:%d", scope, year)
	}
	n, err := g.counter.Increment(ctx, tx, key)
	if err != nil {
		return "", fmt.Errorf("numbering %s: %w", key, err)
	}
	return Format(scheme, year, n), nil
}
