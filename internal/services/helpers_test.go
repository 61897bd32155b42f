package services

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-pos/internal/db/dbtest"
	"github.com/diewo77/go-pos/internal/lock"
	"github.com/diewo77/go-pos/internal/logging"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/numbering"
	"github.com/diewo77/go-pos/internal/store"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

type env struct {
	db      *gorm.DB
	store   *store.Store
	seq     *numbering.Generator
	convert *ConversionService
	quotes  *QuoteService
	stock   *StockService
	invoice *InvoiceService
	payment *PaymentService

	pos      models.PointOfSale
	user     models.User
	client   models.Client
	terminal models.Product // P-001, 10 on hand, sells 1000
	rolls    models.Product // P-002, 10 on hand, sells 5
	q1001    models.Quote
}

func newEnv(t *testing.T) *env {
	return newEnvWithLocker(t, lock.Noop{})
}

func newEnvWithLocker(t *testing.T, locker lock.Locker) *env {
	t.Helper()
	d := dbtest.OpenSeeded(t)
	st := store.New(d)
	logger := logging.Discard()
	seq := numbering.NewGenerator(numbering.NewDBCounter(d), numbering.DefaultSchemes("INV", "Q", 4)).
		WithClock(func() time.Time { return fixedNow })

	e := &env{
		db:      d,
		store:   st,
		seq:     seq,
		convert: NewConversionService(st, seq, locker, logger, WithClock(func() time.Time { return fixedNow })),
		quotes:  NewQuoteService(st, seq, logger),
		stock:   NewStockService(st, logger),
		invoice: NewInvoiceService(st, logger),
		payment: NewPaymentService(st, logger),
	}
	e.quotes.now = func() time.Time { return fixedNow }
	e.payment.now = func() time.Time { return fixedNow }

	mustFirst(t, d.Where("code = ?", "MAIN"), &e.pos)
	mustFirst(t, d.Where("email = ?", "admin@example.com"), &e.user)
	mustFirst(t, d.Where("name = ?", "Client comptoir"), &e.client)
	mustFirst(t, d.Where("code = ?", "P-001"), &e.terminal)
	mustFirst(t, d.Where("code = ?", "P-002"), &e.rolls)
	mustFirst(t, d.Where("number = ?", "Q-1001"), &e.q1001)
	return e
}

func mustFirst(t *testing.T, q *gorm.DB, dest any) {
	t.Helper()
	if err := q.First(dest).Error; err != nil {
		t.Fatalf("fixture lookup %T: %v", dest, err)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newQuote creates a draft quote through the QuoteService.
func (e *env) newQuote(t *testing.T, items ...NewQuoteItem) *models.Quote {
	t.Helper()
	q, err := e.quotes.Create(context.Background(), NewQuote{
		ClientID:    e.client.ID,
		CreatedByID: e.user.ID,
		Items:       items,
	})
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	return q
}

func (e *env) onHand(t *testing.T, productID uint) decimal.Decimal {
	t.Helper()
	qty, err := e.stock.OnHand(context.Background(), productID, e.pos.ID)
	if err != nil {
		t.Fatal(err)
	}
	return qty
}

func (e *env) quoteStatus(t *testing.T, id uint) models.QuoteStatus {
	t.Helper()
	var q models.Quote
	mustFirst(t, e.db.Where("id = ?", id), &q)
	return q.Status
}

func (e *env) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(model).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func (e *env) setQuoteStatus(t *testing.T, id uint, status models.QuoteStatus) {
	t.Helper()
	if err := e.db.Model(&models.Quote{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		t.Fatal(err)
	}
}
