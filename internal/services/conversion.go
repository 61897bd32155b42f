package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/diewo77/go-pos/internal/lock"
	"github.com/diewo77/go-pos/internal/logging"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/numbering"
	"github.com/diewo77/go-pos/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const moduleName = "services"

// ConversionService turns pending quotes into invoices and takes the invoiced
// quantities out of the point of sale stock, all in one transaction.
type ConversionService struct {
	store           *store.Store
	seq             numbering.Sequence
	locker          lock.Locker
	log             *logrus.Logger
	now             func() time.Time
	paymentTermDays int
	tracer          trace.Tracer
}

// ConversionOption customises a ConversionService.
type ConversionOption func(*ConversionService)

// WithClock sets the time source for issue and due dates.
func WithClock(now func() time.Time) ConversionOption {
	return func(s *ConversionService) { s.now = now }
}

// WithPaymentTermDays sets the delay between issue and due date.
func WithPaymentTermDays(days int) ConversionOption {
	return func(s *ConversionService) { s.paymentTermDays = days }
}

// NewConversionService wires the conversion workflow. A nil locker disables locking.
func NewConversionService(st *store.Store, seq numbering.Sequence, locker lock.Locker, logger *logrus.Logger, opts ...ConversionOption) *ConversionService {
	if locker == nil {
		locker = lock.Noop{}
	}
	s := &ConversionService{
		store:           st,
		seq:             seq,
		locker:          locker,
		log:             logger,
		now:             time.Now,
		paymentTermDays: 30,
		tracer:          otel.Tracer("github.com/diewo77/go-pos/internal/services"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolvePointOfSale returns requested when set, otherwise the default point
// of sale of the user's staff profile.
func (s *ConversionService) ResolvePointOfSale(ctx context.Context, userID, requested uint) (uint, error) {
	if requested != 0 {
		return requested, nil
	}
	profile, ok, err := s.store.FindStaffProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, persistence("find staff profile", err)
	}
	if !ok {
		return 0, ErrNoPointOfSale
	}
	posID, has := profile.DefaultPOS()
	if !has {
		return 0, ErrNoPointOfSale
	}
	return posID, nil
}

// stockLine is the quantity of one product requested by a quote.
type stockLine struct {
	productID uint
	code      string
	quantity  decimal.Decimal
	before    decimal.Decimal
}

// Convert converts quote quoteID into an invoice issued by userID at point of
// sale posID and removes the quoted quantities from that point of sale.
//
// Either everything is written (invoice, stock decrements, movements, quote
// status) or nothing is. A quote that is not draft, sent or accepted, including
// one already converted, fails with *ConversionStateError; missing stock fails
// with *InsufficientStockError; store failures surface as *PersistenceError.
func (s *ConversionService) Convert(ctx context.Context, quoteID, userID, posID uint) (*models.Invoice, error) {
	ctx, span := s.tracer.Start(ctx, "ConversionService.Convert", trace.WithAttributes(
		attribute.Int64("quote.id", int64(quoteID)),
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("point_of_sale.id", int64(posID)),
	))
	defer span.End()

	entry := s.log.WithFields(logrus.Fields{
		"conversion_id": uuid.NewString(),
		"quote_id":      quoteID,
		"user_id":       userID,
		"pos_id":        posID,
	})

	inv, err := s.convert(ctx, entry, quoteID, userID, posID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var pe *PersistenceError
		if errors.As(err, &pe) {
			logging.LogError(s.log, moduleName, "Convert", pe.Op, logrus.Fields{"quote_id": quoteID, "pos_id": posID}, err)
		} else {
			entry.WithError(err).Info("quote conversion refused")
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("invoice.number", inv.Number))
	entry.WithFields(logrus.Fields{
		"invoice_id":     inv.ID,
		"invoice_number": inv.Number,
		"total":          inv.Total.String(),
	}).Info("quote converted")
	return inv, nil
}

func (s *ConversionService) convert(ctx context.Context, entry *logrus.Entry, quoteID, userID, posID uint) (*models.Invoice, error) {
	if posID == 0 {
		return nil, ErrNoPointOfSale
	}

	release, err := s.locker.Obtain(ctx, lock.QuoteKey(quoteID))
	switch {
	case errors.Is(err, lock.ErrNotObtained):
		return nil, s.busy(ctx, quoteID)
	case err != nil:
		// The transaction below is the real guard.
		entry.WithError(err).Warn("advisory lock unavailable, continuing without it")
	default:
		defer release()
	}

	var invoice *models.Invoice
	err = s.store.Transaction(ctx, func(tx *store.Tx) error {
		quote, err := tx.LockQuote(quoteID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrQuoteNotFound
		}
		if err != nil {
			return persistence("lock quote", err)
		}
		if !quote.Status.Convertible() {
			return &ConversionStateError{QuoteID: quote.ID, QuoteNumber: quote.Number, Status: quote.Status}
		}
		if len(quote.Items) == 0 {
			return ErrEmptyQuote
		}
		if _, err := tx.PointOfSale(posID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrPointOfSaleNotFound
			}
			return persistence("load point of sale", err)
		}

		lines := aggregateLines(quote.Items)
		var shortfalls []StockShortfall
		for _, line := range lines {
			level, _, err := tx.LockStock(line.productID, posID)
			if err != nil {
				return persistence("lock stock", err)
			}
			line.before = level.Quantity
			if level.Quantity.LessThan(line.quantity) {
				shortfalls = append(shortfalls, newShortfall(line.productID, line.code, line.quantity, level.Quantity))
			}
		}
		if len(shortfalls) > 0 {
			return newInsufficientStockError(posID, shortfalls)
		}

		number, err := s.seq.Next(ctx, tx.DB(), numbering.ScopeInvoice)
		if err != nil {
			return persistence("allocate invoice number", err)
		}

		now := s.now()
		inv := s.buildInvoice(quote, number, userID, posID, now)
		if err := tx.CreateInvoice(inv); err != nil {
			return persistence("create invoice", err)
		}

		for _, line := range lines {
			ok, err := tx.DecrementStock(line.productID, posID, line.quantity)
			if err != nil {
				return persistence("decrement stock", err)
			}
			if !ok {
				level, _, err := tx.LockStock(line.productID, posID)
				if err != nil {
					return persistence("lock stock", err)
				}
				return newInsufficientStockError(posID, []StockShortfall{
					newShortfall(line.productID, line.code, line.quantity, level.Quantity),
				})
			}
			invoiceID := inv.ID
			movement := &models.StockMovement{
				ProductID:      line.productID,
				PointOfSaleID:  posID,
				Direction:      models.MovementOut,
				Quantity:       line.quantity,
				QuantityBefore: line.before,
				QuantityAfter:  line.before.Sub(line.quantity),
				Reason:         models.ReasonInvoiceIssued,
				InvoiceID:      &invoiceID,
				UserID:         userID,
			}
			if err := tx.AppendMovement(movement); err != nil {
				return persistence("append stock movement", err)
			}
		}

		ok, err := tx.TransitionQuote(quote.ID, models.ConvertibleQuoteStatuses(), models.QuoteStatusConverted,
			map[string]any{"converted_at": now})
		if err != nil {
			return persistence("mark quote converted", err)
		}
		if !ok {
			status, err := tx.QuoteStatus(quote.ID)
			if err != nil {
				return persistence("re-read quote status", err)
			}
			return &ConversionStateError{QuoteID: quote.ID, QuoteNumber: quote.Number, Status: status}
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, classify("commit conversion", err)
	}
	return invoice, nil
}

// busy builds the error returned when another caller holds the conversion lock.
func (s *ConversionService) busy(ctx context.Context, quoteID uint) error {
	var q models.Quote
	err := s.store.DB(ctx).Select("id", "number", "status").First(&q, quoteID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuoteNotFound
		}
		return persistence("read quote", err)
	}
	return &ConversionStateError{QuoteID: q.ID, QuoteNumber: q.Number, Status: q.Status, Busy: q.Status.Convertible()}
}

func (s *ConversionService) buildInvoice(q *models.Quote, number string, userID, posID uint, now time.Time) *models.Invoice {
	quoteID := q.ID
	inv := &models.Invoice{
		Number:        number,
		UserID:        userID,
		ClientID:      q.ClientID,
		PointOfSaleID: posID,
		SourceQuoteID: &quoteID,
		IssueDate:     now,
		DueDate:       now.AddDate(0, 0, s.paymentTermDays),
		Status:        models.InvoiceStatusDraft,
		Notes:         fmt.Sprintf("Converted from quote %s", q.Number),
		PaymentTerms:  fmt.Sprintf("%d days", s.paymentTermDays),
	}
	for i, item := range q.Items {
		desc := item.Description
		if desc == "" && item.Product != nil {
			desc = item.Product.Name
		}
		inv.Items = append(inv.Items, models.InvoiceItem{
			ProductID:   item.ProductID,
			Description: desc,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Position:    i + 1,
		})
	}
	inv.Total = inv.ItemsTotal()
	return inv
}

// aggregateLines sums quantities per product, ordered by product id so
// concurrent conversions lock stock rows in the same order.
func aggregateLines(items []models.QuoteItem) []*stockLine {
	byProduct := map[uint]*stockLine{}
	for _, item := range items {
		line, ok := byProduct[item.ProductID]
		if !ok {
			code := fmt.Sprintf("#%d", item.ProductID)
			if item.Product != nil {
				code = item.Product.Code
			}
			line = &stockLine{productID: item.ProductID, code: code, quantity: decimal.Zero}
			byProduct[item.ProductID] = line
		}
		line.quantity = line.quantity.Add(item.Quantity)
	}
	lines := make([]*stockLine, 0, len(byProduct))
	for _, line := range byProduct {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].productID < lines[j].productID })
	return lines
}
