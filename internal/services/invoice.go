package services

import (
	"context"
	"errors"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type InvoiceService struct {
	store *store.Store
	log   *logrus.Logger
}

func NewInvoiceService(st *store.Store, logger *logrus.Logger) *InvoiceService {
	return &InvoiceService{store: st, log: logger}
}

// ComputeTotals returns Σ(unit price × quantity) over the invoice lines.
func (s *InvoiceService) ComputeTotals(inv *models.Invoice) decimal.Decimal {
	return inv.ItemsTotal()
}

// Get loads an invoice with lines, payments, client and point of sale.
func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.store.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("Items.Product").
		Preload("Payments").
		Preload("Client").
		Preload("PointOfSale").
		First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, persistence("load invoice", err)
	}
	return &inv, nil
}

// Revenue sums the totals of the paid invoices created by a user.
func (s *InvoiceService) Revenue(ctx context.Context, userID uint) (decimal.Decimal, error) {
	var invoices []models.Invoice
	err := s.store.DB(ctx).
		Where("user_id = ? AND status = ?", userID, models.InvoiceStatusPaid).
		Find(&invoices).Error
	if err != nil {
		return decimal.Zero, persistence("load paid invoices", err)
	}
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.Total)
	}
	return total, nil
}

// Issue finalizes a draft invoice.
func (s *InvoiceService) Issue(ctx context.Context, id uint) (*models.Invoice, error) {
	return s.transition(ctx, id, "issue", []models.InvoiceStatus{models.InvoiceStatusDraft}, models.InvoiceStatusIssued)
}

// Cancel voids a draft or issued invoice. Stock is not restored.
func (s *InvoiceService) Cancel(ctx context.Context, id uint) (*models.Invoice, error) {
	return s.transition(ctx, id, "cancel",
		[]models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusIssued}, models.InvoiceStatusCancelled)
}

func (s *InvoiceService) transition(ctx context.Context, id uint, op string, from []models.InvoiceStatus, to models.InvoiceStatus) (*models.Invoice, error) {
	err := s.store.Transaction(ctx, func(tx *store.Tx) error {
		res := tx.DB().Model(&models.Invoice{}).
			Where("id = ? AND status IN ?", id, from).
			Update("status", to)
		if res.Error != nil {
			return persistence(op+" invoice", res.Error)
		}
		if res.RowsAffected == 1 {
			return nil
		}
		inv, err := tx.LoadInvoice(id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvoiceNotFound
		}
		if err != nil {
			return persistence("load invoice", err)
		}
		return &InvoiceStateError{InvoiceNumber: inv.Number, Status: inv.Status, Op: op}
	})
	if err != nil {
		return nil, classify("commit invoice "+op, err)
	}
	s.log.WithFields(logrus.Fields{"invoice_id": id, "status": to}).Info("invoice status changed")
	return s.Get(ctx, id)
}

// SourceQuote returns the quote an invoice was converted from.
// Invoices created without a quote yield ok=false.
func (s *InvoiceService) SourceQuote(ctx context.Context, invoiceID uint) (*models.Quote, bool, error) {
	inv, err := s.Get(ctx, invoiceID)
	if err != nil {
		return nil, false, err
	}
	if inv.SourceQuoteID == nil {
		return nil, false, nil
	}
	var q models.Quote
	err = s.store.DB(ctx).Preload("Items").First(&q, *inv.SourceQuoteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, persistence("load source quote", err)
	}
	return &q, true, nil
}
