package services

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/store"
	"github.com/diewo77/go-pos/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// NewPayment is the input of PaymentService.Record.
type NewPayment struct {
	Amount    decimal.Decimal `json:"amount" validate:"gt=0,decimals=4"`
	Method    string          `json:"method" validate:"required,oneof=cash card transfer cheque"`
	Reference string          `json:"reference,omitempty" validate:"max=100"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	UserID    uint            `json:"-"`
}

// PaymentService records payments. Payments are the source of truth for how
// much was paid; the invoice status is recomputed from them on every write.
type PaymentService struct {
	store *store.Store
	log   *logrus.Logger
	now   func() time.Time
}

func NewPaymentService(st *store.Store, logger *logrus.Logger) *PaymentService {
	return &PaymentService{store: st, log: logger, now: time.Now}
}

// Record appends a payment to an issued or partially paid invoice and
// updates its status to partial or paid.
func (s *PaymentService) Record(ctx context.Context, invoiceID uint, in NewPayment) (*models.Invoice, error) {
	if err := validation.Struct(in).Err(); err != nil {
		return nil, err
	}
	var updated *models.Invoice
	err := s.store.Transaction(ctx, func(tx *store.Tx) error {
		inv, err := tx.LoadInvoice(invoiceID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvoiceNotFound
		}
		if err != nil {
			return persistence("load invoice", err)
		}
		if !inv.AcceptsPayments() {
			return &InvoiceStateError{InvoiceNumber: inv.Number, Status: inv.Status, Op: "record payment"}
		}
		if in.Amount.GreaterThan(inv.Balance()) {
			return ErrOverpayment
		}

		paidAt := s.now()
		if in.PaidAt != nil {
			paidAt = *in.PaidAt
		}
		p := models.Payment{
			InvoiceID: inv.ID,
			Amount:    in.Amount,
			Method:    in.Method,
			Reference: in.Reference,
			PaidAt:    paidAt,
			UserID:    in.UserID,
		}
		if err := tx.DB().Create(&p).Error; err != nil {
			return persistence("create payment", err)
		}
		inv.Payments = append(inv.Payments, p)

		updates := map[string]any{"status": inv.DerivedPaymentStatus()}
		if inv.DerivedPaymentStatus() == models.InvoiceStatusPaid {
			updates["paid_date"] = paidAt
			inv.PaidDate = &paidAt
		}
		if err := tx.DB().Model(&models.Invoice{}).Where("id = ?", inv.ID).Updates(updates).Error; err != nil {
			return persistence("update invoice status", err)
		}
		inv.Status = inv.DerivedPaymentStatus()
		updated = inv
		return nil
	})
	if err != nil {
		return nil, classify("commit payment", err)
	}
	s.log.WithFields(logrus.Fields{
		"invoice_id": updated.ID,
		"amount":     in.Amount.String(),
		"status":     updated.Status,
	}).Info("payment recorded")
	return updated, nil
}

// PaymentMismatch is an invoice whose stored status disagrees with its payments.
type PaymentMismatch struct {
	InvoiceID     uint                 `json:"invoice_id"`
	InvoiceNumber string               `json:"invoice_number"`
	Stored        models.InvoiceStatus `json:"stored"`
	Derived       models.InvoiceStatus `json:"derived"`
	Total         decimal.Decimal      `json:"total"`
	Paid          decimal.Decimal      `json:"paid"`
}

// Audit lists invoices whose status does not match the sum of their payments.
func (s *PaymentService) Audit(ctx context.Context) ([]PaymentMismatch, error) {
	var invoices []models.Invoice
	err := s.store.DB(ctx).
		Preload("Payments").
		Where("status NOT IN ?", []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusCancelled}).
		Order("id").
		Find(&invoices).Error
	if err != nil {
		return nil, persistence("load invoices", err)
	}
	var out []PaymentMismatch
	for _, inv := range invoices {
		derived := inv.DerivedPaymentStatus()
		if derived == inv.Status {
			continue
		}
		out = append(out, PaymentMismatch{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.Number,
			Stored:        inv.Status,
			Derived:       derived,
			Total:         inv.Total,
			Paid:          inv.AmountPaid(),
		})
	}
	return out, nil
}
