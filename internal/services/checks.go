package services

import (
	"context"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/store"
)

// ConversionReport lists quote/invoice pairs that break the rule
// "a quote is converted iff exactly one invoice references it".
type ConversionReport struct {
	ConvertedWithoutInvoice []models.Quote   `json:"converted_without_invoice"`
	InvoicesOnUnconverted   []models.Invoice `json:"invoices_on_unconverted_quotes"`
}

// OK reports whether nothing inconsistent was found.
func (r *ConversionReport) OK() bool {
	return len(r.ConvertedWithoutInvoice) == 0 && len(r.InvoicesOnUnconverted) == 0
}

// CheckConversions scans the store for inconsistent conversions.
func CheckConversions(ctx context.Context, st *store.Store) (*ConversionReport, error) {
	report := &ConversionReport{}
	db := st.DB(ctx)

	err := db.Model(&models.Quote{}).
		Select("quotes.*").
		Joins("LEFT JOIN invoices ON invoices.source_quote_id = quotes.id AND invoices.deleted_at IS NULL").
		Where("quotes.status = ? AND invoices.id IS NULL", models.QuoteStatusConverted).
		Order("quotes.id").
		Find(&report.ConvertedWithoutInvoice).Error
	if err != nil {
		return nil, persistence("find converted quotes without invoice", err)
	}

	err = db.Model(&models.Invoice{}).
		Select("invoices.*").
		Joins("JOIN quotes ON quotes.id = invoices.source_quote_id").
		Where("quotes.status <> ?", models.QuoteStatusConverted).
		Order("invoices.id").
		Find(&report.InvoicesOnUnconverted).Error
	if err != nil {
		return nil, persistence("find invoices on unconverted quotes", err)
	}
	return report, nil
}
