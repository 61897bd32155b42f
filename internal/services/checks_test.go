package services

import (
	"context"
	"testing"

	"github.com/diewo77/go-pos/internal/models"
)

func TestCheckConversions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	report, err := CheckConversions(ctx, e.store)
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK() {
		t.Fatalf("fresh database should be consistent: %+v", report)
	}

	// A quote marked converted without going through the service.
	orphan := e.newQuote(t, NewQuoteItem{ProductID: e.terminal.ID, Quantity: dec("1")})
	e.setQuoteStatus(t, orphan.ID, models.QuoteStatusConverted)

	// An invoice pointing at a quote that was rolled back to draft.
	inv := e.convertSeeded(t)
	e.setQuoteStatus(t, e.q1001.ID, models.QuoteStatusDraft)

	report, err = CheckConversions(ctx, e.store)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.ConvertedWithoutInvoice) != 1 || report.ConvertedWithoutInvoice[0].ID != orphan.ID {
		t.Errorf("ConvertedWithoutInvoice = %+v", report.ConvertedWithoutInvoice)
	}
	if len(report.InvoicesOnUnconverted) != 1 || report.InvoicesOnUnconverted[0].ID != inv.ID {
		t.Errorf("InvoicesOnUnconverted = %+v", report.InvoicesOnUnconverted)
	}
	if report.OK() {
		t.Error("OK() should be false")
	}
}
