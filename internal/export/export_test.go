package export

import (
	"bytes"
	"testing"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestStock(t *testing.T) {
	invoiceID := uint(9)
	pos := models.PointOfSale{Code: "MAIN", Name: "Boutique principale"}
	levels := []models.StockLevel{{
		ProductID: 1,
		Product:   &models.Product{Code: "P-001", Name: "Terminal de caisse"},
		Quantity:  decimal.NewFromInt(7),
	}}
	movements := []models.StockMovement{{
		ProductID:      1,
		Direction:      models.MovementOut,
		Quantity:       decimal.NewFromInt(3),
		QuantityBefore: decimal.NewFromInt(10),
		QuantityAfter:  decimal.NewFromInt(7),
		Reason:         models.ReasonInvoiceIssued,
		InvoiceID:      &invoiceID,
	}}

	var buf bytes.Buffer
	if err := Stock(&buf, pos, levels, movements); err != nil {
		t.Fatalf("Stock() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("Stock", "A4"); v != "P-001" {
		t.Errorf("Stock!A4 = %q, want P-001", v)
	}
	if v, _ := f.GetCellValue("Stock", "C4"); v != "7" {
		t.Errorf("Stock!C4 = %q, want 7", v)
	}
	if v, _ := f.GetCellValue("Movements", "G2"); v != "invoice issued" {
		t.Errorf("Movements!G2 = %q", v)
	}
	if v, _ := f.GetCellValue("Movements", "H2"); v != "9" {
		t.Errorf("Movements!H2 = %q, want 9", v)
	}
}
