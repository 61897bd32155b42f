// Package export writes stock reports as XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	levelsSheet    = "Stock"
	movementsSheet = "Movements"
)

// Stock writes one sheet with the stock levels and one with the movements.
func Stock(w io.Writer, pos models.PointOfSale, levels []models.StockLevel, movements []models.StockMovement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", levelsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(movementsSheet); err != nil {
		return err
	}

	rows := [][]any{{"Point of sale", pos.Code, pos.Name}, {}, {"Product code", "Product", "Quantity"}}
	for _, l := range levels {
		code, name := "", ""
		if l.Product != nil {
			code, name = l.Product.Code, l.Product.Name
		}
		qty, _ := l.Quantity.Float64()
		rows = append(rows, []any{code, name, qty})
	}
	if err := writeRows(f, levelsSheet, rows); err != nil {
		return err
	}

	rows = [][]any{{"Date", "Product ID", "Direction", "Quantity", "Before", "After", "Reason", "Invoice ID", "User ID"}}
	for _, m := range movements {
		qty, _ := m.Quantity.Float64()
		before, _ := m.QuantityBefore.Float64()
		after, _ := m.QuantityAfter.Float64()
		invoice := ""
		if m.InvoiceID != nil {
			invoice = fmt.Sprint(*m.InvoiceID)
		}
		rows = append(rows, []any{
			m.CreatedAt.Format("2006-01-02 15:04:05"), m.ProductID, string(m.Direction),
			qty, before, after, string(m.Reason), invoice, m.UserID,
		})
	}
	if err := writeRows(f, movementsSheet, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
