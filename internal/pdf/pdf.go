// Package pdf renders invoices as A4 PDF documents.
package pdf

import (
	"fmt"
	"io"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/jung-kurt/gofpdf"
)

const dateLayout = "02/01/2006"

// Invoice writes inv as a PDF to w. Items, client and point of sale should be preloaded.
func Invoice(w io.Writer, inv *models.Invoice) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Facture "+inv.Number, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr("Facture "+inv.Number))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	if inv.PointOfSale != nil {
		pdf.MultiCell(90, 5, tr(inv.PointOfSale.Name+"\n"+inv.PointOfSale.FullAddress()), "", "L", false)
		pdf.Ln(2)
	}
	if inv.Client != nil {
		pdf.SetX(110)
		pdf.MultiCell(90, 5, tr("Client : "+inv.Client.Name+"\n"+inv.Client.FullAddress()), "", "L", false)
	}
	pdf.Ln(4)
	pdf.Cell(0, 5, tr(fmt.Sprintf("Date d'émission : %s    Échéance : %s",
		inv.IssueDate.Format(dateLayout), inv.DueDate.Format(dateLayout))))
	pdf.Ln(6)
	if inv.Notes != "" {
		pdf.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
		pdf.Ln(2)
	}

	widths := []float64{95, 25, 35, 35}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Désignation", "Qté", "Prix unitaire", "Total"} {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.Items {
		pdf.CellFormat(widths[0], 6, tr(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, item.LineTotal().StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, inv.Total.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(10)

	if paid := inv.AmountPaid(); paid.IsPositive() {
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 5, tr(fmt.Sprintf("Déjà réglé : %s    Reste dû : %s", paid.StringFixed(2), inv.Balance().StringFixed(2))))
		pdf.Ln(6)
	}
	if inv.PaymentTerms != "" {
		pdf.SetFont("Arial", "I", 9)
		pdf.Cell(0, 5, tr("Conditions de paiement : "+inv.PaymentTerms))
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render invoice %s: %w", inv.Number, err)
	}
	return pdf.Output(w)
}
