package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/diewo77/go-pos/auth"
	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/logging"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/pdf"
	"github.com/diewo77/go-pos/internal/services"
	"github.com/sirupsen/logrus"
)

type InvoiceHandler struct {
	invoices *services.InvoiceService
	payments *services.PaymentService
	log      *logrus.Logger
}

func NewInvoiceHandler(invoices *services.InvoiceService, payments *services.PaymentService, logger *logrus.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, payments: payments, log: logger}
}

type invoiceResponse struct {
	*models.Invoice
	AmountPaid string `json:"amount_paid"`
	Balance    string `json:"balance"`
}

func newInvoiceResponse(inv *models.Invoice) invoiceResponse {
	return invoiceResponse{
		Invoice:    inv,
		AmountPaid: inv.AmountPaid().StringFixed(2),
		Balance:    inv.Balance().StringFixed(2),
	}
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, "InvoiceHandler.Get", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newInvoiceResponse(inv))
}

// PDF renders the invoice. The document is built in memory so a rendering
// failure can still be reported as JSON.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, "InvoiceHandler.PDF", err)
		return
	}
	var buf bytes.Buffer
	if err := pdf.Invoice(&buf, inv); err != nil {
		logging.LogError(h.log, moduleName, "InvoiceHandler.PDF", "render pdf", logrus.Fields{"invoice_id": id}, err)
		writeError(w, r, h.log, "InvoiceHandler.PDF", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, inv.Number))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *InvoiceHandler) Issue(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "InvoiceHandler.Issue", h.invoices.Issue)
}

func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "InvoiceHandler.Cancel", h.invoices.Cancel)
}

func (h *InvoiceHandler) transition(w http.ResponseWriter, r *http.Request, funcName string, apply func(context.Context, uint) (*models.Invoice, error)) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	inv, err := apply(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, funcName, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newInvoiceResponse(inv))
}

// SourceQuote returns the quote the invoice was converted from.
func (h *InvoiceHandler) SourceQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	q, found, err := h.invoices.SourceQuote(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, "InvoiceHandler.SourceQuote", err)
		return
	}
	if !found {
		writeError(w, r, h.log, "InvoiceHandler.SourceQuote", services.ErrQuoteNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, newQuoteResponse(q))
}

func (h *InvoiceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	var in services.NewPayment
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badRequest(w, r, "invalid_json")
		return
	}
	in.UserID = userID
	inv, err := h.payments.Record(r.Context(), id, in)
	if err != nil {
		writeError(w, r, h.log, "InvoiceHandler.RecordPayment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newInvoiceResponse(inv))
}
