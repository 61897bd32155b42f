package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/diewo77/go-pos/auth"
	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/services"
	"github.com/sirupsen/logrus"
)

type QuoteHandler struct {
	quotes  *services.QuoteService
	convert *services.ConversionService
	log     *logrus.Logger
}

func NewQuoteHandler(quotes *services.QuoteService, convert *services.ConversionService, logger *logrus.Logger) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, convert: convert, log: logger}
}

// quoteResponse adds the computed total to the stored quote.
type quoteResponse struct {
	*models.Quote
	Total string `json:"total"`
}

func newQuoteResponse(q *models.Quote) quoteResponse {
	return quoteResponse{Quote: q, Total: q.Total().StringFixed(2)}
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}
	var in services.NewQuote
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badRequest(w, r, "invalid_json")
		return
	}
	in.CreatedByID = userID
	q, err := h.quotes.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, "QuoteHandler.Create", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newQuoteResponse(q))
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	q, err := h.quotes.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, "QuoteHandler.Get", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newQuoteResponse(q))
}

func (h *QuoteHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "QuoteHandler.Send", h.quotes.Send)
}

func (h *QuoteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "QuoteHandler.Accept", h.quotes.Accept)
}

func (h *QuoteHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "QuoteHandler.Reject", h.quotes.Reject)
}

func (h *QuoteHandler) Expire(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "QuoteHandler.Expire", h.quotes.Expire)
}

type noteRequest struct {
	Note string `json:"note"`
}

// AppendNote adds a timestamped note. Converted quotes accept notes too.
func (h *QuoteHandler) AppendNote(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	var in noteRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badRequest(w, r, "invalid_json")
		return
	}
	q, err := h.quotes.AppendNote(r.Context(), id, in.Note)
	if err != nil {
		writeError(w, r, h.log, "QuoteHandler.AppendNote", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newQuoteResponse(q))
}

func (h *QuoteHandler) transition(w http.ResponseWriter, r *http.Request, funcName string, apply func(context.Context, uint) (*models.Quote, error)) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	q, err := apply(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, funcName, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newQuoteResponse(q))
}

type convertRequest struct {
	PointOfSaleID uint `json:"point_of_sale_id"`
}

// Convert turns the quote into an invoice. Without point_of_sale_id in the
// body the user's default point of sale is used.
func (h *QuoteHandler) Convert(w http.ResponseWriter, r *http.Request) {
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
	var in convertRequest
	if err := httpx.DecodeJSON(r, &in); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, r, "invalid_json")
		return
	}
	posID, err := h.convert.ResolvePointOfSale(r.Context(), userID, in.PointOfSaleID)
	if err != nil {
		writeError(w, r, h.log, "QuoteHandler.Convert", err)
		return
	}
	inv, err := h.convert.Convert(r.Context(), id, userID, posID)
	if err != nil {
		writeError(w, r, h.log, "QuoteHandler.Convert", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}
