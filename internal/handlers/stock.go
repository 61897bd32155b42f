package handlers

import (
	"net/http"

	"github.com/diewo77/go-pos/auth"
	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/services"
	"github.com/diewo77/go-pos/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type StockHandler struct {
	stock *services.StockService
	log   *logrus.Logger
}

func NewStockHandler(stock *services.StockService, logger *logrus.Logger) *StockHandler {
	return &StockHandler{stock: stock, log: logger}
}

// List returns the stock levels of a point of sale.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	posID, ok := httpx.PathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	levels, err := h.stock.Levels(r.Context(), posID)
	if err != nil {
		writeError(w, r, h.log, "StockHandler.List", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"point_of_sale_id": posID, "items": levels})
}

type receiveRequest struct {
	ProductID uint            `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0,decimals=4"`
}

// Receive books incoming goods at a point of sale.
func (h *StockHandler) Receive(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}
	posID, ok := httpx.PathID(r, "id")
	if !ok {
		badRequest(w, r, "invalid_id")
		return
	}
	var in receiveRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badRequest(w, r, "invalid_json")
		return
	}
	if err := validation.Struct(in).Err(); err != nil {
		writeError(w, r, h.log, "StockHandler.Receive", err)
		return
	}
	m, err := h.stock.Receive(r.Context(), in.ProductID, posID, in.Quantity, userID)
	if err != nil {
		writeError(w, r, h.log, "StockHandler.Receive", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}
