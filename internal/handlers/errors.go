package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/i18n"
	"github.com/diewo77/go-pos/internal/logging"
	"github.com/diewo77/go-pos/internal/services"
	"github.com/diewo77/go-pos/validation"
	"github.com/sirupsen/logrus"
)

const moduleName = "handlers"

// writeError maps a service error to a status code and a translated JSON body.
func writeError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, funcName string, err error) {
	lang := i18n.LangFromContext(r.Context())
	fail := func(status int, code string, details any) {
		httpx.JSONError(w, status, code, i18n.T(lang, code), details)
	}

	if v, ok := validation.AsViolations(err); ok {
		fail(http.StatusBadRequest, "validation_failed", v)
		return
	}

	var (
		cse *services.ConversionStateError
		ise *services.InsufficientStockError
		te  *services.TransitionError
		ie  *services.InvoiceStateError
		pe  *services.PersistenceError
	)
	switch {
	case errors.As(err, &cse):
		code := "conversion_state"
		if cse.Busy {
			code = "conversion_busy"
		}
		fail(http.StatusConflict, code, map[string]any{"quote": cse.QuoteNumber, "status": cse.Status})
	case errors.As(err, &ise):
		fail(http.StatusUnprocessableEntity, "insufficient_stock", ise.Items)
	case errors.As(err, &te):
		fail(http.StatusConflict, "transition_invalid", map[string]any{"from": te.From, "to": te.To})
	case errors.As(err, &ie):
		fail(http.StatusConflict, "invoice_state", map[string]any{"status": ie.Status})
	case errors.Is(err, services.ErrQuoteNotFound):
		fail(http.StatusNotFound, "quote_not_found", nil)
	case errors.Is(err, services.ErrInvoiceNotFound):
		fail(http.StatusNotFound, "invoice_not_found", nil)
	case errors.Is(err, services.ErrProductNotFound):
		fail(http.StatusNotFound, "product_not_found", nil)
	case errors.Is(err, services.ErrClientNotFound):
		fail(http.StatusNotFound, "client_not_found", nil)
	case errors.Is(err, services.ErrUserNotFound):
		fail(http.StatusNotFound, "user_not_found", nil)
	case errors.Is(err, services.ErrPointOfSaleNotFound):
		fail(http.StatusNotFound, "pos_not_found", nil)
	case errors.Is(err, services.ErrNoPointOfSale):
		fail(http.StatusUnprocessableEntity, "no_point_of_sale", nil)
	case errors.Is(err, services.ErrEmptyQuote):
		fail(http.StatusUnprocessableEntity, "empty_quote", nil)
	case errors.Is(err, services.ErrInvalidQuantity):
		fail(http.StatusBadRequest, "invalid_quantity", nil)
	case errors.Is(err, services.ErrOverpayment):
		fail(http.StatusUnprocessableEntity, "overpayment", nil)
	case errors.As(err, &pe):
		logging.LogError(log, moduleName, funcName, pe.Op, nil, err)
		fail(http.StatusInternalServerError, "persistence_error", nil)
	default:
		logging.LogError(log, moduleName, funcName, r.Method+" "+r.URL.Path, nil, err)
		fail(http.StatusInternalServerError, "internal_error", nil)
	}
}

func badRequest(w http.ResponseWriter, r *http.Request, code string) {
	httpx.JSONError(w, http.StatusBadRequest, code, i18n.T(i18n.LangFromContext(r.Context()), code), nil)
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", i18n.T(i18n.LangFromContext(r.Context()), "unauthorized"), nil)
}
