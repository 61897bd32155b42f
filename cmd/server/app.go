package main

import (
	"net/http"
	"time"

	"github.com/diewo77/go-pos/auth"
	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/i18n"
	"github.com/diewo77/go-pos/internal/app"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux *http.ServeMux
	c   *app.Container
}

// NewApp creates a new application with all routes configured.
func NewApp(c *app.Container) *App {
	a := &App{mux: http.NewServeMux(), c: c}
	a.setupRoutes()
	return a
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := auth.Middleware(withPreferences(a.mux))
	handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	a.mux.HandleFunc("GET /healthz", a.healthz)

	qh := a.c.QuoteHandler
	ih := a.c.InvoiceHandler
	sh := a.c.StockHandler

	a.mux.Handle("POST /quotes", a.requireUser(qh.Create))
	a.mux.Handle("GET /quotes/{id}", a.requireUser(qh.Get))
	a.mux.Handle("POST /quotes/{id}/send", a.requireUser(qh.Send))
	a.mux.Handle("POST /quotes/{id}/accept", a.requireUser(qh.Accept))
	a.mux.Handle("POST /quotes/{id}/reject", a.requireUser(qh.Reject))
	a.mux.Handle("POST /quotes/{id}/expire", a.requireUser(qh.Expire))
	a.mux.Handle("POST /quotes/{id}/notes", a.requireUser(qh.AppendNote))
	a.mux.Handle("POST /quotes/{id}/convert", a.requireUser(qh.Convert))

	a.mux.Handle("GET /invoices/{id}", a.requireUser(ih.Get))
	a.mux.Handle("GET /invoices/{id}/pdf", a.requireUser(ih.PDF))
	a.mux.Handle("GET /invoices/{id}/source-quote", a.requireUser(ih.SourceQuote))
	a.mux.Handle("POST /invoices/{id}/issue", a.requireUser(ih.Issue))
	a.mux.Handle("POST /invoices/{id}/cancel", a.requireUser(ih.Cancel))
	a.mux.Handle("POST /invoices/{id}/payments", a.requireUser(ih.RecordPayment))

	a.mux.Handle("GET /points-of-sale/{id}/stock", a.requireUser(sh.List))
	a.mux.Handle("POST /points-of-sale/{id}/stock", a.requireUser(sh.Receive))
}

func (a *App) requireUser(h http.HandlerFunc) http.Handler {
	return auth.RequireUser(a.c.UserExists)(h)
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.c.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withPreferences picks the response language from the lang cookie or query
// parameter, then the Accept-Language header.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		if c, err := r.Cookie("lang"); err == nil && c.Value != "" {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); q != "" {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
			})
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withLogging logs every request with a request id, echoed in X-Request-ID.
func withLogging(log logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}
