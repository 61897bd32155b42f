// Package auth carries the acting user through request contexts.
// The user id is asserted by the fronting gateway in the X-User-ID header;
// this package does not authenticate anyone.
package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/i18n"
)

// HeaderUserID is the trusted header set by the gateway.
const HeaderUserID = "X-User-ID"

type ctxKey string

const userIDCtxKey = ctxKey("userID")

// UserVerifier is an optional callback to validate that a user still exists/is allowed.
// If nil, no extra verification is performed.
type UserVerifier func(ctx context.Context, uid uint) bool

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	v := ctx.Value(userIDCtxKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// ParseHeader reads the user id from the trusted header.
func ParseHeader(r *http.Request) (uint, bool) {
	raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if raw == "" {
		return 0, false
	}
	id64, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

// Middleware attaches user id to request context if present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := ParseHeader(r); ok {
			r = r.WithContext(WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser answers a translated 401 JSON error when no known user is
// attached to the request.
func RequireUser(verifier UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := UserIDFromContext(r.Context())
			if !ok || (verifier != nil && !verifier(r.Context(), uid)) {
				lang := i18n.LangFromContext(r.Context())
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", i18n.T(lang, "unauthorized"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
