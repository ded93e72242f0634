package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/yourorg/pg-finder/backend"
	"github.com/yourorg/pg-finder/internal/apperr"
)

// SessionHeader carries the session id for clients that do not keep cookies.
const SessionHeader = "X-Session-ID"

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	return backend.WithAccessToken(ctx, p.AccessToken)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// SessionID extracts the session id from the cookie or the SessionHeader.
func SessionID(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}

type Middleware struct {
	Service    *Service
	CookieName string
}

// RequireUser rejects requests without a live session.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := m.Service.Resolve(r.Context(), SessionID(r, m.CookieName))
		if errors.Is(err, ErrNoSession) {
			apperr.Render(w, r, apperr.NewUnauthorizedError("no active session"))
			return
		}
		if err != nil {
			apperr.Render(w, r, apperr.NewSessionFailedError(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// OptionalUser attaches the principal when a session resolves and otherwise
// serves the request anonymously.
func (m Middleware) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := SessionID(r, m.CookieName)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		p, err := m.Service.Resolve(r.Context(), id)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				m.Service.log.Warn("optional session lookup failed", map[string]interface{}{"error": err.Error()})
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}
