package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/yourorg/pg-finder/backend"
	"github.com/yourorg/pg-finder/internal/apperr"
	"github.com/yourorg/pg-finder/internal/auth"
)

type AuthDeps struct {
	Sessions *auth.Service
	Auth     auth.Middleware
	TTL      time.Duration
	Secure   bool
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

var credentialsValidator = validator.New()

func RegisterAuth(r chi.Router, d AuthDeps) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", func(w http.ResponseWriter, req *http.Request) {
			creds, err := readCredentials(req)
			if err != nil {
				apperr.Render(w, req, err)
				return
			}
			p, err := d.Sessions.SignUp(req.Context(), creds.Email, creds.Password)
			if errors.Is(err, auth.ErrConfirmationPending) {
				writeOK(w, req, http.StatusAccepted, map[string]any{"confirmation_required": true, "user": p})
				return
			}
			if err != nil {
				apperr.Render(w, req, authError(err))
				return
			}
			setSessionCookie(w, d, p.SessionID)
			writeOK(w, req, http.StatusCreated, map[string]any{"user": p})
		})

		r.Post("/signin", func(w http.ResponseWriter, req *http.Request) {
			creds, err := readCredentials(req)
			if err != nil {
				apperr.Render(w, req, err)
				return
			}
			p, err := d.Sessions.SignIn(req.Context(), creds.Email, creds.Password)
			if err != nil {
				apperr.Render(w, req, authError(err))
				return
			}
			setSessionCookie(w, d, p.SessionID)
			writeOK(w, req, http.StatusOK, map[string]any{"user": p})
		})

		r.Post("/signout", func(w http.ResponseWriter, req *http.Request) {
			if err := d.Sessions.SignOut(req.Context(), auth.SessionID(req, d.Auth.CookieName)); err != nil {
				apperr.Render(w, req, apperr.NewSessionFailedError(err))
				return
			}
			clearSessionCookie(w, d)
			writeOK(w, req, http.StatusOK, map[string]any{})
		})

		r.With(d.Auth.RequireUser).Get("/me", func(w http.ResponseWriter, req *http.Request) {
			p, _ := auth.FromContext(req.Context())
			p, err := d.Sessions.Verify(req.Context(), p)
			if errors.Is(err, auth.ErrNoSession) {
				clearSessionCookie(w, d)
				apperr.Render(w, req, apperr.NewUnauthorizedError("session no longer valid"))
				return
			}
			if err != nil {
				apperr.Render(w, req, apperr.NewSessionFailedError(err))
				return
			}
			writeOK(w, req, http.StatusOK, map[string]any{"user": p})
		})
	})
}

func readCredentials(req *http.Request) (credentials, error) {
	var c credentials
	if err := decodeJSON(req, &c); err != nil {
		return c, err
	}
	if err := credentialsValidator.Struct(c); err != nil {
		return c, apperr.NewInvalidInputError("email and a password of at least 6 characters are required")
	}
	return c, nil
}

// authError separates rejected credentials from an unavailable backend or
// session store.
func authError(err error) error {
	if backend.Rejected(err) {
		return apperr.NewAuthFailedError(err)
	}
	return apperr.NewSessionFailedError(err)
}

func setSessionCookie(w http.ResponseWriter, d AuthDeps, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     d.Auth.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(d.TTL.Seconds()),
		HttpOnly: true,
		Secure:   d.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, d AuthDeps) {
	http.SetCookie(w, &http.Cookie{
		Name:     d.Auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   d.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
