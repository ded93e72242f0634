// Package httpapi exposes the pg-finder JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/yourorg/pg-finder/internal/apperr"
	"github.com/yourorg/pg-finder/internal/auth"
	"github.com/yourorg/pg-finder/internal/catalog"
)

const maxBody = 1 << 20

// decodeJSON fills dst from the request body. An empty body leaves dst as is.
func decodeJSON(req *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(req.Body, maxBody)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.New(apperr.ErrCodeInvalidJSON, "Malformed JSON body", err)
}

func writeOK(w http.ResponseWriter, req *http.Request, status int, body map[string]any) {
	body["ok"] = true
	render.Status(req, status)
	render.JSON(w, req, body)
}

// author builds the review/inquiry author from the signed-in user, if any.
func author(req *http.Request) catalog.Author {
	p, found := auth.FromContext(req.Context())
	if !found {
		return catalog.Author{}
	}
	return catalog.Author{UserID: p.UserID, Name: displayName(p.Email)}
}

func displayName(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
