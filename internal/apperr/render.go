package apperr

import (
	"net/http"

	"github.com/go-chi/render"
)

// Render writes err as the JSON error body with its mapped status.
func Render(w http.ResponseWriter, r *http.Request, err error) {
	se := As(err)
	render.Status(r, se.Status())
	render.JSON(w, r, se)
}
