package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/pg-finder/internal/apperr"
	"github.com/yourorg/pg-finder/internal/auth"
	"github.com/yourorg/pg-finder/internal/catalog"
)

type ReviewsDeps struct {
	Catalog *catalog.Service
	Auth    auth.Middleware
}

func RegisterReviews(r chi.Router, d ReviewsDeps) {
	r.Get("/listings/{listingID}/reviews", func(w http.ResponseWriter, req *http.Request) {
		reviews, err := d.Catalog.ListReviews(req.Context(), chi.URLParam(req, "listingID"))
		if err != nil {
			apperr.Render(w, req, err)
			return
		}
		writeOK(w, req, http.StatusOK, map[string]any{"count": len(reviews), "reviews": reviews})
	})

	r.With(d.Auth.RequireUser).Post("/listings/{listingID}/reviews", func(w http.ResponseWriter, req *http.Request) {
		var in catalog.ReviewInput
		if err := decodeJSON(req, &in); err != nil {
			apperr.Render(w, req, err)
			return
		}
		rev, err := d.Catalog.AddReview(req.Context(), author(req), chi.URLParam(req, "listingID"), in)
		if err != nil {
			apperr.Render(w, req, err)
			return
		}
		writeOK(w, req, http.StatusCreated, map[string]any{"review": rev})
	})

	// anonymous visitors may ask too; the signed-in user id is attached when present
	r.With(d.Auth.OptionalUser).Post("/listings/{listingID}/inquiries", func(w http.ResponseWriter, req *http.Request) {
		var in catalog.InquiryInput
		if err := decodeJSON(req, &in); err != nil {
			apperr.Render(w, req, err)
			return
		}
		q, err := d.Catalog.SubmitInquiry(req.Context(), author(req), chi.URLParam(req, "listingID"), in)
		if err != nil {
			apperr.Render(w, req, err)
			return
		}
		writeOK(w, req, http.StatusCreated, map[string]any{"inquiry": q})
	})
}
