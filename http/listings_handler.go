package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/pg-finder/internal/apperr"
	"github.com/yourorg/pg-finder/internal/auth"
	"github.com/yourorg/pg-finder/internal/catalog"
	"github.com/yourorg/pg-finder/internal/favorites"
	"github.com/yourorg/pg-finder/internal/logger"
	"github.com/yourorg/pg-finder/internal/seo"
)

type ListingsDeps struct {
	Catalog   *catalog.Service
	Favorites *favorites.Service
	Auth      auth.Middleware
	PublicURL string
	Logger    logger.Logger
}

func RegisterListings(r chi.Router, d ListingsDeps) {
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}

	r.With(d.Auth.RequireUser).Get("/listings/mine", func(w http.ResponseWriter, req *http.Request) {
		p, _ := auth.FromContext(req.Context())
		mine, err := d.Catalog.ListByOwner(req.Context(), p.UserID)
		if err != nil {
			apperr.Render(w, req, err)
			return
		}
		writeOK(w, req, http.StatusOK, map[string]any{"count": len(mine), "listings": mine})
	})

	r.With(d.Auth.OptionalUser).Get("/listings/{listingID}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "listingID")
		detail, err := d.Catalog.Get(req.Context(), id)
		if err != nil {
			apperr.Render(w, req, err)
			return
		}
		writeOK(w, req, http.StatusOK, map[string]any{
			"listing":        detail.Listing,
			"reviews":        detail.Reviews,
			"review_summary": detail.Summary,
			"is_favorite":    isFavorite(req, d, id),
			"meta":           seo.ListingMeta(detail.Listing, d.PublicURL),
		})
	})

	r.Get("/listings/{listingID}/meta", func(w http.ResponseWriter, req *http.Request) {
		detail, err := d.Catalog.Get(req.Context(), chi.URLParam(req, "listingID"))
		if err != nil {
			apperr.Render(w, req, err)
			return
		}
		writeOK(w, req, http.StatusOK, map[string]any{"meta": seo.ListingMeta(detail.Listing, d.PublicURL)})
	})

	r.Group(func(r chi.Router) {
		r.Use(d.Auth.RequireUser)

		r.Post("/listings", func(w http.ResponseWriter, req *http.Request) {
			var in catalog.ListingInput
			if err := decodeJSON(req, &in); err != nil {
				apperr.Render(w, req, err)
				return
			}
			p, _ := auth.FromContext(req.Context())
			created, err := d.Catalog.CreateListing(req.Context(), p.UserID, in)
			if err != nil {
				apperr.Render(w, req, err)
				return
			}
			writeOK(w, req, http.StatusCreated, map[string]any{"listing": created})
		})

		r.Patch("/listings/{listingID}/availability", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Available *bool `json:"available"`
			}
			if err := decodeJSON(req, &body); err != nil {
				apperr.Render(w, req, err)
				return
			}
			if body.Available == nil {
				apperr.Render(w, req, apperr.NewInvalidInputError("available: required"))
				return
			}
			p, _ := auth.FromContext(req.Context())
			updated, err := d.Catalog.UpdateAvailability(req.Context(), p.UserID, chi.URLParam(req, "listingID"), *body.Available)
			if err != nil {
				apperr.Render(w, req, err)
				return
			}
			writeOK(w, req, http.StatusOK, map[string]any{"listing": updated})
		})

		r.Delete("/listings/{listingID}", func(w http.ResponseWriter, req *http.Request) {
			p, _ := auth.FromContext(req.Context())
			id := chi.URLParam(req, "listingID")
			if err := d.Catalog.DeleteListing(req.Context(), p.UserID, id); err != nil {
				apperr.Render(w, req, err)
				return
			}
			writeOK(w, req, http.StatusOK, map[string]any{"deleted": id})
		})
	})
}

// isFavorite is false for anonymous visitors and when favorites are down.
func isFavorite(req *http.Request, d ListingsDeps, id string) bool {
	p, found := auth.FromContext(req.Context())
	if !found || d.Favorites == nil {
		return false
	}
	fav, err := d.Favorites.Contains(req.Context(), p.UserID, id)
	if err != nil {
		d.Logger.WithError(err).Warn("favorite lookup failed", map[string]interface{}{"listingId": id})
		return false
	}
	return fav
}
