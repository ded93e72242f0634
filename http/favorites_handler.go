package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/pg-finder/internal/apperr"
	"github.com/yourorg/pg-finder/internal/auth"
	"github.com/yourorg/pg-finder/internal/catalog"
	"github.com/yourorg/pg-finder/internal/favorites"
)

type FavoritesDeps struct {
	Favorites *favorites.Service
	Catalog   *catalog.Service
	Auth      auth.Middleware
}

func RegisterFavorites(r chi.Router, d FavoritesDeps) {
	r.Route("/favorites", func(r chi.Router) {
		r.Use(d.Auth.RequireUser)

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			p, _ := auth.FromContext(req.Context())
			set, err := d.Favorites.List(req.Context(), p.UserID)
			if err != nil {
				apperr.Render(w, req, apperr.NewFavoritesFailedError(err))
				return
			}
			ls, err := d.Catalog.ListByIDs(req.Context(), set.IDs())
			if err != nil {
				apperr.Render(w, req, err)
				return
			}
			writeOK(w, req, http.StatusOK, map[string]any{"ids": set.IDs(), "count": len(ls), "listings": ls})
		})

		r.Put("/{listingID}", func(w http.ResponseWriter, req *http.Request) {
			edit(w, req, func(userID, id string) (favorites.Set, bool, error) {
				set, err := d.Favorites.Add(req.Context(), userID, id)
				return set, true, err
			})
		})

		r.Delete("/{listingID}", func(w http.ResponseWriter, req *http.Request) {
			edit(w, req, func(userID, id string) (favorites.Set, bool, error) {
				set, err := d.Favorites.Remove(req.Context(), userID, id)
				return set, false, err
			})
		})

		r.Post("/{listingID}/toggle", func(w http.ResponseWriter, req *http.Request) {
			edit(w, req, func(userID, id string) (favorites.Set, bool, error) {
				return d.Favorites.Toggle(req.Context(), userID, id)
			})
		})
	})
}

func edit(w http.ResponseWriter, req *http.Request, fn func(userID, listingID string) (favorites.Set, bool, error)) {
	p, _ := auth.FromContext(req.Context())
	id := chi.URLParam(req, "listingID")
	set, fav, err := fn(p.UserID, id)
	if err != nil {
		apperr.Render(w, req, apperr.NewFavoritesFailedError(err))
		return
	}
	writeOK(w, req, http.StatusOK, map[string]any{"listing_id": id, "is_favorite": fav, "ids": set.IDs()})
}
