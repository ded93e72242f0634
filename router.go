package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/yourorg/pg-finder/http"
	"github.com/yourorg/pg-finder/internal/auth"
	"github.com/yourorg/pg-finder/internal/catalog"
	"github.com/yourorg/pg-finder/internal/config"
	"github.com/yourorg/pg-finder/internal/favorites"
	"github.com/yourorg/pg-finder/internal/logger"
)

type RouterDeps struct {
	Config    *config.Config
	Catalog   *catalog.Service
	Favorites *favorites.Service
	Sessions  *auth.Service
	Logger    logger.Logger
}

func BuildRouter(d RouterDeps) http.Handler {
	cfg := d.Config
	mw := auth.Middleware{Service: d.Sessions, CookieName: cfg.Session.CookieName}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.Middleware(d.Logger))
	r.Use(httprate.LimitByIP(cfg.HTTP.RateLimitPerMinute, 1*time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"ok":true}`)) })
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		httpapi.RegisterSearch(r, httpapi.SearchDeps{Catalog: d.Catalog, PublicURL: cfg.App.PublicURL, Logger: d.Logger})
		httpapi.RegisterListings(r, httpapi.ListingsDeps{
			Catalog:   d.Catalog,
			Favorites: d.Favorites,
			Auth:      mw,
			PublicURL: cfg.App.PublicURL,
			Logger:    d.Logger,
		})
		httpapi.RegisterReviews(r, httpapi.ReviewsDeps{Catalog: d.Catalog, Auth: mw})
		httpapi.RegisterFavorites(r, httpapi.FavoritesDeps{Favorites: d.Favorites, Catalog: d.Catalog, Auth: mw})
		httpapi.RegisterAuth(r, httpapi.AuthDeps{
			Sessions: d.Sessions,
			Auth:     mw,
			TTL:      cfg.Session.TTL,
			Secure:   cfg.Session.Secure,
		})
	})

	return r
}
