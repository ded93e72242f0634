package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/pg-finder/internal/apperr"
	"github.com/yourorg/pg-finder/internal/catalog"
	"github.com/yourorg/pg-finder/internal/listing"
	"github.com/yourorg/pg-finder/internal/logger"
	"github.com/yourorg/pg-finder/internal/seo"
)

type SearchDeps struct {
	Catalog   *catalog.Service
	PublicURL string
	Logger    logger.Logger
}

func RegisterSearch(r chi.Router, d SearchDeps) {
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}

	// POST: JSON criteria; omitted fields keep their defaults
	r.Post("/listings/search", func(w http.ResponseWriter, req *http.Request) {
		c := listing.DefaultCriteria()
		if err := decodeJSON(req, &c); err != nil {
			apperr.Render(w, req, err)
			return
		}
		search(w, req, d, c)
	})

	// GET: query params, the shareable form
	r.Get("/listings/search", func(w http.ResponseWriter, req *http.Request) {
		search(w, req, d, listing.CriteriaFromQuery(req.URL.Query()))
	})

	r.Get("/meta/search", func(w http.ResponseWriter, req *http.Request) {
		c := listing.CriteriaFromQuery(req.URL.Query())
		// meta degrades to the generic description when the count is unknown
		count := 0
		res, err := d.Catalog.Search(req.Context(), c)
		if err != nil {
			d.Logger.WithError(err).Warn("search meta count unavailable", map[string]interface{}{"query": c.Query().Encode()})
		} else {
			count = len(res.Listings)
		}
		writeOK(w, req, http.StatusOK, map[string]any{"meta": seo.SearchMeta(c, count, d.PublicURL)})
	})
}

func search(w http.ResponseWriter, req *http.Request, d SearchDeps, c listing.Criteria) {
	res, err := d.Catalog.Search(req.Context(), c)
	if err != nil {
		apperr.Render(w, req, err)
		return
	}
	writeOK(w, req, http.StatusOK, map[string]any{
		"count":    len(res.Listings),
		"listings": res.Listings,
		"criteria": res.Criteria,
		"scanned":  res.Scanned,
		"query":    res.Criteria.Query().Encode(),
	})
}
