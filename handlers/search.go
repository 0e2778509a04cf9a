package handlers

import (
	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
)

// Search serves title search under /search.
type Search struct {
	catalog *catalog.Service
}

func NewSearch(c *catalog.Service) *Search {
	return &Search{catalog: c}
}

func (h *Search) Routes(r *internal.Router) {
	r.Route("/search", func(r *internal.Router) {
		r.GET("/movies", h.movies)
		r.GET("/suggestions", h.suggestions)
		r.GET("/autocomplete", h.autocomplete)
	})
}

func (h *Search) movies(c internal.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return err
	}
	p, err := h.catalog.Search(c, c.Query("q"), f)
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *Search) suggestions(c internal.Context) error {
	list, err := h.catalog.Suggestions(c, c.Query("q"), limitParam(c, 10))
	if err != nil {
		return err
	}
	return ok(c, list)
}

func (h *Search) autocomplete(c internal.Context) error {
	list, err := h.catalog.Autocomplete(c, c.Query("q"), limitParam(c, 10))
	if err != nil {
		return err
	}
	return ok(c, list)
}
