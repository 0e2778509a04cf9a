package handlers

import (
	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
)

// Public serves unauthenticated widgets under /public.
type Public struct {
	catalog *catalog.Service
}

func NewPublic(c *catalog.Service) *Public {
	return &Public{catalog: c}
}

func (h *Public) Routes(r *internal.Router) {
	r.Route("/public", func(r *internal.Router) {
		r.GET("/movies/featured", h.featured)
		r.GET("/movies/trending", h.trending)
		r.GET("/genres", h.genres)
		r.GET("/stats", h.stats)
	})
}

func (h *Public) featured(c internal.Context) error {
	movies, err := h.catalog.Featured(c, limitParam(c, 6))
	if err != nil {
		return err
	}
	return ok(c, movies)
}

func (h *Public) trending(c internal.Context) error {
	movies, err := h.catalog.Trending(c, limitParam(c, 12))
	if err != nil {
		return err
	}
	return ok(c, movies)
}

func (h *Public) genres(c internal.Context) error {
	genres, err := h.catalog.Genres(c)
	if err != nil {
		return err
	}
	return ok(c, genres)
}

func (h *Public) stats(c internal.Context) error {
	stats, err := h.catalog.PublicStats(c)
	if err != nil {
		return err
	}
	return ok(c, stats)
}
