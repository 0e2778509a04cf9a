package handlers

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/cineverse/internal"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// System serves /health and the endpoint index /docs.
type System struct {
	router      *internal.Router
	environment string
	prefix      string
}

// NewSystem returns the system handler. prefix is the API group prefix
// used to filter the endpoint index.
func NewSystem(environment, prefix string) *System {
	return &System{environment: environment, prefix: prefix}
}

func (h *System) Routes(r *internal.Router) {
	h.router = r
	r.GET("/health", h.health)
	r.GET("/docs", h.docs)
}

func (h *System) health(c internal.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":      "healthy",
		"timestamp":   now(),
		"version":     Version,
		"environment": h.environment,
	})
}

type endpoint struct {
	Method     string   `json:"method"`
	Path       string   `json:"path"`
	Middleware []string `json:"middleware,omitempty"`
}

func (h *System) docs(c internal.Context) error {
	var list []endpoint
	for _, rt := range h.router.Routes() {
		if !strings.HasPrefix(rt.Template(), h.prefix) {
			continue
		}
		list = append(list, endpoint{Method: rt.Method(), Path: rt.Template(), Middleware: rt.Middleware()})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"name":      "CineVerse API",
		"version":   Version,
		"endpoints": list,
	})
}
