package handlers

import (
	"net/http"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
)

// Analytics records client-side tracking events under /analytics.
type Analytics struct {
	catalog *catalog.Service
}

func NewAnalytics(c *catalog.Service) *Analytics {
	return &Analytics{catalog: c}
}

func (h *Analytics) Routes(r *internal.Router) {
	r.Route("/analytics", func(r *internal.Router) {
		r.POST("/event", h.event)
		r.POST("/page-view", h.pageView)
		r.POST("/movie-view", h.movieView)
	})
}

type eventInput struct {
	Properties map[string]any `json:"properties"`
	MovieID    *int64         `json:"movie_id" validate:"omitempty,gt=0"`
	Type       string         `json:"event_type" validate:"required,max=50"`
	Name       string         `json:"event_name" validate:"max=100"`
	PageURL    string         `json:"page_url" validate:"max=2048"`
	SessionID  string         `json:"session_id" validate:"max=100"`
}

func (h *Analytics) event(c internal.Context) error {
	var in eventInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	return h.record(c, in)
}

func (h *Analytics) pageView(c internal.Context) error {
	in := eventInput{Type: catalog.EventPageView}
	if err := c.Bind(&in); err != nil {
		return err
	}
	in.Type = catalog.EventPageView
	return h.record(c, in)
}

func (h *Analytics) movieView(c internal.Context) error {
	in := eventInput{Type: catalog.EventMovieView}
	if err := c.Bind(&in); err != nil {
		return err
	}
	in.Type = catalog.EventMovieView
	return h.record(c, in)
}

func (h *Analytics) record(c internal.Context, in eventInput) error {
	e := catalog.Event{
		Properties: in.Properties,
		MovieID:    in.MovieID,
		SessionID:  in.SessionID,
		Type:       in.Type,
		Name:       in.Name,
		PageURL:    in.PageURL,
		IP:         c.Request().ClientIP(),
		UserAgent:  c.Request().UserAgent(),
	}
	if uid := userID(c); uid > 0 {
		e.UserID = &uid
	}
	if err := h.catalog.RecordEvent(c, e); err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Event recorded", nil)
}
