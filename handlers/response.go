package handlers

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
)

// Envelope is the JSON success body.
type Envelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

func success(c internal.Context, code int, message string, data any) error {
	return c.JSON(code, Envelope{Success: true, Message: message, Data: data})
}

func ok(c internal.Context, data any) error {
	return success(c, http.StatusOK, "", data)
}

// Pagination bounds.
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// pageParams reads page and per_page from the query string.
func pageParams(c internal.Context) (int, int) {
	page := max(internal.QueryDefault(c, "page", 1), 1)
	perPage := internal.QueryDefault(c, "per_page", defaultPerPage)
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	return page, perPage
}

// limitParam reads limit from the query string, bounded by maxPerPage.
func limitParam(c internal.Context, def int) int {
	n := internal.QueryDefault(c, "limit", def)
	if n < 1 || n > maxPerPage {
		return def
	}
	return n
}

// userID returns the authenticated user id. Routes using it run behind auth.
func userID(c internal.Context) int64 {
	if id := middlewares.GetIdentity(c); id != nil {
		return id.UserID
	}
	return 0
}

// movieID parses the {id} path parameter.
func movieID(c internal.Context) (int64, error) {
	id, ok := internal.ParamOK[int64](c, "id")
	if !ok || id <= 0 {
		return 0, internal.ErrNotFound("Movie not found")
	}
	return id, nil
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// idPattern constrains numeric path parameters.
const idPattern = `\d+`
