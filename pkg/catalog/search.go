package catalog

import (
	"context"
	"strings"
)

// MinSearchLength is the shortest term Search and Suggestions accept.
const MinSearchLength = 2

// Suggestion is a compact search hit.
type Suggestion struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Year       string `json:"year,omitempty"`
	PosterPath string `json:"poster_path,omitempty"`
	ID         int64  `json:"id"`
}

// Search returns a page of movies whose title contains term. Terms shorter
// than MinSearchLength yield an empty page.
func (s *Service) Search(ctx context.Context, term string, f Filter) (*Page[Movie], error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < MinSearchLength {
		return &Page[Movie]{Data: []Movie{}, CurrentPage: 1, PerPage: f.PerPage}, nil
	}
	f.Search = term
	return s.List(ctx, f)
}

// Suggestions returns up to limit title matches ordered by popularity.
func (s *Service) Suggestions(ctx context.Context, term string, limit int) ([]Suggestion, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < MinSearchLength {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	q := s.movies().Select("id", "title", "slug", "release_date", "poster_path")
	searchTitles(q, term)
	rows, err := q.OrderBy("popularity", "desc").OrderBy("id", "asc").Limit(limit).Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Suggestion, 0, len(rows))
	for _, r := range rows {
		m := movieFromRow(r)
		out = append(out, Suggestion{
			ID:         m.ID,
			Title:      m.Title,
			Slug:       m.Slug,
			Year:       m.Year(),
			PosterPath: m.PosterPath,
		})
	}
	return out, nil
}

// Autocomplete returns titles starting with prefix.
func (s *Service) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.movies().
		Select("title").
		WhereRaw("LOWER(title) LIKE :prefix", map[string]any{"prefix": strings.ToLower(prefix) + "%"}).
		OrderBy("popularity", "desc").
		OrderBy("title", "asc").
		Limit(limit).
		Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.String("title"))
	}
	return out, nil
}
