package catalog

import (
	"time"

	"github.com/dmitrymomot/cineverse/pkg/query"
)

// Movie is a catalog entry.
type Movie struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	TMDBID        *int64    `json:"tmdb_id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	OriginalTitle string    `json:"original_title,omitempty"`
	Overview      string    `json:"overview,omitempty"`
	Tagline       string    `json:"tagline,omitempty"`
	PosterPath    string    `json:"poster_path,omitempty"`
	BackdropPath  string    `json:"backdrop_path,omitempty"`
	TrailerURL    string    `json:"trailer_url,omitempty"`
	ReleaseDate   string    `json:"release_date,omitempty"`
	Language      string    `json:"language"`
	Status        string    `json:"status"`
	Genres        []Genre   `json:"genres,omitempty"`
	Popularity    float64   `json:"popularity"`
	VoteAverage   float64   `json:"vote_average"`
	ID            int64     `json:"id"`
	VoteCount     int64     `json:"vote_count"`
	ViewCount     int64     `json:"view_count"`
	Runtime       int       `json:"runtime,omitempty"`
	IsFeatured    bool      `json:"is_featured"`
	IsPremium     bool      `json:"is_premium"`
}

// Year returns the release year or "".
func (m *Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// Genre is a catalog genre. MovieCount is filled by listings that count.
type Genre struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	ID         int64  `json:"id"`
	MovieCount int64  `json:"movie_count,omitempty"`
}

// Page is one page of typed results.
type Page[T any] struct {
	Data        []T   `json:"data"`
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

func pageOf[T any](p *query.Page, conv func(query.Row) T) *Page[T] {
	out := &Page[T]{
		Data:        make([]T, 0, len(p.Data)),
		Total:       p.Total,
		PerPage:     p.PerPage,
		CurrentPage: p.CurrentPage,
		LastPage:    p.LastPage,
		From:        p.From,
		To:          p.To,
	}
	for _, row := range p.Data {
		out.Data = append(out.Data, conv(row))
	}
	return out
}

func movieFromRow(r query.Row) Movie {
	m := Movie{
		ID:            r.Int64("id"),
		Title:         r.String("title"),
		Slug:          r.String("slug"),
		OriginalTitle: r.String("original_title"),
		Overview:      r.String("overview"),
		Tagline:       r.String("tagline"),
		PosterPath:    r.String("poster_path"),
		BackdropPath:  r.String("backdrop_path"),
		TrailerURL:    r.String("trailer_url"),
		ReleaseDate:   r.String("release_date"),
		Runtime:       r.Int("runtime"),
		Language:      r.String("language"),
		Status:        r.String("status"),
		Popularity:    r.Float64("popularity"),
		VoteAverage:   r.Float64("vote_average"),
		VoteCount:     r.Int64("vote_count"),
		ViewCount:     r.Int64("view_count"),
		IsFeatured:    r.Bool("is_featured"),
		IsPremium:     r.Bool("is_premium"),
		CreatedAt:     r.Time("created_at"),
		UpdatedAt:     r.Time("updated_at"),
	}
	if !r.IsNull("tmdb_id") {
		id := r.Int64("tmdb_id")
		m.TMDBID = &id
	}
	return m
}

func genreFromRow(r query.Row) Genre {
	return Genre{
		ID:         r.Int64("id"),
		Name:       r.String("name"),
		Slug:       r.String("slug"),
		MovieCount: r.Int64("movie_count"),
	}
}

func moviesFromRows(rows []query.Row) []Movie {
	out := make([]Movie, 0, len(rows))
	for _, r := range rows {
		out = append(out, movieFromRow(r))
	}
	return out
}
