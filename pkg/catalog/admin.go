package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/sanitizer"
	"github.com/dmitrymomot/cineverse/pkg/slug"
	"github.com/dmitrymomot/cineverse/pkg/validator"
)

// Movie release statuses.
const (
	StatusReleased     = "released"
	StatusUpcoming     = "upcoming"
	StatusInProduction = "in_production"
)

const maxSlugAttempts = 20

// MovieInput is the admin movie form.
type MovieInput struct {
	TMDBID        *int64  `json:"tmdb_id" validate:"omitempty,gt=0"`
	Title         string  `json:"title" validate:"required,max=255"`
	OriginalTitle string  `json:"original_title" validate:"max=255"`
	Overview      string  `json:"overview"`
	Tagline       string  `json:"tagline" validate:"max=500"`
	PosterPath    string  `json:"poster_path" validate:"max=500"`
	BackdropPath  string  `json:"backdrop_path" validate:"max=500"`
	TrailerURL    string  `json:"trailer_url" validate:"omitempty,url,max=500"`
	ReleaseDate   string  `json:"release_date" validate:"omitempty,datetime=2006-01-02"`
	Language      string  `json:"language" validate:"omitempty,max=5"`
	Status        string  `json:"status" validate:"omitempty,oneof=released upcoming in_production"`
	GenreIDs      []int64 `json:"genre_ids"`
	Popularity    float64 `json:"popularity" validate:"gte=0"`
	VoteAverage   float64 `json:"vote_average" validate:"gte=0,lte=10"`
	VoteCount     int64   `json:"vote_count" validate:"gte=0"`
	Runtime       int     `json:"runtime" validate:"gte=0"`
	IsFeatured    bool    `json:"is_featured"`
	IsPremium     bool    `json:"is_premium"`
}

func (in *MovieInput) normalize() {
	in.Title = strings.TrimSpace(sanitizer.PlainText(in.Title))
	in.OriginalTitle = strings.TrimSpace(sanitizer.PlainText(in.OriginalTitle))
	in.Overview = strings.TrimSpace(sanitizer.PlainText(in.Overview))
	in.Tagline = strings.TrimSpace(sanitizer.PlainText(in.Tagline))
	if in.Language == "" {
		in.Language = "en"
	}
	if in.Status == "" {
		in.Status = StatusReleased
	}
}

func (in *MovieInput) values() map[string]any {
	v := map[string]any{
		"title":          in.Title,
		"original_title": nullable(in.OriginalTitle),
		"overview":       nullable(in.Overview),
		"tagline":        nullable(in.Tagline),
		"poster_path":    nullable(in.PosterPath),
		"backdrop_path":  nullable(in.BackdropPath),
		"trailer_url":    nullable(in.TrailerURL),
		"release_date":   nullable(in.ReleaseDate),
		"runtime":        nil,
		"language":       in.Language,
		"status":         in.Status,
		"popularity":     in.Popularity,
		"vote_average":   in.VoteAverage,
		"vote_count":     in.VoteCount,
		"is_featured":    in.IsFeatured,
		"is_premium":     in.IsPremium,
		"tmdb_id":        nil,
	}
	if in.Runtime > 0 {
		v["runtime"] = in.Runtime
	}
	if in.TMDBID != nil {
		v["tmdb_id"] = *in.TMDBID
	}
	return v
}

// CreateMovie inserts a movie with a unique slug derived from its title.
func (s *Service) CreateMovie(ctx context.Context, in MovieInput) (*Movie, error) {
	in.normalize()
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	var id int64
	err := s.conn.Transaction(ctx, func(tx *db.Conn) error {
		sl, err := uniqueSlug(ctx, tx, in.Title, 0)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		values := in.values()
		values["slug"] = sl
		values["created_at"] = now
		values["updated_at"] = now
		if id, err = tx.Insert(ctx, "movies", values); err != nil {
			return err
		}
		return setGenres(ctx, tx, id, in.GenreIDs)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.Find(ctx, id)
}

// UpdateMovie replaces a movie's fields and genres. The slug changes only
// when the title does.
func (s *Service) UpdateMovie(ctx context.Context, id int64, in MovieInput) (*Movie, error) {
	in.normalize()
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	current, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.conn.Transaction(ctx, func(tx *db.Conn) error {
		values := in.values()
		values["updated_at"] = s.now().UTC()
		if in.Title != current.Title {
			sl, err := uniqueSlug(ctx, tx, in.Title, id)
			if err != nil {
				return err
			}
			values["slug"] = sl
		}
		if _, err := tx.Update(ctx, "movies", values, "id = :id", map[string]any{"id": id}); err != nil {
			return err
		}
		if _, err := tx.Delete(ctx, "movie_genres", "movie_id = :movie_id", map[string]any{"movie_id": id}); err != nil {
			return err
		}
		return setGenres(ctx, tx, id, in.GenreIDs)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.Find(ctx, id)
}

// DeleteMovie removes a movie and everything attached to it.
func (s *Service) DeleteMovie(ctx context.Context, id int64) error {
	err := s.conn.Transaction(ctx, func(tx *db.Conn) error {
		params := map[string]any{"movie_id": id}
		for _, table := range []string{"movie_genres", "watchlists", "ratings", "reviews"} {
			if _, err := tx.Delete(ctx, table, "movie_id = :movie_id", params); err != nil {
				return err
			}
		}
		n, err := tx.Delete(ctx, "movies", "id = :id", map[string]any{"id": id})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrMovieNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ImportResult reports a bulk import.
type ImportResult struct {
	Errors  map[int]string `json:"errors,omitempty"`
	Created int            `json:"created"`
	Skipped int            `json:"skipped"`
}

// BulkImport creates every movie in items. Items whose TMDB id already
// exists are skipped; failures are reported by index and do not stop the
// import.
func (s *Service) BulkImport(ctx context.Context, items []MovieInput) (*ImportResult, error) {
	res := &ImportResult{Errors: map[int]string{}}
	for i, in := range items {
		if in.TMDBID != nil {
			dup, err := s.movies().WhereEq("tmdb_id", *in.TMDBID).Exists(ctx)
			if err != nil {
				return nil, err
			}
			if dup {
				res.Skipped++
				continue
			}
		}
		if _, err := s.CreateMovie(ctx, in); err != nil {
			s.log.DebugContext(ctx, "bulk import item failed",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			res.Errors[i] = err.Error()
			continue
		}
		res.Created++
	}
	return res, nil
}

func uniqueSlug(ctx context.Context, conn *db.Conn, title string, exceptID int64) (string, error) {
	base := slug.Make(title, slug.MaxLength(200))
	if base == "" {
		base = "movie"
	}
	for i := 1; i <= maxSlugAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = base + "-" + strconv.Itoa(i)
		}
		q := conn.Table("movies").WhereEq("slug", candidate)
		if exceptID > 0 {
			q.Where("id", "!=", exceptID)
		}
		taken, err := q.Exists(ctx)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return slug.Make(title, slug.MaxLength(200), slug.WithSuffix(6)), nil
}

func setGenres(ctx context.Context, tx *db.Conn, movieID int64, genreIDs []int64) error {
	seen := make(map[int64]bool, len(genreIDs))
	for _, gid := range genreIDs {
		if seen[gid] {
			continue
		}
		seen[gid] = true
		ok, err := tx.Table("genres").WhereEq("id", gid).Exists(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrGenreNotFound
		}
		_, err = tx.Exec(ctx,
			"INSERT INTO movie_genres (movie_id, genre_id) VALUES (:movie_id, :genre_id)",
			map[string]any{"movie_id": movieID, "genre_id": gid},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
