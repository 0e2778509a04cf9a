package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/cache"
	"github.com/dmitrymomot/cineverse/pkg/query"
)

// Sort orders accepted by Filter.Sort.
const (
	SortPopularity  = "popularity"
	SortRating      = "rating"
	SortReleaseDate = "release_date"
	SortTitle       = "title"
	SortViews       = "views"
)

// Filter narrows List.
type Filter struct {
	Genre   string // genre slug
	Search  string
	Sort    string
	Year    int
	Page    int
	PerPage int
}

// List returns a page of movies matching f.
func (s *Service) List(ctx context.Context, f Filter) (*Page[Movie], error) {
	q := s.movies()
	if f.Genre != "" {
		q.WhereRaw(
			"id IN (SELECT movie_genres.movie_id FROM movie_genres INNER JOIN genres ON genres.id = movie_genres.genre_id WHERE genres.slug = :genre_slug)",
			map[string]any{"genre_slug": f.Genre},
		)
	}
	if f.Year > 0 {
		q.WhereLike("release_date", fmt.Sprintf("%04d-%%", f.Year))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		searchTitles(q, term)
	}
	applySort(q, f.Sort)

	perPage := f.PerPage
	if perPage <= 0 {
		perPage = s.cfg.PerPage
	}
	return s.page(ctx, q, f.Page, perPage)
}

func applySort(q *query.Builder, sort string) {
	switch sort {
	case SortRating:
		q.OrderBy("vote_average", "desc").OrderBy("vote_count", "desc")
	case SortReleaseDate:
		q.OrderBy("release_date", "desc")
	case SortTitle:
		q.OrderBy("title", "asc")
	case SortViews:
		q.OrderBy("view_count", "desc")
	default:
		q.OrderBy("popularity", "desc")
	}
	q.OrderBy("id", "asc")
}

func searchTitles(q *query.Builder, term string) {
	q.WhereRaw(
		"LOWER(title) LIKE :search_term OR LOWER(original_title) LIKE :search_term",
		map[string]any{"search_term": "%" + strings.ToLower(term) + "%"},
	)
}

func (s *Service) page(ctx context.Context, q *query.Builder, page, perPage int) (*Page[Movie], error) {
	p, err := q.Paginate(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	out := pageOf(p, movieFromRow)
	if err := s.attachGenres(ctx, out.Data); err != nil {
		return nil, err
	}
	return out, nil
}

// Trending returns the most viewed movies.
func (s *Service) Trending(ctx context.Context, limit int) ([]Movie, error) {
	return s.cached(ctx, "trending", limit, func(q *query.Builder) {
		q.OrderBy("view_count", "desc").OrderBy("popularity", "desc")
	})
}

// Popular returns movies by popularity score.
func (s *Service) Popular(ctx context.Context, limit int) ([]Movie, error) {
	return s.cached(ctx, "popular", limit, func(q *query.Builder) {
		q.OrderBy("popularity", "desc")
	})
}

// TopRated returns rated movies by average vote.
func (s *Service) TopRated(ctx context.Context, limit int) ([]Movie, error) {
	return s.cached(ctx, "top_rated", limit, func(q *query.Builder) {
		q.Where("vote_count", ">", 0).OrderBy("vote_average", "desc").OrderBy("vote_count", "desc")
	})
}

// Upcoming returns movies released after today, soonest first.
func (s *Service) Upcoming(ctx context.Context, limit int) ([]Movie, error) {
	today := s.today()
	return s.cached(ctx, "upcoming:"+today, limit, func(q *query.Builder) {
		q.Where("release_date", ">", today).OrderBy("release_date", "asc")
	})
}

// NowPlaying returns movies released in the last 30 days.
func (s *Service) NowPlaying(ctx context.Context, limit int) ([]Movie, error) {
	today := s.today()
	since := s.now().UTC().AddDate(0, 0, -30).Format(time.DateOnly)
	return s.cached(ctx, "now_playing:"+today, limit, func(q *query.Builder) {
		q.Where("release_date", "<=", today).
			Where("release_date", ">=", since).
			OrderBy("release_date", "desc")
	})
}

// Featured returns movies flagged as featured.
func (s *Service) Featured(ctx context.Context, limit int) ([]Movie, error) {
	return s.cached(ctx, "featured", limit, func(q *query.Builder) {
		q.WhereEq("is_featured", true).OrderBy("popularity", "desc")
	})
}

func (s *Service) cached(ctx context.Context, name string, limit int, scope func(q *query.Builder)) ([]Movie, error) {
	if limit <= 0 {
		limit = s.cfg.ListingLimit
	}
	key := name + ":" + strconv.Itoa(limit)
	return cache.GetOrSet(ctx, s.listings, key, func(ctx context.Context) ([]Movie, time.Duration, error) {
		q := s.movies()
		scope(q)
		rows, err := q.OrderBy("id", "asc").Limit(limit).Get(ctx)
		if err != nil {
			return nil, 0, err
		}
		movies := moviesFromRows(rows)
		if err := s.attachGenres(ctx, movies); err != nil {
			return nil, 0, err
		}
		return movies, s.cfg.CacheTTL, nil
	})
}

// Find returns a movie with its genres.
func (s *Service) Find(ctx context.Context, id int64) (*Movie, error) {
	return s.findBy(ctx, "id", id)
}

// FindBySlug returns a movie by slug.
func (s *Service) FindBySlug(ctx context.Context, slug string) (*Movie, error) {
	return s.findBy(ctx, "slug", slug)
}

func (s *Service) findBy(ctx context.Context, column string, value any) (*Movie, error) {
	row, err := s.movies().WhereEq(column, value).First(ctx)
	if err != nil {
		return nil, notFound(err, ErrMovieNotFound)
	}
	m := []Movie{movieFromRow(row)}
	if err := s.attachGenres(ctx, m); err != nil {
		return nil, err
	}
	return &m[0], nil
}

// Similar returns movies sharing at least one genre with the given movie.
func (s *Service) Similar(ctx context.Context, id int64, limit int) ([]Movie, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.ListingLimit
	}
	rows, err := s.movies().
		Where("id", "!=", id).
		WhereRaw(
			"id IN (SELECT movie_id FROM movie_genres WHERE genre_id IN (SELECT genre_id FROM movie_genres WHERE movie_id = :source_id))",
			map[string]any{"source_id": id},
		).
		OrderBy("popularity", "desc").
		OrderBy("id", "asc").
		Limit(limit).
		Get(ctx)
	if err != nil {
		return nil, err
	}
	movies := moviesFromRows(rows)
	return movies, s.attachGenres(ctx, movies)
}

// Recommendations returns similar movies the user has neither rated nor
// added to the watchlist. A zero userID behaves like Similar.
func (s *Service) Recommendations(ctx context.Context, id, userID int64, limit int) ([]Movie, error) {
	if userID == 0 {
		return s.Similar(ctx, id, limit)
	}
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.ListingLimit
	}
	rows, err := s.movies().
		Where("id", "!=", id).
		WhereRaw(
			"id IN (SELECT movie_id FROM movie_genres WHERE genre_id IN (SELECT genre_id FROM movie_genres WHERE movie_id = :source_id))",
			map[string]any{"source_id": id},
		).
		WhereRaw(
			"id NOT IN (SELECT movie_id FROM watchlists WHERE user_id = :viewer_id) AND id NOT IN (SELECT movie_id FROM ratings WHERE user_id = :viewer_id)",
			map[string]any{"viewer_id": userID},
		).
		OrderBy("vote_average", "desc").
		OrderBy("popularity", "desc").
		OrderBy("id", "asc").
		Limit(limit).
		Get(ctx)
	if err != nil {
		return nil, err
	}
	movies := moviesFromRows(rows)
	return movies, s.attachGenres(ctx, movies)
}

// RecordView increments a movie's view counter.
func (s *Service) RecordView(ctx context.Context, id int64) error {
	n, err := s.conn.Exec(ctx, "UPDATE movies SET view_count = view_count + 1 WHERE id = :id", map[string]any{"id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// Genres returns every genre with its movie count.
func (s *Service) Genres(ctx context.Context) ([]Genre, error) {
	rows, err := s.conn.Table("genres").
		Select("genres.id", "genres.name", "genres.slug", "COUNT(movie_genres.movie_id) AS movie_count").
		LeftJoin("movie_genres", "movie_genres.genre_id", "=", "genres.id").
		GroupBy("genres.id", "genres.name", "genres.slug").
		OrderBy("genres.name", "asc").
		Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Genre, 0, len(rows))
	for _, r := range rows {
		out = append(out, genreFromRow(r))
	}
	return out, nil
}

// GenreBySlug returns one genre.
func (s *Service) GenreBySlug(ctx context.Context, slug string) (*Genre, error) {
	row, err := s.conn.Table("genres").WhereEq("slug", slug).First(ctx)
	if err != nil {
		return nil, notFound(err, ErrGenreNotFound)
	}
	g := genreFromRow(row)
	return &g, nil
}

// ByGenre returns the genre and a page of its movies.
func (s *Service) ByGenre(ctx context.Context, slug string, f Filter) (*Genre, *Page[Movie], error) {
	g, err := s.GenreBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	f.Genre = g.Slug
	p, err := s.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	g.MovieCount = p.Total
	return g, p, nil
}
