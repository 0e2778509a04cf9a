package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/cache"
	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/logger"
	"github.com/dmitrymomot/cineverse/pkg/query"
)

// Service answers catalog queries and records user interactions.
type Service struct {
	conn     *db.Conn
	listings cache.Cache[[]Movie]
	log      *slog.Logger
	now      func() time.Time
	cfg      Config
}

// Option configures a Service.
type Option func(*Service)

func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now. Upcoming and now playing listings and all
// timestamps follow it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service. A nil listings cache selects an in-memory one.
func NewService(conn *db.Conn, listings cache.Cache[[]Movie], opts ...Option) *Service {
	s := &Service{
		conn:     conn,
		listings: listings,
		log:      logger.NewNope(),
		now:      time.Now,
		cfg:      DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.listings == nil {
		s.listings = cache.NewMemory[[]Movie](cache.WithDefaultTTL(s.cfg.CacheTTL))
	}
	return s
}

// ClearCache drops every cached listing.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.listings.Clear(ctx)
}

func (s *Service) movies() *query.Builder {
	return s.conn.Table("movies")
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.listings.Clear(ctx); err != nil {
		s.log.WarnContext(ctx, "failed to clear listing cache", slog.String("error", err.Error()))
	}
}

func (s *Service) today() string {
	return s.now().UTC().Format(time.DateOnly)
}

// attachGenres loads the genres of movies in one query.
func (s *Service) attachGenres(ctx context.Context, movies []Movie) error {
	if len(movies) == 0 {
		return nil
	}
	ids := make([]any, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	rows, err := s.conn.Table("genres").
		Select("movie_genres.movie_id", "genres.id", "genres.name", "genres.slug").
		Join("movie_genres", "genres.id", "=", "movie_genres.genre_id").
		WhereIn("movie_genres.movie_id", ids).
		OrderBy("genres.name", "asc").
		Get(ctx)
	if err != nil {
		return err
	}
	byMovie := make(map[int64][]Genre, len(movies))
	for _, r := range rows {
		id := r.Int64("movie_id")
		byMovie[id] = append(byMovie[id], genreFromRow(r))
	}
	for i := range movies {
		movies[i].Genres = byMovie[movies[i].ID]
	}
	return nil
}

func (s *Service) exists(ctx context.Context, movieID int64) error {
	ok, err := s.movies().WhereEq("id", movieID).Exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMovieNotFound
	}
	return nil
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, query.ErrNoRows) {
		return sentinel
	}
	return err
}
