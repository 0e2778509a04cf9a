package catalog

import (
	"context"

	"github.com/dmitrymomot/cineverse/pkg/db"
)

// AddToWatchlist adds the movie to the user's watchlist. Adding a movie that
// is already there is not an error.
func (s *Service) AddToWatchlist(ctx context.Context, userID, movieID int64) error {
	if err := s.exists(ctx, movieID); err != nil {
		return err
	}
	in, err := s.InWatchlist(ctx, userID, movieID)
	if err != nil || in {
		return err
	}
	_, err = s.conn.Insert(ctx, "watchlists", map[string]any{
		"user_id":    userID,
		"movie_id":   movieID,
		"created_at": s.now().UTC(),
	})
	if db.IsUniqueViolation(err) {
		return nil
	}
	return err
}

// RemoveFromWatchlist removes the movie. It reports whether a row was removed.
func (s *Service) RemoveFromWatchlist(ctx context.Context, userID, movieID int64) (bool, error) {
	n, err := s.conn.Delete(ctx, "watchlists", "user_id = :user_id AND movie_id = :movie_id", map[string]any{
		"user_id":  userID,
		"movie_id": movieID,
	})
	return n > 0, err
}

// InWatchlist reports whether the movie is on the user's watchlist.
func (s *Service) InWatchlist(ctx context.Context, userID, movieID int64) (bool, error) {
	return s.conn.Table("watchlists").
		WhereEq("user_id", userID).
		WhereEq("movie_id", movieID).
		Exists(ctx)
}

// Watchlist returns the user's watchlist, most recently added first.
func (s *Service) Watchlist(ctx context.Context, userID int64, page, perPage int) (*Page[Movie], error) {
	if perPage <= 0 {
		perPage = s.cfg.PerPage
	}
	q := s.movies().
		Select("movies.*").
		Join("watchlists", "watchlists.movie_id", "=", "movies.id").
		WhereEq("watchlists.user_id", userID).
		OrderBy("watchlists.created_at", "desc").
		OrderBy("watchlists.id", "desc")
	return s.page(ctx, q, page, perPage)
}
