package catalog

import (
	"context"
	"errors"

	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/query"
	"github.com/dmitrymomot/cineverse/pkg/validator"
)

// RatingSummary aggregates the local ratings of one movie.
type RatingSummary struct {
	UserRating *int    `json:"user_rating"`
	Average    float64 `json:"average"`
	Count      int64   `json:"count"`
}

// Rate stores the user's rating for a movie, replacing an earlier one, and
// returns the updated summary.
func (s *Service) Rate(ctx context.Context, userID, movieID int64, rating int) (*RatingSummary, error) {
	if err := validator.Var("rating", rating, "gte=1,lte=10"); err != nil {
		return nil, err
	}
	if err := s.exists(ctx, movieID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	err := s.conn.Transaction(ctx, func(tx *db.Conn) error {
		n, err := tx.Update(ctx, "ratings",
			map[string]any{"rating": rating, "updated_at": now},
			"user_id = :user_id AND movie_id = :movie_id",
			map[string]any{"user_id": userID, "movie_id": movieID},
		)
		if err != nil || n > 0 {
			return err
		}
		_, err = tx.Insert(ctx, "ratings", map[string]any{
			"user_id":    userID,
			"movie_id":   movieID,
			"rating":     rating,
			"created_at": now,
			"updated_at": now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Ratings(ctx, movieID, userID)
}

// Ratings returns the rating summary of a movie. UserRating is set when
// userID has rated it.
func (s *Service) Ratings(ctx context.Context, movieID, userID int64) (*RatingSummary, error) {
	row, err := s.conn.Table("ratings").
		Select("AVG(rating) AS average", "COUNT(*) AS count").
		WhereEq("movie_id", movieID).
		First(ctx)
	if err != nil {
		return nil, err
	}
	sum := &RatingSummary{Average: row.Float64("average"), Count: row.Int64("count")}

	if userID == 0 {
		return sum, nil
	}
	own, err := s.conn.Table("ratings").
		Select("rating").
		WhereEq("movie_id", movieID).
		WhereEq("user_id", userID).
		First(ctx)
	switch {
	case errors.Is(err, query.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		v := own.Int("rating")
		sum.UserRating = &v
	}
	return sum, nil
}
