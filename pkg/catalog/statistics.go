package catalog

import "context"

// UserStatistics summarizes one user's activity in the catalog.
type UserStatistics struct {
	FavoriteGenres []Genre `json:"favorite_genres"`
	AverageRating  float64 `json:"average_rating"`
	WatchlistCount int64   `json:"watchlist_count"`
	RatingsCount   int64   `json:"ratings_count"`
	ReviewsCount   int64   `json:"reviews_count"`
}

// Statistics returns counts for the user and their three most frequent
// genres across watchlist and rated movies.
func (s *Service) Statistics(ctx context.Context, userID int64) (*UserStatistics, error) {
	out := &UserStatistics{FavoriteGenres: []Genre{}}

	var err error
	if out.WatchlistCount, err = s.conn.Table("watchlists").WhereEq("user_id", userID).Count(ctx); err != nil {
		return nil, err
	}
	if out.ReviewsCount, err = s.conn.Table("reviews").WhereEq("user_id", userID).Count(ctx); err != nil {
		return nil, err
	}

	row, err := s.conn.Table("ratings").
		Select("AVG(rating) AS average", "COUNT(*) AS count").
		WhereEq("user_id", userID).
		First(ctx)
	if err != nil {
		return nil, err
	}
	out.RatingsCount = row.Int64("count")
	out.AverageRating = row.Float64("average")

	rows, err := s.conn.Table("genres").
		Select("genres.id", "genres.name", "genres.slug", "COUNT(*) AS movie_count").
		Join("movie_genres", "movie_genres.genre_id", "=", "genres.id").
		WhereRaw(
			"movie_genres.movie_id IN (SELECT movie_id FROM watchlists WHERE user_id = :owner_id) OR movie_genres.movie_id IN (SELECT movie_id FROM ratings WHERE user_id = :owner_id)",
			map[string]any{"owner_id": userID},
		).
		GroupBy("genres.id", "genres.name", "genres.slug").
		OrderBy("movie_count", "desc").
		OrderBy("genres.name", "asc").
		Limit(3).
		Get(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out.FavoriteGenres = append(out.FavoriteGenres, genreFromRow(r))
	}
	return out, nil
}
