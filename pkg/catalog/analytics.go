package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/query"
)

// Event types recorded by the tracking endpoints.
const (
	EventPageView  = "page_view"
	EventMovieView = "movie_view"
)

var eventTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,49}$`)

// Event is one analytics record.
type Event struct {
	Properties map[string]any `json:"properties,omitempty"`
	UserID     *int64         `json:"user_id,omitempty"`
	MovieID    *int64         `json:"movie_id,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	Type       string         `json:"event_type"`
	Name       string         `json:"event_name,omitempty"`
	PageURL    string         `json:"page_url,omitempty"`
	IP         string         `json:"-"`
	UserAgent  string         `json:"-"`
}

// RecordEvent stores e. A movie view also bumps the movie's view counter.
func (s *Service) RecordEvent(ctx context.Context, e Event) error {
	if !eventTypePattern.MatchString(e.Type) {
		return ErrInvalidEvent
	}
	if e.Type == EventMovieView {
		if e.MovieID == nil {
			return errors.Join(ErrInvalidEvent, errors.New("movie_id is required"))
		}
		if err := s.RecordView(ctx, *e.MovieID); err != nil {
			return err
		}
	}

	values := map[string]any{
		"user_id":    nil,
		"movie_id":   nil,
		"session_id": nullable(e.SessionID),
		"event_type": e.Type,
		"event_name": nullable(e.Name),
		"page_url":   nullable(truncate(e.PageURL, 500)),
		"properties": nil,
		"ip_address": nullable(truncate(e.IP, 45)),
		"user_agent": nullable(e.UserAgent),
		"created_at": s.now().UTC(),
	}
	if e.UserID != nil {
		values["user_id"] = *e.UserID
	}
	if e.MovieID != nil {
		values["movie_id"] = *e.MovieID
	}
	if len(e.Properties) > 0 {
		data, err := json.Marshal(e.Properties)
		if err != nil {
			return errors.Join(ErrInvalidEvent, err)
		}
		values["properties"] = string(data)
	}
	_, err := s.conn.Insert(ctx, "analytics_events", values)
	return err
}

// Overview holds site-wide totals for the admin dashboard.
type Overview struct {
	Users          int64 `json:"users"`
	ActiveUsers    int64 `json:"active_users"`
	NewUsersToday  int64 `json:"new_users_today"`
	Movies         int64 `json:"movies"`
	Genres         int64 `json:"genres"`
	Reviews        int64 `json:"reviews"`
	Ratings        int64 `json:"ratings"`
	WatchlistItems int64 `json:"watchlist_items"`
	Events         int64 `json:"events"`
	PageViews      int64 `json:"page_views"`
	MovieViews     int64 `json:"movie_views"`
}

// Overview counts the main tables.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	startOfDay := s.now().UTC().Truncate(24 * time.Hour)
	out := &Overview{}
	counts := []struct {
		dst *int64
		q   *query.Builder
	}{
		{&out.Users, s.conn.Table("users")},
		{&out.ActiveUsers, s.conn.Table("users").WhereEq("status", "active")},
		{&out.NewUsersToday, s.conn.Table("users").Where("created_at", ">=", startOfDay)},
		{&out.Movies, s.conn.Table("movies")},
		{&out.Genres, s.conn.Table("genres")},
		{&out.Reviews, s.conn.Table("reviews")},
		{&out.Ratings, s.conn.Table("ratings")},
		{&out.WatchlistItems, s.conn.Table("watchlists")},
		{&out.Events, s.conn.Table("analytics_events")},
		{&out.PageViews, s.conn.Table("analytics_events").WhereEq("event_type", EventPageView)},
		{&out.MovieViews, s.conn.Table("analytics_events").WhereEq("event_type", EventMovieView)},
	}
	for _, c := range counts {
		n, err := c.q.Count(ctx)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return out, nil
}

// DailyCount is one day of a time series. Date is YYYY-MM-DD in UTC.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// UserAnalytics describes registrations over a window.
type UserAnalytics struct {
	Registrations []DailyCount     `json:"registrations"`
	ByRole        map[string]int64 `json:"by_role"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// UserAnalytics returns daily registrations for the last days days and the
// current role and status breakdown.
func (s *Service) UserAnalytics(ctx context.Context, days int) (*UserAnalytics, error) {
	days = clampDays(days)
	since := s.windowStart(days)

	rows, err := s.conn.Table("users").Select("created_at").Where("created_at", ">=", since).Get(ctx)
	if err != nil {
		return nil, err
	}
	out := &UserAnalytics{Registrations: s.series(rows, "created_at", since, days, nil)}

	if out.ByRole, err = s.countBy(ctx, "users", "role"); err != nil {
		return nil, err
	}
	if out.ByStatus, err = s.countBy(ctx, "users", "status"); err != nil {
		return nil, err
	}
	return out, nil
}

// MovieCount pairs a movie with an aggregate.
type MovieCount struct {
	Title   string  `json:"title"`
	Slug    string  `json:"slug"`
	ID      int64   `json:"id"`
	Count   int64   `json:"count"`
	Average float64 `json:"average,omitempty"`
}

// MovieAnalytics ranks movies by local activity.
type MovieAnalytics struct {
	MostViewed      []MovieCount `json:"most_viewed"`
	MostWatchlisted []MovieCount `json:"most_watchlisted"`
	MostReviewed    []MovieCount `json:"most_reviewed"`
	TopRated        []MovieCount `json:"top_rated"`
	ByGenre         []Genre      `json:"by_genre"`
}

// MovieAnalytics returns the top limit movies for each ranking.
func (s *Service) MovieAnalytics(ctx context.Context, limit int) (*MovieAnalytics, error) {
	if limit <= 0 {
		limit = 10
	}
	out := &MovieAnalytics{}

	rows, err := s.movies().
		Select("id", "title", "slug", "view_count AS count").
		Where("view_count", ">", 0).
		OrderBy("view_count", "desc").
		OrderBy("id", "asc").
		Limit(limit).
		Get(ctx)
	if err != nil {
		return nil, err
	}
	out.MostViewed = movieCounts(rows)

	if out.MostWatchlisted, err = s.rankBy(ctx, "watchlists", "COUNT(*) AS count", "count", limit); err != nil {
		return nil, err
	}
	if out.MostReviewed, err = s.rankBy(ctx, "reviews", "COUNT(*) AS count", "count", limit); err != nil {
		return nil, err
	}
	if out.TopRated, err = s.rankBy(ctx, "ratings", "COUNT(*) AS count, AVG(ratings.rating) AS average", "average", limit); err != nil {
		return nil, err
	}
	if out.ByGenre, err = s.Genres(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) rankBy(ctx context.Context, table, aggregate, order string, limit int) ([]MovieCount, error) {
	rows, err := s.movies().
		Select("movies.id", "movies.title", "movies.slug", aggregate).
		Join(table, table+".movie_id", "=", "movies.id").
		GroupBy("movies.id", "movies.title", "movies.slug").
		OrderBy(order, "desc").
		OrderBy("movies.id", "asc").
		Limit(limit).
		Get(ctx)
	if err != nil {
		return nil, err
	}
	return movieCounts(rows), nil
}

// Engagement describes user interaction over a window.
type Engagement struct {
	EventsByType     map[string]int64 `json:"events_by_type"`
	DailyEvents      []DailyCount     `json:"daily_events"`
	DailyActiveUsers []DailyCount     `json:"daily_active_users"`
	Reviews          int64            `json:"reviews"`
	Ratings          int64            `json:"ratings"`
	WatchlistAdds    int64            `json:"watchlist_adds"`
}

// Engagement aggregates events, reviews, ratings and watchlist additions of
// the last days days.
func (s *Service) Engagement(ctx context.Context, days int) (*Engagement, error) {
	days = clampDays(days)
	since := s.windowStart(days)

	rows, err := s.conn.Table("analytics_events").
		Select("event_type", "user_id", "created_at").
		Where("created_at", ">=", since).
		Get(ctx)
	if err != nil {
		return nil, err
	}

	out := &Engagement{EventsByType: map[string]int64{}}
	active := map[string]map[int64]bool{}
	for _, r := range rows {
		at := r.Time("created_at")
		if at.Before(since) {
			continue
		}
		out.EventsByType[r.String("event_type")]++
		if !r.IsNull("user_id") {
			day := at.UTC().Format(time.DateOnly)
			if active[day] == nil {
				active[day] = map[int64]bool{}
			}
			active[day][r.Int64("user_id")] = true
		}
	}
	out.DailyEvents = s.series(rows, "created_at", since, days, nil)
	out.DailyActiveUsers = s.series(nil, "", since, days, func(day string) int64 {
		return int64(len(active[day]))
	})

	for _, c := range []struct {
		dst   *int64
		table string
	}{
		{&out.Reviews, "reviews"},
		{&out.Ratings, "ratings"},
		{&out.WatchlistAdds, "watchlists"},
	} {
		n, err := s.conn.Table(c.table).Where("created_at", ">=", since).Count(ctx)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return out, nil
}

// PublicStats are the totals shown on public pages.
type PublicStats struct {
	Movies  int64 `json:"total_movies"`
	Genres  int64 `json:"total_genres"`
	Users   int64 `json:"total_users"`
	Reviews int64 `json:"total_reviews"`
}

// PublicStats counts published content and active users.
func (s *Service) PublicStats(ctx context.Context) (*PublicStats, error) {
	out := &PublicStats{}
	var err error
	if out.Movies, err = s.movies().Count(ctx); err != nil {
		return nil, err
	}
	if out.Genres, err = s.conn.Table("genres").Count(ctx); err != nil {
		return nil, err
	}
	if out.Users, err = s.conn.Table("users").WhereEq("status", "active").Count(ctx); err != nil {
		return nil, err
	}
	if out.Reviews, err = s.conn.Table("reviews").WhereEq("status", ReviewPublished).Count(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) countBy(ctx context.Context, table, column string) (map[string]int64, error) {
	rows, err := s.conn.Table(table).
		Select(column, "COUNT(*) AS count").
		GroupBy(column).
		Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.String(column)] = r.Int64("count")
	}
	return out, nil
}

// windowStart returns midnight UTC of the first day of a days-long window
// ending today.
func (s *Service) windowStart(days int) time.Time {
	return s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))
}

// series buckets rows by the UTC day of column, or asks count for each day
// when count is non-nil. Every day of the window is present.
func (s *Service) series(rows []query.Row, column string, since time.Time, days int, count func(day string) int64) []DailyCount {
	buckets := map[string]int64{}
	for _, r := range rows {
		at := r.Time(column)
		if at.Before(since) {
			continue
		}
		buckets[at.UTC().Format(time.DateOnly)]++
	}
	out := make([]DailyCount, 0, days)
	for i := range days {
		day := since.AddDate(0, 0, i).Format(time.DateOnly)
		n := buckets[day]
		if count != nil {
			n = count(day)
		}
		out = append(out, DailyCount{Date: day, Count: n})
	}
	return out
}

func clampDays(days int) int {
	if days <= 0 {
		return 30
	}
	return min(days, 365)
}

func movieCounts(rows []query.Row) []MovieCount {
	out := make([]MovieCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, MovieCount{
			ID:      r.Int64("id"),
			Title:   r.String("title"),
			Slug:    r.String("slug"),
			Count:   r.Int64("count"),
			Average: r.Float64("average"),
		})
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
