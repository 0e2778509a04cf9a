package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/query"
	"github.com/dmitrymomot/cineverse/pkg/sanitizer"
	"github.com/dmitrymomot/cineverse/pkg/validator"
)

// Review statuses.
const (
	ReviewPublished = "published"
	ReviewHidden    = "hidden"
)

// Review is a user's written review.
type Review struct {
	CreatedAt time.Time `json:"created_at"`
	Rating    *int      `json:"rating"`
	Username  string    `json:"username"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
}

// ReviewInput is the review form. Markup is stripped before validation.
type ReviewInput struct {
	Rating  *int   `json:"rating" validate:"omitempty,gte=1,lte=10"`
	Title   string `json:"title" validate:"max=255"`
	Content string `json:"content" validate:"required,min=10,max=5000"`
}

// AddReview stores a published review.
func (s *Service) AddReview(ctx context.Context, userID, movieID int64, in ReviewInput) (*Review, error) {
	in.Title = sanitizer.PlainText(in.Title)
	in.Content = strings.TrimSpace(sanitizer.PlainText(in.Content))
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if err := s.exists(ctx, movieID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	values := map[string]any{
		"user_id":    userID,
		"movie_id":   movieID,
		"title":      nil,
		"content":    in.Content,
		"rating":     nil,
		"status":     ReviewPublished,
		"created_at": now,
		"updated_at": now,
	}
	if in.Title != "" {
		values["title"] = in.Title
	}
	if in.Rating != nil {
		values["rating"] = *in.Rating
	}
	id, err := s.conn.Insert(ctx, "reviews", values)
	if err != nil {
		return nil, err
	}
	return s.review(ctx, id)
}

// Reviews returns the published reviews of a movie, newest first.
func (s *Service) Reviews(ctx context.Context, movieID int64, page, perPage int) (*Page[Review], error) {
	if perPage <= 0 {
		perPage = s.cfg.PerPage
	}
	p, err := s.reviews().
		WhereEq("reviews.movie_id", movieID).
		WhereEq("reviews.status", ReviewPublished).
		OrderBy("reviews.created_at", "desc").
		OrderBy("reviews.id", "desc").
		Paginate(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	return pageOf(p, reviewFromRow), nil
}

// SetReviewStatus publishes or hides a review.
func (s *Service) SetReviewStatus(ctx context.Context, id int64, status string) error {
	if err := validator.Var("status", status, "required,oneof=published hidden"); err != nil {
		return err
	}
	n, err := s.conn.Update(ctx, "reviews",
		map[string]any{"status": status, "updated_at": s.now().UTC()},
		"id = :id", map[string]any{"id": id},
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (s *Service) review(ctx context.Context, id int64) (*Review, error) {
	row, err := s.reviews().WhereEq("reviews.id", id).First(ctx)
	if err != nil {
		return nil, notFound(err, ErrReviewNotFound)
	}
	r := reviewFromRow(row)
	return &r, nil
}

func (s *Service) reviews() *query.Builder {
	return s.conn.Table("reviews").
		Select(
			"reviews.id", "reviews.user_id", "reviews.movie_id", "reviews.title",
			"reviews.content", "reviews.rating", "reviews.status", "reviews.created_at",
			"users.username",
		).
		Join("users", "users.id", "=", "reviews.user_id")
}

func reviewFromRow(r query.Row) Review {
	out := Review{
		ID:        r.Int64("id"),
		UserID:    r.Int64("user_id"),
		MovieID:   r.Int64("movie_id"),
		Username:  r.String("username"),
		Title:     r.String("title"),
		Content:   r.String("content"),
		Status:    r.String("status"),
		CreatedAt: r.Time("created_at"),
	}
	if !r.IsNull("rating") {
		v := r.Int("rating")
		out.Rating = &v
	}
	return out
}
