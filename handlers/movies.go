package handlers

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
)

// Movies serves the catalog under /movies.
type Movies struct {
	catalog *catalog.Service
}

func NewMovies(c *catalog.Service) *Movies {
	return &Movies{catalog: c}
}

func (h *Movies) Routes(r *internal.Router) {
	id := internal.Where("id", idPattern)

	r.Route("/movies", func(r *internal.Router) {
		r.GET("", h.list)
		r.GET("/", h.list)
		r.GET("/search", h.search)
		r.GET("/trending", h.trending)
		r.GET("/popular", h.popular)
		r.GET("/top-rated", h.topRated)
		r.GET("/upcoming", h.upcoming)
		r.GET("/now-playing", h.nowPlaying)
		r.GET("/genres", h.genres)
		r.GET("/genre/{slug}", h.genre)
		r.GET("/{id}", h.show, id)
		r.GET("/{id}/similar", h.similar, id)
		r.GET("/{id}/recommendations", h.recommendations, id)

		r.Group(internal.GroupAttrs{Middleware: []string{"auth"}}, func(r *internal.Router) {
			r.POST("/{id}/watchlist", h.addToWatchlist, id)
			r.DELETE("/{id}/watchlist", h.removeFromWatchlist, id)
			r.POST("/{id}/rating", h.rate, id)
			r.GET("/{id}/rating", h.rating, id)
			r.POST("/{id}/review", h.review, id)
			r.GET("/{id}/reviews", h.reviews, id)
		})
	})
}

// listQuery is the query string of listing endpoints.
type listQuery struct {
	Genre   string `form:"genre"`
	Search  string `form:"q"`
	Sort    string `form:"sort" validate:"omitempty,oneof=popularity rating release_date title views"`
	Year    int    `form:"year" validate:"omitempty,gte=1870,lte=2100"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}

func bindFilter(c internal.Context) (catalog.Filter, error) {
	var q listQuery
	if err := c.BindQuery(&q); err != nil {
		return catalog.Filter{}, err
	}
	page, perPage := pageParams(c)
	return catalog.Filter{
		Genre:   q.Genre,
		Search:  q.Search,
		Sort:    q.Sort,
		Year:    q.Year,
		Page:    page,
		PerPage: perPage,
	}, nil
}

func (h *Movies) list(c internal.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return err
	}
	p, err := h.catalog.List(c, f)
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *Movies) search(c internal.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return err
	}
	p, err := h.catalog.Search(c, c.Query("q"), f)
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *Movies) trending(c internal.Context) error {
	return h.listing(c, h.catalog.Trending)
}

func (h *Movies) popular(c internal.Context) error {
	return h.listing(c, h.catalog.Popular)
}

func (h *Movies) topRated(c internal.Context) error {
	return h.listing(c, h.catalog.TopRated)
}

func (h *Movies) upcoming(c internal.Context) error {
	return h.listing(c, h.catalog.Upcoming)
}

func (h *Movies) nowPlaying(c internal.Context) error {
	return h.listing(c, h.catalog.NowPlaying)
}

func (h *Movies) listing(c internal.Context, fetch func(ctx context.Context, limit int) ([]catalog.Movie, error)) error {
	movies, err := fetch(c, limitParam(c, defaultPerPage))
	if err != nil {
		return err
	}
	return ok(c, movies)
}

func (h *Movies) genres(c internal.Context) error {
	genres, err := h.catalog.Genres(c)
	if err != nil {
		return err
	}
	return ok(c, genres)
}

func (h *Movies) genre(c internal.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return err
	}
	genre, p, err := h.catalog.ByGenre(c, c.Param("slug"), f)
	if err != nil {
		return err
	}
	return ok(c, map[string]any{"genre": genre, "movies": p})
}

func (h *Movies) show(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	movie, err := h.catalog.Find(c, id)
	if err != nil {
		return err
	}
	if err := h.catalog.RecordView(c, id); err != nil {
		c.LogWarn("view not recorded", "movie_id", id, "error", err)
	}

	out := map[string]any{"movie": movie}
	if uid := userID(c); uid > 0 {
		in, err := h.catalog.InWatchlist(c, uid, id)
		if err != nil {
			return err
		}
		out["in_watchlist"] = in
	}
	return ok(c, out)
}

func (h *Movies) similar(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	movies, err := h.catalog.Similar(c, id, limitParam(c, 10))
	if err != nil {
		return err
	}
	return ok(c, movies)
}

func (h *Movies) recommendations(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	movies, err := h.catalog.Recommendations(c, id, userID(c), limitParam(c, 10))
	if err != nil {
		return err
	}
	return ok(c, movies)
}

func (h *Movies) addToWatchlist(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.AddToWatchlist(c, userID(c), id); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Added to watchlist", nil)
}

func (h *Movies) removeFromWatchlist(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	removed, err := h.catalog.RemoveFromWatchlist(c, userID(c), id)
	if err != nil {
		return err
	}
	if !removed {
		return internal.ErrNotFound("Movie is not in your watchlist")
	}
	return success(c, http.StatusOK, "Removed from watchlist", nil)
}

type ratingInput struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=10"`
}

func (h *Movies) rate(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	var in ratingInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	summary, err := h.catalog.Rate(c, userID(c), id, in.Rating)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Rating saved", summary)
}

func (h *Movies) rating(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	summary, err := h.catalog.Ratings(c, id, userID(c))
	if err != nil {
		return err
	}
	return ok(c, summary)
}

func (h *Movies) review(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	var in catalog.ReviewInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	review, err := h.catalog.AddReview(c, userID(c), id, in)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Review submitted", review)
}

func (h *Movies) reviews(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	page, perPage := pageParams(c)
	p, err := h.catalog.Reviews(c, id, page, perPage)
	if err != nil {
		return err
	}
	return ok(c, p)
}
