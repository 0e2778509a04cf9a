package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
	"github.com/dmitrymomot/cineverse/pkg/payment"
)

func (h *Web) dashboard(c internal.Context) error {
	uid := userID(c)
	user, err := h.auth.FindUser(c, uid)
	if err != nil {
		return err
	}
	stats, err := h.catalog.Statistics(c, uid)
	if err != nil {
		return err
	}
	activities, err := h.auth.Activities(c, uid, 10)
	if err != nil {
		return err
	}
	sub, err := h.payments.Subscription(c, uid)
	if err != nil && !errors.Is(err, payment.ErrNoSubscription) {
		return err
	}
	return h.render(c, http.StatusOK, "dashboard", "Dashboard", map[string]any{
		"user":         user,
		"stats":        stats,
		"activities":   activities,
		"subscription": sub,
	})
}

func (h *Web) profilePage(c internal.Context) error {
	user, err := h.auth.FindUser(c, userID(c))
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "profile", "Profile", user)
}

func (h *Web) updateProfile(c internal.Context) error {
	var in auth.ProfileInput
	if err := c.Bind(&in); err != nil {
		return fail(c, "/dashboard/profile", err)
	}
	if _, err := h.auth.UpdateProfile(c, userID(c), in); err != nil {
		return fail(c, "/dashboard/profile", err)
	}
	return redirect(c, "/dashboard/profile", "flash.profile_updated")
}

func (h *Web) watchlistPage(c internal.Context) error {
	page, perPage := pageParams(c)
	p, err := h.catalog.Watchlist(c, userID(c), page, perPage)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "watchlist", "My watchlist", p)
}

func (h *Web) settingsPage(c internal.Context) error {
	user, err := h.auth.FindUser(c, userID(c))
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "settings", "Settings", user)
}

type settingsForm struct {
	Language string `form:"language" validate:"omitempty,max=5"`
	Current  string `form:"current_password"`
	Password string `form:"password"`
}

func (h *Web) updateSettings(c internal.Context) error {
	const target = "/dashboard/settings"
	var in settingsForm
	if err := c.Bind(&in); err != nil {
		return fail(c, target, err)
	}
	uid := userID(c)

	if in.Language != "" {
		if !h.langs.Supports(in.Language) {
			return fail(c, target, internal.ErrUnprocessable("Unsupported language."))
		}
		lang := h.langs.Resolve(in.Language)
		if _, err := h.auth.UpdateProfile(c, uid, auth.ProfileInput{Language: &lang}); err != nil {
			return fail(c, target, err)
		}
		if sess, err := c.Session(); err == nil && sess != nil {
			sess.SetValue(middlewares.SessionLanguageKey, lang)
		}
	}
	if in.Password != "" {
		if err := h.auth.ChangePassword(c, uid, in.Current, in.Password); err != nil {
			return fail(c, target, err)
		}
	}
	return redirect(c, target, "flash.settings_saved")
}

func (h *Web) moviesPage(c internal.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return err
	}
	p, err := h.catalog.List(c, f)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "movies", "Movies", map[string]any{"page": p})
}

func (h *Web) searchPage(c internal.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return err
	}
	term := c.Query("q")
	p, err := h.catalog.Search(c, term, f)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "movies", "Search", map[string]any{"page": p, "query": term})
}

func (h *Web) genrePage(c internal.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return err
	}
	genre, p, err := h.catalog.ByGenre(c, c.Param("slug"), f)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "movies", genre.Name, map[string]any{"page": p})
}

func (h *Web) moviePage(c internal.Context) error {
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

	uid := currentUserID(c)
	ratings, err := h.catalog.Ratings(c, id, uid)
	if err != nil {
		return err
	}
	reviews, err := h.catalog.Reviews(c, id, 1, 10)
	if err != nil {
		return err
	}
	similar, err := h.catalog.Recommendations(c, id, uid, 6)
	if err != nil {
		return err
	}
	data := map[string]any{
		"movie":   movie,
		"ratings": ratings,
		"reviews": reviews,
		"similar": similar,
	}
	if uid > 0 {
		in, err := h.catalog.InWatchlist(c, uid, id)
		if err != nil {
			return err
		}
		data["in_watchlist"] = in
	}
	return h.render(c, http.StatusOK, "movie", movie.Title, data)
}

// done answers a movie action with JSON for scripts and a redirect for forms.
func done(c internal.Context, movie int64, message string, data any) error {
	if c.WantsJSON() {
		return success(c, http.StatusOK, message, data)
	}
	return redirect(c, fmt.Sprintf("/movies/%d", movie), message)
}

func (h *Web) addToWatchlist(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.AddToWatchlist(c, userID(c), id); err != nil {
		return err
	}
	return done(c, id, "Added to watchlist", nil)
}

func (h *Web) removeFromWatchlist(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	if _, err := h.catalog.RemoveFromWatchlist(c, userID(c), id); err != nil {
		return err
	}
	return done(c, id, "Removed from watchlist", nil)
}

func (h *Web) rate(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	var in ratingInput
	if err := c.Bind(&in); err != nil {
		return fail(c, fmt.Sprintf("/movies/%d", id), err)
	}
	summary, err := h.catalog.Rate(c, userID(c), id, in.Rating)
	if err != nil {
		return err
	}
	return done(c, id, "Rating saved", summary)
}

func (h *Web) review(c internal.Context) error {
	id, err := movieID(c)
	if err != nil {
		return err
	}
	var in catalog.ReviewInput
	if err := c.Bind(&in); err != nil {
		return fail(c, fmt.Sprintf("/movies/%d", id), err)
	}
	review, err := h.catalog.AddReview(c, userID(c), id, in)
	if err != nil {
		return fail(c, fmt.Sprintf("/movies/%d", id), err)
	}
	return done(c, id, "Review submitted", review)
}

func (h *Web) plansPage(c internal.Context) error {
	return h.render(c, http.StatusOK, "plans", "Plans", h.payments.Plans())
}

func (h *Web) subscribe(c internal.Context) error {
	var in payment.SubscribeInput
	if err := c.Bind(&in); err != nil {
		return fail(c, "/payment/plans", err)
	}
	in.UserID = userID(c)

	txn, err := h.payments.Subscribe(c, in)
	if err != nil {
		return fail(c, "/payment/plans", err)
	}
	msg := "flash.payment_pending"
	if txn.Status == payment.StatusCompleted {
		msg = "flash.payment_completed"
	}
	return redirect(c, "/payment/success?reference="+txn.Reference, msg)
}

func (h *Web) paymentSuccess(c internal.Context) error {
	return h.render(c, http.StatusOK, "payment-status", "Payment received",
		"Your subscription will be active as soon as the operator confirms the payment.")
}

func (h *Web) paymentCancel(c internal.Context) error {
	return h.render(c, http.StatusOK, "payment-status", "Payment cancelled",
		"No money was taken. You can pick a plan again at any time.")
}
