package handlers

import (
	"net/http"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
	"github.com/dmitrymomot/cineverse/pkg/payment"
)

// Admin serves the back office under /admin.
type Admin struct {
	auth     *auth.Manager
	catalog  *catalog.Service
	payments *payment.Service
}

func NewAdmin(m *auth.Manager, c *catalog.Service, p *payment.Service) *Admin {
	return &Admin{auth: m, catalog: c, payments: p}
}

func (h *Admin) Routes(r *internal.Router) {
	id := internal.Where("id", idPattern)

	r.Group(internal.GroupAttrs{Prefix: "/admin", Middleware: []string{"auth", "admin"}}, func(r *internal.Router) {
		r.GET("/stats", h.stats)

		r.GET("/users", h.users)
		r.POST("/users", h.createUser)
		r.GET("/users/{id}", h.user, id)
		r.PUT("/users/{id}", h.updateUser, id)
		r.DELETE("/users/{id}", h.deleteUser, id)
		r.PUT("/users/{id}/status", h.userStatus, id)
		r.GET("/users/{id}/activities", h.userActivities, id)

		r.GET("/movies", h.movies)
		r.POST("/movies", h.createMovie)
		r.POST("/movies/bulk-import", h.bulkImport)
		r.POST("/movies/sync", h.unsupported)
		r.PUT("/movies/{id}", h.updateMovie, id)
		r.DELETE("/movies/{id}", h.deleteMovie, id)
		r.PUT("/reviews/{id}/status", h.reviewStatus, id)

		r.GET("/analytics/overview", h.overview)
		r.GET("/analytics/users", h.userAnalytics)
		r.GET("/analytics/movies", h.movieAnalytics)
		r.GET("/analytics/payments", h.paymentAnalytics)
		r.GET("/analytics/engagement", h.engagement)

		r.GET("/settings", h.settings)
		r.PUT("/settings", h.updateSettings)
		r.POST("/cache/clear", h.clearCache)

		r.GET("/translations", h.unsupported)
		r.POST("/translations", h.unsupported)
	})
}

func (h *Admin) unsupported(internal.Context) error {
	return errUnsupported
}

func (h *Admin) stats(c internal.Context) error {
	overview, err := h.catalog.Overview(c)
	if err != nil {
		return err
	}
	payments, err := h.payments.Summary(c)
	if err != nil {
		return err
	}
	recent, err := h.auth.ListUsers(c, auth.UserFilter{}, 1, 5)
	if err != nil {
		return err
	}
	return ok(c, map[string]any{
		"overview":     overview,
		"payments":     payments,
		"recent_users": recent.Data,
	})
}

// adminID parses the {id} path parameter of admin resources.
func adminID(c internal.Context) (int64, error) {
	id, ok := internal.ParamOK[int64](c, "id")
	if !ok || id <= 0 {
		return 0, internal.ErrNotFound("Resource not found")
	}
	return id, nil
}

type userQuery struct {
	Search string `form:"search"`
	Role   string `form:"role" validate:"omitempty,oneof=user moderator admin"`
	Status string `form:"status" validate:"omitempty,oneof=active inactive suspended banned"`
}

func (h *Admin) users(c internal.Context) error {
	var q userQuery
	if err := c.BindQuery(&q); err != nil {
		return err
	}
	page, perPage := pageParams(c)
	p, err := h.auth.ListUsers(c, auth.UserFilter{Search: q.Search, Role: q.Role, Status: q.Status}, page, perPage)
	if err != nil {
		return err
	}
	return ok(c, p)
}

type createUserInput struct {
	auth.RegisterInput
	Role string `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

func (h *Admin) createUser(c internal.Context) error {
	var in createUserInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	in.IP, in.UserAgent = c.Request().ClientIP(), c.Request().UserAgent()

	user, err := h.auth.Register(c, in.RegisterInput)
	if err != nil {
		return err
	}
	if in.Role != "" && in.Role != user.Role {
		if err := h.auth.SetRole(c, user.ID, in.Role); err != nil {
			return err
		}
		user.Role = in.Role
	}
	return success(c, http.StatusCreated, "User created", user)
}

func (h *Admin) user(c internal.Context) error {
	id, err := adminID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.FindUser(c, id)
	if err != nil {
		return err
	}
	stats, err := h.catalog.Statistics(c, id)
	if err != nil {
		return err
	}
	return ok(c, map[string]any{"user": user, "statistics": stats})
}

type updateUserInput struct {
	auth.ProfileInput
	Role *string `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

func (h *Admin) updateUser(c internal.Context) error {
	id, err := adminID(c)
	if err != nil {
		return err
	}
	var in updateUserInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	if in.Role != nil {
		if err := h.auth.SetRole(c, id, *in.Role); err != nil {
			return err
		}
	}
	user, err := h.auth.UpdateProfile(c, id, in.ProfileInput)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "User updated", user)
}

func (h *Admin) deleteUser(c internal.Context) error {
	id, err := adminID(c)
	if err != nil {
		return err
	}
	if id == userID(c) {
		return internal.ErrUnprocessable("You cannot delete your own account")
	}
	if err := h.auth.DeleteUser(c, id); err != nil {
		return err
	}
	return success(c, http.StatusOK, "User deleted", nil)
}

type statusInput struct {
	Status string `json:"status" validate:"required"`
}

func (h *Admin) userStatus(c internal.Context) error {
	id, err := adminID(c)
	if err != nil {
		return err
	}
	var in statusInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	if id == userID(c) && in.Status != auth.StatusActive {
		return internal.ErrUnprocessable("You cannot deactivate your own account")
	}
	if err := h.auth.SetStatus(c, id, in.Status); err != nil {
		return err
	}
	return success(c, http.StatusOK, "User status updated", nil)
}

func (h *Admin) userActivities(c internal.Context) error {
	id, err := adminID(c)
	if err != nil {
		return err
	}
	if _, err := h.auth.FindUser(c, id); err != nil {
		return err
	}
	list, err := h.auth.Activities(c, id, limitParam(c, 50))
	if err != nil {
		return err
	}
	return ok(c, list)
}

func (h *Admin) movies(c internal.Context) error {
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

func (h *Admin) createMovie(c internal.Context) error {
	var in catalog.MovieInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	movie, err := h.catalog.CreateMovie(c, in)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Movie created", movie)
}

func (h *Admin) updateMovie(c internal.Context) error {
	id, err := adminID(c)
	if err != nil {
		return err
	}
	var in catalog.MovieInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	movie, err := h.catalog.UpdateMovie(c, id, in)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Movie updated", movie)
}

func (h *Admin) deleteMovie(c internal.Context) error {
	id, err := adminID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteMovie(c, id); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Movie deleted", nil)
}

type bulkImportInput struct {
	Movies []catalog.MovieInput `json:"movies" validate:"required,min=1,max=500"`
}

func (h *Admin) bulkImport(c internal.Context) error {
	var in bulkImportInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	res, err := h.catalog.BulkImport(c, in.Movies)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Import finished", res)
}

func (h *Admin) reviewStatus(c internal.Context) error {
	id, err := adminID(c)
	if err != nil {
		return err
	}
	var in statusInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	if err := h.catalog.SetReviewStatus(c, id, in.Status); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Review status updated", nil)
}

func (h *Admin) overview(c internal.Context) error {
	o, err := h.catalog.Overview(c)
	if err != nil {
		return err
	}
	return ok(c, o)
}

// daysParam reads the reporting window, 30 days by default.
func daysParam(c internal.Context) int {
	days := internal.QueryDefault(c, "days", 30)
	if days < 1 || days > 365 {
		return 30
	}
	return days
}

func (h *Admin) userAnalytics(c internal.Context) error {
	a, err := h.catalog.UserAnalytics(c, daysParam(c))
	if err != nil {
		return err
	}
	return ok(c, a)
}

func (h *Admin) movieAnalytics(c internal.Context) error {
	a, err := h.catalog.MovieAnalytics(c, limitParam(c, 10))
	if err != nil {
		return err
	}
	return ok(c, a)
}

func (h *Admin) paymentAnalytics(c internal.Context) error {
	s, err := h.payments.Summary(c)
	if err != nil {
		return err
	}
	return ok(c, s)
}

func (h *Admin) engagement(c internal.Context) error {
	e, err := h.catalog.Engagement(c, daysParam(c))
	if err != nil {
		return err
	}
	return ok(c, e)
}

func (h *Admin) settings(c internal.Context) error {
	s, err := h.catalog.Settings(c)
	if err != nil {
		return err
	}
	return ok(c, s)
}

type settingsInput struct {
	Settings map[string]string `json:"settings" validate:"required,min=1"`
}

func (h *Admin) updateSettings(c internal.Context) error {
	var in settingsInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	if err := h.catalog.UpdateSettings(c, in.Settings); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Settings updated", nil)
}

func (h *Admin) clearCache(c internal.Context) error {
	if err := h.catalog.ClearCache(c); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Cache cleared", nil)
}
