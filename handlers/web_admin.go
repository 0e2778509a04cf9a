package handlers

import (
	"net/http"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/auth"
)

func (h *Web) adminDashboard(c internal.Context) error {
	overview, err := h.catalog.Overview(c)
	if err != nil {
		return err
	}
	payments, err := h.payments.Summary(c)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "admin", "Admin", map[string]any{
		"overview": overview,
		"payments": payments,
	})
}

func (h *Web) adminUsers(c internal.Context) error {
	var q userQuery
	if err := c.BindQuery(&q); err != nil {
		return err
	}
	page, perPage := pageParams(c)
	p, err := h.auth.ListUsers(c, auth.UserFilter{Search: q.Search, Role: q.Role, Status: q.Status}, page, perPage)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "admin-users", "Users", p)
}

func (h *Web) adminUser(c internal.Context) error {
	id, err := adminID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.FindUser(c, id)
	if err != nil {
		return err
	}
	activities, err := h.auth.Activities(c, id, 20)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "admin-user", user.Username, map[string]any{
		"user":       user,
		"activities": activities,
	})
}

func (h *Web) adminUserStatus(c internal.Context) error {
	id, err := adminID(c)
	if err != nil {
		return err
	}
	target := "/admin/users/" + c.Param("id")
	var in statusInput
	if err := c.Bind(&in); err != nil {
		return fail(c, target, err)
	}
	if id == userID(c) && in.Status != auth.StatusActive {
		return fail(c, target, internal.ErrUnprocessable("You cannot deactivate your own account."))
	}
	if err := h.auth.SetStatus(c, id, in.Status); err != nil {
		return fail(c, target, err)
	}
	return redirect(c, target, "flash.user_status_updated")
}

func (h *Web) adminMovies(c internal.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return err
	}
	p, err := h.catalog.List(c, f)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "admin-movies", "Movies", p)
}

func (h *Web) adminMovie(c internal.Context) error {
	id, err := adminID(c)
	if err != nil {
		return err
	}
	movie, err := h.catalog.Find(c, id)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "admin-movie", movie.Title, movie)
}

func (h *Web) adminAnalytics(c internal.Context) error {
	users, err := h.catalog.UserAnalytics(c, daysParam(c))
	if err != nil {
		return err
	}
	movies, err := h.catalog.MovieAnalytics(c, 10)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "admin-analytics", "Analytics", map[string]any{
		"users":  users,
		"movies": movies,
	})
}

func (h *Web) adminSettings(c internal.Context) error {
	settings, err := h.catalog.Settings(c)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, "admin-settings", "Settings", settings)
}

func (h *Web) adminUpdateSettings(c internal.Context) error {
	current, err := h.catalog.Settings(c)
	if err != nil {
		return err
	}
	values := make(map[string]string, len(current))
	for name := range current {
		if c.Request().Has(name) {
			values[name] = c.Input(name)
		}
	}
	if len(values) > 0 {
		if err := h.catalog.UpdateSettings(c, values); err != nil {
			return fail(c, "/admin/settings", err)
		}
	}
	return redirect(c, "/admin/settings", "flash.settings_saved")
}
