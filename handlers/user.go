package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
	"github.com/dmitrymomot/cineverse/pkg/storage"
)

// User serves the signed-in user's account under /user.
type User struct {
	auth    *auth.Manager
	catalog *catalog.Service
	storage storage.Storage
}

func NewUser(m *auth.Manager, c *catalog.Service, s storage.Storage) *User {
	return &User{auth: m, catalog: c, storage: s}
}

func (h *User) Routes(r *internal.Router) {
	r.Group(internal.GroupAttrs{Prefix: "/user", Middleware: []string{"auth"}}, func(r *internal.Router) {
		r.GET("/profile", h.profile)
		r.PUT("/profile", h.updateProfile)
		r.POST("/avatar", h.avatar)
		r.PUT("/password", h.changePassword)
		r.GET("/watchlist", h.watchlist)
		r.GET("/activities", h.activities)
		r.GET("/statistics", h.statistics)
	})
}

func (h *User) profile(c internal.Context) error {
	user, err := h.auth.FindUser(c, userID(c))
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (h *User) updateProfile(c internal.Context) error {
	var in auth.ProfileInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	user, err := h.auth.UpdateProfile(c, userID(c), in)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Profile updated successfully", user)
}

func (h *User) avatar(c internal.Context) error {
	id := userID(c)
	user, err := h.auth.FindUser(c, id)
	if err != nil {
		return err
	}

	info, err := storage.PutImage(c, h.storage, c.Request().File("avatar"), "avatars", storage.DefaultMaxImageSize)
	if err != nil {
		return err
	}
	if err := h.auth.SetAvatar(c, id, info.URL); err != nil {
		return err
	}

	if user.Avatar != nil {
		if key := storage.KeyFromURL(h.storage, *user.Avatar); key != "" {
			if err := h.storage.Delete(c, key); err != nil {
				c.LogWarn("old avatar not deleted", slog.String("key", key), slog.Any("error", err))
			}
		}
	}
	return success(c, http.StatusOK, "Avatar updated successfully", map[string]string{"avatar": info.URL})
}

type passwordInput struct {
	Current  string `json:"current_password" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *User) changePassword(c internal.Context) error {
	var in passwordInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c, userID(c), in.Current, in.Password); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Password changed successfully", nil)
}

func (h *User) watchlist(c internal.Context) error {
	page, perPage := pageParams(c)
	p, err := h.catalog.Watchlist(c, userID(c), page, perPage)
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *User) activities(c internal.Context) error {
	list, err := h.auth.Activities(c, userID(c), limitParam(c, 50))
	if err != nil {
		return err
	}
	return ok(c, list)
}

func (h *User) statistics(c internal.Context) error {
	stats, err := h.catalog.Statistics(c, userID(c))
	if err != nil {
		return err
	}
	return ok(c, stats)
}
