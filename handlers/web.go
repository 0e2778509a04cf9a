package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
	"github.com/dmitrymomot/cineverse/pkg/i18n"
	"github.com/dmitrymomot/cineverse/pkg/payment"
)

// RememberCookie holds the remember-me token of web logins.
const RememberCookie = "remember_web"

// Web serves the server-rendered site.
type Web struct {
	auth     *auth.Manager
	catalog  *catalog.Service
	payments *payment.Service
	langs    *i18n.Languages
	baseURL  string
}

// WebConfig carries the services and settings of the web handler.
type WebConfig struct {
	Auth      *auth.Manager
	Catalog   *catalog.Service
	Payments  *payment.Service
	Languages *i18n.Languages
	BaseURL   string
}

func NewWeb(cfg WebConfig) *Web {
	return &Web{
		auth:     cfg.Auth,
		catalog:  cfg.Catalog,
		payments: cfg.Payments,
		langs:    cfg.Languages,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

func (h *Web) Routes(r *internal.Router) {
	id := internal.Where("id", idPattern)
	csrf := internal.With("csrf")

	r.GET("/", h.home, internal.Name("home"))
	r.GET("/health", h.health)
	r.GET("/robots.txt", h.robots)
	r.GET("/sitemap.xml", h.sitemap)
	r.GET("/lang/{language}", h.language)

	r.Route("/auth", func(r *internal.Router) {
		r.Group(internal.GroupAttrs{Middleware: []string{"guest"}}, func(r *internal.Router) {
			r.GET("/register", h.registerPage)
			r.POST("/register", h.register, csrf)
			r.GET("/login", h.loginPage, internal.Name("login"))
			r.POST("/login", h.login, csrf)
			r.GET("/forgot-password", h.forgotPage)
			r.POST("/forgot-password", h.forgot, csrf)
			r.GET("/reset-password/{token}", h.resetPage)
			r.POST("/reset-password", h.reset, csrf)
		})
		r.GET("/verify-email/{token}", h.verifyEmail)
		r.Group(internal.GroupAttrs{Middleware: []string{"auth"}}, func(r *internal.Router) {
			r.POST("/logout", h.logout, csrf)
			r.POST("/resend-verification", h.resendVerification, csrf)
		})
	})

	r.Group(internal.GroupAttrs{Prefix: "/dashboard", Middleware: []string{"auth"}}, func(r *internal.Router) {
		r.GET("", h.dashboard, internal.Name("dashboard"))
		r.GET("/profile", h.profilePage)
		r.POST("/profile", h.updateProfile, csrf)
		r.GET("/watchlist", h.watchlistPage)
		r.GET("/settings", h.settingsPage)
		r.POST("/settings", h.updateSettings, csrf)
	})

	r.Route("/movies", func(r *internal.Router) {
		r.GET("", h.moviesPage)
		r.GET("/search", h.searchPage)
		r.GET("/genre/{slug}", h.genrePage)
		r.GET("/{id}", h.moviePage, id)
		r.Group(internal.GroupAttrs{Middleware: []string{"auth", "csrf"}}, func(r *internal.Router) {
			r.POST("/{id}/watchlist", h.addToWatchlist, id)
			r.DELETE("/{id}/watchlist", h.removeFromWatchlist, id)
			r.POST("/{id}/rating", h.rate, id)
			r.POST("/{id}/review", h.review, id)
		})
	})

	r.Group(internal.GroupAttrs{Prefix: "/payment", Middleware: []string{"auth"}}, func(r *internal.Router) {
		r.GET("/plans", h.plansPage)
		r.POST("/subscribe", h.subscribe, csrf)
		r.GET("/success", h.paymentSuccess)
		r.GET("/cancel", h.paymentCancel)
	})

	r.Group(internal.GroupAttrs{Prefix: "/admin", Middleware: []string{"auth", "admin"}}, func(r *internal.Router) {
		r.GET("", h.adminDashboard)
		r.GET("/users", h.adminUsers)
		r.GET("/users/{id}", h.adminUser, id)
		r.POST("/users/{id}/status", h.adminUserStatus, id, csrf)
		r.GET("/movies", h.adminMovies)
		r.POST("/movies/sync", h.unsupported, csrf)
		r.GET("/movies/{id}", h.adminMovie, id)
		r.GET("/analytics", h.adminAnalytics)
		r.GET("/settings", h.adminSettings)
		r.POST("/settings", h.adminUpdateSettings, csrf)
		r.GET("/translations", h.unsupported)
	})

	for path, p := range staticPages {
		r.GET(path, h.static(p))
	}
	r.GET("/contact", h.contactPage)
	r.POST("/contact", h.contact, csrf)

	// Registered last: everything else is handed to the client-side app.
	r.GET("/{path}", h.fallback, internal.Where("path", `.*`))
}

// flash stores a one-shot message for the next page. message may be a
// catalog key such as "flash.settings_saved"; it is translated into the
// request language, and plain text passes through.
func flash(c internal.Context, kind, message string) {
	if sess, err := c.StartSession(); err == nil {
		sess.SetFlash(kind, c.T(message))
	}
}

// redirect flashes a success message and redirects.
func redirect(c internal.Context, target, message string) error {
	if message != "" {
		flash(c, "success", message)
	}
	return c.Redirect(http.StatusFound, target)
}

// fail flashes the user-facing message of err and redirects to target.
// Server errors are returned to the error handler instead.
func fail(c internal.Context, target string, err error) error {
	internal.TranslateError(c, err)
	herr := internal.ResolveError(err, false, MapError)
	if herr.Code >= http.StatusInternalServerError {
		return err
	}
	msg := herr.Message
	if len(herr.Fields) > 0 {
		var parts []string
		for _, msgs := range herr.Fields {
			parts = append(parts, msgs...)
		}
		msg = strings.Join(parts, " ")
	}
	flash(c, "error", msg)
	return c.Redirect(http.StatusFound, target)
}

// back returns the local path of the referrer, or fallback.
func back(c internal.Context, fallback string) string {
	u, err := url.Parse(c.Request().Referrer())
	if err != nil || u.Path == "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

func currentUserID(c internal.Context) int64 {
	if id := middlewares.CurrentIdentity(c); id != nil {
		return id.UserID
	}
	return 0
}

func (h *Web) unsupported(internal.Context) error {
	return errUnsupported
}

func (h *Web) home(c internal.Context) error {
	featured, err := h.catalog.Featured(c, 6)
	if err != nil {
		return err
	}
	trending, err := h.catalog.Trending(c, 12)
	if err != nil {
		return err
	}
	genres, err := h.catalog.Genres(c)
	if err != nil {
		return err
	}
	data := map[string]any{"featured": featured, "trending": trending, "genres": genres}
	if c.Request().ExpectsJSON() {
		return c.JSON(http.StatusOK, data)
	}
	return h.render(c, http.StatusOK, "home", "", data)
}

func (h *Web) health(c internal.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": now(),
		"version":   Version,
	})
}

// language stores a supported language in the session and goes back.
func (h *Web) language(c internal.Context) error {
	lang := c.Param("language")
	if h.langs.Supports(lang) {
		sess, err := c.StartSession()
		if err != nil {
			return err
		}
		sess.SetValue(middlewares.SessionLanguageKey, h.langs.Resolve(lang))
	}
	return c.Redirect(http.StatusFound, back(c, "/"))
}

type staticPage struct {
	title string
	body  []string
}

var staticPages = map[string]staticPage{
	"/about": {"About CineVerse", []string{
		"CineVerse is a movie discovery platform for Rwanda and beyond.",
		"Browse trending titles, keep a watchlist and share your reviews.",
	}},
	"/privacy": {"Privacy Policy", []string{
		"We store the account details you give us and the activity needed to run the service.",
		"Payment details are handled by the mobile money operator you choose.",
	}},
	"/terms": {"Terms of Service", []string{
		"By using CineVerse you agree to use it lawfully and to keep your account secure.",
		"Subscriptions run for the period of the purchased plan and are not refunded.",
	}},
	"/help": {"Help", []string{
		"Forgot your password? Use the reset link on the login page.",
		"Payments are confirmed on your phone. Your plan starts as soon as the operator confirms.",
	}},
}

func (h *Web) static(p staticPage) internal.HandlerFunc {
	return func(c internal.Context) error {
		return h.render(c, http.StatusOK, "static", p.title, p.body)
	}
}

func (h *Web) contactPage(c internal.Context) error {
	return h.render(c, http.StatusOK, "contact", "Contact", nil)
}

type contactInput struct {
	Name    string `form:"name" validate:"required,max=100"`
	Email   string `form:"email" validate:"required,email"`
	Message string `form:"message" validate:"required,min=10,max=2000"`
}

func (h *Web) contact(c internal.Context) error {
	var in contactInput
	if err := c.Bind(&in); err != nil {
		return fail(c, "/contact", err)
	}
	err := h.catalog.RecordEvent(c, catalog.Event{
		Type:       "contact_message",
		Properties: map[string]any{"name": in.Name, "email": in.Email, "message": in.Message},
		PageURL:    c.Request().Path(),
		IP:         c.Request().ClientIP(),
		UserAgent:  c.Request().UserAgent(),
	})
	if err != nil {
		return err
	}
	return redirect(c, "/contact", "flash.contact_sent")
}

func (h *Web) robots(c internal.Context) error {
	body := fmt.Sprintf("User-agent: *\nDisallow: /admin\nDisallow: /dashboard\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", h.baseURL)
	return c.String(http.StatusOK, body)
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapMovies bounds the movie entries of the sitemap.
const sitemapMovies = 1000

func (h *Web) sitemap(c internal.Context) error {
	set := sitemapSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	add := func(path, freq, priority string) {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.baseURL + path, ChangeFreq: freq, Priority: priority})
	}
	add("/", "daily", "1.0")
	add("/movies", "daily", "0.9")
	for _, p := range []string{"/about", "/contact", "/help", "/privacy", "/terms"} {
		add(p, "monthly", "0.3")
	}

	genres, err := h.catalog.Genres(c)
	if err != nil {
		return err
	}
	for _, g := range genres {
		add("/movies/genre/"+g.Slug, "weekly", "0.6")
	}
	movies, err := h.catalog.Popular(c, sitemapMovies)
	if err != nil {
		return err
	}
	for _, m := range movies {
		add(fmt.Sprintf("/movies/%d", m.ID), "weekly", "0.8")
	}

	b, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), b...))
}

// fallback renders the client-side app shell. Paths that look like files
// and unknown API paths are not pages.
func (h *Web) fallback(c internal.Context) error {
	path := c.Param("path")
	if strings.Contains(path, ".") || strings.HasPrefix(path, "api/") {
		return internal.ErrNotFound("Page not found")
	}
	return h.render(c, http.StatusOK, "app", "", nil)
}
