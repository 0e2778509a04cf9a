package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
)

// view is the data every page template receives.
type view struct {
	Data     any
	User     *middlewares.Identity
	Title    string
	Lang     string
	CSRF     string
	Success  string
	Error    string
	Path     string
	Langs    []string
	CSRFName string
}

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if .Title}}{{.Title}} | {{end}}CineVerse</title>
</head>
<body>
<header>
<nav>
<a href="/">CineVerse</a>
<a href="/movies">Movies</a>
<a href="/movies/search">Search</a>
{{if .User}}<a href="/dashboard">Dashboard</a>
<a href="/payment/plans">Plans</a>
{{if .User.IsAdmin}}<a href="/admin">Admin</a>{{end}}
<form method="post" action="/auth/logout" class="inline">{{template "csrf" .}}<button type="submit">Log out</button></form>
{{else}}<a href="/auth/login">Log in</a>
<a href="/auth/register">Register</a>{{end}}
{{range .Langs}}<a href="/lang/{{.}}">{{upper .}}</a> {{end}}
</nav>
</header>
{{with .Success}}<div class="flash success">{{.}}</div>{{end}}
{{with .Error}}<div class="flash error">{{.}}</div>{{end}}
<main>
{{template "content" .}}
</main>
<footer>
<a href="/about">About</a> <a href="/contact">Contact</a> <a href="/help">Help</a>
<a href="/privacy">Privacy</a> <a href="/terms">Terms</a>
</footer>
</body>
</html>{{end}}
{{define "csrf"}}<input type="hidden" name="{{.CSRFName}}" value="{{.CSRF}}">{{end}}
{{define "movies"}}<ul class="movies">{{range .}}<li><a href="/movies/{{.ID}}">{{.Title}}</a>{{with .Year}} ({{.}}){{end}} <span>{{printf "%.1f" .VoteAverage}}</span></li>{{else}}<li>No movies found.</li>{{end}}</ul>{{end}}
{{define "pager"}}{{if gt .LastPage 1}}<p class="pager">Page {{.CurrentPage}} of {{.LastPage}}
{{if gt .CurrentPage 1}}<a href="?page={{dec .CurrentPage}}">Previous</a>{{end}}
{{if lt .CurrentPage .LastPage}}<a href="?page={{inc .CurrentPage}}">Next</a>{{end}}</p>{{end}}{{end}}`

var pageSources = map[string]string{
	"home": `{{define "content"}}<h1>Welcome to CineVerse</h1>
<h2>Featured</h2>{{template "movies" .Data.featured}}
<h2>Trending</h2>{{template "movies" .Data.trending}}
<h2>Genres</h2><ul>{{range .Data.genres}}<li><a href="/movies/genre/{{.Slug}}">{{.Name}}</a></li>{{end}}</ul>{{end}}`,

	"login": `{{define "content"}}<h1>Log in</h1>
<form method="post" action="/auth/login">{{template "csrf" .}}
<label>Username or email <input name="identifier" required></label>
<label>Password <input type="password" name="password" required></label>
<label><input type="checkbox" name="remember" value="true"> Remember me</label>
<button type="submit">Log in</button>
</form>
<p><a href="/auth/forgot-password">Forgot your password?</a></p>{{end}}`,

	"register": `{{define "content"}}<h1>Create an account</h1>
<form method="post" action="/auth/register">{{template "csrf" .}}
<label>Username <input name="username" required></label>
<label>Email <input type="email" name="email" required></label>
<label>First name <input name="first_name"></label>
<label>Last name <input name="last_name"></label>
<label>Phone <input name="phone"></label>
<label>Password <input type="password" name="password" required></label>
<button type="submit">Register</button>
</form>{{end}}`,

	"forgot": `{{define "content"}}<h1>Forgot password</h1>
<form method="post" action="/auth/forgot-password">{{template "csrf" .}}
<label>Email <input type="email" name="email" required></label>
<button type="submit">Send reset link</button>
</form>{{end}}`,

	"reset": `{{define "content"}}<h1>Choose a new password</h1>
<form method="post" action="/auth/reset-password">{{template "csrf" .}}
<input type="hidden" name="token" value="{{.Data}}">
<label>New password <input type="password" name="password" required></label>
<button type="submit">Reset password</button>
</form>{{end}}`,

	"dashboard": `{{define "content"}}<h1>Hello, {{.Data.user.FirstName}}</h1>
<ul>
<li>Watchlist: {{.Data.stats.WatchlistCount}}</li>
<li>Ratings: {{.Data.stats.RatingsCount}}</li>
<li>Reviews: {{.Data.stats.ReviewsCount}}</li>
</ul>
{{with .Data.subscription}}<p>Plan: {{.Plan}} until {{.EndsAt.Format "2006-01-02"}}</p>{{else}}<p><a href="/payment/plans">Choose a plan</a></p>{{end}}
{{if not .Data.user.EmailVerifiedAt}}<form method="post" action="/auth/resend-verification">{{template "csrf" .}}<button type="submit">Resend verification email</button></form>{{end}}
<h2>Recent activity</h2><ul>{{range .Data.activities}}<li>{{.CreatedAt.Format "2006-01-02 15:04"}} {{.Description}}</li>{{end}}</ul>
<p><a href="/dashboard/profile">Profile</a> <a href="/dashboard/watchlist">Watchlist</a> <a href="/dashboard/settings">Settings</a></p>{{end}}`,

	"profile": `{{define "content"}}<h1>Profile</h1>
<form method="post" action="/dashboard/profile">{{template "csrf" .}}
<label>First name <input name="first_name" value="{{.Data.FirstName}}"></label>
<label>Last name <input name="last_name" value="{{.Data.LastName}}"></label>
<label>Phone <input name="phone" value="{{deref .Data.Phone}}"></label>
<label>Bio <textarea name="bio">{{deref .Data.Bio}}</textarea></label>
<label>Country <input name="country" value="{{.Data.Country}}"></label>
<button type="submit">Save</button>
</form>{{end}}`,

	"watchlist": `{{define "content"}}<h1>My watchlist</h1>{{template "movies" .Data.Data}}{{template "pager" .Data}}{{end}}`,

	"settings": `{{define "content"}}<h1>Settings</h1>
<form method="post" action="/dashboard/settings">{{template "csrf" .}}
<label>Language <select name="language">{{$cur := .Data.Language}}{{range $.Langs}}<option value="{{.}}"{{if eq . $cur}} selected{{end}}>{{upper .}}</option>{{end}}</select></label>
<h2>Change password</h2>
<label>Current password <input type="password" name="current_password"></label>
<label>New password <input type="password" name="password"></label>
<button type="submit">Save</button>
</form>{{end}}`,

	"movies": `{{define "content"}}<h1>{{.Title}}</h1>
<form method="get" action="/movies/search"><input name="q" value="{{.Data.query}}" placeholder="Search movies"><button type="submit">Search</button></form>
{{with .Data.page}}{{template "movies" .Data}}{{template "pager" .}}{{end}}{{end}}`,

	"movie": `{{define "content"}}{{with .Data.movie}}<h1>{{.Title}}</h1>
{{with .Tagline}}<p><em>{{.}}</em></p>{{end}}
<p>{{.Overview}}</p>
<p>{{.ReleaseDate}} {{if .Runtime}}{{.Runtime}} min{{end}} {{range .Genres}}<a href="/movies/genre/{{.Slug}}">{{.Name}}</a> {{end}}</p>{{end}}
<p>Rating: {{printf "%.1f" .Data.ratings.Average}} ({{.Data.ratings.Count}})</p>
{{if .User}}<form method="post" action="/movies/{{.Data.movie.ID}}/watchlist">{{template "csrf" .}}<button type="submit">{{if .Data.in_watchlist}}In your watchlist{{else}}Add to watchlist{{end}}</button></form>
<form method="post" action="/movies/{{.Data.movie.ID}}/rating">{{template "csrf" .}}<input type="number" name="rating" min="1" max="10"><button type="submit">Rate</button></form>
<form method="post" action="/movies/{{.Data.movie.ID}}/review">{{template "csrf" .}}<input name="title" placeholder="Title"><textarea name="content" required></textarea><button type="submit">Post review</button></form>{{end}}
<h2>Reviews</h2><ul>{{range .Data.reviews.Data}}<li><strong>{{.Username}}</strong> {{.Title}}<p>{{.Content}}</p></li>{{else}}<li>No reviews yet.</li>{{end}}</ul>
<h2>Similar</h2>{{template "movies" .Data.similar}}{{end}}`,

	"plans": `{{define "content"}}<h1>Plans</h1>
{{range .Data}}<section><h2>{{.Name}}</h2><p>{{.Description}}</p><p>{{.Amount}} RWF / {{.Days}} days</p>
<form method="post" action="/payment/subscribe">{{template "csrf" $}}
<input type="hidden" name="plan" value="{{.ID}}">
<select name="payment_method"><option value="mtn">MTN Mobile Money</option><option value="airtel">Airtel Money</option></select>
<input name="phone" placeholder="07XXXXXXXX" required>
<button type="submit">Subscribe</button></form></section>{{end}}{{end}}`,

	"payment-status": `{{define "content"}}<h1>{{.Title}}</h1><p>{{.Data}}</p><p><a href="/dashboard">Back to dashboard</a></p>{{end}}`,

	"admin": `{{define "content"}}<h1>Admin</h1>
{{with .Data.overview}}<ul><li>Users: {{.Users}} ({{.ActiveUsers}} active)</li><li>Movies: {{.Movies}}</li><li>Reviews: {{.Reviews}}</li><li>Page views: {{.PageViews}}</li></ul>{{end}}
{{with .Data.payments}}<p>Revenue: {{.Revenue}} RWF</p>{{end}}
<p><a href="/admin/users">Users</a> <a href="/admin/movies">Movies</a> <a href="/admin/analytics">Analytics</a> <a href="/admin/settings">Settings</a></p>{{end}}`,

	"admin-users": `{{define "content"}}<h1>Users</h1>
<table><tr><th>ID</th><th>Username</th><th>Email</th><th>Role</th><th>Status</th></tr>
{{range .Data.Data}}<tr><td>{{index . "id"}}</td><td><a href="/admin/users/{{index . "id"}}">{{index . "username"}}</a></td><td>{{index . "email"}}</td><td>{{index . "role"}}</td><td>{{index . "status"}}</td></tr>{{end}}
</table>{{template "pager" .Data}}{{end}}`,

	"admin-user": `{{define "content"}}{{with .Data.user}}<h1>{{.Username}}</h1><p>{{.Email}} {{.Role}} {{.Status}}</p>{{end}}
<form method="post" action="/admin/users/{{.Data.user.ID}}/status">{{template "csrf" .}}
<select name="status"><option>active</option><option>inactive</option><option>suspended</option><option>banned</option></select>
<button type="submit">Update status</button></form>
<h2>Activity</h2><ul>{{range .Data.activities}}<li>{{.CreatedAt.Format "2006-01-02 15:04"}} {{.Description}} {{.IP}}</li>{{end}}</ul>{{end}}`,

	"admin-movies": `{{define "content"}}<h1>Movies</h1>
<table><tr><th>ID</th><th>Title</th><th>Views</th><th>Rating</th></tr>
{{range .Data.Data}}<tr><td>{{.ID}}</td><td><a href="/admin/movies/{{.ID}}">{{.Title}}</a></td><td>{{.ViewCount}}</td><td>{{printf "%.1f" .VoteAverage}}</td></tr>{{end}}
</table>{{template "pager" .Data}}{{end}}`,

	"admin-movie": `{{define "content"}}{{with .Data}}<h1>{{.Title}}</h1><p>{{.Overview}}</p>
<p>Status {{.Status}}, views {{.ViewCount}}, featured {{.IsFeatured}}</p>{{end}}{{end}}`,

	"admin-analytics": `{{define "content"}}<h1>Analytics</h1>
<h2>Top viewed</h2><ul>{{range .Data.movies.MostViewed}}<li>{{.Title}}: {{.Count}}</li>{{end}}</ul>
<h2>Registrations</h2><ul>{{range .Data.users.Registrations}}<li>{{.Date}}: {{.Count}}</li>{{end}}</ul>{{end}}`,

	"admin-settings": `{{define "content"}}<h1>Settings</h1>
<form method="post" action="/admin/settings">{{template "csrf" .}}
{{range $k, $v := .Data}}<label>{{$k}} <input name="{{$k}}" value="{{$v}}"></label>{{end}}
<button type="submit">Save</button></form>{{end}}`,

	"static": `{{define "content"}}<h1>{{.Title}}</h1>{{range .Data}}<p>{{.}}</p>{{end}}{{end}}`,

	"contact": `{{define "content"}}<h1>Contact us</h1>
<form method="post" action="/contact">{{template "csrf" .}}
<label>Name <input name="name" required></label>
<label>Email <input type="email" name="email" required></label>
<label>Message <textarea name="message" required></textarea></label>
<button type="submit">Send</button></form>{{end}}`,

	"app": `{{define "content"}}<div id="app" data-path="{{.Path}}"></div>{{end}}`,
}

var pageFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"inc":   func(n int) int { return n + 1 },
	"dec":   func(n int) int { return n - 1 },
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

var pages = parsePages()

func parsePages() map[string]*template.Template {
	base := template.Must(template.New("layout").Funcs(pageFuncs).Parse(layoutTemplate))
	out := make(map[string]*template.Template, len(pageSources))
	for name, src := range pageSources {
		out[name] = template.Must(template.Must(base.Clone()).Parse(src))
	}
	return out
}

// render executes the named page inside the layout.
func (h *Web) render(c internal.Context, code int, name, title string, data any) error {
	tpl, ok := pages[name]
	if !ok {
		return fmt.Errorf("handlers: unknown page %q", name)
	}
	v := view{
		Data:     data,
		User:     middlewares.CurrentIdentity(c),
		Title:    title,
		Lang:     c.Language(),
		Path:     c.Request().Path(),
		Langs:    h.langs.Supported(),
		CSRFName: middlewares.DefaultCSRFField,
	}
	if sess, err := c.StartSession(); err == nil {
		v.CSRF = sess.CSRFToken()
		v.Success = sess.FlashString("success")
		v.Error = sess.FlashString("error")
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("handlers: render %s: %w", name, err)
	}
	return c.HTML(code, buf.String())
}
