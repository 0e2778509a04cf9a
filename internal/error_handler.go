package internal

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/cineverse/pkg/validator"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Errors     map[string][]string `json:"errors,omitempty"`
	Message    string              `json:"message"`
	StatusCode int                 `json:"status_code"`
	Error      bool                `json:"error"`
}

// ErrorMapper translates a domain error into an HTTPError, or returns nil
// when it does not recognize err.
type ErrorMapper func(err error) *HTTPError

// DefaultErrorHandler renders HTTPErrors with their own status and every
// other error as a 500. In debug mode the 500 message is the error text;
// otherwise it is generic. Validation errors render the 422 envelope.
// Mappers are consulted, in order, for errors that are neither.
func DefaultErrorHandler(debug bool, mappers ...ErrorMapper) ErrorHandler {
	return func(c Context, err error) error {
		TranslateError(c, err)
		herr := ResolveError(err, debug, mappers...)
		if herr.Code >= http.StatusInternalServerError {
			c.LogError("request failed",
				slog.Int("status", herr.Code),
				slog.String("path", c.Request().Path()),
				slog.Any("error", err),
			)
		}

		if c.WantsJSON() {
			body := ErrorBody{
				Error:      true,
				Message:    herr.Message,
				StatusCode: herr.Code,
				Errors:     herr.Fields,
			}
			return c.JSON(herr.Code, body)
		}
		return c.HTML(herr.Code, ErrorPage(herr))
	}
}

// TranslateError rewrites the messages of validation errors inside err
// into the request language. It is a no-op without a translator.
func TranslateError(c Context, err error) {
	tr := translator(c)
	if tr == nil {
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		verrs.Translate(tr.TranslateMessage)
	}
}

// ResolveError converts err into the HTTPError that will be rendered.
func ResolveError(err error, debug bool, mappers ...ErrorMapper) *HTTPError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return ErrValidation(verrs.Fields(), WithError(err))
	}
	if herr := AsHTTPError(err); herr != nil {
		return herr
	}
	for _, m := range mappers {
		if herr := m(err); herr != nil {
			return herr
		}
	}
	msg := "Internal Server Error"
	if debug {
		msg = err.Error()
	}
	return ErrInternal(msg, WithError(err))
}

// ErrorPage renders a minimal HTML error page.
func ErrorPage(e *HTTPError) string {
	title := e.Title
	if title == "" {
		title = e.StatusText()
	}
	var fields string
	for name, msgs := range e.Fields {
		for _, m := range msgs {
			fields += fmt.Sprintf("<li><strong>%s</strong>: %s</li>", html.EscapeString(name), html.EscapeString(m))
		}
	}
	if fields != "" {
		fields = "<ul>" + fields + "</ul>"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%d %s</title></head>
<body>
<h1>%d %s</h1>
<p>%s</p>%s
<p><a href="/">Back to home</a></p>
</body>
</html>
`, e.Code, html.EscapeString(title), e.Code, html.EscapeString(title), html.EscapeString(e.Message), fields)
}
