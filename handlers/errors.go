package handlers

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
	"github.com/dmitrymomot/cineverse/pkg/payment"
	"github.com/dmitrymomot/cineverse/pkg/query"
	"github.com/dmitrymomot/cineverse/pkg/storage"
)

var errUnsupported = errors.New("handlers: handled by an external service")

// MapError translates service errors into HTTP errors. It is registered
// with the error handler and the logging middleware.
func MapError(err error) *internal.HTTPError {
	for _, m := range errorMap {
		if errors.Is(err, m.target) {
			return internal.NewHTTPError(m.code, m.message, internal.WithError(err))
		}
	}
	return nil
}

var errorMap = []struct {
	target  error
	message string
	code    int
}{
	{auth.ErrInvalidCredentials, "Invalid credentials", http.StatusUnauthorized},
	{auth.ErrAccountLocked, "Account is temporarily locked due to too many failed login attempts", http.StatusLocked},
	{auth.ErrAccountInactive, "Account is not active", http.StatusForbidden},
	{auth.ErrInvalidToken, "Invalid or expired token", http.StatusUnauthorized},
	{auth.ErrUserNotFound, "User not found", http.StatusNotFound},
	{auth.ErrEmailVerified, "Email already verified", http.StatusConflict},
	{auth.ErrWrongPassword, "Current password is incorrect", http.StatusUnprocessableEntity},

	{catalog.ErrMovieNotFound, "Movie not found", http.StatusNotFound},
	{catalog.ErrGenreNotFound, "Genre not found", http.StatusNotFound},
	{catalog.ErrReviewNotFound, "Review not found", http.StatusNotFound},
	{catalog.ErrSettingMissing, "Setting not found", http.StatusNotFound},
	{catalog.ErrInvalidEvent, "Invalid analytics event", http.StatusUnprocessableEntity},

	{payment.ErrUnknownPlan, "Unknown subscription plan", http.StatusUnprocessableEntity},
	{payment.ErrProviderUnavailable, "Payment method is not available", http.StatusServiceUnavailable},
	{payment.ErrPaymentFailed, "Payment request failed", http.StatusBadGateway},
	{payment.ErrTransactionNotFound, "Transaction not found", http.StatusNotFound},
	{payment.ErrNoSubscription, "No active subscription", http.StatusNotFound},
	{payment.ErrInvalidCallback, "Invalid callback payload", http.StatusBadRequest},

	{storage.ErrEmptyFile, "The file is empty", http.StatusUnprocessableEntity},
	{storage.ErrFileTooLarge, "The file is too large", http.StatusUnprocessableEntity},
	{storage.ErrInvalidMIME, "The file must be a JPEG, PNG, GIF or WebP image", http.StatusUnprocessableEntity},

	{query.ErrNoRows, "Resource not found", http.StatusNotFound},
	{errUnsupported, "This feature is provided by an external service", http.StatusNotImplemented},
}
