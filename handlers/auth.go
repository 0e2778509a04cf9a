package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
	"github.com/dmitrymomot/cineverse/pkg/auth"
)

// Auth serves the token-based account endpoints under /auth.
type Auth struct {
	auth *auth.Manager
}

func NewAuth(m *auth.Manager) *Auth {
	return &Auth{auth: m}
}

func (h *Auth) Routes(r *internal.Router) {
	r.Route("/auth", func(r *internal.Router) {
		r.POST("/register", h.register)
		r.POST("/login", h.login)
		r.POST("/forgot-password", h.forgotPassword)
		r.POST("/reset-password", h.resetPassword)
		r.POST("/verify-email", h.verifyEmail)
		r.Group(internal.GroupAttrs{Middleware: []string{"auth"}}, func(r *internal.Router) {
			r.POST("/logout", h.logout)
			r.POST("/refresh", h.refresh)
			r.GET("/me", h.me)
		})
	})
}

// tokenResponse is the body of endpoints that issue an access token.
type tokenResponse struct {
	User      *auth.User `json:"user,omitempty"`
	Token     string     `json:"token"`
	TokenType string     `json:"token_type"`
	ExpiresIn int        `json:"expires_in"`
}

func (h *Auth) issued(user *auth.User, token string) tokenResponse {
	return tokenResponse{
		User:      user,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(h.auth.Tokens().Expiry().Seconds()),
	}
}

func (h *Auth) register(c internal.Context) error {
	var in auth.RegisterInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	in.IP, in.UserAgent = c.Request().ClientIP(), c.Request().UserAgent()

	user, err := h.auth.Register(c, in)
	if err != nil {
		return err
	}
	if _, err := h.auth.IssueEmailVerification(c, user); err != nil {
		c.LogWarn("verification email not sent", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}

	token, _, err := h.auth.Tokens().Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Registration successful", h.issued(user, token))
}

func (h *Auth) login(c internal.Context) error {
	var in auth.LoginInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	in.IP, in.UserAgent = c.Request().ClientIP(), c.Request().UserAgent()
	// Remember-me is a browser feature; API clients keep their token.
	in.Remember = false

	res, err := h.auth.Login(c, in)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Login successful", h.issued(res.User, res.Token))
}

func (h *Auth) logout(c internal.Context) error {
	id := middlewares.GetIdentity(c)
	in := auth.LogoutInput{Claims: id.Claims, IP: c.Request().ClientIP(), UserAgent: c.Request().UserAgent()}
	if id.Claims == nil {
		if sess, err := c.Session(); err == nil {
			in.Session = sess
		}
	}
	if err := h.auth.Logout(c, in); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *Auth) refresh(c internal.Context) error {
	id := middlewares.GetIdentity(c)
	if id.Claims == nil {
		return internal.ErrBadRequest("A bearer token is required")
	}
	token, _, err := h.auth.Refresh(c, id.Claims)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Token refreshed", h.issued(nil, token))
}

func (h *Auth) me(c internal.Context) error {
	user, err := h.auth.FindUser(c, userID(c))
	if err != nil {
		return err
	}
	return ok(c, user)
}

type emailInput struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Auth) forgotPassword(c internal.Context) error {
	var in emailInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	msg, err := h.auth.RequestPasswordReset(c, in.Email, c.Request().ClientIP(), c.Request().UserAgent())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, msg, nil)
}

func (h *Auth) resetPassword(c internal.Context) error {
	var in auth.ResetPasswordInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	in.IP, in.UserAgent = c.Request().ClientIP(), c.Request().UserAgent()

	err := h.auth.ResetPassword(c, in)
	if errors.Is(err, auth.ErrInvalidToken) {
		return internal.ErrBadRequest("Invalid or expired reset token", internal.WithError(err))
	}
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Password has been reset successfully", nil)
}

type tokenInput struct {
	Token string `json:"token" validate:"required"`
}

func (h *Auth) verifyEmail(c internal.Context) error {
	var in tokenInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	user, err := h.auth.VerifyEmail(c, in.Token)
	if errors.Is(err, auth.ErrInvalidToken) {
		return internal.ErrBadRequest("Invalid or expired verification token", internal.WithError(err))
	}
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Email verified successfully", user)
}
