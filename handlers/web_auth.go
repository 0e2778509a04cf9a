package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/session"
)

// Flash messages of the web auth flows.
const (
	msgRegistered    = "flash.registered"
	msgPasswordReset = "flash.password_reset"
	msgEmailVerified = "flash.email_verified"
	msgVerifySent    = "flash.verification_sent"
)

func (h *Web) registerPage(c internal.Context) error {
	return h.render(c, http.StatusOK, "register", "Register", nil)
}

func (h *Web) register(c internal.Context) error {
	var in auth.RegisterInput
	if err := c.Bind(&in); err != nil {
		return fail(c, "/auth/register", err)
	}
	in.IP, in.UserAgent = c.Request().ClientIP(), c.Request().UserAgent()

	user, err := h.auth.Register(c, in)
	if err != nil {
		return fail(c, "/auth/register", err)
	}
	if _, err := h.auth.IssueEmailVerification(c, user); err != nil {
		c.LogWarn("verification email not sent", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
	return redirect(c, "/auth/login", msgRegistered)
}

func (h *Web) loginPage(c internal.Context) error {
	return h.render(c, http.StatusOK, "login", "Log in", nil)
}

func (h *Web) login(c internal.Context) error {
	var in auth.LoginInput
	if err := c.Bind(&in); err != nil {
		return fail(c, "/auth/login", err)
	}
	in.IP, in.UserAgent = c.Request().ClientIP(), c.Request().UserAgent()

	res, err := h.auth.Login(c, in)
	if err != nil {
		return fail(c, "/auth/login", err)
	}

	sess, err := c.StartSession()
	if err != nil {
		return err
	}
	intended := session.ValueOr(sess, middlewares.IntendedURLKey, "")
	sess.DeleteValue(middlewares.IntendedURLKey)

	if err := c.AuthenticateSession(strconv.FormatInt(res.User.ID, 10)); err != nil {
		return err
	}
	if sess, err = c.Session(); err != nil {
		return err
	}
	h.auth.Attach(sess, res.User)
	if res.RememberToken != "" {
		c.SetCookie(RememberCookie, res.RememberToken, int(h.auth.Config().RememberTTL.Seconds()))
	}

	if !localPath(intended) {
		intended = middlewares.DefaultHomePath
	}
	return c.Redirect(http.StatusFound, intended)
}

// localPath reports whether p is a path on this site.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}

func (h *Web) logout(c internal.Context) error {
	in := auth.LogoutInput{IP: c.Request().ClientIP(), UserAgent: c.Request().UserAgent()}
	if sess, err := c.Session(); err == nil {
		in.Session = sess
	}
	if err := h.auth.Logout(c, in); err != nil {
		return err
	}
	c.DeleteCookie(RememberCookie)
	if err := c.DestroySession(); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/")
}

func (h *Web) forgotPage(c internal.Context) error {
	return h.render(c, http.StatusOK, "forgot", "Forgot password", nil)
}

func (h *Web) forgot(c internal.Context) error {
	var in emailInput
	if err := c.Bind(&in); err != nil {
		return fail(c, "/auth/forgot-password", err)
	}
	msg, err := h.auth.RequestPasswordReset(c, in.Email, c.Request().ClientIP(), c.Request().UserAgent())
	if err != nil {
		return fail(c, "/auth/forgot-password", err)
	}
	return redirect(c, "/auth/forgot-password", msg)
}

func (h *Web) resetPage(c internal.Context) error {
	return h.render(c, http.StatusOK, "reset", "Reset password", c.Param("token"))
}

func (h *Web) reset(c internal.Context) error {
	var in auth.ResetPasswordInput
	if err := c.Bind(&in); err != nil {
		return fail(c, "/auth/forgot-password", err)
	}
	in.IP, in.UserAgent = c.Request().ClientIP(), c.Request().UserAgent()

	err := h.auth.ResetPassword(c, in)
	if errors.Is(err, auth.ErrInvalidToken) {
		return fail(c, "/auth/forgot-password", internal.ErrBadRequest("This password reset link is invalid or has expired."))
	}
	if err != nil {
		return fail(c, "/auth/reset-password/"+in.Token, err)
	}
	return redirect(c, "/auth/login", msgPasswordReset)
}

func (h *Web) verifyEmail(c internal.Context) error {
	_, err := h.auth.VerifyEmail(c, c.Param("token"))
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return fail(c, "/", internal.ErrBadRequest("This verification link is invalid or has expired."))
	case err != nil:
		return fail(c, "/", err)
	}
	return redirect(c, middlewares.DefaultHomePath, msgEmailVerified)
}

func (h *Web) resendVerification(c internal.Context) error {
	user, err := h.auth.FindUser(c, userID(c))
	if err != nil {
		return err
	}
	if user.IsEmailVerified() {
		return fail(c, middlewares.DefaultHomePath, auth.ErrEmailVerified)
	}
	if _, err := h.auth.IssueEmailVerification(c, user); err != nil {
		return err
	}
	return redirect(c, middlewares.DefaultHomePath, msgVerifySent)
}
