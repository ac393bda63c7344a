package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mentorlink/mentorship-api/internal/api/metrics"
	"github.com/mentorlink/mentorship-api/internal/api/middleware"
	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/ports"
)

// AuthOptions control transport-level behaviour of the auth endpoints.
type AuthOptions struct {
	// CookieSecure marks the session cookie Secure (HTTPS only).
	CookieSecure bool
	// ExposeResetToken echoes the raw reset secret in the forgot-password
	// response. Development only.
	ExposeResetToken bool
}

type AuthHandler struct {
	authService ports.AuthService
	opts        AuthOptions
}

func NewAuthHandler(authService ports.AuthService, opts AuthOptions) *AuthHandler {
	return &AuthHandler{authService: authService, opts: opts}
}

// Signup creates a new account and starts a session.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  apierror.Response
// @Failure      409   {object}  apierror.Response
// @Failure      500   {object}  apierror.Response
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	metrics.SignupsTotal.WithLabelValues(string(res.Account.Role)).Inc()
	return h.respondWithSession(c, http.StatusCreated, res)
}

// Login authenticates with email and password.
//
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  apierror.Response
// @Failure      401   {object}  apierror.Response
// @Failure      403   {object}  apierror.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.LoginInvalid).Inc()
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	return h.respondWithSession(c, http.StatusOK, res)
}

// Logout discards the session cookie. It succeeds with or without a session.
//
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	_ = h.authService.Logout(c.Request().Context(), optionalAccountID(c))

	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// CheckSession returns the account behind the current session.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  apierror.Response
// @Failure      404  {object}  apierror.Response
// @Router       /auth/check-session [get]
func (h *AuthHandler) CheckSession(c echo.Context) error {
	account, err := ctxAccount(c)
	if err != nil {
		return err
	}

	safe, err := h.authService.CheckSession(c.Request().Context(), account.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{Account: *safe})
}

// ForgotPassword issues a single-use reset secret for the account.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  forgotPasswordResponse
// @Failure      400   {object}  apierror.Response
// @Failure      404   {object}  apierror.Response
// @Failure      429   {object}  apierror.Response
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ticket, err := h.authService.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	metrics.PasswordResetsTotal.WithLabelValues(metrics.ResetRequested).Inc()

	resp := forgotPasswordResponse{Message: "Password reset link issued. Check your email."}
	if h.opts.ExposeResetToken {
		resp.ResetToken = ticket.Secret
		resp.ExpiresAt = &ticket.ExpiresAt
	}
	return c.JSON(http.StatusOK, resp)
}

// ResetPassword sets a new password using a reset secret.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  path      string                true  "Reset secret"
// @Param        body   body      resetPasswordRequest  true  "New password"
// @Success      200    {object}  authResponse
// @Failure      400    {object}  apierror.Response
// @Router       /auth/reset-password/{token} [patch]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.ResetPassword(c.Request().Context(), c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpired) {
			metrics.PasswordResetsTotal.WithLabelValues(metrics.ResetRejected).Inc()
		}
		return err
	}

	metrics.PasswordResetsTotal.WithLabelValues(metrics.ResetCompleted).Inc()
	return h.respondWithSession(c, http.StatusOK, res)
}

// UpdatePassword changes the password of the logged-in account.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updatePasswordRequest  true  "Current and new password"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  apierror.Response
// @Failure      401   {object}  apierror.Response
// @Router       /auth/update-password [patch]
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	account, err := ctxAccount(c)
	if err != nil {
		return err
	}

	var req updatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.UpdatePassword(c.Request().Context(), account.ID, req.CurrentPassword, req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}
	return h.respondWithSession(c, http.StatusOK, res)
}

// respondWithSession sets the session cookie and writes the token body.
func (h *AuthHandler) respondWithSession(c echo.Context, status int, res *ports.AuthResult) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(status, authResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Account:   res.Account,
	})
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Wrap(domain.ErrValidation, "invalid payload", err)
	}
	return c.Validate(req)
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return metrics.LoginSuccess
	case errors.Is(err, domain.ErrLockTriggered):
		return metrics.LoginLockTriggered
	case errors.Is(err, domain.ErrAccountLocked):
		return metrics.LoginLocked
	case errors.Is(err, domain.ErrValidation):
		return metrics.LoginInvalid
	case errors.Is(err, domain.ErrUnauthenticated):
		return metrics.LoginBadCredentials
	default:
		return metrics.LoginError
	}
}
