package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mentorlink/mentorship-api/internal/api/metrics"
	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/ports"
)

const (
	// AccountKey is the echo context key holding the resolved *domain.Account.
	AccountKey = "account"
	// CookieName is the transport cookie carrying the session token.
	CookieName = "jwt"
)

// Session resolves the request's session token through gate and stores the
// account under AccountKey. Requests without a valid, current token are
// rejected.
func Session(gate ports.SessionGate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, err := gate.Authenticate(c.Request().Context(), TokenFromRequest(c))
			if err != nil {
				metrics.SessionRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
				return err
			}
			c.Set(AccountKey, account)
			return next(c)
		}
	}
}

// OptionalSession attaches the account when a valid token is present and
// otherwise lets the request through untouched.
func OptionalSession(gate ports.SessionGate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := TokenFromRequest(c); token != "" {
				if account, err := gate.Authenticate(c.Request().Context(), token); err == nil {
					c.Set(AccountKey, account)
				}
			}
			return next(c)
		}
	}
}

// TokenFromRequest reads a bearer token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(c echo.Context) string {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotLoggedIn):
		return metrics.RejectMissing
	case errors.Is(err, domain.ErrTokenExpired):
		return metrics.RejectExpired
	case errors.Is(err, domain.ErrAccountGone):
		return metrics.RejectAccountGone
	case errors.Is(err, domain.ErrPasswordChanged):
		return metrics.RejectStale
	case errors.Is(err, domain.ErrPermission):
		return metrics.RejectForbidden
	default:
		return metrics.RejectInvalid
	}
}
