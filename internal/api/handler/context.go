package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/mentorlink/mentorship-api/internal/api/middleware"
	"github.com/mentorlink/mentorship-api/internal/core/domain"
)

// ctxAccount returns the account attached by the Session middleware. The
// routes that call it are mounted behind Session, so a missing account means
// the middleware did not run.
func ctxAccount(c echo.Context) (*domain.Account, error) {
	account, _ := c.Get(middleware.AccountKey).(*domain.Account)
	if account == nil {
		return nil, domain.ErrNotLoggedIn
	}
	return account, nil
}

// optionalAccountID is ctxAccount for routes mounted behind OptionalSession.
func optionalAccountID(c echo.Context) string {
	if account, _ := c.Get(middleware.AccountKey).(*domain.Account); account != nil {
		return account.ID
	}
	return ""
}
