package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/ports"
)

// SessionGate verifies a session token and resolves its account. Tokens
// minted before the account's last password change are rejected even when
// they are correctly signed and unexpired.
type SessionGate struct {
	accounts ports.AccountRepository
	tokens   ports.TokenIssuer
	log      zerolog.Logger
}

var _ ports.SessionGate = (*SessionGate)(nil)

func NewSessionGate(accounts ports.AccountRepository, tokens ports.TokenIssuer, log zerolog.Logger) *SessionGate {
	return &SessionGate{accounts: accounts, tokens: tokens, log: log}
}

func (g *SessionGate) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, domain.ErrNotLoggedIn
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	account, err := g.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountGone
		}
		return nil, domain.Internal("session: resolve account", err)
	}

	if account.PasswordChangedAfter(claims.IssuedAt) {
		g.log.Debug().Str("account_id", account.ID).Msg("stale session token rejected")
		return nil, domain.ErrPasswordChanged
	}

	return account, nil
}

// RequireRole is the role gate. It runs on an account already resolved by
// SessionGate.
func RequireRole(account *domain.Account, roles ...domain.Role) error {
	if account == nil {
		return domain.ErrNotLoggedIn
	}
	for _, r := range roles {
		if account.Role == r {
			return nil
		}
	}
	return domain.ErrPermission
}
