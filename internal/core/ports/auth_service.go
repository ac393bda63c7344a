package ports

import (
	"context"
	"time"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
)

// SignupInput carries the fields required to open an account.
type SignupInput struct {
	Email    string
	Password string
	FullName string
	Role     domain.Role
}

// AuthResult is returned by every operation that starts a session.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Account   domain.SafeAccount
}

// ResetTicket is the outcome of forgot-password. Secret is the raw reset
// secret; the transport decides whether it may be echoed.
type ResetTicket struct {
	Secret    string
	ExpiresAt time.Time
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, accountID string) error
	CheckSession(ctx context.Context, accountID string) (*domain.SafeAccount, error)
	ForgotPassword(ctx context.Context, email string) (*ResetTicket, error)
	ResetPassword(ctx context.Context, secret, newPassword, newPasswordConfirm string) (*AuthResult, error)
	UpdatePassword(ctx context.Context, accountID, currentPassword, newPassword, newPasswordConfirm string) (*AuthResult, error)
}

// SessionGate resolves a raw session token to the account it belongs to.
type SessionGate interface {
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
}
