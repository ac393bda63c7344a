package ports

import (
	"context"
	"time"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
)

// AccountRepository is the credential store. Lookups return
// domain.ErrAccountNotFound when nothing matches; every update is
// conditioned on the account ID and touches only its own fields.
type AccountRepository interface {
	// Create inserts a new account. A duplicate email, including one lost in
	// an insert race, yields domain.ErrEmailTaken.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// FindByResetTokenHash returns the account holding tokenHash whose reset
	// window is still open at now.
	FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.Account, error)

	UpdateLoginState(ctx context.Context, id string, state domain.LoginState) error
	// SetResetToken stores the digest and expiry together.
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	// UpdatePassword replaces the hash, stamps changedAt and clears any
	// outstanding reset token in the same write.
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error
	// ConsumeResetToken is UpdatePassword guarded by the reset token still
	// being present and unexpired at now; it fails with
	// domain.ErrResetTokenInvalid when the guard does not hold.
	ConsumeResetToken(ctx context.Context, id, tokenHash, passwordHash string, changedAt, now time.Time) error
}

// AuditRepository persists the authentication audit trail.
type AuditRepository interface {
	Record(ctx context.Context, event *domain.AuthEvent) error
}
