package ports

import (
	"context"
	"time"
)

// PasswordHasher is a slow, salted one-way hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify compares in constant time and reports a match.
	Verify(plaintext, digest string) bool
}

// TokenClaims is what a verified session token asserts.
type TokenClaims struct {
	AccountID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer creates and validates signed session tokens.
type TokenIssuer interface {
	Issue(accountID string) (token string, expiresAt time.Time, err error)
	// Verify returns domain.ErrTokenInvalid or domain.ErrTokenExpired on failure.
	Verify(token string) (*TokenClaims, error)
}

// ResetSecretGenerator mints reset secrets and digests them for storage.
type ResetSecretGenerator interface {
	Generate() (secret, digest string, err error)
	Digest(secret string) string
}

// RequestLimiter is a per-key request budget.
type RequestLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
