// Package token issues and verifies HS256 session tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/ports"
)

// MinSecretLength is the shortest HS256 key accepted.
const MinSecretLength = 32

// Claims is the session token payload. IssuedAtMs duplicates iat at
// millisecond precision for the password-change staleness check.
type Claims struct {
	AccountID  string `json:"id"`
	IssuedAtMs int64  `json:"iat_ms"`
	jwt.RegisteredClaims
}

// Config is fixed at startup; the secret is never rotated in-process.
type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
	Now    func() time.Time
}

// Manager implements ports.TokenIssuer.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

var _ ports.TokenIssuer = (*Manager)(nil)

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("token: secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Manager{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    cfg.Now,
		parser: jwt.NewParser(opts...),
	}, nil
}

func (m *Manager) Issue(accountID string) (string, time.Time, error) {
	if accountID == "" {
		return "", time.Time{}, errors.New("token: empty account id")
	}
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		AccountID:  accountID,
		IssuedAtMs: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *Manager) Verify(raw string) (*ports.TokenClaims, error) {
	claims := &Claims{}
	tkn, err := m.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !tkn.Valid || claims.AccountID == "" || claims.IssuedAtMs <= 0 || claims.ExpiresAt == nil {
		return nil, domain.ErrTokenInvalid
	}

	return &ports.TokenClaims{
		AccountID: claims.AccountID,
		IssuedAt:  time.UnixMilli(claims.IssuedAtMs),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
