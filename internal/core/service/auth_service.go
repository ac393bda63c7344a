package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/ports"
)

const (
	defaultResetTokenTTL = 10 * time.Minute
	// timingProbe only feeds the dummy hash used to equalise login timing.
	timingProbe = "timing-equalisation-probe"
)

// AuthDeps are the collaborators of AuthService. Audit, Notifier and Limiter
// are optional.
type AuthDeps struct {
	Accounts ports.AccountRepository
	Hasher   ports.PasswordHasher
	Tokens   ports.TokenIssuer
	Secrets  ports.ResetSecretGenerator
	Audit    ports.AuditRepository
	Notifier ports.ResetNotifier
	Limiter  ports.RequestLimiter
}

// AuthOptions tune the policies of AuthService.
type AuthOptions struct {
	Lockout       domain.LockoutPolicy
	ResetTokenTTL time.Duration
	Now           func() time.Time
}

// AuthService implements signup, login with lockout, session checks and the
// password reset and change flows.
type AuthService struct {
	accounts ports.AccountRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	secrets  ports.ResetSecretGenerator
	audit    ports.AuditRepository
	notifier ports.ResetNotifier
	limiter  ports.RequestLimiter

	lockout   domain.LockoutPolicy
	resetTTL  time.Duration
	dummyHash string
	now       func() time.Time
	log       zerolog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(deps AuthDeps, opts AuthOptions, log zerolog.Logger) (*AuthService, error) {
	if deps.Accounts == nil || deps.Hasher == nil || deps.Tokens == nil || deps.Secrets == nil {
		return nil, errors.New("auth service: accounts, hasher, tokens and secrets are required")
	}
	if opts.Lockout.Threshold <= 0 || opts.Lockout.Duration <= 0 {
		opts.Lockout = domain.DefaultLockoutPolicy()
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = defaultResetTokenTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Audit == nil {
		deps.Audit = noopAudit{}
	}
	if deps.Notifier == nil {
		deps.Notifier = noopNotifier{}
	}

	dummy, err := deps.Hasher.Hash(timingProbe)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		accounts:  deps.Accounts,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		secrets:   deps.Secrets,
		audit:     deps.Audit,
		notifier:  deps.Notifier,
		limiter:   deps.Limiter,
		lockout:   opts.Lockout,
		resetTTL:  opts.ResetTokenTTL,
		dummyHash: dummy,
		now:       opts.Now,
		log:       log,
	}, nil
}

func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if email == "" || in.Password == "" || fullName == "" || in.Role == "" {
		return nil, domain.NewError(domain.ErrValidation, "Please provide all required fields")
	}
	if !domain.ValidEmail(email) {
		return nil, domain.NewError(domain.ErrValidation, "Please provide a valid email address")
	}
	if !in.Role.Valid() {
		return nil, domain.NewError(domain.ErrValidation, "Role must be one of: mentee, mentor, admin")
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.Internal("signup: lookup", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.Internal("signup: hash", err)
	}

	now := s.clock()
	created, err := s.accounts.Create(ctx, &domain.Account{
		Email:             email,
		FullName:          fullName,
		PasswordHash:      hash,
		Role:              in.Role,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		// The unique index catches the insert race the lookup above cannot.
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, domain.Internal("signup: create", err)
	}

	s.record(ctx, domain.EventSignup, created, string(created.Role))
	s.log.Info().Str("account_id", created.ID).Str("role", string(created.Role)).Msg("account created")

	return s.startSession(created)
}

// Login checks credentials under the lockout policy. An unknown email and a
// wrong password produce the same error, both cost one hash comparison and
// both write an audit entry.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.NewError(domain.ErrValidation, "Please provide both email and password")
	}
	if !domain.ValidEmail(email) {
		return nil, domain.NewError(domain.ErrValidation, "Please provide a valid email address")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.record(ctx, domain.EventLoginFailure, &domain.Account{Email: email}, "unknown_email")
			return nil, domain.ErrIncorrectCredentials
		}
		return nil, domain.Internal("login: lookup", err)
	}

	now := s.now()
	state := account.LoginState()
	if check := s.lockout.Check(state, now); check.Decision == domain.DecisionLocked {
		return nil, s.lockout.LockedError(check)
	}

	ok := s.hasher.Verify(password, account.PasswordHash)
	outcome := s.lockout.Apply(state, ok, now)
	if outcome.Changed {
		if err := s.accounts.UpdateLoginState(ctx, account.ID, outcome.State); err != nil {
			return nil, domain.Internal("login: update login state", err)
		}
	}

	switch outcome.Decision {
	case domain.DecisionRejectCredentials:
		s.record(ctx, domain.EventLoginFailure, account, "")
		return nil, domain.ErrIncorrectCredentials
	case domain.DecisionLockedJustNow:
		s.record(ctx, domain.EventAccountLocked, account, outcome.State.LockedUntil.UTC().Format(time.RFC3339))
		s.log.Warn().Str("account_id", account.ID).Int("failed_attempts", outcome.State.FailedLoginCount).Msg("account locked")
		return nil, s.lockout.LockedError(outcome)
	case domain.DecisionLocked:
		return nil, s.lockout.LockedError(outcome)
	}

	s.record(ctx, domain.EventLoginSuccess, account, "")
	return s.startSession(account)
}

// Logout is stateless: the transport discards the credential. accountID may
// be empty when no session was active.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	if accountID != "" {
		s.record(ctx, domain.EventLogout, &domain.Account{ID: accountID}, "")
	}
	return nil
}

func (s *AuthService) CheckSession(ctx context.Context, accountID string) (*domain.SafeAccount, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrSessionAccountGone
		}
		return nil, domain.Internal("check session", err)
	}
	safe := account.Safe()
	return &safe, nil
}

// ForgotPassword stores the digest of a fresh reset secret and returns the
// raw secret exactly once. The secret is also handed to the notifier.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*ports.ResetTicket, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.NewError(domain.ErrValidation, "Please provide an email address")
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, email)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("forgot-password limiter unavailable, proceeding")
		case !allowed:
			return nil, domain.ErrTooManyResetRequests
		}
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, domain.Internal("forgot password: lookup", err)
	}

	secret, digest, err := s.secrets.Generate()
	if err != nil {
		return nil, domain.Internal("forgot password: generate secret", err)
	}
	expiresAt := s.now().Add(s.resetTTL)

	// The stored digest only changes once the secret is on its way, so a
	// failed hand-off leaves an earlier delivered secret usable.
	notice := domain.ResetNotice{
		AccountID: account.ID,
		Email:     account.Email,
		FullName:  account.FullName,
		Secret:    secret,
		ExpiresAt: expiresAt,
	}
	if err := s.notifier.Notify(ctx, notice); err != nil {
		return nil, domain.Internal("forgot password: notify", err)
	}
	if err := s.accounts.SetResetToken(ctx, account.ID, digest, expiresAt); err != nil {
		return nil, domain.Internal("forgot password: store digest", err)
	}

	s.record(ctx, domain.EventPasswordResetRequested, account, "")
	return &ports.ResetTicket{Secret: secret, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, secret, newPassword, newPasswordConfirm string) (*ports.AuthResult, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, domain.ErrResetTokenInvalid
	}

	digest := s.secrets.Digest(secret)
	now := s.now()
	account, err := s.accounts.FindByResetTokenHash(ctx, digest, now)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrResetTokenInvalid
		}
		return nil, domain.Internal("reset password: lookup", err)
	}

	if err := domain.ValidatePasswordChange(newPassword, newPasswordConfirm); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, domain.Internal("reset password: hash", err)
	}

	changedAt := s.clock()
	if err := s.accounts.ConsumeResetToken(ctx, account.ID, digest, hash, changedAt, now); err != nil {
		if errors.Is(err, domain.ErrResetTokenInvalid) {
			return nil, domain.ErrResetTokenInvalid
		}
		return nil, domain.Internal("reset password: consume", err)
	}
	account.PasswordHash = hash
	account.PasswordChangedAt = changedAt
	account.ResetTokenHash = ""
	account.ResetTokenExpiresAt = nil

	s.record(ctx, domain.EventPasswordReset, account, "")
	return s.startSession(account)
}

func (s *AuthService) UpdatePassword(ctx context.Context, accountID, currentPassword, newPassword, newPasswordConfirm string) (*ports.AuthResult, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountGone
		}
		return nil, domain.Internal("update password: lookup", err)
	}

	if currentPassword == "" || !s.hasher.Verify(currentPassword, account.PasswordHash) {
		return nil, domain.ErrWrongPassword
	}
	if err := domain.ValidatePasswordChange(newPassword, newPasswordConfirm); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, domain.Internal("update password: hash", err)
	}
	changedAt := s.clock()
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash, changedAt); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountGone
		}
		return nil, domain.Internal("update password: store", err)
	}
	account.PasswordHash = hash
	account.PasswordChangedAt = changedAt

	s.record(ctx, domain.EventPasswordChanged, account, "")
	return s.startSession(account)
}

func (s *AuthService) startSession(account *domain.Account) (*ports.AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, domain.Internal("issue token", err)
	}
	return &ports.AuthResult{Token: token, ExpiresAt: expiresAt, Account: account.Safe()}, nil
}

// clock returns now at store precision, so a token minted right after a
// password change never looks older than the change.
func (s *AuthService) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// record writes an audit entry. Audit failures are logged, never returned.
func (s *AuthService) record(ctx context.Context, typ domain.AuthEventType, account *domain.Account, detail string) {
	event := &domain.AuthEvent{
		Type:       typ,
		AccountID:  account.ID,
		Email:      account.Email,
		Detail:     detail,
		OccurredAt: s.now().UTC(),
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", string(typ)).Str("account_id", account.ID).Msg("failed to record auth event")
	}
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, *domain.AuthEvent) error { return nil }

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, domain.ResetNotice) error { return nil }
