package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/ports"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "analytical-engine"
)

func signup(t *testing.T, f *fixture) *ports.AuthResult {
	t.Helper()
	res, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Email:    testEmail,
		Password: testPassword,
		FullName: "Ada Lovelace",
		Role:     domain.RoleMentee,
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	return res
}

func TestAuthService_Signup_Success(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Email:    "  Ada@Example.COM ",
		Password: testPassword,
		FullName: "Ada Lovelace",
		Role:     domain.RoleMentor,
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token")
	}
	if res.Account.Email != testEmail || res.Account.Role != domain.RoleMentor {
		t.Fatalf("unexpected projection: %+v", res.Account)
	}

	stored := f.repo.get(t, testEmail)
	if stored.PasswordHash == testPassword || stored.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
	if stored.FailedLoginCount != 0 || stored.LockedUntil != nil {
		t.Fatalf("new account must start unlocked: %+v", stored)
	}
	if !stored.PasswordChangedAt.Equal(f.clock.Now().Truncate(time.Millisecond)) {
		t.Fatalf("passwordChangedAt = %v", stored.PasswordChangedAt)
	}
	if !f.audit.has(domain.EventSignup) {
		t.Fatalf("signup not audited")
	}

	account, err := f.gate.Authenticate(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("signup token rejected by gate: %v", err)
	}
	if account.ID != res.Account.ID {
		t.Fatalf("token bound to %q, want %q", account.ID, res.Account.ID)
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	f := newFixture(t)

	cases := []ports.SignupInput{
		{Password: testPassword, FullName: "Ada", Role: domain.RoleMentee},
		{Email: testEmail, FullName: "Ada", Role: domain.RoleMentee},
		{Email: testEmail, Password: testPassword, Role: domain.RoleMentee},
		{Email: testEmail, Password: testPassword, FullName: "Ada"},
		{Email: "not-an-email", Password: testPassword, FullName: "Ada", Role: domain.RoleMentee},
		{Email: testEmail, Password: testPassword, FullName: "Ada", Role: "owner"},
		{Email: testEmail, Password: "short", FullName: "Ada", Role: domain.RoleMentee},
		{Email: testEmail, Password: strings.Repeat("x", 73), FullName: "Ada", Role: domain.RoleMentee},
	}
	for i, in := range cases {
		_, err := f.svc.Signup(context.Background(), in)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
	if f.repo.count(testEmail) != 0 {
		t.Fatalf("no account should have been created")
	}
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	f := newFixture(t)
	signup(t, f)

	_, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Email:    "ADA@example.com",
		Password: "another-password",
		FullName: "Impostor",
		Role:     domain.RoleAdmin,
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if n := f.repo.count(testEmail); n != 1 {
		t.Fatalf("expected exactly one account, got %d", n)
	}
}

type racingRepo struct {
	*stubAccountRepo
}

// FindByEmail never sees the competing insert, as in a real insert race.
func (r racingRepo) FindByEmail(context.Context, string) (*domain.Account, error) {
	return nil, domain.ErrAccountNotFound
}

func TestAuthService_Signup_InsertRace(t *testing.T) {
	base := newStubAccountRepo()
	f := newFixture(t, func(d *AuthDeps) { d.Accounts = racingRepo{base} })

	in := ports.SignupInput{Email: testEmail, Password: testPassword, FullName: "Ada", Role: domain.RoleMentee}
	if _, err := f.svc.Signup(context.Background(), in); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	_, err := f.svc.Signup(context.Background(), in)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict from the store, got %v", err)
	}
	if n := base.count(testEmail); n != 1 {
		t.Fatalf("expected exactly one account, got %d", n)
	}
}

func TestAuthService_Signup_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.failWith = errors.New("connection reset")

	_, err := f.svc.Signup(context.Background(), ports.SignupInput{
		Email: testEmail, Password: testPassword, FullName: "Ada", Role: domain.RoleMentee,
	})
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newFixture(t)
	signup(t, f)

	res, err := f.svc.Login(context.Background(), "ADA@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Token == "" || res.Account.Email != testEmail {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !f.audit.has(domain.EventLoginSuccess) {
		t.Fatalf("login not audited")
	}
}

func TestAuthService_Login_Validation(t *testing.T) {
	f := newFixture(t)

	for _, tc := range [][2]string{{"", testPassword}, {testEmail, ""}, {"nope", testPassword}} {
		_, err := f.svc.Login(context.Background(), tc[0], tc[1])
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Login(%q, %q): expected validation, got %v", tc[0], tc[1], err)
		}
	}
}

func TestAuthService_Login_UnknownEmailMatchesWrongPassword(t *testing.T) {
	f := newFixture(t)
	signup(t, f)

	before := f.hasher.verifies
	_, unknownErr := f.svc.Login(context.Background(), "ghost@example.com", testPassword)
	unknownCost := f.hasher.verifies - before
	if !f.audit.has(domain.EventLoginFailure) {
		t.Fatalf("unknown email must be audited like a wrong password")
	}

	before = f.hasher.verifies
	_, wrongErr := f.svc.Login(context.Background(), testEmail, "wrong-password")
	wrongCost := f.hasher.verifies - before

	if !errors.Is(unknownErr, domain.ErrUnauthenticated) || !errors.Is(wrongErr, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for both, got %v / %v", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("messages differ: %q vs %q", unknownErr, wrongErr)
	}
	if unknownCost != 1 || wrongCost != 1 {
		t.Fatalf("both paths must run one hash comparison, got %d and %d", unknownCost, wrongCost)
	}
}

func TestAuthService_Login_FourFailuresThenSuccessResets(t *testing.T) {
	f := newFixture(t)
	signup(t, f)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, err := f.svc.Login(ctx, testEmail, "wrong-password")
		if !errors.Is(err, domain.ErrIncorrectCredentials) {
			t.Fatalf("attempt %d: expected incorrect credentials, got %v", i, err)
		}
		if got := f.repo.get(t, testEmail).FailedLoginCount; got != i {
			t.Fatalf("attempt %d: failedLoginCount = %d", i, got)
		}
	}

	if _, err := f.svc.Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login after 4 failures: %v", err)
	}
	stored := f.repo.get(t, testEmail)
	if stored.FailedLoginCount != 0 || stored.LockedUntil != nil {
		t.Fatalf("expected counters cleared, got %+v", stored)
	}
}

func TestAuthService_Login_FifthFailureLocksForThirtyMinutes(t *testing.T) {
	f := newFixture(t)
	signup(t, f)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = f.svc.Login(ctx, testEmail, "wrong-password")
	}

	lockedAt := f.clock.Now()
	_, err := f.svc.Login(ctx, testEmail, "wrong-password")
	if !errors.Is(err, domain.ErrForbidden) || !errors.Is(err, domain.ErrLockTriggered) {
		t.Fatalf("expected lock trigger, got %v", err)
	}
	if !strings.Contains(err.Error(), "30 minutes") {
		t.Fatalf("expected 30 minute message, got %q", err)
	}
	stored := f.repo.get(t, testEmail)
	if stored.LockedUntil == nil || !stored.LockedUntil.Equal(lockedAt.Add(30*time.Minute)) {
		t.Fatalf("lockedUntil = %v, want %v", stored.LockedUntil, lockedAt.Add(30*time.Minute))
	}
	if !f.audit.has(domain.EventAccountLocked) {
		t.Fatalf("lock not audited")
	}

	// Correct password still refused while locked.
	f.clock.Advance(29*time.Minute + 30*time.Second)
	_, err = f.svc.Login(ctx, testEmail, testPassword)
	if !errors.Is(err, domain.ErrForbidden) || !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected locked, got %v", err)
	}
	if !strings.Contains(err.Error(), "Try again in 1 minute(s)") {
		t.Fatalf("expected remaining minutes rounded up, got %q", err)
	}

	// Lock elapses lazily; the correct password now clears it.
	f.clock.Advance(31 * time.Second)
	if _, err := f.svc.Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("login after lock expiry: %v", err)
	}
	stored = f.repo.get(t, testEmail)
	if stored.FailedLoginCount != 0 || stored.LockedUntil != nil {
		t.Fatalf("expected counters cleared, got %+v", stored)
	}
}

func TestAuthService_Login_FailureAfterLockStartsFreshSeries(t *testing.T) {
	f := newFixture(t)
	signup(t, f)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = f.svc.Login(ctx, testEmail, "wrong-password")
	}
	f.clock.Advance(31 * time.Minute)

	_, err := f.svc.Login(ctx, testEmail, "wrong-password")
	if !errors.Is(err, domain.ErrIncorrectCredentials) {
		t.Fatalf("expected incorrect credentials, got %v", err)
	}
	stored := f.repo.get(t, testEmail)
	if stored.FailedLoginCount != 1 || stored.LockedUntil != nil {
		t.Fatalf("expected a fresh series, got %+v", stored)
	}
}

func TestAuthService_Logout(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("anonymous logout: %v", err)
	}
	if f.audit.has(domain.EventLogout) {
		t.Fatalf("anonymous logout must not be audited")
	}

	f.audit.fail = true
	if err := f.svc.Logout(context.Background(), "acc-1"); err != nil {
		t.Fatalf("logout must not fail: %v", err)
	}
}

func TestAuthService_CheckSession(t *testing.T) {
	f := newFixture(t)
	res := signup(t, f)

	safe, err := f.svc.CheckSession(context.Background(), res.Account.ID)
	if err != nil {
		t.Fatalf("CheckSession: %v", err)
	}
	if safe.Email != testEmail {
		t.Fatalf("unexpected account: %+v", safe)
	}

	_, err = f.svc.CheckSession(context.Background(), "acc-404")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAuthService_ForgotPassword(t *testing.T) {
	f := newFixture(t)
	signup(t, f)

	ticket, err := f.svc.ForgotPassword(context.Background(), "Ada@Example.com")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if ticket.Secret == "" {
		t.Fatalf("expected raw secret")
	}
	if want := f.clock.Now().Add(defaultResetTokenTTL); !ticket.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", ticket.ExpiresAt, want)
	}

	stored := f.repo.get(t, testEmail)
	if stored.ResetTokenHash == "" || stored.ResetTokenHash == ticket.Secret {
		t.Fatalf("only the digest may be stored")
	}
	if stored.ResetTokenExpiresAt == nil || !stored.ResetTokenExpiresAt.Equal(ticket.ExpiresAt) {
		t.Fatalf("digest and expiry must be stored together")
	}
	if len(f.notifier.notices) != 1 || f.notifier.notices[0].Secret != ticket.Secret {
		t.Fatalf("secret not handed to notifier")
	}
}

func TestAuthService_ForgotPassword_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ForgotPassword(context.Background(), "ghost@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAuthService_ForgotPassword_RateLimited(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	f := newFixture(t, func(d *AuthDeps) { d.Limiter = limiter })
	signup(t, f)

	_, err := f.svc.ForgotPassword(context.Background(), testEmail)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != testEmail {
		t.Fatalf("limiter must be keyed on the normalised email: %v", limiter.keys)
	}
	if f.repo.get(t, testEmail).ResetTokenHash != "" {
		t.Fatalf("no reset token may be issued when limited")
	}
}

func TestAuthService_ForgotPassword_LimiterDownFailsOpen(t *testing.T) {
	f := newFixture(t, func(d *AuthDeps) { d.Limiter = &stubLimiter{err: errors.New("redis down")} })
	signup(t, f)

	if _, err := f.svc.ForgotPassword(context.Background(), testEmail); err != nil {
		t.Fatalf("expected request to proceed, got %v", err)
	}
}

func TestAuthService_ForgotPassword_NotifierFailure(t *testing.T) {
	f := newFixture(t)
	signup(t, f)
	ctx := context.Background()

	delivered, err := f.svc.ForgotPassword(ctx, testEmail)
	if err != nil {
		t.Fatalf("first ForgotPassword: %v", err)
	}
	before := f.repo.get(t, testEmail)

	f.notifier.err = errors.New("queue full")
	_, err = f.svc.ForgotPassword(ctx, testEmail)
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}

	after := f.repo.get(t, testEmail)
	if after.ResetTokenHash != before.ResetTokenHash || !after.ResetTokenExpiresAt.Equal(*before.ResetTokenExpiresAt) {
		t.Fatalf("failed request must not replace the stored digest")
	}

	f.notifier.err = nil
	if _, err := f.svc.ResetPassword(ctx, delivered.Secret, "brand-new-pass", "brand-new-pass"); err != nil {
		t.Fatalf("previously delivered secret rejected: %v", err)
	}
}

func TestAuthService_ForgotPassword_NotifierFailureWithoutEarlierSecret(t *testing.T) {
	f := newFixture(t)
	signup(t, f)
	f.notifier.err = errors.New("queue full")

	if _, err := f.svc.ForgotPassword(context.Background(), testEmail); !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	stored := f.repo.get(t, testEmail)
	if stored.ResetTokenHash != "" || stored.ResetTokenExpiresAt != nil {
		t.Fatalf("no reset token may be stored when the hand-off fails: %+v", stored)
	}
}

func TestAuthService_ResetPassword_Success(t *testing.T) {
	f := newFixture(t)
	signup(t, f)
	ctx := context.Background()

	ticket, err := f.svc.ForgotPassword(ctx, testEmail)
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	f.clock.Advance(time.Minute)

	res, err := f.svc.ResetPassword(ctx, ticket.Secret, "brand-new-pass", "brand-new-pass")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := f.gate.Authenticate(ctx, res.Token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	stored := f.repo.get(t, testEmail)
	if stored.ResetTokenHash != "" || stored.ResetTokenExpiresAt != nil {
		t.Fatalf("reset fields must be cleared together: %+v", stored)
	}
	if _, err := f.svc.Login(ctx, testEmail, "brand-new-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := f.svc.Login(ctx, testEmail, testPassword); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestAuthService_ResetPassword_SingleUse(t *testing.T) {
	f := newFixture(t)
	signup(t, f)
	ctx := context.Background()

	ticket, _ := f.svc.ForgotPassword(ctx, testEmail)
	if _, err := f.svc.ResetPassword(ctx, ticket.Secret, "brand-new-pass", "brand-new-pass"); err != nil {
		t.Fatalf("first reset: %v", err)
	}

	_, err := f.svc.ResetPassword(ctx, ticket.Secret, "another-pass-1", "another-pass-1")
	if !errors.Is(err, domain.ErrInvalidOrExpired) {
		t.Fatalf("expected invalid or expired, got %v", err)
	}
}

func TestAuthService_ResetPassword_Expired(t *testing.T) {
	f := newFixture(t)
	signup(t, f)
	ctx := context.Background()

	ticket, _ := f.svc.ForgotPassword(ctx, testEmail)
	f.clock.Advance(defaultResetTokenTTL)

	_, err := f.svc.ResetPassword(ctx, ticket.Secret, "brand-new-pass", "brand-new-pass")
	if !errors.Is(err, domain.ErrInvalidOrExpired) {
		t.Fatalf("expected invalid or expired, got %v", err)
	}
}

func TestAuthService_ResetPassword_Rejections(t *testing.T) {
	f := newFixture(t)
	signup(t, f)
	ctx := context.Background()
	ticket, _ := f.svc.ForgotPassword(ctx, testEmail)

	tests := []struct {
		name    string
		secret  string
		p, conf string
		want    error
	}{
		{"empty secret", "", "brand-new-pass", "brand-new-pass", domain.ErrInvalidOrExpired},
		{"unknown secret", "deadbeef", "brand-new-pass", "brand-new-pass", domain.ErrInvalidOrExpired},
		{"mismatch", ticket.Secret, "brand-new-pass", "brand-new-pasz", domain.ErrValidation},
		{"weak", ticket.Secret, "short", "short", domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ResetPassword(ctx, tt.secret, tt.p, tt.conf)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	// Rejected attempts leave the secret usable.
	if _, err := f.svc.ResetPassword(ctx, ticket.Secret, "brand-new-pass", "brand-new-pass"); err != nil {
		t.Fatalf("reset after rejections: %v", err)
	}
}

func TestAuthService_UpdatePassword(t *testing.T) {
	f := newFixture(t)
	res := signup(t, f)
	ctx := context.Background()

	_, err := f.svc.UpdatePassword(ctx, res.Account.ID, "wrong-password", "brand-new-pass", "brand-new-pass")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	_, err = f.svc.UpdatePassword(ctx, res.Account.ID, testPassword, "brand-new-pass", "different-pass")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation, got %v", err)
	}

	f.clock.Advance(time.Second)
	updated, err := f.svc.UpdatePassword(ctx, res.Account.ID, testPassword, "brand-new-pass", "brand-new-pass")
	if err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if _, err := f.gate.Authenticate(ctx, updated.Token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
	if !f.audit.has(domain.EventPasswordChanged) {
		t.Fatalf("password change not audited")
	}
}

func TestAuthService_AuditFailureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.audit.fail = true

	signup(t, f)
	if _, err := f.svc.Login(context.Background(), testEmail, testPassword); err != nil {
		t.Fatalf("audit failure must not fail login: %v", err)
	}
}

func TestNewAuthService_RequiresCollaborators(t *testing.T) {
	if _, err := NewAuthService(AuthDeps{}, AuthOptions{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for missing collaborators")
	}
}
