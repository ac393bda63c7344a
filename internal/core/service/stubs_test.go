package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/infrastructure/crypto"
	"github.com/mentorlink/mentorship-api/internal/infrastructure/token"
)

type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	nextID   int
	failWith error
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		clone.LockedUntil = &t
	}
	if a.ResetTokenExpiresAt != nil {
		t := *a.ResetTokenExpiresAt
		clone.ResetTokenExpiresAt = &t
	}
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, a := range r.accounts {
		if a.Email == account.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.nextID++
	copy := cloneAccount(account)
	copy.ID = fmt.Sprintf("acc-%d", r.nextID)
	r.accounts[copy.ID] = copy
	return cloneAccount(copy), nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, a := range r.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	if a, ok := r.accounts[id]; ok {
		return cloneAccount(a), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByResetTokenHash(_ context.Context, hash string, now time.Time) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if hash != "" && a.ResetTokenHash == hash && a.ResetTokenExpiresAt != nil && a.ResetTokenExpiresAt.After(now) {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) UpdateLoginState(_ context.Context, id string, state domain.LoginState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.FailedLoginCount = state.FailedLoginCount
	a.LockedUntil = nil
	if state.LockedUntil != nil {
		t := *state.LockedUntil
		a.LockedUntil = &t
	}
	return nil
}

func (r *stubAccountRepo) SetResetToken(_ context.Context, id, hash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.ResetTokenHash = hash
	a.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (r *stubAccountRepo) UpdatePassword(_ context.Context, id, hash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.PasswordHash = hash
	a.PasswordChangedAt = changedAt
	a.ResetTokenHash = ""
	a.ResetTokenExpiresAt = nil
	return nil
}

func (r *stubAccountRepo) ConsumeResetToken(_ context.Context, id, tokenHash, hash string, changedAt, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.ResetTokenHash != tokenHash || a.ResetTokenExpiresAt == nil || !a.ResetTokenExpiresAt.After(now) {
		return domain.ErrResetTokenInvalid
	}
	a.PasswordHash = hash
	a.PasswordChangedAt = changedAt
	a.ResetTokenHash = ""
	a.ResetTokenExpiresAt = nil
	return nil
}

func (r *stubAccountRepo) get(t *testing.T, email string) *domain.Account {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			return cloneAccount(a)
		}
	}
	t.Fatalf("no account for %s", email)
	return nil
}

func (r *stubAccountRepo) count(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.accounts {
		if a.Email == email {
			n++
		}
	}
	return n
}

type stubAudit struct {
	mu     sync.Mutex
	events []domain.AuthEventType
	fail   bool
}

func (a *stubAudit) Record(_ context.Context, e *domain.AuthEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e.Type)
	if a.fail {
		return errors.New("audit store down")
	}
	return nil
}

func (a *stubAudit) has(typ domain.AuthEventType) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.events {
		if e == typ {
			return true
		}
	}
	return false
}

type stubNotifier struct {
	notices []domain.ResetNotice
	err     error
}

func (n *stubNotifier) Notify(_ context.Context, notice domain.ResetNotice) error {
	if n.err != nil {
		return n.err
	}
	n.notices = append(n.notices, notice)
	return nil
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

// countingHasher wraps the real hasher to count comparisons.
type countingHasher struct {
	*crypto.BcryptHasher
	verifies int
}

func (h *countingHasher) Verify(plain, digest string) bool {
	h.verifies++
	return h.BcryptHasher.Verify(plain, digest)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc      *AuthService
	gate     *SessionGate
	repo     *stubAccountRepo
	audit    *stubAudit
	notifier *stubNotifier
	hasher   *countingHasher
	tokens   *token.Manager
	clock    *fakeClock
}

func newFixture(t *testing.T, mutate ...func(*AuthDeps)) *fixture {
	t.Helper()

	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)}
	bh, err := crypto.NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	tokens, err := token.NewManager(token.Config{
		Secret: strings.Repeat("s", token.MinSecretLength),
		TTL:    24 * time.Hour,
		Issuer: "mentorship-api",
		Now:    clock.Now,
	})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	f := &fixture{
		repo:     newStubAccountRepo(),
		audit:    &stubAudit{},
		notifier: &stubNotifier{},
		hasher:   &countingHasher{BcryptHasher: bh},
		tokens:   tokens,
		clock:    clock,
	}
	deps := AuthDeps{
		Accounts: f.repo,
		Hasher:   f.hasher,
		Tokens:   tokens,
		Secrets:  crypto.NewResetSecrets(),
		Audit:    f.audit,
		Notifier: f.notifier,
	}
	for _, m := range mutate {
		m(&deps)
	}

	svc, err := NewAuthService(deps, AuthOptions{Now: clock.Now}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	f.svc = svc
	f.gate = NewSessionGate(f.repo, tokens, zerolog.Nop())
	return f
}
