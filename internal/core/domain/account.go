package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role is the closed set of account roles used for authorization decisions.
type Role string

const (
	RoleMentee Role = "mentee"
	RoleMentor Role = "mentor"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMentee, RoleMentor, RoleAdmin:
		return true
	}
	return false
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail returns the comparison key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email looks like an address. Callers normalise first.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Account models a registered identity together with its security state.
// It never leaves the core as-is: transport code only sees SafeAccount.
type Account struct {
	ID                  string
	Email               string
	FullName            string
	PasswordHash        string
	Role                Role
	FailedLoginCount    int
	LockedUntil         *time.Time
	PasswordChangedAt   time.Time
	ResetTokenHash      string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// LoginState extracts the lockout counters evaluated by LockoutPolicy.
func (a *Account) LoginState() LoginState {
	return LoginState{FailedLoginCount: a.FailedLoginCount, LockedUntil: a.LockedUntil}
}

// PasswordChangedAfter reports whether the password was replaced after t.
// Comparison happens at millisecond precision, the resolution of both the
// store and the session token's issue time.
func (a *Account) PasswordChangedAfter(t time.Time) bool {
	if a.PasswordChangedAt.IsZero() {
		return false
	}
	return a.PasswordChangedAt.Truncate(time.Millisecond).After(t.Truncate(time.Millisecond))
}

// Safe strips every credential and counter from the account.
func (a *Account) Safe() SafeAccount {
	return SafeAccount{
		ID:        a.ID,
		Email:     a.Email,
		FullName:  a.FullName,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

// SafeAccount is the projection returned to callers.
type SafeAccount struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
