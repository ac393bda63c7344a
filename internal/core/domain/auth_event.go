package domain

import "time"

// AuthEventType names an entry in the authentication audit trail.
type AuthEventType string

const (
	EventSignup                 AuthEventType = "signup"
	EventLoginSuccess           AuthEventType = "login_success"
	EventLoginFailure           AuthEventType = "login_failure"
	EventAccountLocked          AuthEventType = "account_locked"
	EventLogout                 AuthEventType = "logout"
	EventPasswordResetRequested AuthEventType = "password_reset_requested"
	EventPasswordReset          AuthEventType = "password_reset"
	EventPasswordChanged        AuthEventType = "password_changed"
)

// AuthEvent is one audit record. It never carries secrets.
type AuthEvent struct {
	Type       AuthEventType
	AccountID  string
	Email      string
	Detail     string
	OccurredAt time.Time
}

// ResetNotice is handed to the delivery collaborator after forgot-password.
// Secret is the only copy of the raw reset secret outside the caller.
type ResetNotice struct {
	AccountID string
	Email     string
	FullName  string
	Secret    string
	ExpiresAt time.Time
}
