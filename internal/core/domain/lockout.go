package domain

import (
	"fmt"
	"time"
)

// LockoutDecision is the verdict of LockoutPolicy for one login attempt.
type LockoutDecision int

const (
	DecisionAllow LockoutDecision = iota
	DecisionLocked
	DecisionLockedJustNow
	DecisionRejectCredentials
)

func (d LockoutDecision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionLocked:
		return "locked"
	case DecisionLockedJustNow:
		return "locked_just_now"
	case DecisionRejectCredentials:
		return "reject_credentials"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 30 * time.Minute
)

// LoginState is the persisted part of an account the policy reads and rewrites.
type LoginState struct {
	FailedLoginCount int
	LockedUntil      *time.Time
}

// LockoutPolicy decides lock and unlock transitions. It holds no state and
// never touches the store; lock expiry is evaluated lazily on each attempt.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy locks for 30 minutes after 5 consecutive failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: DefaultLockoutThreshold, Duration: DefaultLockoutDuration}
}

// LockoutOutcome is the decision plus the state that must be persisted when
// Changed is true.
type LockoutOutcome struct {
	Decision  LockoutDecision
	State     LoginState
	Changed   bool
	Remaining time.Duration
}

// RemainingMinutes rounds the remaining lock time up to whole minutes.
func (o LockoutOutcome) RemainingMinutes() int {
	if o.Remaining <= 0 {
		return 0
	}
	return int((o.Remaining + time.Minute - 1) / time.Minute)
}

// Check reports DecisionLocked while a lock is active and DecisionAllow
// otherwise. It runs before the password is looked at.
func (p LockoutPolicy) Check(state LoginState, now time.Time) LockoutOutcome {
	if state.LockedUntil != nil && state.LockedUntil.After(now) {
		return LockoutOutcome{Decision: DecisionLocked, State: state, Remaining: state.LockedUntil.Sub(now)}
	}
	return LockoutOutcome{Decision: DecisionAllow, State: state}
}

// Apply folds the result of a password check into the login state.
func (p LockoutPolicy) Apply(state LoginState, passwordOK bool, now time.Time) LockoutOutcome {
	if locked := p.Check(state, now); locked.Decision == DecisionLocked {
		return locked
	}

	if passwordOK {
		if state.FailedLoginCount > 0 || state.LockedUntil != nil {
			return LockoutOutcome{Decision: DecisionAllow, State: LoginState{}, Changed: true}
		}
		return LockoutOutcome{Decision: DecisionAllow, State: state}
	}

	count := state.FailedLoginCount
	if state.LockedUntil != nil {
		// The previous lock has elapsed: a fresh series starts here.
		count = 0
	}
	if count < 0 {
		count = 0
	}
	count++

	if count >= p.threshold() {
		until := now.Add(p.Duration)
		return LockoutOutcome{
			Decision:  DecisionLockedJustNow,
			State:     LoginState{FailedLoginCount: count, LockedUntil: &until},
			Changed:   true,
			Remaining: p.Duration,
		}
	}
	return LockoutOutcome{
		Decision: DecisionRejectCredentials,
		State:    LoginState{FailedLoginCount: count},
		Changed:  true,
	}
}

func (p LockoutPolicy) threshold() int {
	if p.Threshold <= 0 {
		return DefaultLockoutThreshold
	}
	return p.Threshold
}

// LockedError builds the FORBIDDEN error for an outcome that refused the login.
func (p LockoutPolicy) LockedError(o LockoutOutcome) *Error {
	if o.Decision == DecisionLockedJustNow {
		return Wrap(ErrForbidden,
			fmt.Sprintf("Too many failed attempts. Account locked for %d minutes", int(p.Duration/time.Minute)),
			ErrLockTriggered)
	}
	return Wrap(ErrForbidden,
		fmt.Sprintf("Account temporarily locked. Try again in %d minute(s)", o.RemainingMinutes()),
		ErrAccountLocked)
}
