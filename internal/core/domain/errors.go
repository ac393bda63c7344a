package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure leaving the core matches exactly one of these
// via errors.Is; the transport maps kinds to status codes.
var (
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidOrExpired = errors.New("invalid or expired")
	ErrRateLimited      = errors.New("rate limited")
	ErrInternal         = errors.New("internal error")
)

var kinds = []error{
	ErrValidation,
	ErrConflict,
	ErrUnauthenticated,
	ErrForbidden,
	ErrNotFound,
	ErrInvalidOrExpired,
	ErrRateLimited,
	ErrInternal,
}

// Error is a classified failure. Message is safe to show to the caller;
// Err, when set, is the underlying cause and is only ever logged.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// NewError returns an error of the given kind with a user-facing message.
func NewError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap classifies cause under kind. The message stays user-facing.
func Wrap(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// Internal wraps an unexpected failure with operation context.
func Internal(op string, cause error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal server error", Err: fmt.Errorf("%s: %w", op, cause)}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// KindOf returns the kind sentinel err belongs to, or ErrInternal for
// anything unclassified.
func KindOf(err error) error {
	var de *Error
	if errors.As(err, &de) {
		for _, k := range kinds {
			if de.Kind == k {
				return k
			}
		}
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// Lock reasons, attached as causes so callers can tell a standing lock from
// the attempt that triggered it.
var (
	ErrAccountLocked = errors.New("account locked")
	ErrLockTriggered = errors.New("account lock triggered")
)

var (
	ErrIncorrectCredentials = NewError(ErrUnauthenticated, "Incorrect email or password")
	ErrEmailTaken           = NewError(ErrConflict, "Email already registered. Please log in.")
	ErrAccountNotFound      = NewError(ErrNotFound, "There is no account with that email address.")
	ErrSessionAccountGone   = NewError(ErrNotFound, "Account no longer exists")
	ErrResetTokenInvalid    = NewError(ErrInvalidOrExpired, "Token is invalid or has expired")
	ErrPasswordMismatch     = NewError(ErrValidation, "Passwords do not match")
	ErrWrongPassword        = NewError(ErrUnauthenticated, "Your current password is wrong.")
	ErrTooManyResetRequests = NewError(ErrRateLimited, "Too many password reset requests. Please try again later.")

	ErrNotLoggedIn     = NewError(ErrUnauthenticated, "You are not logged in! Please log in to get access.")
	ErrTokenInvalid    = NewError(ErrUnauthenticated, "Invalid token. Please log in again!")
	ErrTokenExpired    = NewError(ErrUnauthenticated, "Your token has expired! Please log in again.")
	ErrAccountGone     = NewError(ErrUnauthenticated, "The account belonging to this token no longer exists.")
	ErrPasswordChanged = NewError(ErrUnauthenticated, "Password was changed recently! Please log in again.")
	ErrPermission      = NewError(ErrForbidden, "You do not have permission to perform this action")
)
