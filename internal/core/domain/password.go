package domain

import "unicode/utf8"

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the bcrypt input limit; longer inputs would be
	// silently truncated by most implementations.
	MaxPasswordBytes = 72
)

// ValidatePassword applies the password policy shared by signup, reset and change.
func ValidatePassword(password string) error {
	if password == "" {
		return NewError(ErrValidation, "Please provide a password")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return NewError(ErrValidation, "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordBytes {
		return NewError(ErrValidation, "Password must be at most 72 bytes")
	}
	return nil
}

// ValidatePasswordChange checks the confirmation and the policy for a new password.
func ValidatePasswordChange(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	return ValidatePassword(password)
}
