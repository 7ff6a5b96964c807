package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// ErrServiceUnavailable marks a storage failure. It is never a verdict.
	ErrServiceUnavailable = errors.New("service temporarily unavailable")

	// Login rejection kinds
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is temporarily locked")
)

// LoginRejectedError is returned by authentication when the request was understood
// but refused. It unwraps to ErrInvalidCredentials or ErrAccountLocked.
type LoginRejectedError struct {
	Reason            error
	RemainingAttempts int
	RemainingSeconds  int
}

func (e *LoginRejectedError) Error() string {
	if errors.Is(e.Reason, ErrAccountLocked) {
		return fmt.Sprintf("%s: retry in %ds", e.Reason, e.RemainingSeconds)
	}
	return fmt.Sprintf("%s: %d attempts remaining", e.Reason, e.RemainingAttempts)
}

func (e *LoginRejectedError) Unwrap() error {
	return e.Reason
}

// Locked reports whether the rejection is an active lockout.
func (e *LoginRejectedError) Locked() bool {
	return errors.Is(e.Reason, ErrAccountLocked)
}

// NewInvalidCredentials builds the rejection for an unknown email or a wrong password.
func NewInvalidCredentials(remainingAttempts int) *LoginRejectedError {
	return &LoginRejectedError{Reason: ErrInvalidCredentials, RemainingAttempts: remainingAttempts}
}

// NewAccountLocked builds the rejection for an identity inside its lockout window.
func NewAccountLocked(remainingSeconds int) *LoginRejectedError {
	return &LoginRejectedError{Reason: ErrAccountLocked, RemainingSeconds: remainingSeconds}
}
