package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 12
	MinPasswordLen = 6
	MaxPasswordLen = 72 // bcrypt ignores input past 72 bytes
)

// PasswordValidationError holds validation error details
type PasswordValidationError struct {
	Reason string
}

func (e *PasswordValidationError) Error() string {
	return "invalid password: " + e.Reason
}

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, BcryptCost)
}

// HashPasswordWithCost lets tests trade hash strength for speed.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword runs bcrypt's constant-time comparison.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword enforces the registration length bounds.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return &PasswordValidationError{Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLen)}
	}
	if len(password) > MaxPasswordLen {
		return &PasswordValidationError{Reason: fmt.Sprintf("must be at most %d bytes", MaxPasswordLen)}
	}
	return nil
}
