package models

import (
	"time"
)

// User is a registered identity. Email is the natural key and is compared case-sensitively.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
