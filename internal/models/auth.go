package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeSession is the only token type issued by the service.
const TokenTypeSession = "session"

type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
