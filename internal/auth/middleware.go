package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/BradenHooton/shiftbook/internal/models"
	pkghttp "github.com/BradenHooton/shiftbook/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
)

// TokenVerifier is satisfied by *TokenManager.
type TokenVerifier interface {
	Verify(tokenString string) (*models.TokenClaims, error)
}

// ExtractToken returns the session token from the "token" cookie, falling back to an
// "Authorization: Bearer" header.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthMiddleware validates the session token and injects its claims into the context.
func AuthMiddleware(tv TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				pkghttp.WriteUnauthorized(w, "Unauthorized")
				return
			}

			claims, err := tv.Verify(tokenString)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Unauthorized")
				return
			}

			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
