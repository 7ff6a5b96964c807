package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/shiftbook/internal/auth"
	"github.com/BradenHooton/shiftbook/internal/models"
	"github.com/BradenHooton/shiftbook/internal/services"
	pkghttp "github.com/BradenHooton/shiftbook/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, email, password, ipAddress string, now time.Time) (*services.AuthResponse, error)
	Register(ctx context.Context, email, password, name, ipAddress string) (*services.AuthResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service      AuthServiceInterface
	verifier     auth.TokenVerifier
	ipConfig     *pkghttp.IPConfig
	cookieConfig auth.CookieConfig
	now          func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, verifier auth.TokenVerifier, ipConfig *pkghttp.IPConfig, cookieConfig auth.CookieConfig) *AuthHandler {
	return &AuthHandler{
		service:      service,
		verifier:     verifier,
		ipConfig:     ipConfig,
		cookieConfig: cookieConfig,
		now:          time.Now,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"max=100"`
}

// LoginResponse is returned with the session cookie on success.
type LoginResponse struct {
	Message string                 `json:"message"`
	User    *services.UserResponse `json:"user"`
}

// InvalidCredentialsResponse is the 401 body for a rejected login.
type InvalidCredentialsResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	RemainingAttempts int    `json:"remainingAttempts"`
}

// AccountLockedResponse is the 429 body while a lockout is active.
type AccountLockedResponse struct {
	Error            string `json:"error"`
	Message          string `json:"message"`
	Locked           bool   `json:"locked"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// SessionResponse reports whether the caller holds a valid session.
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	authResp, err := h.service.Authenticate(r.Context(), req.Email, req.Password, ipAddress, h.now())
	if err != nil {
		var rejected *models.LoginRejectedError
		switch {
		case errors.As(err, &rejected) && rejected.Locked():
			w.Header().Set("Retry-After", strconv.Itoa(rejected.RemainingSeconds))
			pkghttp.WriteJSON(w, http.StatusTooManyRequests, AccountLockedResponse{
				Error:            "account_locked",
				Message:          lockedMessage(rejected.RemainingSeconds),
				Locked:           true,
				RemainingSeconds: rejected.RemainingSeconds,
			})
		case errors.As(err, &rejected):
			pkghttp.WriteJSON(w, http.StatusUnauthorized, InvalidCredentialsResponse{
				Error:             "invalid_credentials",
				Message:           "Invalid email or password",
				RemainingAttempts: rejected.RemainingAttempts,
			})
		case errors.Is(err, models.ErrServiceUnavailable):
			pkghttp.WriteServiceUnavailable(w, "Authentication is temporarily unavailable. Please try again.")
		default:
			reportError(r, err, "auth.login")
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, authResp.Token, time.Until(authResp.ExpiresAt), h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		Message: "Login successful",
		User:    authResp.User,
	})
}

// lockedMessage renders the wait in whole minutes, rounded up.
func lockedMessage(remainingSeconds int) string {
	minutes := (remainingSeconds + 59) / 60
	if minutes <= 1 {
		return "Too many failed login attempts. Please try again in 1 minute."
	}
	return "Too many failed login attempts. Please try again in " + strconv.Itoa(minutes) + " minutes."
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	authResp, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name, ipAddress)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "User already exists")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrServiceUnavailable):
			pkghttp.WriteServiceUnavailable(w, "Registration is temporarily unavailable. Please try again.")
		default:
			reportError(r, err, "auth.register")
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, authResp.Token, time.Until(authResp.ExpiresAt), h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusCreated, LoginResponse{
		Message: "User created successfully",
		User:    authResp.User,
	})
}

// Me handles GET /api/auth/me. It verifies the token itself so that an anonymous
// caller gets {authenticated:false} rather than the generic 401 body.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := auth.ExtractToken(r)
	if token == "" {
		pkghttp.WriteJSON(w, http.StatusUnauthorized, SessionResponse{Authenticated: false})
		return
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		pkghttp.WriteJSON(w, http.StatusUnauthorized, SessionResponse{Authenticated: false})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SessionResponse{Authenticated: true, UserID: claims.UserID})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}
