package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/shiftbook/internal/auth"
	"github.com/BradenHooton/shiftbook/internal/handlers"
	"github.com/BradenHooton/shiftbook/internal/models"
	"github.com/BradenHooton/shiftbook/internal/services"
)

func successfulAuth() *services.AuthResponse {
	return &services.AuthResponse{
		Token:     "session-token",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
		User:      &services.UserResponse{ID: "user-1", Email: "user@example.com"},
	}
}

func newAuthHandler(svc handlers.AuthServiceInterface) *handlers.AuthHandler {
	return handlers.NewAuthHandler(svc, &handlers.MockTokenVerifier{}, nil, auth.CookieConfig{SameSite: "lax"})
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestLogin_Success(t *testing.T) {
	var gotEmail, gotIP string
	mockAuth := &handlers.MockAuthService{
		AuthenticateFunc: func(ctx context.Context, email, password, ipAddress string, now time.Time) (*services.AuthResponse, error) {
			gotEmail, gotIP = email, ipAddress
			return successfulAuth(), nil
		},
	}

	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "User@Example.com",
		Password: "password123",
	})
	req.RemoteAddr = "203.0.113.9:4567"
	w := httptest.NewRecorder()
	newAuthHandler(mockAuth).Login(w, req)

	var resp handlers.LoginResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, "User@Example.com", gotEmail, "emails are matched as given")
	assert.Equal(t, "203.0.113.9", gotIP)

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	assert.Equal(t, "session-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.InDelta(t, 7*24*60*60, cookie.MaxAge, 5)
	assert.NotContains(t, w.Body.String(), "session-token")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		AuthenticateFunc: func(ctx context.Context, email, password, ipAddress string, now time.Time) (*services.AuthResponse, error) {
			return nil, models.NewInvalidCredentials(3)
		},
	}

	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "user@example.com",
		Password: "wrong",
	})
	w := httptest.NewRecorder()
	newAuthHandler(mockAuth).Login(w, req)

	var resp handlers.InvalidCredentialsResponse
	handlers.AssertJSONResponse(t, w, http.StatusUnauthorized, &resp)
	assert.Equal(t, "invalid_credentials", resp.Error)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, 3, resp.RemainingAttempts)
	assert.Nil(t, sessionCookie(t, w))
}

func TestLogin_AccountLocked(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		AuthenticateFunc: func(ctx context.Context, email, password, ipAddress string, now time.Time) (*services.AuthResponse, error) {
			return nil, models.NewAccountLocked(542)
		},
	}

	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "user@example.com",
		Password: "password123",
	})
	w := httptest.NewRecorder()
	newAuthHandler(mockAuth).Login(w, req)

	var resp handlers.AccountLockedResponse
	handlers.AssertJSONResponse(t, w, http.StatusTooManyRequests, &resp)
	assert.Equal(t, "account_locked", resp.Error)
	assert.True(t, resp.Locked)
	assert.Equal(t, 542, resp.RemainingSeconds)
	assert.Contains(t, resp.Message, "10 minutes")
	assert.Equal(t, "542", w.Header().Get("Retry-After"))
}

func TestLogin_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "ledger unavailable", err: errors.Join(models.ErrServiceUnavailable, errors.New("dial tcp")), wantStatus: http.StatusServiceUnavailable, wantError: "service_unavailable"},
		{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantError: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := &handlers.MockAuthService{
				AuthenticateFunc: func(ctx context.Context, email, password, ipAddress string, now time.Time) (*services.AuthResponse, error) {
					return nil, tt.err
				},
			}
			req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
				Email:    "user@example.com",
				Password: "password123",
			})
			w := httptest.NewRecorder()
			newAuthHandler(mockAuth).Login(w, req)

			handlers.AssertErrorResponse(t, w, tt.wantStatus, tt.wantError)
		})
	}
}

func TestLogin_ValidationRunsBeforeService(t *testing.T) {
	called := false
	mockAuth := &handlers.MockAuthService{
		AuthenticateFunc: func(ctx context.Context, email, password, ipAddress string, now time.Time) (*services.AuthResponse, error) {
			called = true
			return successfulAuth(), nil
		},
	}

	bodies := []string{
		`{"email":"user@example.com"}`,
		`{"password":"secret"}`,
		`{"email":"","password":""}`,
		`not json`,
	}
	for _, body := range bodies {
		req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
		w := httptest.NewRecorder()
		newAuthHandler(mockAuth).Login(w, req)

		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	}
	assert.False(t, called)
}

func TestRegister_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, name, ipAddress string) (*services.AuthResponse, error) {
			assert.Equal(t, "new@example.com", email)
			assert.Equal(t, "Pat", name)
			return successfulAuth(), nil
		},
	}

	req := handlers.NewTestRequest(t, "POST", "/api/auth/register", handlers.RegisterRequest{
		Email:    " new@example.com ",
		Password: "secret1",
		Name:     "Pat",
	})
	w := httptest.NewRecorder()
	newAuthHandler(mockAuth).Register(w, req)

	var resp handlers.LoginResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "User created successfully", resp.Message)
	assert.NotNil(t, sessionCookie(t, w))
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name       string
		req        handlers.RegisterRequest
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "conflict", req: handlers.RegisterRequest{Email: "taken@example.com", Password: "secret1"}, err: models.ErrConflict, wantStatus: http.StatusConflict, wantError: "conflict"},
		{name: "short password", req: handlers.RegisterRequest{Email: "new@example.com", Password: "12345"}, wantStatus: http.StatusBadRequest, wantError: "bad_request"},
		{name: "bad email", req: handlers.RegisterRequest{Email: "not-an-email", Password: "secret1"}, wantStatus: http.StatusBadRequest, wantError: "bad_request"},
		{name: "unavailable", req: handlers.RegisterRequest{Email: "new@example.com", Password: "secret1"}, err: models.ErrServiceUnavailable, wantStatus: http.StatusServiceUnavailable, wantError: "service_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := &handlers.MockAuthService{
				RegisterFunc: func(ctx context.Context, email, password, name, ipAddress string) (*services.AuthResponse, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return successfulAuth(), nil
				},
			}
			req := handlers.NewTestRequest(t, "POST", "/api/auth/register", tt.req)
			w := httptest.NewRecorder()
			newAuthHandler(mockAuth).Register(w, req)

			handlers.AssertErrorResponse(t, w, tt.wantStatus, tt.wantError)
		})
	}
}

func TestMe(t *testing.T) {
	verifier := &handlers.MockTokenVerifier{
		VerifyFunc: func(tokenString string) (*models.TokenClaims, error) {
			if tokenString != "good" {
				return nil, models.ErrUnauthorized
			}
			return &models.TokenClaims{UserID: "user-1", Type: models.TokenTypeSession}, nil
		},
	}
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, verifier, nil, auth.CookieConfig{})

	tests := []struct {
		name       string
		cookie     string
		wantStatus int
		wantBody   handlers.SessionResponse
	}{
		{name: "valid", cookie: "good", wantStatus: http.StatusOK, wantBody: handlers.SessionResponse{Authenticated: true, UserID: "user-1"}},
		{name: "invalid", cookie: "bad", wantStatus: http.StatusUnauthorized, wantBody: handlers.SessionResponse{}},
		{name: "missing", wantStatus: http.StatusUnauthorized, wantBody: handlers.SessionResponse{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/auth/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			handler.Me(w, req)

			var resp handlers.SessionResponse
			handlers.AssertJSONResponse(t, w, tt.wantStatus, &resp)
			assert.Equal(t, tt.wantBody, resp)
		})
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	w := httptest.NewRecorder()
	newAuthHandler(&handlers.MockAuthService{}).Logout(w, httptest.NewRequest("POST", "/api/auth/logout", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["message"])
}
