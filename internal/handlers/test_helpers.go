package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/shiftbook/internal/auth"
	"github.com/BradenHooton/shiftbook/internal/models"
	"github.com/BradenHooton/shiftbook/internal/services"
	pkghttp "github.com/BradenHooton/shiftbook/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, email string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Type:   models.TokenTypeSession,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	AuthenticateFunc func(ctx context.Context, email, password, ipAddress string, now time.Time) (*services.AuthResponse, error)
	RegisterFunc     func(ctx context.Context, email, password, name, ipAddress string) (*services.AuthResponse, error)
}

func (m *MockAuthService) Authenticate(ctx context.Context, email, password, ipAddress string, now time.Time) (*services.AuthResponse, error) {
	if m.AuthenticateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.AuthenticateFunc(ctx, email, password, ipAddress, now)
}

func (m *MockAuthService) Register(ctx context.Context, email, password, name, ipAddress string) (*services.AuthResponse, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RegisterFunc(ctx, email, password, name, ipAddress)
}

// MockTokenVerifier implements auth.TokenVerifier for testing
type MockTokenVerifier struct {
	VerifyFunc func(tokenString string) (*models.TokenClaims, error)
}

func (m *MockTokenVerifier) Verify(tokenString string) (*models.TokenClaims, error) {
	if m.VerifyFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.VerifyFunc(tokenString)
}

// MockShiftService implements ShiftServiceInterface for testing
type MockShiftService struct {
	ListShiftsFunc     func(ctx context.Context, userID string, dates models.ShiftDateRange) ([]*models.Shift, error)
	CreateShiftFunc    func(ctx context.Context, shift *models.Shift) (*models.Shift, error)
	UpdateShiftFunc    func(ctx context.Context, shift *models.Shift) (*models.Shift, error)
	DeleteShiftFunc    func(ctx context.Context, userID, id string) error
	ClientsFunc        func(ctx context.Context, userID string) ([]string, error)
	SummaryFunc        func(ctx context.Context, userID string, dates models.ShiftDateRange, client string) (*models.PaySummary, error)
	ListFavoritesFunc  func(ctx context.Context, userID string) ([]*models.FavoriteShift, error)
	CreateFavoriteFunc func(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error)
	UpdateFavoriteFunc func(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error)
	DeleteFavoriteFunc func(ctx context.Context, userID, id string) error
}

func (m *MockShiftService) ListShifts(ctx context.Context, userID string, dates models.ShiftDateRange) ([]*models.Shift, error) {
	if m.ListShiftsFunc == nil {
		return []*models.Shift{}, nil
	}
	return m.ListShiftsFunc(ctx, userID, dates)
}

func (m *MockShiftService) CreateShift(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	if m.CreateShiftFunc == nil {
		shift.ID = "shift-1"
		return shift, nil
	}
	return m.CreateShiftFunc(ctx, shift)
}

func (m *MockShiftService) UpdateShift(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	if m.UpdateShiftFunc == nil {
		return shift, nil
	}
	return m.UpdateShiftFunc(ctx, shift)
}

func (m *MockShiftService) DeleteShift(ctx context.Context, userID, id string) error {
	if m.DeleteShiftFunc == nil {
		return nil
	}
	return m.DeleteShiftFunc(ctx, userID, id)
}

func (m *MockShiftService) Clients(ctx context.Context, userID string) ([]string, error) {
	if m.ClientsFunc == nil {
		return []string{}, nil
	}
	return m.ClientsFunc(ctx, userID)
}

func (m *MockShiftService) Summary(ctx context.Context, userID string, dates models.ShiftDateRange, client string) (*models.PaySummary, error) {
	if m.SummaryFunc == nil {
		return &models.PaySummary{}, nil
	}
	return m.SummaryFunc(ctx, userID, dates, client)
}

func (m *MockShiftService) ListFavorites(ctx context.Context, userID string) ([]*models.FavoriteShift, error) {
	if m.ListFavoritesFunc == nil {
		return []*models.FavoriteShift{}, nil
	}
	return m.ListFavoritesFunc(ctx, userID)
}

func (m *MockShiftService) CreateFavorite(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error) {
	if m.CreateFavoriteFunc == nil {
		favorite.ID = "favorite-1"
		return favorite, nil
	}
	return m.CreateFavoriteFunc(ctx, favorite)
}

func (m *MockShiftService) UpdateFavorite(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error) {
	if m.UpdateFavoriteFunc == nil {
		return favorite, nil
	}
	return m.UpdateFavoriteFunc(ctx, favorite)
}

func (m *MockShiftService) DeleteFavorite(ctx context.Context, userID, id string) error {
	if m.DeleteFavoriteFunc == nil {
		return nil
	}
	return m.DeleteFavoriteFunc(ctx, userID, id)
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
