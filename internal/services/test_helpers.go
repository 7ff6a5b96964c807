package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/shiftbook/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	CreateFunc     func(ctx context.Context, user *models.User) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

// MemoryLoginAttemptStore is an in-process LoginAttemptStore with the same
// increment semantics as the Postgres and Redis ledgers. Err fields inject failures.
type MemoryLoginAttemptStore struct {
	mu      sync.Mutex
	records map[string]models.LoginAttemptRecord

	GetErr       error
	IncrementErr error
	DeleteErr    error

	GetCalls int
}

func NewMemoryLoginAttemptStore() *MemoryLoginAttemptStore {
	return &MemoryLoginAttemptStore{records: make(map[string]models.LoginAttemptRecord)}
}

func (m *MemoryLoginAttemptStore) Get(ctx context.Context, email string) (*models.LoginAttemptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	rec, ok := m.records[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryLoginAttemptStore) IncrementFailure(ctx context.Context, email string, now time.Time, maxAttempts int, lockout time.Duration) (*models.LoginAttemptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IncrementErr != nil {
		return nil, m.IncrementErr
	}

	rec := m.records[email]
	rec.Email = email
	if rec.LockExpired(now) {
		rec.FailureCount = 0
		rec.LockedUntil = nil
	}
	rec.FailureCount++
	if rec.LockedUntil == nil && rec.FailureCount >= maxAttempts {
		lockedUntil := now.Add(lockout)
		rec.LockedUntil = &lockedUntil
	}
	rec.LastAttemptAt = now
	m.records[email] = rec

	out := rec
	return &out, nil
}

func (m *MemoryLoginAttemptStore) Delete(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.records, email)
	return nil
}

func (m *MemoryLoginAttemptStore) DeleteExpired(ctx context.Context, email string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return false, m.DeleteErr
	}
	rec, ok := m.records[email]
	if !ok || !rec.LockExpired(now) {
		return false, nil
	}
	delete(m.records, email)
	return true, nil
}

// Has reports whether a ledger record exists for email.
func (m *MemoryLoginAttemptStore) Has(email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[email]
	return ok
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssueFunc func(userID, email string) (string, time.Time, error)
}

func (m *MockTokenIssuer) Issue(userID, email string) (string, time.Time, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(userID, email)
	}
	return "token-" + userID, time.Now().Add(7 * 24 * time.Hour), nil
}

// PublishedEvent is one call captured by MockPublisher.
type PublishedEvent struct {
	Exchange   string
	RoutingKey string
	Body       interface{}
}

// MockPublisher implements rabbitmq.Publisher for testing
type MockPublisher struct {
	mu          sync.Mutex
	Events      []PublishedEvent
	PublishFunc func(ctx context.Context, exchange, routingKey string, body interface{}) error
}

func (m *MockPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	m.mu.Lock()
	m.Events = append(m.Events, PublishedEvent{Exchange: exchange, RoutingKey: routingKey, Body: body})
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, exchange, routingKey, body)
	}
	return nil
}

func (m *MockPublisher) Close() {}

// RoutingKeys returns the routing keys published so far, in order.
func (m *MockPublisher) RoutingKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		keys = append(keys, e.RoutingKey)
	}
	return keys
}

// MockLockoutNotifier implements LockoutNotifier for testing
type MockLockoutNotifier struct {
	mu    sync.Mutex
	Sent  []string
	Error error
}

func (m *MockLockoutNotifier) SendLockoutNotice(ctx context.Context, email string, lockedUntil time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, email)
	return m.Error
}

// MockShiftRepository implements ShiftRepository for testing
type MockShiftRepository struct {
	ListByUserFunc func(ctx context.Context, userID string, dates models.ShiftDateRange) ([]*models.Shift, error)
	CreateFunc     func(ctx context.Context, shift *models.Shift) (*models.Shift, error)
	UpdateFunc     func(ctx context.Context, shift *models.Shift) (*models.Shift, error)
	DeleteFunc     func(ctx context.Context, userID, id string) error
}

func (m *MockShiftRepository) ListByUser(ctx context.Context, userID string, dates models.ShiftDateRange) ([]*models.Shift, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, dates)
	}
	return []*models.Shift{}, nil
}

func (m *MockShiftRepository) Create(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, shift)
	}
	shift.ID = "shift-1"
	return shift, nil
}

func (m *MockShiftRepository) Update(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, shift)
	}
	return shift, nil
}

func (m *MockShiftRepository) Delete(ctx context.Context, userID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

// MockFavoriteShiftRepository implements FavoriteShiftRepository for testing
type MockFavoriteShiftRepository struct {
	ListByUserFunc func(ctx context.Context, userID string) ([]*models.FavoriteShift, error)
	CreateFunc     func(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error)
	UpdateFunc     func(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error)
	DeleteFunc     func(ctx context.Context, userID, id string) error
}

func (m *MockFavoriteShiftRepository) ListByUser(ctx context.Context, userID string) ([]*models.FavoriteShift, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.FavoriteShift{}, nil
}

func (m *MockFavoriteShiftRepository) Create(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, favorite)
	}
	favorite.ID = "favorite-1"
	return favorite, nil
}

func (m *MockFavoriteShiftRepository) Update(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, favorite)
	}
	return favorite, nil
}

func (m *MockFavoriteShiftRepository) Delete(ctx context.Context, userID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

// NewTestUser helps construct test users
func NewTestUser(id, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestUserWithPassword creates a user with hashed password
func NewTestUserWithPassword(id, email, name, passwordHash string) *models.User {
	user := NewTestUser(id, email, name)
	user.PasswordHash = passwordHash
	return user
}

func strPtr(s string) *string {
	return &s
}
