package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/shiftbook/internal/auth"
	"github.com/BradenHooton/shiftbook/internal/models"
	pkgauth "github.com/BradenHooton/shiftbook/pkg/auth"
	pkglogger "github.com/BradenHooton/shiftbook/pkg/logger"
	"github.com/BradenHooton/shiftbook/pkg/rabbitmq"
	"golang.org/x/crypto/bcrypt"
)

// Routing keys for auth domain events
const (
	EventLoginSucceeded = "auth.login_succeeded"
	EventAccountLocked  = "auth.account_locked"
	EventUserRegistered = "auth.user_registered"
)

const sideEffectTimeout = 10 * time.Second

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// TokenIssuer is satisfied by *auth.TokenManager.
type TokenIssuer interface {
	Issue(userID, email string) (string, time.Time, error)
}

// AuthService verifies credentials against the user store while the attempt ledger
// enforces the brute-force lockout.
type AuthService struct {
	repo        UserRepository
	ledger      *AttemptLedger
	tm          TokenIssuer
	timingDelay *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger

	publisher rabbitmq.Publisher
	exchange  string
	notifier  LockoutNotifier

	bcryptCost    int
	dummyHashOnce sync.Once
	dummyHash     string

	// goAsync runs side effects that must not delay the response.
	goAsync func(func())
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, ledger *AttemptLedger, tm TokenIssuer, timingDelay *auth.TimingDelay, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		ledger:      ledger,
		tm:          tm,
		timingDelay: timingDelay,
		logger:      logger,
		auditLogger: auditLogger,
		publisher:   &rabbitmq.LogPublisher{Logger: logger},
		bcryptCost:  pkgauth.BcryptCost,
		goAsync:     func(f func()) { go f() },
	}
}

// SetEventPublisher routes auth events to exchange.
func (s *AuthService) SetEventPublisher(publisher rabbitmq.Publisher, exchange string) {
	s.publisher = publisher
	s.exchange = exchange
}

// SetLockoutNotifier enables lockout notices to registered owners.
func (s *AuthService) SetLockoutNotifier(notifier LockoutNotifier) {
	s.notifier = notifier
}

// SetBcryptCost overrides the hashing cost for new passwords and the dummy hash.
func (s *AuthService) SetBcryptCost(cost int) {
	s.bcryptCost = cost
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// AuthResponse carries the session token for the cookie and the authenticated user.
type AuthResponse struct {
	Token     string        `json:"-"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *UserResponse `json:"user"`
}

// Authenticate checks a login attempt at time now.
//
// A locked identity is rejected before the user store is touched. Unknown emails are
// counted exactly like wrong passwords and pay for a bcrypt comparison, so the two
// cases are indistinguishable by response or timing. Rejections are returned as
// *models.LoginRejectedError; storage failures as models.ErrServiceUnavailable.
func (s *AuthService) Authenticate(ctx context.Context, email, password, ipAddress string, now time.Time) (*AuthResponse, error) {
	start := time.Now()

	verdict, err := s.ledger.CheckStatus(ctx, email, now)
	if err != nil {
		s.logger.Error("lockout status unavailable", slog.Any("error", err))
		return nil, err
	}
	if verdict.Locked {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventLoginLocked,
			Email:         email,
			IPAddress:     ipAddress,
			FailureReason: "account_locked",
		})
		return nil, models.NewAccountLocked(verdict.RemainingSeconds)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, unavailable("find user", err)
	}

	if user == nil {
		s.compareDummy(password)
		return nil, s.rejectFailure(ctx, email, "", ipAddress, now, start)
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Error("stored password hash unusable", slog.String("user_id", user.ID), slog.Any("error", err))
		}
		return nil, s.rejectFailure(ctx, email, user.ID, ipAddress, now, start)
	}

	if err := s.ledger.ClearAttempts(ctx, email); err != nil {
		s.logger.Error("failed to clear login attempts", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, err
	}

	token, expiresAt, err := s.tm.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLoginSuccess,
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})
	s.publish(ctx, EventLoginSucceeded, map[string]interface{}{
		"userId": user.ID,
		"at":     now.UTC(),
	})

	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userModelToResponse(user),
	}, nil
}

// rejectFailure records the failure, pads the response time and builds the rejection.
// userID is empty for unknown emails.
func (s *AuthService) rejectFailure(ctx context.Context, email, userID, ipAddress string, now, start time.Time) error {
	verdict, lockTriggered, err := s.ledger.RecordFailure(ctx, email, now)
	s.timingDelay.WaitFrom(start, false)
	if err != nil {
		s.logger.Error("failed to record login failure", slog.Any("error", err))
		return err
	}

	if verdict.Locked {
		if lockTriggered {
			s.onLockout(ctx, email, userID, ipAddress, verdict.LockedUntil)
		}
		return models.NewAccountLocked(verdict.RemainingSeconds)
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     pkglogger.EventLoginFailed,
		Email:         email,
		IPAddress:     ipAddress,
		FailureReason: "invalid_credentials",
		Metadata:      map[string]string{"remaining_attempts": fmt.Sprint(verdict.RemainingAttempts)},
	})
	return models.NewInvalidCredentials(verdict.RemainingAttempts)
}

func (s *AuthService) onLockout(ctx context.Context, email, userID, ipAddress string, lockedUntil time.Time) {
	s.logger.Warn("account locked after repeated failures",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.Time("locked_until", lockedUntil))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     pkglogger.EventAccountLocked,
		UserID:        userID,
		Email:         email,
		IPAddress:     ipAddress,
		FailureReason: "too_many_attempts",
		Metadata:      map[string]string{"locked_until": lockedUntil.UTC().Format(time.RFC3339)},
	})

	payload := map[string]interface{}{
		"email":       email,
		"lockedUntil": lockedUntil.UTC(),
	}
	if userID != "" {
		payload["userId"] = userID
	}
	s.publish(ctx, EventAccountLocked, payload)

	// Only registered owners are notified; unknown addresses get nothing.
	if userID == "" || s.notifier == nil {
		return
	}
	notifyCtx := context.WithoutCancel(ctx)
	s.goAsync(func() {
		ctx, cancel := context.WithTimeout(notifyCtx, sideEffectTimeout)
		defer cancel()
		if err := s.notifier.SendLockoutNotice(ctx, email, lockedUntil); err != nil {
			s.logger.Warn("failed to send lockout notice", slog.String("user_id", userID), slog.Any("error", err))
		}
	})
}

func (s *AuthService) publish(ctx context.Context, routingKey string, body map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	publishCtx := context.WithoutCancel(ctx)
	s.goAsync(func() {
		ctx, cancel := context.WithTimeout(publishCtx, sideEffectTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, s.exchange, routingKey, body); err != nil {
			s.logger.Warn("failed to publish auth event", slog.String("routing_key", routingKey), slog.Any("error", err))
		}
	})
}

// compareDummy spends the same bcrypt work as a real comparison.
func (s *AuthService) compareDummy(password string) {
	s.dummyHashOnce.Do(func() {
		hash, err := pkgauth.HashPasswordWithCost("shiftbook-timing-equaliser", s.bcryptCost)
		if err != nil {
			s.logger.Error("failed to build dummy hash", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_ = pkgauth.ComparePassword(s.dummyHash, password)
	}
}

// Register creates an account and signs it in. Emails are stored as given.
func (s *AuthService) Register(ctx context.Context, email, password, name, ipAddress string) (*AuthResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrBadRequest)
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrBadRequest, err)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, unavailable("find user", err)
	}

	hash, err := pkgauth.HashPasswordWithCost(password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, unavailable("create user", err)
	}

	token, expiresAt, err := s.tm.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction(ctx, pkglogger.EventRegister, user.ID, ipAddress, nil)
	s.publish(ctx, EventUserRegistered, map[string]interface{}{"userId": user.ID})

	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userModelToResponse(user),
	}, nil
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
