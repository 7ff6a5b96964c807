package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/shiftbook/internal/models"
	pkglogger "github.com/BradenHooton/shiftbook/pkg/logger"
)

// LoginAttemptStore is the storage contract for the failed-login ledger. Both the
// Postgres and the Redis repositories implement it.
type LoginAttemptStore interface {
	Get(ctx context.Context, email string) (*models.LoginAttemptRecord, error)
	IncrementFailure(ctx context.Context, email string, now time.Time, maxAttempts int, lockout time.Duration) (*models.LoginAttemptRecord, error)
	Delete(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, email string, now time.Time) (bool, error)
}

const defaultLedgerWriteTimeout = 5 * time.Second

// AttemptLedger tracks failed logins per email and applies the lockout policy.
// Storage failures surface as models.ErrServiceUnavailable.
type AttemptLedger struct {
	store        LoginAttemptStore
	policy       LockoutPolicy
	writeTimeout time.Duration
	logger       *slog.Logger
}

// NewAttemptLedger creates a new AttemptLedger
func NewAttemptLedger(store LoginAttemptStore, policy LockoutPolicy, writeTimeout time.Duration, logger *slog.Logger) *AttemptLedger {
	if writeTimeout <= 0 {
		writeTimeout = defaultLedgerWriteTimeout
	}
	return &AttemptLedger{
		store:        store,
		policy:       policy,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Policy returns the policy the ledger enforces.
func (l *AttemptLedger) Policy() LockoutPolicy {
	return l.policy
}

// writeContext detaches ledger writes from request cancellation so a client that
// hangs up mid-login still has its failure counted.
func (l *AttemptLedger) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), l.writeTimeout)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrServiceUnavailable, op, err)
}

// CheckStatus reads the ledger and evaluates it at now. An expired lockout is purged
// with a conditional delete so a concurrent fresh failure is never lost.
func (l *AttemptLedger) CheckStatus(ctx context.Context, email string, now time.Time) (Verdict, error) {
	rec, err := l.store.Get(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return l.policy.Evaluate(nil, now), nil
	}
	if err != nil {
		return Verdict{}, unavailable("read login attempts", err)
	}

	if rec.LockExpired(now) {
		wctx, cancel := l.writeContext(ctx)
		defer cancel()

		// The verdict is already decided by the read; a failed purge is retried on the
		// next access.
		if _, err := l.store.DeleteExpired(wctx, email, now); err != nil {
			l.logger.Warn("failed to purge expired lockout",
				slog.String("email", pkglogger.SanitizedEmail(email)),
				slog.Any("error", err))
		}
	}

	return l.policy.Evaluate(rec, now), nil
}

// RecordFailure counts one failed attempt and returns the verdict for the updated
// record. lockTriggered is true only for the attempt that started the lockout.
func (l *AttemptLedger) RecordFailure(ctx context.Context, email string, now time.Time) (verdict Verdict, lockTriggered bool, err error) {
	wctx, cancel := l.writeContext(ctx)
	defer cancel()

	rec, err := l.store.IncrementFailure(wctx, email, now, l.policy.MaxAttempts, l.policy.LockoutDuration)
	if err != nil {
		return Verdict{}, false, unavailable("record failed login", err)
	}

	verdict = l.policy.Evaluate(rec, now)
	lockTriggered = verdict.Locked && rec.FailureCount == l.policy.MaxAttempts
	return verdict, lockTriggered, nil
}

// ClearAttempts removes the ledger entry. Clearing a missing entry is not an error.
func (l *AttemptLedger) ClearAttempts(ctx context.Context, email string) error {
	wctx, cancel := l.writeContext(ctx)
	defer cancel()

	if err := l.store.Delete(wctx, email); err != nil {
		return unavailable("clear login attempts", err)
	}
	return nil
}

// RemainingAttempts returns 0 while locked, otherwise the failures left before lockout.
func (l *AttemptLedger) RemainingAttempts(ctx context.Context, email string, now time.Time) (int, error) {
	verdict, err := l.CheckStatus(ctx, email, now)
	if err != nil {
		return 0, err
	}
	if verdict.Locked {
		return 0, nil
	}
	return verdict.RemainingAttempts, nil
}
