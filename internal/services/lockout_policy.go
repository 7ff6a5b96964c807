package services

import (
	"time"

	"github.com/BradenHooton/shiftbook/internal/models"
)

const (
	DefaultMaxAttempts     = 6
	DefaultLockoutDuration = 10 * time.Minute
)

// LockoutPolicy decides, without I/O, whether an identity may attempt a login.
type LockoutPolicy struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

// DefaultLockoutPolicy allows six failures, then locks for ten minutes.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxAttempts:     DefaultMaxAttempts,
		LockoutDuration: DefaultLockoutDuration,
	}
}

// Verdict is the outcome of evaluating a ledger record at a point in time.
type Verdict struct {
	Locked            bool
	RemainingAttempts int // 0 when Locked
	RemainingSeconds  int // whole seconds until unlock, rounded up; 0 when not Locked
	LockedUntil       time.Time
}

// Evaluate applies the policy to rec at now. A nil record or an expired lockout is
// treated as a clean slate; purging the expired row is the caller's job.
func (p LockoutPolicy) Evaluate(rec *models.LoginAttemptRecord, now time.Time) Verdict {
	if rec == nil || rec.LockExpired(now) {
		return Verdict{RemainingAttempts: p.MaxAttempts}
	}

	if rec.LockedUntil != nil {
		return Verdict{
			Locked:           true,
			RemainingSeconds: ceilSeconds(rec.LockedUntil.Sub(now)),
			LockedUntil:      *rec.LockedUntil,
		}
	}

	return Verdict{RemainingAttempts: max(0, p.MaxAttempts-rec.FailureCount)}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
