package models

import "time"

// LoginAttemptRecord is the per-identity failure ledger entry. A missing record means
// zero failures and no lockout.
type LoginAttemptRecord struct {
	Email         string     `db:"email"`
	FailureCount  int        `db:"failure_count"`
	LockedUntil   *time.Time `db:"locked_until"`
	LastAttemptAt time.Time  `db:"last_attempt_at"` // observability only
}

// LockExpired reports whether the record carries a lockout that has already ended.
func (r *LoginAttemptRecord) LockExpired(now time.Time) bool {
	return r.LockedUntil != nil && !r.LockedUntil.After(now)
}
