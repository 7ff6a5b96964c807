package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/shiftbook/internal/database"
	"github.com/BradenHooton/shiftbook/internal/models"
)

// LoginAttemptRepository stores the failed-login ledger in Postgres, one row per email.
type LoginAttemptRepository struct {
	db *database.DB
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository
func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

func scanLoginAttemptRow(scanner rowScanner, email string) (*models.LoginAttemptRecord, error) {
	rec := &models.LoginAttemptRecord{Email: email}
	if err := scanner.Scan(&rec.FailureCount, &rec.LockedUntil, &rec.LastAttemptAt); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return rec, nil
}

// Get returns the ledger row for email or models.ErrNotFound.
func (r *LoginAttemptRepository) Get(ctx context.Context, email string) (*models.LoginAttemptRecord, error) {
	query := `SELECT failure_count, locked_until, last_attempt_at FROM login_attempts WHERE email = $1`
	return scanLoginAttemptRow(r.db.Pool.QueryRow(ctx, query, email), email)
}

// IncrementFailure records one failure in a single statement. Concurrent calls for the
// same email serialize on the row lock taken by ON CONFLICT DO UPDATE.
//
// An active lockout is left untouched. A lockout that ended at or before now is
// discarded and the count restarts at 1. The attempt that brings the count to
// maxAttempts sets locked_until = now + lockout.
func (r *LoginAttemptRepository) IncrementFailure(ctx context.Context, email string, now time.Time, maxAttempts int, lockout time.Duration) (*models.LoginAttemptRecord, error) {
	query := `
		INSERT INTO login_attempts AS la (email, failure_count, locked_until, last_attempt_at)
		VALUES ($1, 1, CASE WHEN 1 >= $4::int THEN $3::timestamptz END, $2)
		ON CONFLICT (email) DO UPDATE SET
			failure_count = CASE
				WHEN la.locked_until IS NOT NULL AND la.locked_until <= $2 THEN 1
				ELSE la.failure_count + 1
			END,
			locked_until = CASE
				WHEN la.locked_until IS NOT NULL AND la.locked_until > $2 THEN la.locked_until
				WHEN (CASE
					WHEN la.locked_until IS NOT NULL AND la.locked_until <= $2 THEN 1
					ELSE la.failure_count + 1
				END) >= $4::int THEN $3::timestamptz
				ELSE NULL
			END,
			last_attempt_at = $2
		RETURNING failure_count, locked_until, last_attempt_at
	`

	row := r.db.Pool.QueryRow(ctx, query, email, now, now.Add(lockout), maxAttempts)
	return scanLoginAttemptRow(row, email)
}

// Delete removes the ledger row. Deleting a missing row is not an error.
func (r *LoginAttemptRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE email = $1`, email)
	return err
}

// DeleteExpired removes the row only if its lockout has ended by now. A concurrent
// failure that already restarted the count is therefore never lost.
func (r *LoginAttemptRepository) DeleteExpired(ctx context.Context, email string, now time.Time) (bool, error) {
	query := `
		DELETE FROM login_attempts
		WHERE email = $1 AND locked_until IS NOT NULL AND locked_until <= $2
	`
	result, err := r.db.Pool.Exec(ctx, query, email, now)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
