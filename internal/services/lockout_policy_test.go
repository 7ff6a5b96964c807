package services

import (
	"testing"
	"time"

	"github.com/BradenHooton/shiftbook/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestLockoutPolicy_Evaluate(t *testing.T) {
	policy := DefaultLockoutPolicy()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	future := now.Add(10 * time.Minute)
	past := now.Add(-time.Second)
	almost := now.Add(1500 * time.Millisecond)

	tests := []struct {
		name string
		rec  *models.LoginAttemptRecord
		want Verdict
	}{
		{
			name: "no record",
			rec:  nil,
			want: Verdict{RemainingAttempts: 6},
		},
		{
			name: "some failures",
			rec:  &models.LoginAttemptRecord{FailureCount: 2},
			want: Verdict{RemainingAttempts: 4},
		},
		{
			name: "count past max without lock is clamped",
			rec:  &models.LoginAttemptRecord{FailureCount: 9},
			want: Verdict{RemainingAttempts: 0},
		},
		{
			name: "active lock",
			rec:  &models.LoginAttemptRecord{FailureCount: 6, LockedUntil: &future},
			want: Verdict{Locked: true, RemainingSeconds: 600, LockedUntil: future},
		},
		{
			name: "partial second rounds up",
			rec:  &models.LoginAttemptRecord{FailureCount: 6, LockedUntil: &almost},
			want: Verdict{Locked: true, RemainingSeconds: 2, LockedUntil: almost},
		},
		{
			name: "expired lock",
			rec:  &models.LoginAttemptRecord{FailureCount: 6, LockedUntil: &past},
			want: Verdict{RemainingAttempts: 6},
		},
		{
			name: "lock ending exactly now is expired",
			rec:  &models.LoginAttemptRecord{FailureCount: 6, LockedUntil: &now},
			want: Verdict{RemainingAttempts: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Evaluate(tt.rec, now))
		})
	}
}

func TestCeilSeconds(t *testing.T) {
	assert.Equal(t, 0, ceilSeconds(0))
	assert.Equal(t, 0, ceilSeconds(-time.Second))
	assert.Equal(t, 1, ceilSeconds(time.Nanosecond))
	assert.Equal(t, 1, ceilSeconds(time.Second))
	assert.Equal(t, 600, ceilSeconds(10*time.Minute))
}
