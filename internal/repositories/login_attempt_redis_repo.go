package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/shiftbook/internal/models"
	"github.com/redis/go-redis/v9"
)

// Fields: failure_count, locked_until (unix ms, 0 = none), last_attempt_at (unix ms).
// Keys carry no TTL; expired lockouts are purged lazily like the Postgres ledger.
var incrementFailureScript = redis.NewScript(`
local count = tonumber(redis.call("HGET", KEYS[1], "failure_count") or "0")
local locked = tonumber(redis.call("HGET", KEYS[1], "locked_until") or "0")
local now = tonumber(ARGV[1])
if locked > 0 and locked <= now then
  count = 0
  locked = 0
end
count = count + 1
if locked == 0 and count >= tonumber(ARGV[3]) then
  locked = tonumber(ARGV[2])
end
redis.call("HSET", KEYS[1], "failure_count", count, "locked_until", locked, "last_attempt_at", now)
return {count, locked, now}
`)

var deleteExpiredScript = redis.NewScript(`
local locked = tonumber(redis.call("HGET", KEYS[1], "locked_until") or "0")
if locked > 0 and locked <= tonumber(ARGV[1]) then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLoginAttemptRepository keeps the failed-login ledger in Redis hashes. Every
// read-modify-write runs as a Lua script so same-email updates are serialized.
type RedisLoginAttemptRepository struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLoginAttemptRepository(client redis.UniversalClient, prefix string) *RedisLoginAttemptRepository {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "shiftbook:login_attempts"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisLoginAttemptRepository{
		client: client,
		prefix: trimmedPrefix,
	}
}

func (r *RedisLoginAttemptRepository) key(email string) string {
	return fmt.Sprintf("%s:%s", r.prefix, email)
}

func (r *RedisLoginAttemptRepository) Get(ctx context.Context, email string) (*models.LoginAttemptRecord, error) {
	fields, err := r.client.HGetAll(ctx, r.key(email)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, models.ErrNotFound
	}

	count, err := strconv.ParseInt(fields["failure_count"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unexpected failure_count %q: %w", fields["failure_count"], err)
	}
	lockedMs, err := strconv.ParseInt(fields["locked_until"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unexpected locked_until %q: %w", fields["locked_until"], err)
	}
	lastMs, err := strconv.ParseInt(fields["last_attempt_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unexpected last_attempt_at %q: %w", fields["last_attempt_at"], err)
	}

	return buildRedisRecord(email, count, lockedMs, lastMs), nil
}

func (r *RedisLoginAttemptRepository) IncrementFailure(ctx context.Context, email string, now time.Time, maxAttempts int, lockout time.Duration) (*models.LoginAttemptRecord, error) {
	nowMs := now.UnixMilli()
	lockUntilMs := now.Add(lockout).UnixMilli()

	rawResult, err := incrementFailureScript.Run(ctx, r.client, []string{r.key(email)}, nowMs, lockUntilMs, maxAttempts).Result()
	if err != nil {
		return nil, err
	}

	values, ok := rawResult.([]interface{})
	if !ok || len(values) != 3 {
		return nil, fmt.Errorf("unexpected redis ledger response shape: %T", rawResult)
	}

	var parsed [3]int64
	for i, v := range values {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected redis ledger value type: %T", v)
		}
		parsed[i] = n
	}

	return buildRedisRecord(email, parsed[0], parsed[1], parsed[2]), nil
}

func (r *RedisLoginAttemptRepository) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.key(email)).Err()
}

func (r *RedisLoginAttemptRepository) DeleteExpired(ctx context.Context, email string, now time.Time) (bool, error) {
	deleted, err := deleteExpiredScript.Run(ctx, r.client, []string{r.key(email)}, now.UnixMilli()).Int64()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

func buildRedisRecord(email string, count, lockedMs, lastMs int64) *models.LoginAttemptRecord {
	rec := &models.LoginAttemptRecord{
		Email:         email,
		FailureCount:  int(count),
		LastAttemptAt: time.UnixMilli(lastMs).UTC(),
	}
	if lockedMs > 0 {
		lockedUntil := time.UnixMilli(lockedMs).UTC()
		rec.LockedUntil = &lockedUntil
	}
	return rec
}
