//go:build integration

package repositories

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BradenHooton/shiftbook/internal/database"
	"github.com/BradenHooton/shiftbook/internal/models"
)

var testDB *database.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("shiftbook"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		panic(err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		panic(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		panic(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := database.Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		panic(err)
	}

	testDB = &database.DB{Pool: pool}

	code := m.Run()

	pool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func cleanupTables(t *testing.T) {
	t.Helper()
	_, err := testDB.Pool.Exec(context.Background(),
		"TRUNCATE TABLE shifts, favorite_shifts, login_attempts, users CASCADE")
	require.NoError(t, err)
}

func seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := NewUserRepository(testDB).Create(context.Background(), &models.User{
		Email:        email,
		PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderpla",
		Name:         "Test",
	})
	require.NoError(t, err)
	return user
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	cleanupTables(t)
	ctx := context.Background()
	repo := NewUserRepository(testDB)

	created := seedUser(t, "Case@Example.com")

	found, err := repo.GetByEmail(ctx, "Case@Example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetByEmail(ctx, "case@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound, "email lookup is case-sensitive")

	_, err = repo.Create(ctx, &models.User{Email: "Case@Example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestLoginAttemptRepository_Lifecycle(t *testing.T) {
	cleanupTables(t)
	ctx := context.Background()
	repo := NewLoginAttemptRepository(testDB)
	t0 := time.Now().UTC().Truncate(time.Millisecond)
	lockout := 10 * time.Minute

	_, err := repo.Get(ctx, "a@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	for i := 1; i <= 5; i++ {
		rec, err := repo.IncrementFailure(ctx, "a@example.com", t0, 6, lockout)
		require.NoError(t, err)
		assert.Equal(t, i, rec.FailureCount)
		assert.Nil(t, rec.LockedUntil)
	}

	rec, err := repo.IncrementFailure(ctx, "a@example.com", t0, 6, lockout)
	require.NoError(t, err)
	assert.Equal(t, 6, rec.FailureCount)
	require.NotNil(t, rec.LockedUntil)
	assert.WithinDuration(t, t0.Add(lockout), *rec.LockedUntil, time.Millisecond)

	// Locked rows are not purged early
	deleted, err := repo.DeleteExpired(ctx, "a@example.com", t0.Add(lockout-time.Second))
	require.NoError(t, err)
	assert.False(t, deleted)

	// A failure after expiry restarts the count
	rec, err = repo.IncrementFailure(ctx, "a@example.com", t0.Add(lockout), 6, lockout)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.FailureCount)
	assert.Nil(t, rec.LockedUntil)

	require.NoError(t, repo.Delete(ctx, "a@example.com"))
	require.NoError(t, repo.Delete(ctx, "a@example.com"))
	_, err = repo.Get(ctx, "a@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLoginAttemptRepository_ConcurrentFailures(t *testing.T) {
	cleanupTables(t)
	ctx := context.Background()
	repo := NewLoginAttemptRepository(testDB)
	t0 := time.Now().UTC().Truncate(time.Millisecond)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		locks int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := repo.IncrementFailure(ctx, "race@example.com", t0, 6, 10*time.Minute)
			if !assert.NoError(t, err) {
				return
			}
			if rec.FailureCount == 6 {
				mu.Lock()
				locks++
				mu.Unlock()
				assert.NotNil(t, rec.LockedUntil)
			}
		}()
	}
	wg.Wait()

	rec, err := repo.Get(ctx, "race@example.com")
	require.NoError(t, err)
	assert.Equal(t, 6, rec.FailureCount)
	assert.Equal(t, 1, locks)
}

func TestShiftRepository_RangeAndOwnership(t *testing.T) {
	cleanupTables(t)
	ctx := context.Background()
	repo := NewShiftRepository(testDB)
	owner := seedUser(t, "owner@example.com")
	other := seedUser(t, "other@example.com")

	for _, d := range []struct{ date, start string }{
		{"2026-03-02", "09:00"},
		{"2026-03-01", "18:00"},
		{"2026-03-01", "08:00"},
		{"2026-04-01", "08:00"},
	} {
		_, err := repo.Create(ctx, &models.Shift{
			UserID: owner.ID, Date: d.date, Title: "Shift", StartTime: d.start, EndTime: "17:00",
			PayRate: 20, Color: "#ffb3ba",
		})
		require.NoError(t, err)
	}

	shifts, err := repo.ListByUser(ctx, owner.ID, models.ShiftDateRange{StartDate: "2026-03-01", EndDate: "2026-03-31"})
	require.NoError(t, err)
	require.Len(t, shifts, 3)
	assert.Equal(t, "2026-03-01", shifts[0].Date)
	assert.Equal(t, "08:00", shifts[0].StartTime)
	assert.Equal(t, "18:00", shifts[1].StartTime)
	assert.Equal(t, "2026-03-02", shifts[2].Date)

	all, err := repo.ListByUser(ctx, owner.ID, models.ShiftDateRange{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	err = repo.Delete(ctx, other.ID, shifts[0].ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	shifts[0].UserID = other.ID
	_, err = repo.Update(ctx, shifts[0])
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, owner.ID, shifts[0].ID))
}

func TestFavoriteShiftRepository_NewestFirst(t *testing.T) {
	cleanupTables(t)
	ctx := context.Background()
	repo := NewFavoriteShiftRepository(testDB)
	owner := seedUser(t, "fav@example.com")

	first, err := repo.Create(ctx, &models.FavoriteShift{
		UserID: owner.ID, Title: "Early", StartTime: "06:00", EndTime: "14:00", PayRate: 18, Color: "#bae1ff",
	})
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := repo.Create(ctx, &models.FavoriteShift{
		UserID: owner.ID, Title: "Late", StartTime: "14:00", EndTime: "22:00", PayRate: 21, Color: "#baffc9",
	})
	require.NoError(t, err)

	favorites, err := repo.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 2)
	assert.Equal(t, second.ID, favorites[0].ID)
	assert.Equal(t, first.ID, favorites[1].ID)

	require.NoError(t, repo.Delete(ctx, owner.ID, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, owner.ID, first.ID), models.ErrNotFound)
}
