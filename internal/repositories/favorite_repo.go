package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/shiftbook/internal/database"
	"github.com/BradenHooton/shiftbook/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FavoriteShiftRepository struct {
	pool *pgxpool.Pool
}

func NewFavoriteShiftRepository(db *database.DB) *FavoriteShiftRepository {
	return &FavoriteShiftRepository{pool: db.Pool}
}

const favoriteColumns = `id, user_id, title, start_time, end_time, pay_rate, client, color,
	high_priority, created_at`

func scanFavoriteRow(scanner rowScanner) (*models.FavoriteShift, error) {
	var f models.FavoriteShift
	err := scanner.Scan(
		&f.ID, &f.UserID, &f.Title, &f.StartTime, &f.EndTime, &f.PayRate, &f.Client, &f.Color,
		&f.HighPriority, &f.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &f, nil
}

// ListByUser returns templates newest first.
func (r *FavoriteShiftRepository) ListByUser(ctx context.Context, userID string) ([]*models.FavoriteShift, error) {
	query := `SELECT ` + favoriteColumns + ` FROM favorite_shifts WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]*models.FavoriteShift, 0)
	for rows.Next() {
		f, err := scanFavoriteRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return favorites, nil
}

func (r *FavoriteShiftRepository) Create(ctx context.Context, f *models.FavoriteShift) (*models.FavoriteShift, error) {
	f.ID = uuid.New().String()

	query := `
		INSERT INTO favorite_shifts (id, user_id, title, start_time, end_time, pay_rate, client, color, high_priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + favoriteColumns

	return scanFavoriteRow(r.pool.QueryRow(ctx, query,
		f.ID, f.UserID, f.Title, f.StartTime, f.EndTime, f.PayRate, f.Client, f.Color, f.HighPriority,
	))
}

func (r *FavoriteShiftRepository) Update(ctx context.Context, f *models.FavoriteShift) (*models.FavoriteShift, error) {
	query := `
		UPDATE favorite_shifts SET title = $3, start_time = $4, end_time = $5, pay_rate = $6,
			client = $7, color = $8, high_priority = $9
		WHERE id = $1 AND user_id = $2
		RETURNING ` + favoriteColumns

	return scanFavoriteRow(r.pool.QueryRow(ctx, query,
		f.ID, f.UserID, f.Title, f.StartTime, f.EndTime, f.PayRate, f.Client, f.Color, f.HighPriority,
	))
}

func (r *FavoriteShiftRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM favorite_shifts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
