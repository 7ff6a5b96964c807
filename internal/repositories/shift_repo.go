package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/shiftbook/internal/database"
	"github.com/BradenHooton/shiftbook/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShiftRepository struct {
	pool *pgxpool.Pool
}

func NewShiftRepository(db *database.DB) *ShiftRepository {
	return &ShiftRepository{pool: db.Pool}
}

const shiftColumns = `id, user_id, favorite_shift_id, date::text, title, start_time, end_time,
	pay_rate, client, color, high_priority, created_at`

func scanShiftRow(scanner rowScanner) (*models.Shift, error) {
	var s models.Shift
	err := scanner.Scan(
		&s.ID, &s.UserID, &s.FavoriteShiftID, &s.Date, &s.Title, &s.StartTime, &s.EndTime,
		&s.PayRate, &s.Client, &s.Color, &s.HighPriority, &s.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func scanShiftRows(rows pgx.Rows) ([]*models.Shift, error) {
	defer rows.Close()

	shifts := make([]*models.Shift, 0)
	for rows.Next() {
		s, err := scanShiftRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return shifts, nil
}

// ListByUser returns the user's shifts ordered by date then start time. The date
// filter applies only when both ends of the range are set.
func (r *ShiftRepository) ListByUser(ctx context.Context, userID string, dates models.ShiftDateRange) ([]*models.Shift, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if dates.Bounded() {
		query := `SELECT ` + shiftColumns + ` FROM shifts
			WHERE user_id = $1 AND date BETWEEN $2::date AND $3::date
			ORDER BY date, start_time`
		rows, err = r.pool.Query(ctx, query, userID, dates.StartDate, dates.EndDate)
	} else {
		query := `SELECT ` + shiftColumns + ` FROM shifts WHERE user_id = $1 ORDER BY date, start_time`
		rows, err = r.pool.Query(ctx, query, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", database.MapPostgresError(err))
	}

	return scanShiftRows(rows)
}

func (r *ShiftRepository) Create(ctx context.Context, s *models.Shift) (*models.Shift, error) {
	s.ID = uuid.New().String()

	query := `
		INSERT INTO shifts (id, user_id, favorite_shift_id, date, title, start_time, end_time,
			pay_rate, client, color, high_priority)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + shiftColumns

	return scanShiftRow(r.pool.QueryRow(ctx, query,
		s.ID, s.UserID, s.FavoriteShiftID, s.Date, s.Title, s.StartTime, s.EndTime,
		s.PayRate, s.Client, s.Color, s.HighPriority,
	))
}

// Update rewrites the editable fields of a shift owned by s.UserID. The date and
// template link are fixed at creation.
func (r *ShiftRepository) Update(ctx context.Context, s *models.Shift) (*models.Shift, error) {
	query := `
		UPDATE shifts SET title = $3, start_time = $4, end_time = $5, pay_rate = $6,
			client = $7, color = $8, high_priority = $9
		WHERE id = $1 AND user_id = $2
		RETURNING ` + shiftColumns

	return scanShiftRow(r.pool.QueryRow(ctx, query,
		s.ID, s.UserID, s.Title, s.StartTime, s.EndTime, s.PayRate, s.Client, s.Color, s.HighPriority,
	))
}

func (r *ShiftRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM shifts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
