package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/BradenHooton/shiftbook/internal/models"
)

// ShiftRepository defines the interface for shift data access. All calls are scoped
// to the owning user.
type ShiftRepository interface {
	ListByUser(ctx context.Context, userID string, dates models.ShiftDateRange) ([]*models.Shift, error)
	Create(ctx context.Context, shift *models.Shift) (*models.Shift, error)
	Update(ctx context.Context, shift *models.Shift) (*models.Shift, error)
	Delete(ctx context.Context, userID, id string) error
}

// FavoriteShiftRepository defines the interface for shift template data access.
type FavoriteShiftRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.FavoriteShift, error)
	Create(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error)
	Update(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error)
	Delete(ctx context.Context, userID, id string) error
}

// ShiftService manages a user's shift calendar and templates.
type ShiftService struct {
	shifts    ShiftRepository
	favorites FavoriteShiftRepository
	logger    *slog.Logger
}

// NewShiftService creates a new ShiftService
func NewShiftService(shifts ShiftRepository, favorites FavoriteShiftRepository, logger *slog.Logger) *ShiftService {
	return &ShiftService{
		shifts:    shifts,
		favorites: favorites,
		logger:    logger,
	}
}

func (s *ShiftService) ListShifts(ctx context.Context, userID string, dates models.ShiftDateRange) ([]*models.Shift, error) {
	return s.shifts.ListByUser(ctx, userID, dates)
}

func (s *ShiftService) CreateShift(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	created, err := s.shifts.Create(ctx, shift)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("shift created", slog.String("user_id", shift.UserID), slog.String("shift_id", created.ID))
	return created, nil
}

func (s *ShiftService) UpdateShift(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	return s.shifts.Update(ctx, shift)
}

func (s *ShiftService) DeleteShift(ctx context.Context, userID, id string) error {
	return s.shifts.Delete(ctx, userID, id)
}

// Clients returns the distinct non-empty client names on the user's shifts, sorted.
func (s *ShiftService) Clients(ctx context.Context, userID string) ([]string, error) {
	shifts, err := s.shifts.ListByUser(ctx, userID, models.ShiftDateRange{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	clients := make([]string, 0)
	for _, shift := range shifts {
		if shift.Client == nil || *shift.Client == "" || seen[*shift.Client] {
			continue
		}
		seen[*shift.Client] = true
		clients = append(clients, *shift.Client)
	}
	sort.Strings(clients)
	return clients, nil
}

// Summary totals hours and pay for shifts dated within dates (inclusive). A non-empty
// client restricts the total to shifts for that client.
func (s *ShiftService) Summary(ctx context.Context, userID string, dates models.ShiftDateRange, client string) (*models.PaySummary, error) {
	if !dates.Bounded() {
		return nil, fmt.Errorf("%w: startDate and endDate are required", models.ErrBadRequest)
	}
	if dates.StartDate > dates.EndDate {
		return nil, fmt.Errorf("%w: startDate must not be after endDate", models.ErrBadRequest)
	}

	shifts, err := s.shifts.ListByUser(ctx, userID, dates)
	if err != nil {
		return nil, err
	}

	summary := &models.PaySummary{}
	for _, shift := range shifts {
		if client != "" && (shift.Client == nil || *shift.Client != client) {
			continue
		}

		hours, err := ShiftHours(shift.StartTime, shift.EndTime)
		if err != nil {
			s.logger.Warn("skipping shift with unparseable times",
				slog.String("shift_id", shift.ID),
				slog.Any("error", err))
			continue
		}

		summary.ShiftCount++
		summary.TotalHours += hours
		summary.TotalPay += hours * shift.PayRate
	}
	return summary, nil
}

// ShiftHours returns the length of a shift given HH:mm times. An end earlier than
// the start is an overnight shift ending the next day.
func ShiftHours(start, end string) (float64, error) {
	startAt, err := time.Parse("15:04", start)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: %w", start, err)
	}
	endAt, err := time.Parse("15:04", end)
	if err != nil {
		return 0, fmt.Errorf("invalid end time %q: %w", end, err)
	}

	minutes := endAt.Sub(startAt).Minutes()
	if minutes < 0 {
		minutes += 24 * 60
	}
	return minutes / 60, nil
}

func (s *ShiftService) ListFavorites(ctx context.Context, userID string) ([]*models.FavoriteShift, error) {
	return s.favorites.ListByUser(ctx, userID)
}

func (s *ShiftService) CreateFavorite(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error) {
	return s.favorites.Create(ctx, favorite)
}

func (s *ShiftService) UpdateFavorite(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error) {
	return s.favorites.Update(ctx, favorite)
}

func (s *ShiftService) DeleteFavorite(ctx context.Context, userID, id string) error {
	return s.favorites.Delete(ctx, userID, id)
}
