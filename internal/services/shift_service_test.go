package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BradenHooton/shiftbook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftHours(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    float64
		wantErr bool
	}{
		{name: "day shift", start: "09:00", end: "17:30", want: 8.5},
		{name: "overnight", start: "22:00", end: "06:00", want: 8},
		{name: "equal times", start: "09:00", end: "09:00", want: 0},
		{name: "to midnight", start: "18:00", end: "00:00", want: 6},
		{name: "bad start", start: "9am", end: "17:00", wantErr: true},
		{name: "bad end", start: "09:00", end: "25:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ShiftHours(tt.start, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func summaryFixture() *ShiftService {
	shifts := &MockShiftRepository{
		ListByUserFunc: func(ctx context.Context, userID string, dates models.ShiftDateRange) ([]*models.Shift, error) {
			return []*models.Shift{
				{ID: "1", Date: "2026-06-01", StartTime: "09:00", EndTime: "17:00", PayRate: 20, Client: strPtr("Acme")},
				{ID: "2", Date: "2026-06-02", StartTime: "22:00", EndTime: "02:00", PayRate: 30, Client: strPtr("Globex")},
				{ID: "3", Date: "2026-06-03", StartTime: "10:00", EndTime: "12:00", PayRate: 15},
				{ID: "4", Date: "2026-06-04", StartTime: "bogus", EndTime: "12:00", PayRate: 15},
			}, nil
		},
	}
	return NewShiftService(shifts, &MockFavoriteShiftRepository{}, discardLogger())
}

func TestShiftService_Summary(t *testing.T) {
	svc := summaryFixture()
	dates := models.ShiftDateRange{StartDate: "2026-06-01", EndDate: "2026-06-30"}

	summary, err := svc.Summary(context.Background(), "user-1", dates, "")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ShiftCount)
	assert.InDelta(t, 14, summary.TotalHours, 1e-9)
	assert.InDelta(t, 160+120+30, summary.TotalPay, 1e-9)

	summary, err = svc.Summary(context.Background(), "user-1", dates, "Globex")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ShiftCount)
	assert.InDelta(t, 4, summary.TotalHours, 1e-9)
	assert.InDelta(t, 120, summary.TotalPay, 1e-9)
}

func TestShiftService_Summary_RangeValidation(t *testing.T) {
	svc := summaryFixture()

	_, err := svc.Summary(context.Background(), "user-1", models.ShiftDateRange{StartDate: "2026-06-01"}, "")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = svc.Summary(context.Background(), "user-1", models.ShiftDateRange{StartDate: "2026-07-01", EndDate: "2026-06-01"}, "")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestShiftService_Summary_RepositoryError(t *testing.T) {
	shifts := &MockShiftRepository{
		ListByUserFunc: func(ctx context.Context, userID string, dates models.ShiftDateRange) ([]*models.Shift, error) {
			return nil, models.ErrServiceUnavailable
		},
	}
	svc := NewShiftService(shifts, &MockFavoriteShiftRepository{}, discardLogger())

	_, err := svc.Summary(context.Background(), "user-1", models.ShiftDateRange{StartDate: "2026-06-01", EndDate: "2026-06-01"}, "")
	assert.True(t, errors.Is(err, models.ErrServiceUnavailable))
}

func TestShiftService_Clients(t *testing.T) {
	var gotRange models.ShiftDateRange
	shifts := &MockShiftRepository{
		ListByUserFunc: func(ctx context.Context, userID string, dates models.ShiftDateRange) ([]*models.Shift, error) {
			gotRange = dates
			return []*models.Shift{
				{Client: strPtr("Initech")},
				{Client: strPtr("Acme")},
				{Client: nil},
				{Client: strPtr("")},
				{Client: strPtr("Acme")},
			}, nil
		},
	}
	svc := NewShiftService(shifts, &MockFavoriteShiftRepository{}, discardLogger())

	clients, err := svc.Clients(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Initech"}, clients)
	assert.False(t, gotRange.Bounded())
}

func TestShiftService_CreateShift(t *testing.T) {
	svc := NewShiftService(&MockShiftRepository{}, &MockFavoriteShiftRepository{}, discardLogger())

	created, err := svc.CreateShift(context.Background(), &models.Shift{UserID: "user-1", Date: "2026-06-01", Title: "Morning"})
	require.NoError(t, err)
	assert.Equal(t, "shift-1", created.ID)
}

func TestShiftService_DeleteShift_NotFound(t *testing.T) {
	shifts := &MockShiftRepository{
		DeleteFunc: func(ctx context.Context, userID, id string) error {
			return models.ErrNotFound
		},
	}
	svc := NewShiftService(shifts, &MockFavoriteShiftRepository{}, discardLogger())

	err := svc.DeleteShift(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestShiftService_Favorites(t *testing.T) {
	svc := NewShiftService(&MockShiftRepository{}, &MockFavoriteShiftRepository{}, discardLogger())

	created, err := svc.CreateFavorite(context.Background(), &models.FavoriteShift{UserID: "user-1", Title: "Night"})
	require.NoError(t, err)
	assert.Equal(t, "favorite-1", created.ID)

	list, err := svc.ListFavorites(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
