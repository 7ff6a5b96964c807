package models

import "time"

// Shift is a paid work shift placed on a calendar date.
type Shift struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	FavoriteShiftID *string   `json:"favoriteShiftId"`
	Date            string    `json:"date"`      // YYYY-MM-DD
	Title           string    `json:"title"`
	StartTime       string    `json:"startTime"` // HH:mm
	EndTime         string    `json:"endTime"`   // HH:mm
	PayRate         float64   `json:"payRate"`
	Client          *string   `json:"client"`
	Color           string    `json:"color"`
	HighPriority    bool      `json:"highPriority"`
	CreatedAt       time.Time `json:"createdAt"`
}

// FavoriteShift is a reusable shift template.
type FavoriteShift struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	PayRate      float64   `json:"payRate"`
	Client       *string   `json:"client"`
	Color        string    `json:"color"`
	HighPriority bool      `json:"highPriority"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ShiftDateRange bounds a shift listing; both ends are inclusive. A range with
// either end empty matches every date.
type ShiftDateRange struct {
	StartDate string
	EndDate   string
}

// Bounded reports whether the range should filter at all.
func (r ShiftDateRange) Bounded() bool {
	return r.StartDate != "" && r.EndDate != ""
}

// PaySummary aggregates hours and pay over a set of shifts.
type PaySummary struct {
	ShiftCount int     `json:"shiftCount"`
	TotalHours float64 `json:"totalHours"`
	TotalPay   float64 `json:"totalPay"`
}
