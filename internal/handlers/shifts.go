package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/shiftbook/internal/auth"
	"github.com/BradenHooton/shiftbook/internal/models"
	pkghttp "github.com/BradenHooton/shiftbook/pkg/http"
)

// DefaultShiftColor is used when a shift or favorite is saved without a color.
const DefaultShiftColor = "#3b82f6"

// ShiftServiceInterface defines the interface for shift and favorite business logic
type ShiftServiceInterface interface {
	ListShifts(ctx context.Context, userID string, dates models.ShiftDateRange) ([]*models.Shift, error)
	CreateShift(ctx context.Context, shift *models.Shift) (*models.Shift, error)
	UpdateShift(ctx context.Context, shift *models.Shift) (*models.Shift, error)
	DeleteShift(ctx context.Context, userID, id string) error
	Clients(ctx context.Context, userID string) ([]string, error)
	Summary(ctx context.Context, userID string, dates models.ShiftDateRange, client string) (*models.PaySummary, error)

	ListFavorites(ctx context.Context, userID string) ([]*models.FavoriteShift, error)
	CreateFavorite(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error)
	UpdateFavorite(ctx context.Context, favorite *models.FavoriteShift) (*models.FavoriteShift, error)
	DeleteFavorite(ctx context.Context, userID, id string) error
}

// ShiftHandler handles shift calendar and favorite HTTP requests. All routes sit
// behind AuthMiddleware.
type ShiftHandler struct {
	service ShiftServiceInterface
}

// NewShiftHandler creates a new ShiftHandler
func NewShiftHandler(service ShiftServiceInterface) *ShiftHandler {
	return &ShiftHandler{service: service}
}

// ShiftDetails are the editable fields shared by shifts and favorites.
type ShiftDetails struct {
	Title        string  `json:"title" validate:"required,max=200"`
	StartTime    string  `json:"startTime" validate:"required,datetime=15:04"`
	EndTime      string  `json:"endTime" validate:"required,datetime=15:04"`
	PayRate      float64 `json:"payRate" validate:"gte=0"`
	Client       *string `json:"client" validate:"omitempty,max=200"`
	Color        string  `json:"color" validate:"omitempty,hexcolor"`
	HighPriority bool    `json:"highPriority"`
}

func (d ShiftDetails) color() string {
	if d.Color == "" {
		return DefaultShiftColor
	}
	return d.Color
}

func (d ShiftDetails) client() *string {
	if d.Client == nil {
		return nil
	}
	client := strings.TrimSpace(*d.Client)
	if client == "" {
		return nil
	}
	return &client
}

// CreateShiftRequest represents the request body for placing a shift on the calendar
type CreateShiftRequest struct {
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	FavoriteShiftID *string `json:"favoriteShiftId" validate:"omitempty,uuid"`
	ShiftDetails
}

// UpdateShiftRequest carries the fields a shift may change after creation.
type UpdateShiftRequest struct {
	ShiftDetails
}

// FavoriteRequest represents the request body for creating or updating a favorite
type FavoriteRequest struct {
	ShiftDetails
}

// ClientsResponse lists the distinct clients on a user's shifts.
type ClientsResponse struct {
	Clients []string `json:"clients"`
}

func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := auth.GetUserFromContext(r)
	if claims == nil || claims.UserID == "" {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return "", false
	}
	return claims.UserID, true
}

// parseDateRange reads the optional startDate/endDate query parameters.
func parseDateRange(r *http.Request) (models.ShiftDateRange, error) {
	q := r.URL.Query()
	dates := models.ShiftDateRange{
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}
	for _, d := range []string{dates.StartDate, dates.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return models.ShiftDateRange{}, err
		}
	}
	return dates, nil
}

// ListShifts handles GET /api/shifts
func (h *ShiftHandler) ListShifts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	dates, err := parseDateRange(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "startDate and endDate must be YYYY-MM-DD")
		return
	}

	shifts, err := h.service.ListShifts(r.Context(), userID, dates)
	if err != nil {
		writeServiceError(w, r, err, "Shift not found", "shifts.list")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, shifts)
}

// CreateShift handles POST /api/shifts
func (h *ShiftHandler) CreateShift(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	shift, err := h.service.CreateShift(r.Context(), &models.Shift{
		UserID:          userID,
		FavoriteShiftID: req.FavoriteShiftID,
		Date:            req.Date,
		Title:           strings.TrimSpace(req.Title),
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		PayRate:         req.PayRate,
		Client:          req.client(),
		Color:           req.color(),
		HighPriority:    req.HighPriority,
	})
	if err != nil {
		writeServiceError(w, r, err, "Favorite shift not found", "shifts.create")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, shift)
}

// UpdateShift handles PUT /api/shifts/{id}
func (h *ShiftHandler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req UpdateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	shift, err := h.service.UpdateShift(r.Context(), &models.Shift{
		ID:           chi.URLParam(r, "id"),
		UserID:       userID,
		Title:        strings.TrimSpace(req.Title),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		PayRate:      req.PayRate,
		Client:       req.client(),
		Color:        req.color(),
		HighPriority: req.HighPriority,
	})
	if err != nil {
		writeServiceError(w, r, err, "Shift not found", "shifts.update")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, shift)
}

// DeleteShift handles DELETE /api/shifts/{id}
func (h *ShiftHandler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteShift(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, "Shift not found", "shifts.delete")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Shift deleted"})
}

// Summary handles GET /api/shifts/summary
func (h *ShiftHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	dates, err := parseDateRange(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "startDate and endDate must be YYYY-MM-DD")
		return
	}

	summary, err := h.service.Summary(r.Context(), userID, dates, strings.TrimSpace(r.URL.Query().Get("client")))
	if err != nil {
		writeServiceError(w, r, err, "Shift not found", "shifts.summary")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, summary)
}

// Clients handles GET /api/shifts/clients
func (h *ShiftHandler) Clients(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	clients, err := h.service.Clients(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Shift not found", "shifts.clients")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ClientsResponse{Clients: clients})
}

// ListFavorites handles GET /api/favorites
func (h *ShiftHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	favorites, err := h.service.ListFavorites(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Favorite shift not found", "favorites.list")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, favorites)
}

// CreateFavorite handles POST /api/favorites
func (h *ShiftHandler) CreateFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	favorite, err := h.service.CreateFavorite(r.Context(), req.toModel("", userID))
	if err != nil {
		writeServiceError(w, r, err, "Favorite shift not found", "favorites.create")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, favorite)
}

// UpdateFavorite handles PUT /api/favorites/{id}
func (h *ShiftHandler) UpdateFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	favorite, err := h.service.UpdateFavorite(r.Context(), req.toModel(chi.URLParam(r, "id"), userID))
	if err != nil {
		writeServiceError(w, r, err, "Favorite shift not found", "favorites.update")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, favorite)
}

// DeleteFavorite handles DELETE /api/favorites/{id}
func (h *ShiftHandler) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteFavorite(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, "Favorite shift not found", "favorites.delete")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Favorite shift deleted"})
}

func (req FavoriteRequest) toModel(id, userID string) *models.FavoriteShift {
	return &models.FavoriteShift{
		ID:           id,
		UserID:       userID,
		Title:        strings.TrimSpace(req.Title),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		PayRate:      req.PayRate,
		Client:       req.client(),
		Color:        req.color(),
		HighPriority: req.HighPriority,
	}
}
