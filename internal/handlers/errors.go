package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/shiftbook/internal/models"
	"github.com/BradenHooton/shiftbook/internal/observability"
	pkghttp "github.com/BradenHooton/shiftbook/pkg/http"
)

// writeServiceError maps service errors onto the JSON error responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMessage, op string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, notFoundMessage)
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Resource already exists")
	case errors.Is(err, models.ErrServiceUnavailable):
		pkghttp.WriteServiceUnavailable(w, "Service temporarily unavailable. Please try again.")
	default:
		reportError(r, err, op)
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

func reportError(r *http.Request, err error, op string) {
	observability.CaptureError(r.Context(), err, map[string]string{
		"op":         op,
		"request_id": middleware.GetReqID(r.Context()),
	})
}
