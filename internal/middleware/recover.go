package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"

	pkghttp "github.com/BradenHooton/shiftbook/pkg/http"
)

// Recoverer turns a handler panic into a 500 JSON response and reports it to Sentry.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := string(debug.Stack())
				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetTag("request_id", middleware.GetReqID(r.Context()))
					scope.SetExtra("stack", stack)
					sentry.CaptureException(fmt.Errorf("panic in %s %s: %v", r.Method, r.URL.Path, rec))
				})

				logger.Error("panic_recovered",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", stack))

				pkghttp.WriteInternalError(w, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
