package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/shiftbook/internal/auth"
	"github.com/BradenHooton/shiftbook/internal/handlers"
	"github.com/BradenHooton/shiftbook/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	shiftHandler *handlers.ShiftHandler,
	healthHandler *handlers.HealthHandler,
	tokenVerifier auth.TokenVerifier,
	authRateLimit middleware.RateLimitConfig,
) {
	router.Get("/health", healthHandler.Health)

	router.Route("/api", func(r chi.Router) {
		// Public routes - throttled per client IP ahead of the account lockout
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(authRateLimit))
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/register", authHandler.Register)
		})
		r.Get("/auth/me", authHandler.Me)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes - authentication required
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(tokenVerifier))

			r.Get("/shifts", shiftHandler.ListShifts)
			r.Post("/shifts", shiftHandler.CreateShift)
			r.Get("/shifts/summary", shiftHandler.Summary)
			r.Get("/shifts/clients", shiftHandler.Clients)
			r.Put("/shifts/{id}", shiftHandler.UpdateShift)
			r.Delete("/shifts/{id}", shiftHandler.DeleteShift)

			r.Get("/favorites", shiftHandler.ListFavorites)
			r.Post("/favorites", shiftHandler.CreateFavorite)
			r.Put("/favorites/{id}", shiftHandler.UpdateFavorite)
			r.Delete("/favorites/{id}", shiftHandler.DeleteFavorite)
		})
	})
}
