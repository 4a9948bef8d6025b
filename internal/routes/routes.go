package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/mholloway/pennygate/internal/auth"
	"github.com/mholloway/pennygate/internal/handlers"
	"github.com/mholloway/pennygate/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	tokenManager *auth.TokenManager,
) {
	rateLimitConfig := middleware.DefaultLoginRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/login", authHandler.Login)

	// Protected routes - bearer token required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Get("/me", authHandler.Me)
	})
}
