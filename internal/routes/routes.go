package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/supportportal/internal/auth"
	"github.com/BradenHooton/supportportal/internal/handlers"
	"github.com/BradenHooton/supportportal/internal/middleware"
	"github.com/BradenHooton/supportportal/internal/models"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
)

// Options carries the rate limits applied by RegisterRoutes
type Options struct {
	LoginRateLimit         middleware.RateLimitConfig
	AuthenticatedRateLimit middleware.AuthenticatedRateLimitConfig
	IPConfig               *pkghttp.IPConfig
}

// RegisterRoutes registers all /user routes. The router is expected to
// already run auth.Gatekeeper so that a security context is available.
func RegisterRoutes(
	router chi.Router,
	userHandler *handlers.UserHandler,
	authHandler *handlers.AuthHandler,
	opts Options,
) {
	router.Route("/user", func(r chi.Router) {
		// Public
		r.With(middleware.RateLimitByIP(opts.LoginRateLimit, opts.IPConfig)).Post("/login", authHandler.Login)
		r.With(middleware.RateLimitByIP(opts.LoginRateLimit, opts.IPConfig)).Post("/reset-password", userHandler.ResetPassword)
		r.Post("/register", authHandler.Register)

		// Protected
		read := middleware.RateLimitBySubject(opts.AuthenticatedRateLimit, "read", opts.IPConfig)
		write := middleware.RateLimitBySubject(opts.AuthenticatedRateLimit, "write", opts.IPConfig)

		r.With(auth.RequireAuthority(models.AuthorityUserRead), read).Get("/list", userHandler.ListUsers)
		r.With(auth.RequireAuthority(models.AuthorityUserRead), read).Get("/find/{username}", userHandler.GetUser)
		r.With(auth.RequireAuthority(models.AuthorityUserCreate), write).Post("/add", userHandler.AddUser)
		r.With(auth.RequireAuthority(models.AuthorityUserUpdate), write).Put("/update", userHandler.UpdateUser)
		r.With(auth.RequireAuthority(models.AuthorityUserDelete), write).Delete("/delete/{username}", userHandler.DeleteUser)
	})
}

// HealthHandler reports whether the database answers
func HealthHandler(check func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := check(r); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
	}
}
