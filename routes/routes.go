package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gromit-app/gromit/app"
	"github.com/gromit-app/gromit/middleware"
	"github.com/gromit-app/gromit/models"
	"github.com/gromit-app/gromit/services"
	"github.com/gromit-app/gromit/token"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))

	// CORS runs ahead of authentication and must keep both credential headers
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", token.RefreshTokenHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           deps.Config.CORS.MaxAge,
	}))

	r.Use(securityPipeline(deps))

	// Health check endpoints
	r.Method(http.MethodGet, "/healthz", middleware.Handle(deps.HealthHandler.HandleHealth))
	r.Method(http.MethodGet, "/readyz", middleware.Handle(deps.HealthHandler.HandleReadiness))

	users := deps.UserAccountHandler
	r.Route("/users", func(r chi.Router) {
		r.Method(http.MethodPost, "/", middleware.Handle(users.HandleSignUp))
		r.Method(http.MethodDelete, "/", middleware.Handle(users.HandleDelete))
		r.Method(http.MethodGet, "/check", middleware.Handle(users.HandleCheckNickname))
		r.Method(http.MethodGet, "/check/{nickname}", middleware.Handle(users.HandleCheckNickname))
		r.Method(http.MethodGet, "/github", middleware.Handle(users.HandleGithubUser))
		r.Method(http.MethodGet, "/github/{nickname}", middleware.Handle(users.HandleGithubUser))
		r.Method(http.MethodPatch, "/reload", middleware.Handle(users.HandleReloadCommits))
		r.Method(http.MethodPatch, "/change/nickname", middleware.Handle(users.HandleChangeNickname))
		r.Method(http.MethodGet, "/me", middleware.Handle(users.HandleMe))
	})

	r.Method(http.MethodPost, "/login/apple", middleware.Handle(deps.LoginHandler.HandleAppleLogin))
	r.Method(http.MethodPost, "/auth/refresh", middleware.Handle(deps.LoginHandler.HandleRefresh))

	// Admin endpoints (require admin authority)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuthority(models.AuthorityAdmin, deps.Logger))
		r.Method(http.MethodGet, "/users/{id}", middleware.Handle(users.HandleAdminGetUser))
	})

	r.NotFound(middleware.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return services.ErrRouteNotFound
	}).ServeHTTP)
	r.MethodNotAllowed(middleware.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return services.ErrMethodNotAllowed
	}).ServeHTTP)

	return r
}

// securityPipeline runs error translation, authentication and the access
// policy in that order, outermost first
func securityPipeline(deps *app.Dependencies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return middleware.Chain(next,
			deps.ErrorTranslator.Translate,
			deps.Authenticator.Authenticate,
			deps.AccessPolicy.Enforce,
		)
	}
}
