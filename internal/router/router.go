package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"auth-service/internal/config"
	"auth-service/internal/handler"
	"auth-service/internal/metrics"
	"auth-service/internal/middleware"
	"auth-service/internal/model"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Tenants *handler.TenantHandler
	Audit   *handler.AuditHandler
	JWKS    *handler.JWKSHandler
	Health  *handler.HealthHandler
	Metrics http.Handler
}

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.Metrics,
	h Handlers,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimit.GeneralRPM, cfg.RateLimit.AuthRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging(m))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", h.Health.Check)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}
	r.Get("/.well-known/jwks.json", h.JWKS.Serve)

	r.Group(func(api chi.Router) {
		api.Use(rateLimitMiddleware.Handler)
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		authenticated := api.With(authMiddleware.Authenticate)
		adminOnly := authenticated.With(authMiddleware.RequireRoles(model.RoleAdmin))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.With(authMiddleware.Authenticate).Get("/self", h.Auth.Self)
			auth.With(authMiddleware.Authenticate, authMiddleware.RequireRefreshSession).Post("/refresh", h.Auth.Refresh)
			auth.With(authMiddleware.Authenticate, authMiddleware.RequireRefreshToken).Post("/logout", h.Auth.Logout)
		})

		adminOnly.Post("/users", h.Users.Create)
		adminOnly.Get("/users", h.Users.List)
		adminOnly.Get("/users/{id}", h.Users.Get)
		adminOnly.Patch("/users/{id}", h.Users.Update)
		adminOnly.Delete("/users/{id}", h.Users.Delete)

		adminOnly.Post("/tenants", h.Tenants.Create)
		authenticated.Get("/tenants", h.Tenants.List)
		authenticated.Get("/tenants/{id}", h.Tenants.Get)

		adminOnly.Get("/audit", h.Audit.List)
	})

	return r
}
