package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"auth-service/internal/config"
	"auth-service/internal/database"
	"auth-service/internal/event"
	"auth-service/internal/handler"
	"auth-service/internal/metrics"
	"auth-service/internal/middleware"
	"auth-service/internal/repository"
	"auth-service/internal/router"
	"auth-service/internal/service"
	"auth-service/internal/token"
)

const (
	shutdownTimeout   = 10 * time.Second
	jwksRetryInterval = 100 * time.Millisecond
)

type App struct {
	server       *http.Server
	db           *database.DB
	background   []func(ctx context.Context)
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, database.Options{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("database ready")

	return NewWithDB(cfg, db), nil
}

// NewWithDB wires the service around an already migrated database. The
// returned App owns db and closes it on shutdown.
func NewWithDB(cfg *config.Config, db *database.DB) *App {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	userRepo := repository.NewUserRepository(db.Pool)
	sessionRepo := repository.NewSessionRepository(db.Pool, repository.DefaultRetryPolicy)
	tenantRepo := repository.NewTenantRepository(db.Pool)
	auditRepo := repository.NewAuditRepository(db.Pool)

	keys := token.NewFileKeySource(cfg.Auth.PrivateKeyFile)
	if cfg.Auth.PrivateKeyFile == "" {
		slog.Warn("AUTH_PRIVATE_KEY_FILE is not set; token issuance will fail until it is configured")
	}
	if cfg.Auth.RefreshTokenSecret == "" {
		slog.Warn("AUTH_REFRESH_TOKEN_SECRET is not set; refresh tokens cannot be issued or verified")
	}

	issuer := token.NewIssuer(keys, cfg.Auth.RefreshTokenSecret, cfg.Auth.Issuer, token.WithIssuerMetrics(m))
	verifier := token.NewVerifier(newKeyResolver(cfg.Auth, keys, m), cfg.Auth.RefreshTokenSecret, cfg.Auth.Issuer)

	bus := event.NewBus()
	creds := service.NewCredentialService(cfg.Auth.BcryptCost)
	tokenService := service.NewTokenService(issuer, sessionRepo, m)
	authService := service.NewAuthService(userRepo, tokenService, creds, bus, m)
	userService := service.NewUserService(userRepo, sessionRepo, tenantRepo, creds, bus)
	tenantService := service.NewTenantService(tenantRepo, bus)
	auditService := service.NewAuditService(auditRepo)

	authMiddleware := middleware.NewAuthMiddleware(verifier, tokenService, m)
	cookies := handler.CookieConfig{Secure: cfg.Auth.CookieSecure, Domain: cfg.Auth.CookieDomain}

	appRouter := router.New(cfg, authMiddleware, m, router.Handlers{
		Auth:    handler.NewAuthHandler(authService, cookies),
		Users:   handler.NewUserHandler(userService),
		Tenants: handler.NewTenantHandler(tenantService),
		Audit:   handler.NewAuditHandler(auditService),
		JWKS:    handler.NewJWKSHandler(keys),
		Health:  handler.NewHealthHandler(db),
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		background: []func(ctx context.Context){
			func(ctx context.Context) { auditService.Consume(ctx, bus) },
			func(ctx context.Context) { tokenService.RunSweeper(ctx, cfg.SessionSweepInterval) },
		},
		cleanupFuncs: []func(){
			func() {
				db.Close()
			},
		},
	}
}

// newKeyResolver picks where access-token verification keys come from: a
// remote JWKS endpoint when one is configured, else the local signing key.
func newKeyResolver(cfg config.Auth, keys token.KeySource, m *metrics.Metrics) token.KeyResolver {
	if cfg.JWKSURI == "" {
		return token.NewStaticKeyResolver(keys)
	}

	slog.Info("verifying access tokens against remote key set", "uri", cfg.JWKSURI)
	return token.NewJWKSResolver(cfg.JWKSURI,
		token.WithCacheTTL(cfg.JWKSCacheTTL),
		token.WithRetries(cfg.JWKSFetchRetries, jwksRetryInterval),
		token.WithJWKSMetrics(m),
	)
}

func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.StartBackground(ctx)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.cleanup()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.cleanup()
	slog.Info("server stopped")
	return nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// StartBackground launches the audit consumer and the session sweeper. They
// stop when ctx is cancelled.
func (a *App) StartBackground(ctx context.Context) {
	for _, run := range a.background {
		go run(ctx)
	}
}

// Close releases the resources the App owns.
func (a *App) Close() {
	a.cleanup()
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}
