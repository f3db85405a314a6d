// Package main is the entrypoint for the authcore API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/authcore/authcore/internal/auth"
	"github.com/authcore/authcore/internal/cache"
	"github.com/authcore/authcore/internal/config"
	"github.com/authcore/authcore/internal/handler"
	"github.com/authcore/authcore/internal/metrics"
	"github.com/authcore/authcore/internal/middleware"
	"github.com/authcore/authcore/internal/repository"
	"github.com/authcore/authcore/internal/revocation"
	"github.com/authcore/authcore/internal/server"
	"github.com/authcore/authcore/internal/service"
	"github.com/authcore/authcore/internal/telemetry"
	"github.com/authcore/authcore/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// component is a backend that must be released on shutdown.
type component struct {
	name     string
	shutdown server.ShutdownFunc
}

// backends holds the selected user store and revocation registry.
type backends struct {
	users   repository.UserStore
	revoked revocation.Registry
	db      handler.HealthChecker
	cache   handler.HealthChecker
	sweeper *revocation.Memory

	// components in the order they were opened
	components []component
}

func (b *backends) closeAll(ctx context.Context) {
	for i := len(b.components) - 1; i >= 0; i-- {
		_ = b.components[i].shutdown(ctx)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		_ = shutdownTracing(ctx)
		return err
	}

	recorder := metrics.NewInMemory()
	svc, err := newAuthService(cfg, b, recorder, logger)
	if err != nil {
		b.closeAll(ctx)
		_ = shutdownTracing(ctx)
		return err
	}

	r := setupRouter(cfg, svc, b, recorder, logger)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered first, stopped last.
	srv.OnShutdown("tracing", server.ShutdownFunc(shutdownTracing))
	for _, c := range b.components {
		srv.OnShutdown(c.name, c.shutdown)
	}

	if b.sweeper != nil {
		go func() {
			if err := b.sweeper.Run(ctx, cfg.RevocationSweepInterval); err != nil {
				logger.Error("revocation sweeper stopped", "error", err)
			}
		}()
		srv.OnShutdown("revocation-sweeper", b.sweeper.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"user_store", cfg.UserStore,
		"revocation_backend", cfg.RevocationBackend,
	)

	return srv.Run(ctx)
}

// openBackends connects the configured user store and revocation registry.
// On error, anything already opened is closed.
func openBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (b *backends, err error) {
	b = &backends{}
	defer func() {
		if err != nil {
			b.closeAll(ctx)
		}
	}()

	switch cfg.UserStore {
	case config.UserStoreMemory:
		b.users = repository.NewMemoryUserStore()
		logger.Warn("using in-memory user store; accounts are lost on restart")
	default:
		if cfg.RunMigrations {
			if err := migrations.Up(ctx, cfg.DatabaseURL); err != nil {
				return nil, fmt.Errorf("run migrations: %s", sanitizeError(err, cfg.DatabaseURL))
			}
			version, err := migrations.Version(ctx, cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("read schema version: %s", sanitizeError(err, cfg.DatabaseURL))
			}
			logger.Info("database migrations applied", "schema_version", version)
		}

		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return nil, errors.New("database unavailable")
		}
		logger.Info("connected to database")

		b.users = repo
		b.db = repo
		b.components = append(b.components, component{"postgres", func(context.Context) error {
			repo.Close()
			return nil
		}})
	}

	switch cfg.RevocationBackend {
	case config.RevocationRedis:
		cacheClient, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return nil, errors.New("redis unavailable")
		}
		logger.Info("connected to Redis")

		b.revoked = cache.NewRevocationRegistry(cacheClient)
		b.cache = cacheClient
		b.components = append(b.components, component{"redis", func(context.Context) error {
			return cacheClient.Close()
		}})
	default:
		b.sweeper = revocation.NewMemory(logger)
		b.revoked = b.sweeper
	}

	return b, nil
}

func newAuthService(cfg *config.Config, b *backends, recorder metrics.Recorder, logger *slog.Logger) (*service.AuthService, error) {
	params := auth.DefaultArgon2Params()
	params.Time = cfg.PasswordHashTime
	params.MemoryKiB = cfg.PasswordHashMemoryKiB
	params.Threads = cfg.PasswordHashThreads

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create token issuer: %w", err)
	}

	return service.NewAuthService(
		b.users,
		auth.NewPasswordHasher(params),
		tokens,
		b.revoked,
		recorder,
		logger,
	), nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	cfg *config.Config,
	svc *service.AuthService,
	b *backends,
	snapshotter metrics.Snapshotter,
	logger *slog.Logger,
) *chi.Mux {
	h := handler.New(cfg.ServiceName)
	healthHandler := handler.NewHealthHandler(b.db, b.cache)
	metricsHandler := handler.NewMetricsHandler(snapshotter)
	authHandler := handler.NewAuthHandler(svc, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(middleware.TracingConfig{}))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Set before mounting so sub-routers inherit them.
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	// Health and metrics endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	// Root info endpoint
	r.Get("/", h.Info)

	requireAuth := middleware.Auth(middleware.AuthConfig{
		Logger:        logger,
		Authenticator: svc,
	})
	r.Mount("/auth", authHandler.Routes(requireAuth))

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
