package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"dscatalog/internal/config"
	"dscatalog/internal/database"
	"dscatalog/internal/handler"
	"dscatalog/internal/metrics"
	"dscatalog/internal/middleware"
	"dscatalog/internal/ratelimit"
	"dscatalog/internal/repository"
	"dscatalog/internal/router"
	"dscatalog/internal/security/access"
	"dscatalog/internal/security/password"
	"dscatalog/internal/security/token"
	"dscatalog/internal/service"
	"dscatalog/internal/validation"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	server       *http.Server
	admin        *http.Server
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	slog.Info("connecting to PostgreSQL")
	db, err := database.Open(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

	if err := db.EnsureSchema(ctx); err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	client, err := cfg.ClientRegistration(hasher.Hash)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to register oauth client: %w", err)
	}

	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	checks := map[string]handler.HealthCheck{"postgres": db.Health}

	generalLimiter, authLimiter, err := a.newLimiters(ctx, cfg, checks)
	if err != nil {
		a.cleanup()
		return nil, err
	}

	userRepo := repository.NewUserRepository(db.Pool)
	productRepo := repository.NewProductRepository(db.Pool)
	categoryRepo := repository.NewCategoryRepository(db.Pool)
	validator := validation.New(userRepo)

	tokenService := service.NewTokenService(client, userRepo, hasher, codec)
	productService := service.NewProductService(productRepo, validator)
	categoryService := service.NewCategoryService(categoryRepo, validator)
	userService := service.NewUserService(userRepo, validator, hasher)

	policy := access.NewPolicy(access.Catalog()...)
	for _, rule := range policy.Rules() {
		slog.Debug("access rule", "rule", rule.String())
	}

	appRouter := router.New(
		cfg,
		m,
		middleware.NewRateLimitMiddleware(generalLimiter, authLimiter, m),
		middleware.NewAuthMiddleware(codec, policy, m),
		handler.NewTokenHandler(tokenService, m),
		handler.NewProductHandler(productService),
		handler.NewCategoryHandler(categoryService),
		handler.NewUserHandler(userService),
	)

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	adminRouter := chi.NewRouter()
	adminRouter.Use(middleware.Recovery)
	adminRouter.Get("/health", handler.NewHealthHandler(checks).Health)
	adminRouter.Method(http.MethodGet, "/metrics", m.Handler())

	a.admin = &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           adminRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
	}

	return a, nil
}

// newLimiters picks the rate limit backend. Redis counters are shared across
// instances; memory counters are per process.
func (a *App) newLimiters(ctx context.Context, cfg *config.Config, checks map[string]handler.HealthCheck) (ratelimit.Limiter, ratelimit.Limiter, error) {
	if cfg.RateLimitBackend != config.RateLimitRedis {
		slog.Info("rate limiting in memory", "rpm", cfg.RateLimitRPM, "auth_rpm", cfg.AuthRateLimitRPM)
		return ratelimit.NewMemoryLimiter(cfg.RateLimitRPM), ratelimit.NewMemoryLimiter(cfg.AuthRateLimitRPM), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	a.cleanupFuncs = append(a.cleanupFuncs, func() { _ = rdb.Close() })

	general := ratelimit.NewRedisLimiter(rdb, "dscatalog:rl:", cfg.RateLimitRPM)
	auth := ratelimit.NewRedisLimiter(rdb, "dscatalog:rl:", cfg.AuthRateLimitRPM)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := general.Ping(pingCtx); err != nil {
		// Requests fail open while Redis is down, so startup goes on.
		slog.Warn("redis unreachable at startup", "error", err)
	}

	checks["redis"] = general.Ping
	slog.Info("rate limiting in redis", "rpm", cfg.RateLimitRPM, "auth_rpm", cfg.AuthRateLimitRPM)
	return general, auth, nil
}

// Run serves until ctx is cancelled, then drains both listeners.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range []*http.Server{a.server, a.admin} {
		srv := srv
		g.Go(func() error {
			slog.Info("server starting", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(a.server.Shutdown(shutdownCtx), a.admin.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
