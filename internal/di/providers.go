package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/movie-catalog-backend/internal/app"
	"github.com/sandeepkv93/movie-catalog-backend/internal/config"
	"github.com/sandeepkv93/movie-catalog-backend/internal/database"
	"github.com/sandeepkv93/movie-catalog-backend/internal/health"
	"github.com/sandeepkv93/movie-catalog-backend/internal/http/handler"
	"github.com/sandeepkv93/movie-catalog-backend/internal/http/middleware"
	"github.com/sandeepkv93/movie-catalog-backend/internal/http/router"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
	"github.com/sandeepkv93/movie-catalog-backend/internal/security"
	"github.com/sandeepkv93/movie-catalog-backend/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideStore,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(provideUserRepository)

var SecuritySet = wire.NewSet(
	provideTokenCodec,
	wire.Bind(new(service.TokenIssuer), new(*security.TokenCodec)),
	wire.Bind(new(security.TokenVerifier), new(*security.TokenCodec)),
)

var ServiceSet = wire.NewSet(
	provideAdminListCacheStore,
	provideAdminUserListCache,
	provideStorageService,
	service.NewAuthService,
	service.NewUserService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.UserServiceInterface), new(*service.UserService)),
	wire.Bind(new(middleware.IdentityLoader), new(*service.UserService)),
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewUserHandler,
	handler.NewFavoritesHandler,
	handler.NewAdminHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

// MigrationRunner prepares the store schema and applies the bootstrap seed
// without starting the HTTP server.
type MigrationRunner struct {
	cfg   *config.Config
	store *database.Store
}

func NewMigrationRunner(cfg *config.Config, store *database.Store) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, store: store}
}

func (m *MigrationRunner) Config() *config.Config { return m.cfg }

func (m *MigrationRunner) Run(ctx context.Context) (*database.SeedReport, error) {
	defer func() { _ = m.store.Close(context.Background()) }()
	report, err := database.SeedSync(ctx, m.store.Users, m.cfg.BootstrapAdminEmail)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

// provideStore opens the configured store, migrates it and promotes the
// bootstrap admin if that identity has already registered.
func provideStore(cfg *config.Config, logger *slog.Logger) (*database.Store, error) {
	ctx := context.Background()
	store, err := database.OpenStore(ctx, cfg, true)
	if err != nil {
		return nil, err
	}
	report, err := database.SeedSync(ctx, store.Users, cfg.BootstrapAdminEmail)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	if report.AdminMissing {
		logger.Warn("bootstrap admin has not registered yet", "email", report.BootstrapAdminEmail)
	}
	if report.AdminPromoted {
		logger.Info("bootstrap admin promoted", "email", report.BootstrapAdminEmail)
	}
	return store, nil
}

func provideMigrationStore(cfg *config.Config) (*database.Store, error) {
	return database.OpenStore(context.Background(), cfg, true)
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	client := database.NewRedisClient(cfg)
	if client != nil && cfg.OTELMetricsEnabled {
		observability.InstrumentRedisClient(client, logger)
	}
	return client
}

func provideUserRepository(store *database.Store) repository.UserRepository {
	return store.Users
}

func provideTokenCodec(cfg *config.Config) *security.TokenCodec {
	return security.NewTokenCodec(cfg.JWTSecret, cfg.JWTIssuer, security.WithTTL(cfg.JWTTTL))
}

func provideAdminListCacheStore(cfg *config.Config, redisClient redis.UniversalClient) service.AdminListCacheStore {
	if !cfg.AdminListCacheEnabled {
		return service.NewNoopAdminListCacheStore()
	}
	if cfg.RedisEnabled && redisClient != nil {
		return service.NewRedisAdminListCacheStore(redisClient, cfg.RedisPrefix+":admin_list")
	}
	return service.NewInMemoryAdminListCacheStore()
}

func provideAdminUserListCache(cfg *config.Config, store service.AdminListCacheStore, logger *slog.Logger) *service.AdminUserListCache {
	return service.NewAdminUserListCache(store, cfg.AdminListCacheTTL, logger)
}

// provideStorageService returns a nil interface when avatar storage is off.
func provideStorageService(cfg *config.Config) (service.StorageService, error) {
	if !cfg.StorageEnabled {
		return nil, nil
	}
	svc, err := service.NewMinIOStorageService(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return svc, nil
}

// provideGlobalRateLimiter keys callers by token subject so a user keeps
// one quota across addresses.
func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient, verifier security.TokenVerifier) router.GlobalRateLimiterFunc {
	var limiter middleware.Limiter = middleware.NewLocalFixedWindowLimiter()
	if cfg.RedisEnabled && redisClient != nil {
		limiter = middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RedisPrefix+":rl:api")
	}
	return middleware.NewDistributedRateLimiterWithKey(
		limiter,
		cfg.APIRateLimitPerMin,
		time.Minute,
		middleware.FailOpen,
		"api",
		middleware.SubjectOrIPKeyFunc(verifier),
	).Middleware()
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.AuthRateLimiterFunc {
	if cfg.RedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RedisPrefix+":rl:auth")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute, "auth").Middleware()
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	favoritesHandler *handler.FavoritesHandler,
	adminHandler *handler.AdminHandler,
	verifier security.TokenVerifier,
	loader middleware.IdentityLoader,
	globalRateLimiter router.GlobalRateLimiterFunc,
	authRateLimiter router.AuthRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		FavoritesHandler:  favoritesHandler,
		AdminHandler:      adminHandler,
		TokenVerifier:     verifier,
		IdentityLoader:    loader,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		GlobalRateLimiter: globalRateLimiter,
		AuthRateLimiter:   authRateLimiter,
		Readiness:         readiness,
		AvatarUploads:     cfg.StorageEnabled,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, store *database.Store, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := []health.Checker{
		health.NewDBChecker(store.DB),
		health.NewMongoChecker(store.Mongo),
	}
	if cfg.RedisEnabled {
		checkers = append(checkers, health.NewRedisChecker(redisClient))
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	store *database.Store,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, store, redisClient, readiness)
}
