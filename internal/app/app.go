package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/movie-catalog-backend/internal/config"
	"github.com/sandeepkv93/movie-catalog-backend/internal/database"
	"github.com/sandeepkv93/movie-catalog-backend/internal/health"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	Store         *database.Store
	Redis         redis.UniversalClient
	Readiness     *health.ProbeRunner

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	store *database.Store,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *App {
	return &App{
		Config:                       cfg,
		Logger:                       logger,
		Server:                       server,
		Observability:                runtime,
		Store:                        store,
		Redis:                        redisClient,
		Readiness:                    readiness,
		ShutdownTimeout:              cfg.ShutdownTimeout,
		ShutdownHTTPDrainTimeout:     cfg.ShutdownHTTPDrainTimeout,
		ShutdownObservabilityTimeout: cfg.ShutdownObservabilityTimeout,
	}
}

// Run serves HTTP until ctx is done or the listener fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr, "store", a.Config.StoreDriver)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown requested")
	case err = <-serveErr:
		a.Logger.Error("http server failed", "error", err)
	}
	return errors.Join(err, a.Shutdown())
}

// Shutdown drains HTTP, flushes telemetry and closes Redis and the store,
// all within ShutdownTimeout. Each stage is attempted even if an earlier one
// fails.
func (a *App) Shutdown() error {
	total, cancel := context.WithTimeout(context.Background(), orDefault(a.ShutdownTimeout, 20*time.Second))
	defer cancel()

	var errs []error
	stage := func(name string, timeout time.Duration, fn func(context.Context) error) {
		ctx, cancel := context.WithTimeout(total, timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.Logger.Error("shutdown stage failed", "stage", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	stage("http", orDefault(a.ShutdownHTTPDrainTimeout, 10*time.Second), a.Server.Shutdown)
	if a.Observability != nil {
		stage("observability", orDefault(a.ShutdownObservabilityTimeout, 8*time.Second), a.Observability.Shutdown)
	}
	if a.Redis != nil {
		stage("redis", time.Second, func(context.Context) error { return a.Redis.Close() })
	}
	stage("store", orDefault(a.ShutdownTimeout, 20*time.Second), a.Store.Close)
	return errors.Join(errs...)
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
