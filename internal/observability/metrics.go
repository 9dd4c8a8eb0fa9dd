package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"

	"github.com/sandeepkv93/movie-catalog-backend/internal/config"
)

type AppMetrics struct {
	tokenVerifications     metric.Int64Counter
	loginAttempts          metric.Int64Counter
	registrations          metric.Int64Counter
	favoritesEvents        metric.Int64Counter
	adminUserEvents        metric.Int64Counter
	adminListCacheEvents   metric.Int64Counter
	repositoryOperations   metric.Int64Counter
	rateLimitDecisions     metric.Int64Counter
	avatarUploads          metric.Int64Counter
	databaseStartupEvents  metric.Int64Counter
	databaseStartupSeconds metric.Float64Histogram
	healthCheckResults     metric.Int64Counter
	healthCheckSeconds     metric.Float64Histogram
	middlewareEvents       metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}
	res, err := newResource(ctx, cfg, "metric")
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "*.duration"},
			sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: durationBuckets}},
		)),
	)
	otel.SetMeterProvider(mp)

	m, err := NewAppMetrics(mp.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}
	SetAppMetrics(m)
	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

// NewAppMetrics registers every application instrument on meter.
func NewAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	m := &AppMetrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.tokenVerifications, "auth.token.verifications", "Bearer token verification outcomes"},
		{&m.loginAttempts, "auth.login.attempts", "Login attempts by outcome"},
		{&m.registrations, "auth.registrations", "Registration attempts by outcome"},
		{&m.favoritesEvents, "account.favorites.events", "Liked movie list mutations"},
		{&m.adminUserEvents, "admin.user.events", "Admin user management actions"},
		{&m.adminListCacheEvents, "admin.list_cache.events", "Admin user list cache lookups"},
		{&m.repositoryOperations, "repository.operations", "Identity store operations"},
		{&m.rateLimitDecisions, "rate_limit.decisions", "Rate limiter decisions"},
		{&m.avatarUploads, "account.avatar.uploads", "Avatar upload outcomes"},
		{&m.databaseStartupEvents, "database.startup.events", "Store startup phases"},
		{&m.healthCheckResults, "health.check.results", "Readiness dependency check results"},
		{&m.middlewareEvents, "http.middleware.events", "Request validation decisions taken by middleware"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", c.name, err)
		}
		*c.dst = counter
	}

	var err error
	m.databaseStartupSeconds, err = meter.Float64Histogram("database.startup.duration", metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("register database.startup.duration: %w", err)
	}
	m.healthCheckSeconds, err = meter.Float64Histogram("health.check.duration", metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("register health.check.duration: %w", err)
	}
	return m, nil
}

// SetAppMetrics swaps the instruments used by the Record helpers. A nil
// value turns every helper into a no-op.
func SetAppMetrics(m *AppMetrics) {
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordTokenVerification(ctx context.Context, outcome string) {
	if m := current(); m != nil {
		m.tokenVerifications.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordLoginAttempt(ctx context.Context, outcome string) {
	if m := current(); m != nil {
		m.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordRegistration(ctx context.Context, outcome string) {
	if m := current(); m != nil {
		m.registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordFavoritesEvent(ctx context.Context, action, outcome string) {
	if m := current(); m != nil {
		m.favoritesEvents.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordAdminUserEvent(ctx context.Context, action, outcome string) {
	if m := current(); m != nil {
		m.adminUserEvents.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordAdminListCacheEvent(ctx context.Context, outcome string) {
	if m := current(); m != nil {
		m.adminListCacheEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordRepositoryOperation(ctx context.Context, repo, op, outcome string) {
	if m := current(); m != nil {
		m.repositoryOperations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("repo", repo),
			attribute.String("op", op),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode string) {
	if m := current(); m != nil {
		m.rateLimitDecisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("scope", scope),
			attribute.String("outcome", outcome),
			attribute.String("mode", mode),
		))
	}
}

func RecordAvatarUpload(ctx context.Context, outcome string) {
	if m := current(); m != nil {
		m.avatarUploads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordDatabaseStartupEvent(ctx context.Context, phase, outcome string) {
	if m := current(); m != nil {
		m.databaseStartupEvents.Add(ctx, 1, metric.WithAttributes(
			attribute.String("phase", phase),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordDatabaseStartupDuration(ctx context.Context, phase string, d time.Duration) {
	if m := current(); m != nil {
		m.databaseStartupSeconds.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("phase", phase)))
	}
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	if m := current(); m != nil {
		m.healthCheckResults.Add(ctx, 1, metric.WithAttributes(
			attribute.String("check", check),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordHealthCheckDuration(ctx context.Context, check string, d time.Duration) {
	if m := current(); m != nil {
		m.healthCheckSeconds.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("check", check)))
	}
}

func RecordMiddlewareEvent(ctx context.Context, middleware, outcome string) {
	if m := current(); m != nil {
		m.middlewareEvents.Add(ctx, 1, metric.WithAttributes(
			attribute.String("middleware", middleware),
			attribute.String("outcome", outcome),
		))
	}
}
