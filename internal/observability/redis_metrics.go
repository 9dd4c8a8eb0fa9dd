package observability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentRedisClient adds command count, error and latency metrics to client.
func InstrumentRedisClient(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	hook, err := newRedisMetricsHook(otel.Meter(instrumentationName))
	if err != nil {
		logger.Warn("redis instrumentation disabled", "error", err)
		return
	}
	client.AddHook(hook)
}

type redisMetricsHook struct {
	total   metric.Int64Counter
	errs    metric.Int64Counter
	latency metric.Float64Histogram
}

func newRedisMetricsHook(meter metric.Meter) (*redisMetricsHook, error) {
	total, err := meter.Int64Counter("redis.command.total")
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter("redis.command.errors")
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("redis.command.duration", metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &redisMetricsHook{total: total, errs: errs, latency: latency}, nil
}

func (h *redisMetricsHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *redisMetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(ctx, strings.ToLower(cmd.Name()), err, time.Since(start))
		return err
	}
}

func (h *redisMetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observe(ctx, "pipeline", err, time.Since(start))
		return err
	}
}

func (h *redisMetricsHook) observe(ctx context.Context, command string, err error, d time.Duration) {
	status := redisCommandStatus(err)
	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	)
	h.total.Add(ctx, 1, attrs)
	h.latency.Record(ctx, d.Seconds(), attrs)
	if status == "error" {
		h.errs.Add(ctx, 1, metric.WithAttributes(attribute.String("command", command)))
	}
}

func redisCommandStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, redis.Nil):
		return "miss"
	default:
		return "error"
	}
}
