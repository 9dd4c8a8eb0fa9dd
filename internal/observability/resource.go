package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/sandeepkv93/movie-catalog-backend/internal/config"
)

const instrumentationName = "movie-catalog-backend"

func newResource(ctx context.Context, cfg *config.Config, signal string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
			attribute.String("store.driver", cfg.StoreDriver),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s resource: %w", signal, err)
	}
	return res, nil
}
