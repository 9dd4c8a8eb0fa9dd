package common

import (
	"context"

	"github.com/sandeepkv93/movie-catalog-backend/internal/config"
	"github.com/sandeepkv93/movie-catalog-backend/internal/database"
)

// OpenStore loads envFile and config, then connects the configured store.
// The caller closes the returned store.
func OpenStore(ctx context.Context, envFile string, migrate bool) (*config.Config, *database.Store, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	store, err := database.OpenStore(ctx, cfg, migrate)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}
