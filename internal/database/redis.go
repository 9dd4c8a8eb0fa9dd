package database

import (
	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/movie-catalog-backend/internal/config"
)

// NewRedisClient returns nil when Redis is disabled.
func NewRedisClient(cfg *config.Config) redis.UniversalClient {
	if !cfg.RedisEnabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
