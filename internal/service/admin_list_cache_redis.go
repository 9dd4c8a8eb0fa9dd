package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAdminListCacheStore shares admin listings between API replicas.
// Each namespace carries a generation counter. Invalidation bumps the
// counter, so entries written under an older generation, including late
// writes from fills that began before the bump, are never read again and
// age out on their own TTL.
type RedisAdminListCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisAdminListCacheStore(client redis.UniversalClient, prefix string) *RedisAdminListCacheStore {
	if prefix == "" {
		prefix = "admin_list_cache"
	}
	return &RedisAdminListCacheStore{client: client, prefix: prefix}
}

func (s *RedisAdminListCacheStore) Generation(ctx context.Context, namespace string) (int64, error) {
	if s.client == nil {
		return 0, nil
	}
	gen, err := s.client.Get(ctx, s.generationKey(namespace)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *RedisAdminListCacheStore) Get(ctx context.Context, namespace, key string, gen int64) ([]byte, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}
	value, err := s.client.Get(ctx, s.dataKey(namespace, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisAdminListCacheStore) Set(ctx context.Context, namespace, key string, gen int64, value []byte, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.dataKey(namespace, gen, key), value, ttl).Err()
}

func (s *RedisAdminListCacheStore) InvalidateNamespace(ctx context.Context, namespace string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Incr(ctx, s.generationKey(namespace)).Err()
}

func (s *RedisAdminListCacheStore) dataKey(namespace string, gen int64, key string) string {
	return fmt.Sprintf("%s:data:%s:%d:%s", s.prefix, normalizeToken(namespace), gen, hashToken(key))
}

func (s *RedisAdminListCacheStore) generationKey(namespace string) string {
	return fmt.Sprintf("%s:gen:%s", s.prefix, normalizeToken(namespace))
}

func normalizeToken(v string) string {
	if v == "" {
		return "default"
	}
	return v
}

func hashToken(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
