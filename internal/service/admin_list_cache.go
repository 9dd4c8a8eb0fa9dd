package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
)

const adminUsersNamespace = "admin.users"

// AdminListCacheStore holds listings per namespace generation. Readers and
// fillers capture Generation first. Get and Set only touch entries of that
// generation, and InvalidateNamespace moves the namespace to a new one, so a
// fill that started before an invalidation can never be served after it.
type AdminListCacheStore interface {
	Generation(ctx context.Context, namespace string) (int64, error)
	Get(ctx context.Context, namespace, key string, gen int64) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, gen int64, value []byte, ttl time.Duration) error
	InvalidateNamespace(ctx context.Context, namespace string) error
}

type NoopAdminListCacheStore struct{}

func NewNoopAdminListCacheStore() *NoopAdminListCacheStore {
	return &NoopAdminListCacheStore{}
}

func (s *NoopAdminListCacheStore) Generation(context.Context, string) (int64, error) {
	return 0, nil
}

func (s *NoopAdminListCacheStore) Get(context.Context, string, string, int64) ([]byte, bool, error) {
	return nil, false, nil
}

func (s *NoopAdminListCacheStore) Set(context.Context, string, string, int64, []byte, time.Duration) error {
	return nil
}

func (s *NoopAdminListCacheStore) InvalidateNamespace(context.Context, string) error {
	return nil
}

// InMemoryAdminListCacheStore keeps entries in a process-local go-cache.
type InMemoryAdminListCacheStore struct {
	mu    sync.Mutex
	gens  map[string]int64
	cache *gocache.Cache
}

func NewInMemoryAdminListCacheStore() *InMemoryAdminListCacheStore {
	return &InMemoryAdminListCacheStore{
		gens:  map[string]int64{},
		cache: gocache.New(time.Minute, 5*time.Minute),
	}
}

func (s *InMemoryAdminListCacheStore) Generation(_ context.Context, namespace string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[normalizeToken(namespace)], nil
}

func (s *InMemoryAdminListCacheStore) Get(_ context.Context, namespace, key string, gen int64) ([]byte, bool, error) {
	v, ok := s.cache.Get(memoryKey(namespace, gen, key))
	if !ok {
		return nil, false, nil
	}
	payload, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

// Set drops the write when gen is no longer the namespace's generation.
func (s *InMemoryAdminListCacheStore) Set(_ context.Context, namespace, key string, gen int64, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[normalizeToken(namespace)] != gen {
		return nil
	}
	s.cache.Set(memoryKey(namespace, gen, key), append([]byte(nil), value...), ttl)
	return nil
}

func (s *InMemoryAdminListCacheStore) InvalidateNamespace(_ context.Context, namespace string) error {
	ns := normalizeToken(namespace)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[ns]++
	prefix := ns + "|"
	for k := range s.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			s.cache.Delete(k)
		}
	}
	return nil
}

func memoryKey(namespace string, gen int64, key string) string {
	return fmt.Sprintf("%s|%d|%s", normalizeToken(namespace), gen, key)
}

// AdminUserListCache serves admin user listings from a cache store and
// collapses concurrent misses for the same key into one fill.
type AdminUserListCache struct {
	store  AdminListCacheStore
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group
}

func NewAdminUserListCache(store AdminListCacheStore, ttl time.Duration, logger *slog.Logger) *AdminUserListCache {
	if store == nil {
		store = NewNoopAdminListCacheStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminUserListCache{store: store, ttl: ttl, logger: logger}
}

// Invalidate drops every cached listing. Failures are logged and swallowed
// so that a cache outage never fails a write.
func (c *AdminUserListCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.store.InvalidateNamespace(ctx, adminUsersNamespace); err != nil {
		observability.RecordAdminListCacheEvent(ctx, "invalidate_error")
		c.logger.WarnContext(ctx, "admin list cache invalidation failed", "error", err)
		return
	}
	observability.RecordAdminListCacheEvent(ctx, "invalidate")
}

func cachedAdminList[T any](ctx context.Context, c *AdminUserListCache, key string, fill func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return fill(ctx)
	}
	gen, err := c.store.Generation(ctx, adminUsersNamespace)
	if err != nil {
		observability.RecordAdminListCacheEvent(ctx, "error")
		c.logger.WarnContext(ctx, "admin list cache generation read failed", "key", key, "error", err)
		return fill(ctx)
	}
	if payload, ok, err := c.store.Get(ctx, adminUsersNamespace, key, gen); err != nil {
		observability.RecordAdminListCacheEvent(ctx, "error")
		c.logger.WarnContext(ctx, "admin list cache read failed", "key", key, "error", err)
	} else if ok {
		var out T
		if err := json.Unmarshal(payload, &out); err == nil {
			observability.RecordAdminListCacheEvent(ctx, "hit")
			return out, nil
		}
		observability.RecordAdminListCacheEvent(ctx, "corrupt")
	}
	observability.RecordAdminListCacheEvent(ctx, "miss")

	// Callers arriving after an invalidation must not join an older fill.
	result, err, shared := c.sf.Do(fmt.Sprintf("%d|%s", gen, key), func() (any, error) {
		v, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(v); err == nil {
			if err := c.store.Set(ctx, adminUsersNamespace, key, gen, payload, c.ttl); err != nil {
				c.logger.WarnContext(ctx, "admin list cache write failed", "key", key, "error", err)
			}
		}
		return v, nil
	})
	if shared {
		observability.RecordAdminListCacheEvent(ctx, "singleflight_shared")
	}
	if err != nil {
		var zero T
		return zero, err
	}
	out, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected admin list result type %T", result)
	}
	return out, nil
}
