package di

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/movie-catalog-backend/internal/config"
	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/http/router"
	"github.com/sandeepkv93/movie-catalog-backend/internal/security"
	"github.com/sandeepkv93/movie-catalog-backend/internal/service"
)

const testSecret = "abcdefghijklmnopqrstuvwxyz123456"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		StoreDriver:           config.StoreDriverSQLite,
		DatabaseURL:           fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
		ReadinessProbeTimeout: time.Second,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestProvideHTTPServer(t *testing.T) {
	cfg := &config.Config{HTTPPort: "9999"}
	srv := provideHTTPServer(cfg, nil)
	if srv.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", srv.Addr)
	}
	if srv.ReadTimeout.Seconds() != 10 {
		t.Fatalf("unexpected read timeout: %v", srv.ReadTimeout)
	}
}

func TestProvideRouterDependencies(t *testing.T) {
	cfg := &config.Config{
		CORSAllowedOrigins:  []string{"http://localhost:3000"},
		AuthRateLimitPerMin: 10,
		APIRateLimitPerMin:  100,
		OTELMetricsEnabled:  true,
		StorageEnabled:      true,
	}
	dep := provideRouterDependencies(nil, nil, nil, nil, nil, nil, nil, nil, nil, cfg)
	if dep.AuthRateLimitRPM != 10 || dep.APIRateLimitRPM != 100 {
		t.Fatalf("unexpected rate limits: %+v", dep)
	}
	if !dep.EnableOTelHTTP {
		t.Fatal("expected otel http enabled")
	}
	if !dep.AvatarUploads {
		t.Fatal("expected avatar uploads enabled with storage")
	}
	if len(dep.CORSOrigins) != 1 || dep.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %+v", dep.CORSOrigins)
	}
	_ = router.Dependencies(dep)
}

func TestProvideTokenCodecUsesConfiguredTTL(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret, JWTIssuer: "movies", JWTTTL: 2 * time.Hour}
	codec := provideTokenCodec(cfg)
	if codec.TTL() != 2*time.Hour {
		t.Fatalf("expected 2h ttl, got %v", codec.TTL())
	}
	token, _, err := codec.Issue("0b7e4ff0-08c5-4a53-8d47-b7b0b0f7b0c1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if sub, err := codec.Verify(token); err != nil || sub != "0b7e4ff0-08c5-4a53-8d47-b7b0b0f7b0c1" {
		t.Fatalf("verify: sub=%q err=%v", sub, err)
	}
}

func TestProvideAdminListCacheStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tests := []struct {
		name   string
		cfg    *config.Config
		client redis.UniversalClient
		want   string
	}{
		{"disabled", &config.Config{AdminListCacheEnabled: false}, client, "*service.NoopAdminListCacheStore"},
		{"memory", &config.Config{AdminListCacheEnabled: true}, nil, "*service.InMemoryAdminListCacheStore"},
		{"redis", &config.Config{AdminListCacheEnabled: true, RedisEnabled: true, RedisPrefix: "movies"}, client, "*service.RedisAdminListCacheStore"},
		{"redis enabled without client", &config.Config{AdminListCacheEnabled: true, RedisEnabled: true}, nil, "*service.InMemoryAdminListCacheStore"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fmt.Sprintf("%T", provideAdminListCacheStore(tt.cfg, tt.client))
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestProvideStorageServiceDisabled(t *testing.T) {
	svc, err := provideStorageService(&config.Config{StorageEnabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc != nil {
		t.Fatalf("expected nil storage when disabled, got %T", svc)
	}
}

func TestProvideStorageServiceEnabled(t *testing.T) {
	cfg := &config.Config{
		StorageEnabled: true,
		MinIOEndpoint:  "127.0.0.1:9000",
		MinIOAccessKey: "minio",
		MinIOSecretKey: "minio-secret",
		MinIOBucket:    "avatars",
	}
	svc, err := provideStorageService(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := svc.(*service.MinIOStorageService); !ok {
		t.Fatalf("expected minio storage, got %T", svc)
	}
}

func TestAuthRateLimiterLocalEnforcesLimit(t *testing.T) {
	cfg := &config.Config{AuthRateLimitPerMin: 1}
	h := provideAuthRateLimiter(cfg, nil)(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i+1, want, rr.Code)
		}
	}
}

func TestGlobalRateLimiterUsesSubjectOrIP(t *testing.T) {
	cfg := &config.Config{APIRateLimitPerMin: 1}
	codec := security.NewTokenCodec(testSecret, "movies")
	token1, _, err := codec.Issue("11111111-1111-1111-1111-111111111111")
	if err != nil {
		t.Fatalf("issue token1: %v", err)
	}
	token2, _, err := codec.Issue("22222222-2222-2222-2222-222222222222")
	if err != nil {
		t.Fatalf("issue token2: %v", err)
	}
	h := provideGlobalRateLimiter(cfg, nil, codec)(okHandler())

	send := func(addr, token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/users/favorites", nil)
		req.RemoteAddr = addr
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	if code := send("10.0.0.1:1111", token1); code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", code)
	}
	if code := send("10.0.0.2:2222", token1); code != http.StatusTooManyRequests {
		t.Fatalf("expected same subject to be limited across addresses, got %d", code)
	}
	if code := send("10.0.0.1:1111", token2); code != http.StatusOK {
		t.Fatalf("expected different subject to have its own quota, got %d", code)
	}
}

func TestRateLimitersOnRedisOutage(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })
	cfg := &config.Config{RedisEnabled: true, RedisPrefix: "movies", AuthRateLimitPerMin: 5, APIRateLimitPerMin: 5}

	tests := []struct {
		name string
		mw   func(http.Handler) http.Handler
		want int
	}{
		{"auth fails closed", provideAuthRateLimiter(cfg, client), http.StatusTooManyRequests},
		{"api fails open", provideGlobalRateLimiter(cfg, client, security.NewTokenCodec(testSecret, "movies")), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			rr := httptest.NewRecorder()
			tt.mw(okHandler()).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestRateLimitersShareRedisCounters(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cfg := &config.Config{RedisEnabled: true, RedisPrefix: "movies", AuthRateLimitPerMin: 1}

	first := provideAuthRateLimiter(cfg, client)(okHandler())
	second := provideAuthRateLimiter(cfg, client)(okHandler())
	for i, h := range []http.Handler{first, second} {
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		want := http.StatusOK
		if i == 1 {
			want = http.StatusTooManyRequests
		}
		if rr.Code != want {
			t.Fatalf("instance %d: expected %d, got %d", i+1, want, rr.Code)
		}
	}
}

func TestProvideStoreSeedsBootstrapAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	store, err := provideStore(cfg, discardLogger())
	if err != nil {
		t.Fatalf("provide store: %v", err)
	}
	u := &domain.User{FullName: "Root", Email: "root@example.com", PasswordHash: "x"}
	if err := store.Users.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	cfg.BootstrapAdminEmail = "root@example.com"
	report, err := NewMigrationRunner(cfg, store).Run(ctx)
	if err != nil {
		t.Fatalf("run migration: %v", err)
	}
	if !report.AdminPromoted {
		t.Fatalf("expected bootstrap admin promotion, got %+v", report)
	}
}

func TestProvideReadinessProbeRunner(t *testing.T) {
	cfg := sqliteConfig(t)
	store, err := provideMigrationStore(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cfg.RedisEnabled = true

	ready, results := provideReadinessProbeRunner(cfg, store, client).Ready(context.Background())
	if !ready {
		t.Fatalf("expected ready, got %+v", results)
	}
	if len(results) != 2 || results[0].Name != "db" || results[1].Name != "redis" {
		t.Fatalf("unexpected checks: %+v", results)
	}
}
