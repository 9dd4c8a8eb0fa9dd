package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultBaseURL = "http://localhost:5000"

const (
	ProfileMixed      = "mixed"
	ProfileAuth       = "auth"
	ProfileFavorites  = "favorites"
	ProfileErrorHeavy = "error-heavy"
)

var profiles = []string{ProfileMixed, ProfileAuth, ProfileFavorites, ProfileErrorHeavy}

func profileList() string { return strings.Join(profiles, "|") }

func validateProfile(profile string) error {
	if stepsForProfile(profile) == nil {
		return fmt.Errorf("unknown profile %q (want %s)", profile, profileList())
	}
	return nil
}

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
	Client      *http.Client
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
	Status429     int64
}

type step struct {
	method string
	path   string
	body   func(worker int, rng *rand.Rand) any
	authed bool
	// badToken sends a forged bearer token.
	badToken bool
}

type account struct {
	token string
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if err := validateProfile(cfg.Profile); err != nil {
		return Result{}, err
	}
	steps := stepsForProfile(cfg.Profile)

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var res Result
	jobs := make(chan step, cfg.Concurrency*2)
	wg := sync.WaitGroup{}

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(cfg.Seed + int64(worker)))
			acct, err := signUp(ctx, client, cfg.BaseURL, cfg.Seed, worker)
			if err != nil {
				atomic.AddInt64(&res.Failures, 1)
			}
			for s := range jobs {
				status, err := send(ctx, client, cfg.BaseURL, s, acct, worker, rng)
				if err != nil {
					atomic.AddInt64(&res.Failures, 1)
					continue
				}
				res.record(status)
			}
		}(i)
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return res.snapshot(), nil
		case <-ticker.C:
			select {
			case jobs <- steps[i%len(steps)]:
				i++
			case <-ctx.Done():
			}
		}
	}
}

func (r *Result) record(status int) {
	atomic.AddInt64(&r.TotalRequests, 1)
	switch {
	case status == http.StatusTooManyRequests:
		atomic.AddInt64(&r.Status429, 1)
		atomic.AddInt64(&r.Status4xx, 1)
	case status >= 200 && status < 300:
		atomic.AddInt64(&r.Status2xx, 1)
	case status >= 400 && status < 500:
		atomic.AddInt64(&r.Status4xx, 1)
	case status >= 500:
		atomic.AddInt64(&r.Status5xx, 1)
	}
}

func (r *Result) snapshot() Result {
	return Result{
		TotalRequests: atomic.LoadInt64(&r.TotalRequests),
		Failures:      atomic.LoadInt64(&r.Failures),
		Status2xx:     atomic.LoadInt64(&r.Status2xx),
		Status4xx:     atomic.LoadInt64(&r.Status4xx),
		Status5xx:     atomic.LoadInt64(&r.Status5xx),
		Status429:     atomic.LoadInt64(&r.Status429),
	}
}

// Lines renders the result as key=value detail lines.
func (r Result) Lines() []string {
	return []string{
		fmt.Sprintf("total_requests=%d", r.TotalRequests),
		fmt.Sprintf("failures=%d", r.Failures),
		fmt.Sprintf("status_2xx=%d", r.Status2xx),
		fmt.Sprintf("status_4xx=%d", r.Status4xx),
		fmt.Sprintf("status_5xx=%d", r.Status5xx),
		fmt.Sprintf("rate_limited=%d", r.Status429),
	}
}

// signUp registers the worker's account, falling back to login when a
// previous run already created it.
func signUp(ctx context.Context, client *http.Client, baseURL string, seed int64, worker int) (*account, error) {
	email := fmt.Sprintf("loadgen-%d-%d@example.com", seed, worker)
	password := fmt.Sprintf("loadgen-pass-%d", worker)
	register := map[string]string{"fullName": fmt.Sprintf("Loadgen %d", worker), "email": email, "password": password}
	token, status, err := postForToken(ctx, client, baseURL+"/api/users", register)
	if err != nil {
		return nil, err
	}
	if status == http.StatusCreated {
		return &account{token: token}, nil
	}
	token, status, err = postForToken(ctx, client, baseURL+"/api/users/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("sign up worker %d: status %d", worker, status)
	}
	return &account{token: token}, nil
}

func postForToken(ctx context.Context, client *http.Client, url string, body any) (string, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	var out struct {
		Token string `json:"token"`
	}
	if resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", resp.StatusCode, fmt.Errorf("decode auth response: %w", err)
		}
	}
	return out.Token, resp.StatusCode, nil
}

func send(ctx context.Context, client *http.Client, baseURL string, s step, acct *account, worker int, rng *rand.Rand) (int, error) {
	var body io.Reader
	if s.body != nil {
		payload, err := json.Marshal(s.body(worker, rng))
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, s.method, baseURL+s.path, body)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case s.badToken:
		req.Header.Set("Authorization", "Bearer not.a.token")
	case s.authed && acct != nil:
		req.Header.Set("Authorization", "Bearer "+acct.token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func likeMovie(_ int, rng *rand.Rand) any {
	return map[string]string{"movieId": fmt.Sprintf("tt%07d", rng.Intn(10_000_000))}
}

func badLogin(worker int, _ *rand.Rand) any {
	return map[string]string{"email": fmt.Sprintf("loadgen-missing-%d@example.com", worker), "password": "wrong"}
}

func stepsForProfile(profile string) []step {
	listFavorites := step{method: http.MethodGet, path: "/api/users/favorites", authed: true}
	addFavorite := step{method: http.MethodPost, path: "/api/users/favorites", authed: true, body: likeMovie}
	clearFavorites := step{method: http.MethodDelete, path: "/api/users/favorites", authed: true}
	failedLogin := step{method: http.MethodPost, path: "/api/users/login", body: badLogin}
	forged := step{method: http.MethodGet, path: "/api/users/favorites", badToken: true}
	notAdmin := step{method: http.MethodGet, path: "/api/users", authed: true}
	root := step{method: http.MethodGet, path: "/"}

	switch strings.ToLower(profile) {
	case "", ProfileMixed:
		return []step{root, listFavorites, addFavorite, listFavorites, failedLogin, addFavorite, clearFavorites}
	case ProfileAuth:
		return []step{failedLogin, forged, listFavorites}
	case ProfileFavorites:
		return []step{addFavorite, addFavorite, listFavorites, clearFavorites}
	case ProfileErrorHeavy:
		return []step{failedLogin, forged, notAdmin}
	default:
		return nil
	}
}
