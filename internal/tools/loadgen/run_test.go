package loadgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeAPI mimics the account and favorites routes closely enough to drive
// every profile.
type fakeAPI struct {
	mu         sync.Mutex
	registered map[string]bool
	likes      map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{registered: map[string]bool{}, likes: map[string]int{}}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("API is running..."))
	})
	mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.registered[in.Email] {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.registered[in.Email] = true
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + in.Email})
	})
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.registered[in.Email] {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + in.Email})
	})
	mux.HandleFunc("/api/users/favorites", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if len(auth) < 11 || auth[:11] != "Bearer tok-" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.likes[r.Method]++
		f.mu.Unlock()
		_, _ = w.Write([]byte("[]"))
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	return mux
}

func TestRunMixedProfile(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	res, err := Run(context.Background(), Config{
		BaseURL:     srv.URL + "/",
		Profile:     "mixed",
		Duration:    400 * time.Millisecond,
		RPS:         50,
		Concurrency: 2,
		Seed:        7,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TotalRequests == 0 {
		t.Fatal("expected traffic")
	}
	if res.Status2xx == 0 || res.Status4xx == 0 {
		t.Fatalf("expected both successes and failed logins, got %+v", res)
	}
	if res.Status5xx != 0 {
		t.Fatalf("unexpected 5xx: %+v", res)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.registered) != 2 {
		t.Fatalf("expected one account per worker, got %d", len(api.registered))
	}
	if api.likes[http.MethodPost] == 0 {
		t.Fatal("expected favorites to be added with a valid token")
	}
}

func TestSignUpFallsBackToLogin(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	ctx := context.Background()
	first, err := signUp(ctx, srv.Client(), srv.URL, 1, 0)
	if err != nil {
		t.Fatalf("first sign up: %v", err)
	}
	second, err := signUp(ctx, srv.Client(), srv.URL, 1, 0)
	if err != nil {
		t.Fatalf("second sign up: %v", err)
	}
	if first.token == "" || first.token != second.token {
		t.Fatalf("expected login fallback to return the same token, got %q and %q", first.token, second.token)
	}
}

func TestStepsForProfile(t *testing.T) {
	for _, profile := range []string{"", "mixed", "auth", "favorites", "error-heavy", "AUTH"} {
		if len(stepsForProfile(profile)) == 0 {
			t.Fatalf("profile %q has no steps", profile)
		}
	}
	if stepsForProfile("chaos") != nil {
		t.Fatal("expected unknown profile to have no steps")
	}
	if _, err := Run(context.Background(), Config{Profile: "chaos"}); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestResultRecord(t *testing.T) {
	var r Result
	for _, code := range []int{200, 201, 400, 429, 500} {
		r.record(code)
	}
	got := r.snapshot()
	if got.TotalRequests != 5 || got.Status2xx != 2 || got.Status4xx != 2 || got.Status429 != 1 || got.Status5xx != 1 {
		t.Fatalf("unexpected tally: %+v", got)
	}
}

func TestResultLines(t *testing.T) {
	lines := Result{TotalRequests: 9, Status2xx: 6, Status4xx: 3, Status429: 2}.Lines()
	want := map[string]bool{"total_requests=9": true, "status_2xx=6": true, "status_4xx=3": true, "rate_limited=2": true}
	for _, l := range lines {
		delete(want, l)
	}
	if len(want) != 0 {
		t.Fatalf("missing lines %v in %v", want, lines)
	}
}

func TestValidateProfile(t *testing.T) {
	if err := validateProfile(ProfileFavorites); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := validateProfile("burst")
	if err == nil || !strings.Contains(err.Error(), profileList()) {
		t.Fatalf("expected error listing profiles, got %v", err)
	}
}
