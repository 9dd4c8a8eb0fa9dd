package health

import (
	"context"
	"sync"
	"time"

	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
)

type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type Checker interface {
	Check(ctx context.Context) CheckResult
}

// ProbeRunner evaluates readiness checks in parallel. Results keep the order
// the checkers were registered in.
type ProbeRunner struct {
	checkers    []Checker
	timeout     time.Duration
	gracePeriod time.Duration
	startedAt   time.Time
	now         func() time.Time
}

// NewProbeRunner drops nil checkers so disabled dependencies can be passed
// through unconditionally.
func NewProbeRunner(timeout, gracePeriod time.Duration, checkers ...Checker) *ProbeRunner {
	if timeout <= 0 {
		timeout = time.Second
	}
	r := &ProbeRunner{timeout: timeout, gracePeriod: gracePeriod, now: time.Now}
	for _, c := range checkers {
		if c != nil {
			r.checkers = append(r.checkers, c)
		}
	}
	r.startedAt = r.now()
	return r
}

func (r *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	if r == nil {
		return true, nil
	}
	if r.gracePeriod > 0 && r.now().Sub(r.startedAt) < r.gracePeriod {
		return false, []CheckResult{{Name: "startup_grace", Error: "startup grace period active"}}
	}

	results := make([]CheckResult, len(r.checkers))
	var wg sync.WaitGroup
	for i, c := range r.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.run(ctx, c)
		}()
	}
	wg.Wait()

	for _, res := range results {
		if !res.Healthy {
			return false, results
		}
	}
	return true, results
}

func (r *ProbeRunner) run(ctx context.Context, c Checker) CheckResult {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	res := c.Check(checkCtx)
	observability.RecordHealthCheckDuration(ctx, res.Name, time.Since(start))
	outcome := "healthy"
	if !res.Healthy {
		outcome = "unhealthy"
	}
	observability.RecordHealthCheckResult(ctx, res.Name, outcome)
	return res
}
