// Package health serves the liveness, readiness and status probes.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"cashwallet/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

const checkTimeout = 3 * time.Second

// CheckFunc reports nil when the dependency is healthy.
type CheckFunc func(ctx context.Context) error

type Handler struct {
	startTime   time.Time
	environment string
	draining    atomic.Bool

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func New(environment string) *Handler {
	return &Handler{
		startTime:   time.Now(),
		environment: environment,
		checks:      make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named dependency to the readiness probe.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Drain makes readiness fail from now on so load balancers stop routing
// new traffic while in-flight requests finish.
func (h *Handler) Drain() {
	h.draining.Store(true)
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness always answers 200 while the process is serving.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

type CheckResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type ReadinessResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// HandleReadiness runs every registered check concurrently and returns 503
// if any fails or the process is draining.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, ReadinessResponse{Status: "draining"})
		return
	}

	results := h.runChecks(r.Context())
	response := ReadinessResponse{Status: "ready", Checks: results}
	for _, res := range results {
		if res.Status != "up" {
			response.Status = "not_ready"
			httputil.WriteJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) runChecks(ctx context.Context) map[string]CheckResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(h.checks))
		g       errgroup.Group
	)
	for name, check := range h.checks {
		g.Go(func() error {
			start := time.Now()
			err := check(ctx)
			res := CheckResult{Status: "up", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				res.Status = "down"
				res.Error = err.Error()
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // checks report through results
	return results
}

type StatusResponse struct {
	Status        string   `json:"status"`
	Version       string   `json:"version"`
	Environment   string   `json:"environment"`
	Dependencies  []string `json:"dependencies"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Timestamp     string   `json:"timestamp"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	deps := make([]string, 0, len(h.checks))
	for name := range h.checks {
		deps = append(deps, name)
	}
	h.mu.RUnlock()
	slices.Sort(deps)

	status := "healthy"
	if h.draining.Load() {
		status = "draining"
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        status,
		Version:       Version,
		Environment:   h.environment,
		Dependencies:  deps,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
