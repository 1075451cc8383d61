// Package httptransport assembles the chi router: the shared middleware stack,
// the public routes and the routes that need a signed-in session.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cashwallet/pkg/platform/middleware/auth"
	"cashwallet/pkg/platform/middleware/request"
	"cashwallet/pkg/platform/middleware/requesttime"
)

const defaultMaxBodyBytes = 1 << 20

// Routes is implemented by every domain handler.
type Routes interface {
	Register(r chi.Router)
}

// RegisterFunc adapts a route-mounting method such as RegisterAuthenticated.
type RegisterFunc func(r chi.Router)

func (f RegisterFunc) Register(r chi.Router) { f(r) }

type RouterConfig struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Metrics        *request.Metrics

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	// Sessions guards the Authenticated routes.
	Sessions      auth.SessionResolver
	Operational   []Routes
	Public        []Routes
	Authenticated []Routes
}

// NewRouter wires all endpoints with middleware. Operational routes (health)
// skip the JSON body checks and the request timeout.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.ClientMetadata)
	r.Use(request.Logger(logger))
	r.Use(requesttime.Middleware)

	for _, routes := range cfg.Operational {
		routes.Register(r)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(request.Latency(cfg.Metrics, routePattern))
		r.Use(request.Timeout(timeout))
		r.Use(request.BodyLimit(maxBody))
		r.Use(request.ContentTypeJSON)

		for _, routes := range cfg.Public {
			routes.Register(r)
		}
		if cfg.Sessions == nil || len(cfg.Authenticated) == 0 {
			return
		}
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(cfg.Sessions, logger))
			for _, routes := range cfg.Authenticated {
				routes.Register(r)
			}
		})
	})

	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
