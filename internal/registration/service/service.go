// Package service hosts live registration workflows. Creating a workflow mounts
// a controller; Discard, expiry, and successful submission unmount it.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks SessionStarter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cashwallet/internal/platform/tracer"
	"cashwallet/internal/registration/metrics"
	"cashwallet/internal/registration/models"
	"cashwallet/internal/registration/workflow"
	"cashwallet/pkg/domain"
	dErrors "cashwallet/pkg/domain-errors"
)

// SessionStarter signs a freshly created account in.
type SessionStarter interface {
	StartSession(ctx context.Context, accountID string, userAgent string) (models.SessionGrant, error)
}

const (
	RedirectDashboard = "/dashboard"
	RedirectLogin     = "/login"

	defaultIdleTTL   = 30 * time.Minute
	defaultMaxActive = 10000
)

type Service struct {
	mu        sync.Mutex
	workflows map[domain.WorkflowID]*workflow.Controller

	verifier workflow.Verifier
	accounts workflow.AccountCreator
	sessions SessionStarter

	defaultProfile models.FieldRequirements
	minScore       int
	callTimeout    time.Duration
	idleTTL        time.Duration
	maxActive      int

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithSessionStarter enables sign-in after a successful registration. Without
// it, completions redirect to the login page.
func WithSessionStarter(sessions SessionStarter) Option {
	return func(s *Service) {
		s.sessions = sessions
	}
}

// WithDefaultProfile sets the requirement profile used when a create request names none.
func WithDefaultProfile(p models.FieldRequirements) Option {
	return func(s *Service) {
		s.defaultProfile = p
	}
}

func WithMinPasswordScore(score int) Option {
	return func(s *Service) {
		s.minScore = score
	}
}

func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.callTimeout = d
	}
}

// WithIdleTTL sets how long an untouched workflow survives before ExpireIdle discards it.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

// WithMaxActive caps the number of workflows held in memory.
func WithMaxActive(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxActive = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(verifier workflow.Verifier, accounts workflow.AccountCreator, opts ...Option) *Service {
	s := &Service{
		workflows:      make(map[domain.WorkflowID]*workflow.Controller),
		verifier:       verifier,
		accounts:       accounts,
		defaultProfile: models.ProfileAdvanced,
		idleTTL:        defaultIdleTTL,
		maxActive:      defaultMaxActive,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = tracer.NewNoop()
	}
	return s
}

// CreateRequest selects the requirement profile and initial language of a new workflow.
type CreateRequest struct {
	Profile  string
	Language string
}

// Create mounts a new workflow and returns its initial snapshot.
func (s *Service) Create(ctx context.Context, req CreateRequest) (models.Snapshot, error) {
	reqs := s.defaultProfile
	if req.Profile != "" {
		p, ok := models.LookupProfile(req.Profile)
		if !ok {
			return models.Snapshot{}, dErrors.New(dErrors.CodeBadRequest, "unknown registration profile")
		}
		reqs = p
	}

	id := domain.NewWorkflowID()
	opts := []workflow.Option{
		workflow.WithWorkflowID(id.String()),
		workflow.WithRequirements(reqs),
		workflow.WithLanguage(req.Language),
		workflow.WithLogger(s.logger),
		workflow.WithMetrics(s.metrics),
		workflow.WithTracer(s.tracer),
		workflow.WithClock(s.now),
	}
	if s.minScore > 0 {
		opts = append(opts, workflow.WithMinPasswordScore(s.minScore))
	}
	if s.callTimeout > 0 {
		opts = append(opts, workflow.WithCallTimeout(s.callTimeout))
	}
	c := workflow.New(s.verifier, s.accounts, opts...)

	s.mu.Lock()
	if len(s.workflows) >= s.maxActive {
		s.mu.Unlock()
		return models.Snapshot{}, dErrors.New(dErrors.CodeUnavailable, "too many registrations in progress")
	}
	s.workflows[id] = c
	s.mu.Unlock()

	s.incStarted(reqs.Profile)
	s.logEvent(ctx, "registration_started", id, "profile", reqs.Profile)
	return c.Snapshot(), nil
}

func (s *Service) lookup(id domain.WorkflowID) (*workflow.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.workflows[id]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

// unmount removes id if it still maps to c. It reports whether this call removed it.
func (s *Service) unmount(id domain.WorkflowID, c *workflow.Controller) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.workflows[id]; !ok || cur != c {
		return false
	}
	delete(s.workflows, id)
	return true
}

// Active returns the number of mounted workflows.
func (s *Service) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workflows)
}

func (s *Service) Snapshot(_ context.Context, id domain.WorkflowID) (models.Snapshot, error) {
	c, err := s.lookup(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// Discard unmounts the workflow, cancelling any outstanding remote call.
func (s *Service) Discard(ctx context.Context, id domain.WorkflowID) error {
	c, err := s.lookup(id)
	if err != nil {
		return err
	}
	if s.unmount(id, c) && c.Discard() {
		s.incFinished("discarded")
		s.logEvent(ctx, "registration_discarded", id)
	}
	return nil
}

// ExpireIdle discards workflows untouched since before now minus the idle TTL.
func (s *Service) ExpireIdle(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	var expired []*workflow.Controller
	for id, c := range s.workflows {
		if c.IdleSince().Before(cutoff) {
			delete(s.workflows, id)
			expired = append(expired, c)
		}
	}
	s.mu.Unlock()

	for _, c := range expired {
		if c.Discard() {
			s.incFinished("expired")
		}
	}
	if len(expired) > 0 {
		s.logger.InfoContext(ctx, "expired idle registrations", "count", len(expired))
	}
	return len(expired), nil
}
