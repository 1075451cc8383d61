// Package cleanup periodically unmounts abandoned registrations and purges
// expired codes and sessions from stores without native expiry.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cashwallet/pkg/requestcontext"
)

// WorkflowExpirer discards registrations untouched since before their idle TTL.
type WorkflowExpirer interface {
	ExpireIdle(ctx context.Context, now time.Time) (int, error)
}

// Purger removes expired records and reports how many were dropped.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// CleanupResult summarizes the deletions performed by a cleanup run.
type CleanupResult struct {
	ExpiredWorkflows int
	PurgedCodes      int
	PurgedSessions   int
}

// CleanupService periodically removes abandoned registration state.
type CleanupService struct {
	workflows WorkflowExpirer
	codes     Purger
	sessions  Purger
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// CleanupOption configures CleanupService.
type CleanupOption func(*CleanupService)

// WithCleanupInterval overrides the cleanup interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithCleanupLogger overrides the logger used for cleanup errors.
func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(s *CleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCleanupClock(now func() time.Time) CleanupOption {
	return func(s *CleanupService) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a CleanupService. codes and sessions may be nil when their
// stores expire records on their own.
func New(workflows WorkflowExpirer, codes, sessions Purger, opts ...CleanupOption) (*CleanupService, error) {
	if workflows == nil {
		return nil, fmt.Errorf("workflow expirer is required")
	}
	svc := &CleanupService{
		workflows: workflows,
		codes:     codes,
		sessions:  sessions,
		interval:  time.Minute,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs cleanup periodically until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "registration cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single pass. Failures of one step do not skip the others;
// they are joined into the returned error.
func (s *CleanupService) RunOnce(ctx context.Context) (CleanupResult, error) {
	now := s.now()
	ctx = requestcontext.WithTime(ctx, now)
	var res CleanupResult
	var errs []error

	expired, err := s.workflows.ExpireIdle(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("expire idle registrations: %w", err))
	} else {
		res.ExpiredWorkflows = expired
	}

	if s.codes != nil {
		purged, err := s.codes.PurgeExpired(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge expired codes: %w", err))
		} else {
			res.PurgedCodes = purged
		}
	}

	if s.sessions != nil {
		purged, err := s.sessions.PurgeExpired(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge expired sessions: %w", err))
		} else {
			res.PurgedSessions = purged
		}
	}

	if res != (CleanupResult{}) {
		s.logger.InfoContext(ctx, "registration cleanup",
			"expired_workflows", res.ExpiredWorkflows,
			"purged_codes", res.PurgedCodes,
			"purged_sessions", res.PurgedSessions,
		)
	}
	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}
