package service

import (
	"context"

	"cashwallet/internal/platform/tracer"
	"cashwallet/pkg/requestcontext"
)

// Addresses are logged as hashes; codes are never logged here.
func (s *Service) logEvent(ctx context.Context, event, address string, attributes ...any) {
	args := append(attributes,
		"event", event,
		"log_type", "verification",
		"email_hash", tracer.HashEmail(address),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) logFailure(ctx context.Context, event, address, reason string, err error) {
	args := []any{
		"event", event,
		"log_type", "verification",
		"reason", reason,
		"email_hash", tracer.HashEmail(address),
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	if reason == "internal_error" {
		s.logger.ErrorContext(ctx, event, args...)
		return
	}
	s.logger.WarnContext(ctx, event, args...)
}

func (s *Service) incSent(outcome string) {
	if s.metrics != nil {
		s.metrics.IncSent(outcome)
	}
}

func (s *Service) incChecked(outcome string) {
	if s.metrics != nil {
		s.metrics.IncChecked(outcome)
	}
}
