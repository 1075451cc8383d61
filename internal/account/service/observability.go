package service

import (
	"context"

	"cashwallet/internal/platform/tracer"
	"cashwallet/pkg/requestcontext"
)

func (s *Service) logEvent(ctx context.Context, event, address string, attributes ...any) {
	args := append(attributes,
		"event", event,
		"log_type", "account",
		"email_hash", tracer.HashEmail(address),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) logFailure(ctx context.Context, event, address, reason string, err error) {
	args := []any{
		"event", event,
		"log_type", "account",
		"reason", reason,
		"email_hash", tracer.HashEmail(address),
		"request_id", requestcontext.RequestID(ctx),
	}
	if err != nil {
		args = append(args, "error", err)
	}
	if reason == "internal_error" {
		s.logger.ErrorContext(ctx, event, args...)
		return
	}
	s.logger.WarnContext(ctx, event, args...)
}

func (s *Service) incCreated(outcome string) {
	if s.metrics != nil {
		s.metrics.IncCreated(outcome)
	}
}

func (s *Service) incLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.IncLogin(outcome)
	}
}
