package service

import (
	"context"

	"cashwallet/pkg/domain"
	"cashwallet/pkg/requestcontext"
)

func (s *Service) logEvent(ctx context.Context, event string, id domain.WorkflowID, attributes ...any) {
	args := append(attributes,
		"event", event,
		"log_type", "registration",
		"workflow_id", id.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) incStarted(profile string) {
	if s.metrics != nil {
		s.metrics.IncStarted(profile)
	}
}

func (s *Service) incFinished(outcome string) {
	if s.metrics != nil {
		s.metrics.IncFinished(outcome)
	}
}
