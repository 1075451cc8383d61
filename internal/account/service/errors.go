package service

import (
	"context"
	"errors"

	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/platform/sentinel"
)

var errNotVerified = errors.New("email not verified")

type createErrorMapping struct {
	sentinel error
	message  string
	outcome  string
}

// First match wins. Messages are shown to the registering user.
var createErrorMappings = []createErrorMapping{
	{sentinel.ErrAlreadyExists, "Email already registered", "duplicate"},
	{errNotVerified, "Email not verified", "unverified"},
}

func (s *Service) handleCreateError(ctx context.Context, address string, err error) error {
	for _, m := range createErrorMappings {
		if errors.Is(err, m.sentinel) {
			s.logFailure(ctx, "account_create_rejected", address, m.outcome, err)
			s.incCreated(m.outcome)
			return dErrors.Wrap(err, dErrors.CodeSubmissionFailed, m.message)
		}
	}
	s.logFailure(ctx, "account_create_failed", address, "internal_error", err)
	s.incCreated("internal_error")
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
}
