package service

import (
	"context"
	"errors"

	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/platform/sentinel"
)

// codeErrorMapping translates a store or delivery sentinel into the rejection
// reported to the caller.
type codeErrorMapping struct {
	sentinel error
	message  string
	outcome  string
}

// First match wins.
var sendErrorMappings = []codeErrorMapping{
	{sentinel.ErrCooldown, "please wait before requesting another code", "cooldown"},
	{sentinel.ErrUnavailable, "could not deliver the verification code", "delivery_failed"},
}

var verifyErrorMappings = []codeErrorMapping{
	{sentinel.ErrNotFound, "no verification code was requested for this email", "missing"},
	{sentinel.ErrExpired, "verification code expired", "expired"},
	{sentinel.ErrTooManyAttempts, "too many attempts, request a new code", "exhausted"},
	{sentinel.ErrMismatch, "invalid verification code", "mismatch"},
}

func (s *Service) handleSendError(ctx context.Context, address string, err error) error {
	outcome, mapped := translate(err, sendErrorMappings, "failed to issue verification code")
	s.logFailure(ctx, "otp_send_failed", address, outcome, err)
	s.incSent(outcome)
	return mapped
}

func (s *Service) handleVerifyError(ctx context.Context, address string, err error) error {
	outcome, mapped := translate(err, verifyErrorMappings, "failed to check verification code")
	s.logFailure(ctx, "otp_verify_failed", address, outcome, err)
	s.incChecked(outcome)
	return mapped
}

func translate(err error, mappings []codeErrorMapping, internalMsg string) (string, error) {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return string(de.Code), err
	}
	for _, m := range mappings {
		if errors.Is(err, m.sentinel) {
			return m.outcome, dErrors.Wrap(err, dErrors.CodeVerificationFailed, m.message)
		}
	}
	return "internal_error", dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}
