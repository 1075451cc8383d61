package service

import (
	"context"

	"cashwallet/internal/registration/models"
	"cashwallet/pkg/domain"
	"cashwallet/pkg/requestcontext"
)

// Each operation returns the snapshot taken after it ran, also when it failed,
// so the display layer can always re-render.

func (s *Service) EditField(ctx context.Context, id domain.WorkflowID, field, value string) (models.Snapshot, error) {
	c, err := s.lookup(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	err = c.EditField(field, value)
	return c.Snapshot(), err
}

func (s *Service) RequestCode(ctx context.Context, id domain.WorkflowID) (models.Snapshot, error) {
	c, err := s.lookup(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	err = c.RequestCode(ctx)
	return c.Snapshot(), err
}

func (s *Service) SubmitCode(ctx context.Context, id domain.WorkflowID, code string) (models.Snapshot, error) {
	c, err := s.lookup(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	err = c.SubmitCode(ctx, code)
	return c.Snapshot(), err
}

func (s *Service) Advance(ctx context.Context, id domain.WorkflowID) (models.Snapshot, error) {
	c, err := s.lookup(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	err = c.Advance()
	return c.Snapshot(), err
}

func (s *Service) Retreat(ctx context.Context, id domain.WorkflowID) (models.Snapshot, error) {
	c, err := s.lookup(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	err = c.Retreat()
	return c.Snapshot(), err
}

// Submit runs the single-shot submission. On success the workflow is unmounted
// and, when a session starter is configured, the new account is signed in.
func (s *Service) Submit(ctx context.Context, id domain.WorkflowID) (models.Completion, models.Snapshot, error) {
	c, err := s.lookup(id)
	if err != nil {
		return models.Completion{}, models.Snapshot{}, err
	}
	accountID, err := c.Submit(ctx)
	snap := c.Snapshot()
	if err != nil {
		return models.Completion{}, snap, err
	}

	if s.unmount(id, c) {
		s.incFinished("succeeded")
	}
	s.logEvent(ctx, "registration_completed", id, "account_id", accountID)

	done := models.Completion{AccountID: accountID, Redirect: RedirectLogin}
	if s.sessions == nil {
		return done, snap, nil
	}
	grant, err := s.sessions.StartSession(ctx, accountID, requestcontext.UserAgent(ctx))
	if err != nil {
		// The account exists; the user can still sign in manually.
		s.logger.WarnContext(ctx, "failed to start session after registration",
			"workflow_id", id.String(),
			"account_id", accountID,
			"error", err,
		)
		return done, snap, nil
	}
	done.Redirect = RedirectDashboard
	done.AccessToken = grant.AccessToken
	done.ExpiresAt = grant.ExpiresAt
	return done, snap, nil
}
