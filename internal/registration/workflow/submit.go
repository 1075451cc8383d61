package workflow

import (
	"context"
	"time"

	"cashwallet/internal/platform/tracer"
	"cashwallet/internal/registration/models"
	dErrors "cashwallet/pkg/domain-errors"
)

// Submit sends the assembled draft to the account service exactly once per call
// and returns the new account ID. A rejection leaves the draft intact at step 3.
// There is no automatic retry.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", errClosed
	}
	if c.inflight[opSubmit] != nil {
		c.mu.Unlock()
		c.count(opSubmit, "ignored")
		return "", errInFlight
	}
	if c.step != models.Step3 {
		c.mu.Unlock()
		return "", dErrors.New(dErrors.CodeInvalidState, "complete the previous steps first")
	}
	if info := c.submitGateLocked(); info != nil {
		err := c.failLocked(info)
		c.mu.Unlock()
		c.count(opSubmit, "blocked")
		return "", err
	}
	payload := c.draft.Payload()
	c.lastErr = nil
	opCtx, release := c.beginLocked(ctx, opSubmit)
	c.mu.Unlock()

	opCtx, span := c.tracer.Start(opCtx, tracer.SpanCreateAccount,
		tracer.String(tracer.AttrWorkflowID, c.workflowID),
		tracer.String(tracer.AttrEmailHash, tracer.HashEmail(payload.Email)),
	)
	start := time.Now()
	res, callErr := c.accounts.CreateAccount(opCtx, payload)
	c.observeRemote(opSubmit, start)
	span.End(callErr)

	c.mu.Lock()
	defer c.mu.Unlock()
	release()

	switch {
	case c.closed:
		if callErr == nil && res.OK {
			c.logger.WarnContext(ctx, "account created for a discarded registration",
				"workflow_id", c.workflowID,
				"account_id", res.AccountID,
			)
		}
		c.dropStale(ctx, opSubmit, "workflow discarded")
		return "", errClosed
	case callErr != nil:
		c.logFailure(ctx, opSubmit, callErr)
		c.count(opSubmit, "transport_error")
		return "", c.failLocked(newFailure(models.KindSubmission, "", msgRegisterRetry))
	case !res.OK:
		c.count(opSubmit, "rejected_remote")
		return "", c.failLocked(newFailure(models.KindSubmission, "", reasonOr(res.Reason, msgRegisterFailed)))
	}

	c.succeeded = true
	c.closed = true
	c.accountID = res.AccountID
	c.draft.Scrub()
	c.touchLocked()
	c.count(opSubmit, "ok")
	c.logEvent(ctx, "registration_submitted", "account_id", res.AccountID)
	return res.AccountID, nil
}
