package workflow

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"cashwallet/internal/platform/tracer"
	"cashwallet/internal/registration/models"
)

// RequestCode asks the verification service to send a code to the draft's email.
// It may be repeated (resend) but not while a previous request is outstanding.
func (c *Controller) RequestCode(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed
	}
	if c.inflight[opRequestCode] != nil {
		c.mu.Unlock()
		c.count(opRequestCode, "ignored")
		return errInFlight
	}
	addr := c.draft.Email
	if addr == "" {
		err := c.failLocked(newFailure(models.KindValidation, models.FieldEmail, msgEnterEmail))
		c.mu.Unlock()
		c.count(opRequestCode, "rejected")
		return err
	}
	if c.draft.EmailVerified() {
		err := c.failLocked(newFailure(models.KindValidation, models.FieldEmail, msgAlreadyVerified))
		c.mu.Unlock()
		c.count(opRequestCode, "rejected")
		return err
	}
	opCtx, release := c.beginLocked(ctx, opRequestCode)
	c.mu.Unlock()

	opCtx, span := c.tracer.Start(opCtx, tracer.SpanRequestCode,
		tracer.String(tracer.AttrWorkflowID, c.workflowID),
		tracer.String(tracer.AttrEmailHash, tracer.HashEmail(addr)),
	)
	start := time.Now()
	res, callErr := c.verifier.RequestCode(opCtx, addr)
	c.observeRemote(opRequestCode, start)
	span.End(callErr)

	c.mu.Lock()
	defer c.mu.Unlock()
	release()

	switch {
	case c.closed:
		c.dropStale(ctx, opRequestCode, "workflow discarded")
		return errClosed
	case c.draft.EmailVerified():
		// A code verified while the resend was out; the new code is moot.
		c.dropStale(ctx, opRequestCode, "email verified meanwhile")
		return nil
	case c.draft.Email != addr:
		c.dropStale(ctx, opRequestCode, "email changed")
		return c.failLocked(newFailure(models.KindVerification, models.FieldEmail, msgEmailChanged))
	case callErr != nil:
		c.logFailure(ctx, opRequestCode, callErr)
		c.count(opRequestCode, "transport_error")
		return c.failLocked(newFailure(models.KindVerification, models.FieldEmail, msgSendFailed))
	case !res.OK:
		c.count(opRequestCode, "rejected_remote")
		return c.failLocked(newFailure(models.KindVerification, models.FieldEmail, reasonOr(res.Reason, msgSendFailed)))
	}

	resend := c.draft.Verification.State == models.VerificationSent
	c.draft.Verification = models.Verification{
		State:          models.VerificationSent,
		Email:          addr,
		LastIssuedCode: res.Code,
	}
	c.lastErr = nil
	c.touchLocked()
	c.count(opRequestCode, "ok")
	c.logEvent(ctx, "verification_code_requested", "resend", resend)
	return nil
}

// SubmitCode checks a code with the verification service. Codes of the wrong
// length are rejected locally and never sent.
func (c *Controller) SubmitCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed
	}
	if c.inflight[opVerifyCode] != nil {
		c.mu.Unlock()
		c.count(opVerifyCode, "ignored")
		return errInFlight
	}
	if utf8.RuneCountInString(code) != c.codeLength {
		err := c.failLocked(newFailure(models.KindValidation, models.FieldCode, codeLengthMessage(c.codeLength)))
		c.mu.Unlock()
		c.count(opVerifyCode, "rejected")
		return err
	}
	if c.draft.EmailVerified() {
		c.mu.Unlock()
		c.count(opVerifyCode, "ignored")
		return nil
	}
	if c.draft.Verification.State != models.VerificationSent {
		err := c.failLocked(newFailure(models.KindValidation, models.FieldCode, msgRequestCodeFirst))
		c.mu.Unlock()
		c.count(opVerifyCode, "rejected")
		return err
	}
	addr := c.draft.Email
	opCtx, release := c.beginLocked(ctx, opVerifyCode)
	c.mu.Unlock()

	opCtx, span := c.tracer.Start(opCtx, tracer.SpanVerifyCode,
		tracer.String(tracer.AttrWorkflowID, c.workflowID),
		tracer.String(tracer.AttrEmailHash, tracer.HashEmail(addr)),
	)
	start := time.Now()
	res, callErr := c.verifier.VerifyCode(opCtx, addr, code)
	c.observeRemote(opVerifyCode, start)
	span.End(callErr)

	c.mu.Lock()
	defer c.mu.Unlock()
	release()

	switch {
	case c.closed:
		c.dropStale(ctx, opVerifyCode, "workflow discarded")
		return errClosed
	case c.draft.Email != addr:
		c.dropStale(ctx, opVerifyCode, "email changed")
		return c.failLocked(newFailure(models.KindVerification, models.FieldEmail, msgEmailChanged))
	case callErr != nil:
		c.logFailure(ctx, opVerifyCode, callErr)
		c.count(opVerifyCode, "transport_error")
		return c.failLocked(newFailure(models.KindVerification, models.FieldCode, msgVerifyUnavailable))
	case !res.OK:
		c.count(opVerifyCode, "rejected_remote")
		return c.failLocked(newFailure(models.KindVerification, models.FieldCode, reasonOr(res.Reason, msgInvalidCode)))
	}

	c.draft.Verification = models.Verification{State: models.VerificationVerified, Email: addr}
	c.lastErr = nil
	c.touchLocked()
	c.count(opVerifyCode, "ok")
	c.logEvent(ctx, "email_verified")
	return nil
}
