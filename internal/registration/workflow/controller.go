// Package workflow implements the registration controller: the step cursor and
// its gates, the one-time code sub-flow, and the single-shot submission.
//
// All state lives behind one mutex that is released for the duration of every
// remote call. Each remote operation has its own busy flag; a second request of
// the same kind while one is outstanding is rejected without side effects. Once
// the controller is discarded, results that arrive late are dropped.
package workflow

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Verifier,AccountCreator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cashwallet/internal/platform/tracer"
	"cashwallet/internal/registration/metrics"
	"cashwallet/internal/registration/models"
	"cashwallet/internal/registration/password"
	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/validation"
)

const (
	// DefaultMinPasswordScore admits four of the five strength rules.
	DefaultMinPasswordScore = 80
	// DefaultCodeLength is checked locally before a code is sent for verification.
	DefaultCodeLength       = 6
	defaultCallTimeout      = 15 * time.Second
)

type operation string

const (
	opEditField   operation = "edit_field"
	opRequestCode operation = "request_code"
	opVerifyCode  operation = "verify_code"
	opAdvance     operation = "advance"
	opRetreat     operation = "retreat"
	opSubmit      operation = "submit"
)

type Controller struct {
	mu       sync.Mutex
	verifier Verifier
	accounts AccountCreator

	reqs     models.FieldRequirements
	draft    models.Draft
	step     models.Step
	inflight map[operation]context.CancelFunc
	lastErr  *models.ErrorInfo

	closed    bool
	succeeded bool
	accountID string
	updatedAt time.Time

	workflowID  string
	language    string
	minScore    int
	codeLength  int
	callTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
	now         func() time.Time
}

type Option func(*Controller)

// WithRequirements selects the field-requirement profile. Default is models.ProfileAdvanced.
func WithRequirements(r models.FieldRequirements) Option {
	return func(c *Controller) {
		c.reqs = r
	}
}

// WithLanguage sets the draft's initial language preference.
func WithLanguage(lang string) Option {
	return func(c *Controller) {
		c.language = lang
	}
}

// WithMinPasswordScore sets the strength score the final gate requires.
func WithMinPasswordScore(score int) Option {
	return func(c *Controller) {
		if score > 0 && score <= 100 {
			c.minScore = score
		}
	}
}

// WithCodeLength sets the exact one-time code length checked before any remote call.
func WithCodeLength(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.codeLength = n
		}
	}
}

// WithCallTimeout bounds each remote call. Calls are detached from the caller's
// cancellation so a dropped HTTP request cannot abort an account creation halfway.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithWorkflowID tags log lines and spans with the hosting service's ID.
func WithWorkflowID(id string) Option {
	return func(c *Controller) {
		c.workflowID = id
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Controller) {
		c.tracer = t
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New mounts a workflow with an empty draft at step 1.
func New(verifier Verifier, accounts AccountCreator, opts ...Option) *Controller {
	c := &Controller{
		verifier:    verifier,
		accounts:    accounts,
		reqs:        models.ProfileAdvanced,
		step:        models.Step1,
		inflight:    make(map[operation]context.CancelFunc),
		minScore:    DefaultMinPasswordScore,
		codeLength:  DefaultCodeLength,
		callTimeout: defaultCallTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = tracer.NewNoop()
	}
	c.draft = models.NewDraft(c.language, c.reqs.DefaultCountryCode)
	c.updatedAt = c.now()
	return c
}

// EditField sets one draft field. Edits are accepted at any step and never move
// the cursor. Once the email is verified, email edits are ignored; before that, a
// changed email invalidates any outstanding code.
func (c *Controller) EditField(name, value string) error {
	f, ok := models.ParseField(name)
	if !ok {
		c.count(opEditField, "rejected")
		return dErrors.New(dErrors.CodeBadRequest, "unknown field")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	if limit := maxLength(f); validation.CheckStringLength(string(f), value, limit) != nil {
		c.count(opEditField, "rejected")
		return c.failLocked(newFailure(models.KindValidation, f, tooLongMessage(f, limit)))
	}

	c.touchLocked()
	if f == models.FieldEmail {
		if c.draft.EmailVerified() {
			c.count(opEditField, "ignored")
			return nil
		}
		prev := c.draft.Email
		c.draft.Set(f, value)
		if c.draft.Email != prev && c.draft.Verification.State != models.VerificationNotSent {
			c.draft.Verification = models.Verification{State: models.VerificationNotSent}
		}
	} else {
		c.draft.Set(f, value)
	}
	if c.lastErr != nil && c.lastErr.Field == f {
		c.lastErr = nil
	}
	c.count(opEditField, "ok")
	return nil
}

// Advance moves to the next step when the current step's gate holds. The gate is
// re-evaluated here regardless of what the display layer believed.
func (c *Controller) Advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	if c.step >= models.Step3 {
		return dErrors.New(dErrors.CodeInvalidState, "already at the final step")
	}
	if info := c.gateLocked(c.step); info != nil {
		c.count(opAdvance, "blocked")
		return c.failLocked(info)
	}
	c.step++
	c.lastErr = nil
	c.touchLocked()
	c.count(opAdvance, "ok")
	return nil
}

// Retreat moves back one step without validating or clearing anything.
func (c *Controller) Retreat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	if c.step > models.Step1 {
		c.step--
	}
	c.lastErr = nil
	c.touchLocked()
	c.count(opRetreat, "ok")
	return nil
}

// Discard unmounts the workflow: in-flight calls are cancelled and their results
// will be dropped. It reports whether the workflow was still open.
func (c *Controller) Discard() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	for _, cancel := range c.inflight {
		cancel()
	}
	c.draft.Scrub()
	return true
}

// Closed reports whether the workflow succeeded or was discarded.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// IdleSince returns the time of the last state change.
func (c *Controller) IdleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}

func (c *Controller) Profile() string {
	return c.reqs.Profile
}

// Snapshot returns the read-only view for the display layer.
func (c *Controller) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() models.Snapshot {
	d := &c.draft
	fields := make(map[models.Field]string, len(models.EditableFields))
	for _, f := range models.EditableFields {
		if !f.Secret() {
			fields[f] = d.Value(f)
		}
	}
	report := password.Evaluate(d.Password)
	busy := c.busyLocked()

	snap := models.Snapshot{
		WorkflowID:        c.workflowID,
		Profile:           c.reqs.Profile,
		Step:              c.step,
		State:             c.stateLocked(),
		Fields:            fields,
		PasswordSet:       d.Password != "",
		ConfirmationSet:   d.ConfirmPassword != "",
		PasswordStrength:  report,
		PasswordsMismatch: d.PasswordsMismatch(),
		Verification: models.VerificationSnapshot{
			State:          d.Verification.State,
			EmailVerified:  d.EmailVerified(),
			CodeRequested:  d.Verification.State != models.VerificationNotSent,
			LastIssuedCode: d.Verification.LastIssuedCode,
		},
		Busy:      busy,
		AccountID: c.accountID,
		UpdatedAt: c.updatedAt,
	}
	if !c.closed {
		snap.CanAdvance = c.step < models.Step3 && c.gateLocked(c.step) == nil
		snap.CanSubmit = c.step == models.Step3 && !busy.Submitting && c.submitGateLocked() == nil
	}
	if c.lastErr != nil {
		e := *c.lastErr
		snap.Error = &e
	}
	return snap
}

func (c *Controller) stateLocked() models.State {
	switch {
	case c.succeeded:
		return models.StateSucceeded
	case c.closed:
		return models.StateDiscarded
	case c.inflight[opSubmit] != nil:
		return models.StateSubmitting
	case c.step == models.Step3 && c.lastErr != nil && c.lastErr.Kind == models.KindSubmission:
		return models.StateFailed
	case c.step == models.Step2:
		return models.StateStep2
	case c.step == models.Step3:
		return models.StateStep3
	default:
		return models.StateStep1
	}
}

func (c *Controller) busyLocked() models.BusyFlags {
	return models.BusyFlags{
		RequestingCode: c.inflight[opRequestCode] != nil,
		VerifyingCode:  c.inflight[opVerifyCode] != nil,
		Submitting:     c.inflight[opSubmit] != nil,
	}
}

// beginLocked marks op busy and returns the context for its remote call plus the
// release func, which must be called with the lock held once the call returns.
func (c *Controller) beginLocked(ctx context.Context, op operation) (context.Context, func()) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callTimeout)
	c.inflight[op] = cancel
	c.touchLocked()
	return opCtx, func() {
		delete(c.inflight, op)
		cancel()
	}
}

func (c *Controller) failLocked(info *models.ErrorInfo) error {
	c.lastErr = info
	c.touchLocked()
	return &dErrors.Error{Code: kindCodes[info.Kind], Message: info.Message, Err: info}
}

func (c *Controller) touchLocked() {
	c.updatedAt = c.now()
}

func maxLength(f models.Field) int {
	switch f {
	case models.FieldFirstName, models.FieldLastName:
		return validation.MaxNameLength
	case models.FieldEmail:
		return validation.MaxEmailLength
	case models.FieldPassword, models.FieldConfirmPassword:
		return validation.MaxPasswordLength
	case models.FieldPhone, models.FieldCountryCode:
		return validation.MaxPhoneLength
	default:
		return validation.MaxFieldLength
	}
}
