package models

import (
	"time"

	"cashwallet/internal/registration/password"
)

// State is the externally visible workflow state.
type State string

const (
	StateStep1      State = "step1"
	StateStep2      State = "step2"
	StateStep3      State = "step3"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	// StateFailed annotates step 3 after a rejected submission; it is not terminal.
	StateFailed State = "failed"
	// StateDiscarded is reported for workflows unmounted before success.
	StateDiscarded State = "discarded"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindVerification ErrorKind = "verification"
	KindSubmission   ErrorKind = "submission"
)

// ErrorInfo is a display-ready failure. It implements error so the controller can
// chain it under a domain error and handlers can recover kind and field.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Field   Field     `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (e *ErrorInfo) Error() string { return e.Message }

type BusyFlags struct {
	RequestingCode bool `json:"requesting_code"`
	VerifyingCode  bool `json:"verifying_code"`
	Submitting     bool `json:"submitting"`
}

// Any reports whether any remote operation is outstanding.
func (b BusyFlags) Any() bool {
	return b.RequestingCode || b.VerifyingCode || b.Submitting
}

type VerificationSnapshot struct {
	State          VerificationState `json:"state"`
	EmailVerified  bool              `json:"email_verified"`
	CodeRequested  bool              `json:"code_requested"`
	LastIssuedCode string            `json:"last_issued_code,omitempty"`
}

// Snapshot is the read-only view handed to the display layer after every operation.
// Password values are never included; the strength report and mismatch flag stand in.
type Snapshot struct {
	WorkflowID        string               `json:"workflow_id,omitempty"`
	Profile           string               `json:"profile"`
	Step              Step                 `json:"step"`
	State             State                `json:"state"`
	Fields            map[Field]string     `json:"fields"`
	PasswordSet       bool                 `json:"password_set"`
	ConfirmationSet   bool                 `json:"confirmation_set"`
	PasswordStrength  password.Report      `json:"password_strength"`
	PasswordsMismatch bool                 `json:"passwords_mismatch"`
	Verification      VerificationSnapshot `json:"verification"`
	Busy              BusyFlags            `json:"busy"`
	Error             *ErrorInfo           `json:"error,omitempty"`
	CanAdvance        bool                 `json:"can_advance"`
	CanSubmit         bool                 `json:"can_submit"`
	AccountID         string               `json:"account_id,omitempty"`
	UpdatedAt         time.Time            `json:"updated_at"`
}
