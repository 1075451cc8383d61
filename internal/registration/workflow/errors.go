package workflow

import (
	"fmt"
	"strings"

	"cashwallet/internal/registration/models"
	dErrors "cashwallet/pkg/domain-errors"
)

var (
	errClosed   = dErrors.New(dErrors.CodeInvalidState, "registration closed")
	errInFlight = dErrors.New(dErrors.CodeConflict, "operation already in progress")
)

// Messages shown to the user when the remote side gives no reason or the call failed.
const (
	msgEnterEmail        = "Please enter email"
	msgVerifyEmailFirst  = "Please verify email first"
	msgAlreadyVerified   = "Email already verified"
	msgRequestCodeFirst  = "Please request a verification code first"
	msgSendFailed        = "Failed to send OTP"
	msgInvalidCode       = "Invalid OTP"
	msgVerifyUnavailable = "Could not verify the code, please try again"
	msgEmailChanged      = "Email changed while the request was in flight, please request a new code"
	msgPasswordsMismatch = "Passwords do not match"
	msgPasswordTooWeak   = "Password is too weak"
	msgRegisterFailed    = "Registration failed"
	msgRegisterRetry     = "Registration failed, please try again"
)

func requiredMessage(f models.Field) string {
	label := strings.ReplaceAll(string(f), "_", " ")
	return strings.ToUpper(label[:1]) + label[1:] + " is required"
}

func tooLongMessage(f models.Field, max int) string {
	label := strings.ReplaceAll(string(f), "_", " ")
	return fmt.Sprintf("%s%s must be at most %d characters", strings.ToUpper(label[:1]), label[1:], max)
}

func codeLengthMessage(n int) string {
	return fmt.Sprintf("Code must be %d characters", n)
}

func reasonOr(reason, fallback string) string {
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}
	return fallback
}

// kindCodes maps an error kind to the domain code returned alongside it.
var kindCodes = map[models.ErrorKind]dErrors.Code{
	models.KindValidation:   dErrors.CodeValidation,
	models.KindVerification: dErrors.CodeVerificationFailed,
	models.KindSubmission:   dErrors.CodeSubmissionFailed,
}

func newFailure(kind models.ErrorKind, field models.Field, msg string) *models.ErrorInfo {
	return &models.ErrorInfo{Kind: kind, Field: field, Message: msg}
}
