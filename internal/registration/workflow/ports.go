package workflow

import (
	"context"

	"cashwallet/internal/registration/models"
)

// Verifier issues and checks one-time codes. A non-nil error means the call did
// not complete (transport failure); a rejection is reported through OK and Reason.
type Verifier interface {
	RequestCode(ctx context.Context, email string) (models.CodeResult, error)
	VerifyCode(ctx context.Context, email, code string) (models.VerifyResult, error)
}

// AccountCreator creates the account from a completed draft. Errors have the same
// meaning as for Verifier.
type AccountCreator interface {
	CreateAccount(ctx context.Context, payload models.Payload) (models.AccountResult, error)
}
