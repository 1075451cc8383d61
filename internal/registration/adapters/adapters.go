// Package adapters connects the registration workflow to the in-process
// verification, account and session services.
package adapters

import (
	"context"
	"fmt"

	accountmodels "cashwallet/internal/account/models"
	"cashwallet/internal/registration/models"
	sessionmodels "cashwallet/internal/session/models"
	verificationmodels "cashwallet/internal/verification/models"
	"cashwallet/pkg/domain"
	dErrors "cashwallet/pkg/domain-errors"
)

type CodeService interface {
	Send(ctx context.Context, address string) (verificationmodels.SendResult, error)
	Verify(ctx context.Context, address, code string) (verificationmodels.VerifyResult, error)
}

type AccountService interface {
	Create(ctx context.Context, req accountmodels.CreateRequest) (accountmodels.CreateResult, error)
}

type SessionService interface {
	Start(ctx context.Context, accountID domain.AccountID, deviceLabel string) (sessionmodels.Grant, error)
}

// rejection reports whether err is a refusal the workflow should show to the
// user rather than a failed call.
func rejection(err error, codes ...dErrors.Code) (string, bool) {
	for _, code := range codes {
		if dErrors.HasCode(err, code) {
			return err.Error(), true
		}
	}
	return "", false
}

// Verification implements workflow.Verifier on top of the verification service.
type Verification struct {
	codes CodeService
}

func NewVerification(codes CodeService) *Verification {
	return &Verification{codes: codes}
}

func (a *Verification) RequestCode(ctx context.Context, email string) (models.CodeResult, error) {
	res, err := a.codes.Send(ctx, email)
	if err != nil {
		if reason, ok := rejection(err, dErrors.CodeVerificationFailed, dErrors.CodeValidation); ok {
			return models.CodeResult{OK: false, Reason: reason}, nil
		}
		return models.CodeResult{}, err
	}
	return models.CodeResult{OK: res.OK, Reason: res.Reason, Code: res.Code}, nil
}

func (a *Verification) VerifyCode(ctx context.Context, email, code string) (models.VerifyResult, error) {
	res, err := a.codes.Verify(ctx, email, code)
	if err != nil {
		if reason, ok := rejection(err, dErrors.CodeVerificationFailed, dErrors.CodeValidation); ok {
			return models.VerifyResult{OK: false, Reason: reason}, nil
		}
		return models.VerifyResult{}, err
	}
	return models.VerifyResult{OK: res.OK, Reason: res.Reason}, nil
}

// Accounts implements workflow.AccountCreator on top of the account service.
type Accounts struct {
	accounts AccountService
}

func NewAccounts(accounts AccountService) *Accounts {
	return &Accounts{accounts: accounts}
}

func (a *Accounts) CreateAccount(ctx context.Context, payload models.Payload) (models.AccountResult, error) {
	res, err := a.accounts.Create(ctx, toCreateRequest(payload))
	if err != nil {
		if reason, ok := rejection(err, dErrors.CodeSubmissionFailed, dErrors.CodeValidation); ok {
			return models.AccountResult{OK: false, Reason: reason}, nil
		}
		return models.AccountResult{}, err
	}
	return models.AccountResult{OK: res.OK, AccountID: res.AccountID, Reason: res.Reason}, nil
}

func toCreateRequest(p models.Payload) accountmodels.CreateRequest {
	return accountmodels.CreateRequest{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		Phone:       p.Phone,
		CountryCode: p.CountryCode,
		BirthDate:   p.BirthDate,
		Password:    p.Password,
		Language:    p.Language,
	}
}

// Sessions implements the registration service's SessionStarter.
type Sessions struct {
	sessions SessionService
}

func NewSessions(sessions SessionService) *Sessions {
	return &Sessions{sessions: sessions}
}

func (a *Sessions) StartSession(ctx context.Context, accountID string, userAgent string) (models.SessionGrant, error) {
	parsed, err := domain.ParseAccountID(accountID)
	if err != nil {
		return models.SessionGrant{}, fmt.Errorf("start session: %w", err)
	}
	grant, err := a.sessions.Start(ctx, parsed, userAgent)
	if err != nil {
		return models.SessionGrant{}, err
	}
	return models.SessionGrant{AccessToken: grant.AccessToken, ExpiresAt: grant.ExpiresAt}, nil
}
