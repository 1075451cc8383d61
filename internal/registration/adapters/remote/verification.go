package remote

import (
	"context"

	"cashwallet/internal/registration/models"
)

type sendCodeRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type codeResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
	OTP    string `json:"otp"`
}

// VerificationClient implements workflow.Verifier over HTTP.
type VerificationClient struct {
	*client
}

func NewVerificationClient(cfg Config) (*VerificationClient, error) {
	c, err := newClient("verification", cfg)
	if err != nil {
		return nil, err
	}
	return &VerificationClient{client: c}, nil
}

func (c *VerificationClient) RequestCode(ctx context.Context, email string) (models.CodeResult, error) {
	var res codeResponse
	if err := c.post(ctx, "/api/auth/send-otp", sendCodeRequest{Email: email}, &res); err != nil {
		return models.CodeResult{}, err
	}
	return models.CodeResult{OK: res.OK, Reason: res.Reason, Code: res.OTP}, nil
}

func (c *VerificationClient) VerifyCode(ctx context.Context, email, code string) (models.VerifyResult, error) {
	var res codeResponse
	if err := c.post(ctx, "/api/auth/verify-otp", verifyCodeRequest{Email: email, OTP: code}, &res); err != nil {
		return models.VerifyResult{}, err
	}
	return models.VerifyResult{OK: res.OK, Reason: res.Reason}, nil
}
