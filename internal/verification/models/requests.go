package models

import (
	"strings"

	"cashwallet/pkg/email"
	"cashwallet/pkg/validation"
)

// SendCodeRequest asks for a code to be delivered to Email.
type SendCodeRequest struct {
	Email string `json:"email" validate:"notblank,max=254"`
}

func (r *SendCodeRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
}

func (r *SendCodeRequest) Validate() error {
	return validation.Validate(r)
}

// VerifyCodeRequest checks a code previously sent to Email.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"notblank,max=254"`
	OTP   string `json:"otp" validate:"notblank,max=32"`
}

func (r *VerifyCodeRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)
}

func (r *VerifyCodeRequest) Validate() error {
	return validation.Validate(r)
}
