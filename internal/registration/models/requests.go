package models

import (
	"strings"

	"cashwallet/pkg/validation"
)

// StartRequest opens a new workflow.
type StartRequest struct {
	Profile  string `json:"profile" validate:"omitempty,max=32"`
	Language string `json:"language" validate:"omitempty,max=64"`
}

func (r *StartRequest) Normalize() {
	r.Profile = strings.ToLower(strings.TrimSpace(r.Profile))
	r.Language = strings.TrimSpace(r.Language)
}

func (r *StartRequest) Validate() error {
	return validation.Validate(r)
}

// EditFieldRequest sets one draft field. Value length limits are enforced by the
// controller so the failure is recorded on the snapshot.
type EditFieldRequest struct {
	Field string `json:"field" validate:"notblank,max=32"`
	Value string `json:"value"`
}

func (r *EditFieldRequest) Normalize() {
	r.Field = strings.ToLower(strings.TrimSpace(r.Field))
}

func (r *EditFieldRequest) Validate() error {
	return validation.Validate(r)
}

// VerifyCodeRequest carries the one-time code typed by the user. Its length is
// checked by the controller, never here.
type VerifyCodeRequest struct {
	Code string `json:"code" validate:"max=32"`
}

func (r *VerifyCodeRequest) Normalize() {
	r.Code = strings.TrimSpace(r.Code)
}

func (r *VerifyCodeRequest) Validate() error {
	return validation.Validate(r)
}
