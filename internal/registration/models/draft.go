package models

import (
	"strings"

	"cashwallet/pkg/email"
)

// Field names a draft field as it appears in edit requests and error annotations.
type Field string

const (
	FieldFirstName       Field = "first_name"
	FieldLastName        Field = "last_name"
	FieldEmail           Field = "email"
	FieldPhone           Field = "phone"
	FieldCountryCode     Field = "country_code"
	FieldBirthDate       Field = "birth_date"
	FieldPassword        Field = "password"
	FieldConfirmPassword Field = "confirm_password"
	FieldLanguage        Field = "language"

	// FieldCode is not stored on the draft; it annotates one-time code errors.
	FieldCode Field = "code"
)

// EditableFields lists every field accepted by EditField, in display order.
var EditableFields = []Field{
	FieldFirstName, FieldLastName, FieldEmail, FieldBirthDate, FieldCountryCode,
	FieldPhone, FieldPassword, FieldConfirmPassword, FieldLanguage,
}

// ParseField validates a client-supplied field name.
func ParseField(s string) (Field, bool) {
	f := Field(strings.TrimSpace(s))
	for _, known := range EditableFields {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// Secret reports whether the field value must never be echoed or logged.
func (f Field) Secret() bool {
	return f == FieldPassword || f == FieldConfirmPassword
}

type VerificationState string

const (
	VerificationNotSent  VerificationState = "not_sent"
	VerificationSent     VerificationState = "sent"
	VerificationVerified VerificationState = "verified"
)

// Verification is the one-time code sub-flow attached to a draft.
type Verification struct {
	State VerificationState
	// Email is the address the outstanding or accepted code belongs to.
	Email string
	// LastIssuedCode is only populated when the verification service exposes codes (non-production).
	LastIssuedCode string
}

// Draft is the in-progress registration record.
type Draft struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	CountryCode     string
	BirthDate       string
	Password        string
	ConfirmPassword string
	Language        string

	Verification Verification
}

// NewDraft returns an empty draft with the given defaults applied.
func NewDraft(language, countryCode string) Draft {
	return Draft{
		Language:     NormalizeLanguage(language),
		CountryCode:  countryCode,
		Verification: Verification{State: VerificationNotSent},
	}
}

// Value returns the current text of f.
func (d *Draft) Value(f Field) string {
	switch f {
	case FieldFirstName:
		return d.FirstName
	case FieldLastName:
		return d.LastName
	case FieldEmail:
		return d.Email
	case FieldPhone:
		return d.Phone
	case FieldCountryCode:
		return d.CountryCode
	case FieldBirthDate:
		return d.BirthDate
	case FieldPassword:
		return d.Password
	case FieldConfirmPassword:
		return d.ConfirmPassword
	case FieldLanguage:
		return d.Language
	default:
		return ""
	}
}

// Set stores value in f. Passwords are kept verbatim; everything else is trimmed.
// Email rules (immutability once verified, sub-flow reset) are enforced by the controller.
func (d *Draft) Set(f Field, value string) {
	if !f.Secret() {
		value = strings.TrimSpace(value)
	}
	switch f {
	case FieldFirstName:
		d.FirstName = value
	case FieldLastName:
		d.LastName = value
	case FieldEmail:
		d.Email = email.Normalize(value)
	case FieldPhone:
		d.Phone = value
	case FieldCountryCode:
		d.CountryCode = value
	case FieldBirthDate:
		d.BirthDate = value
	case FieldPassword:
		d.Password = value
	case FieldConfirmPassword:
		d.ConfirmPassword = value
	case FieldLanguage:
		d.Language = NormalizeLanguage(value)
	}
}

// EmailVerified is true only after a successful verification for the address currently held.
func (d *Draft) EmailVerified() bool {
	return d.Verification.State == VerificationVerified && d.Verification.Email == d.Email && d.Email != ""
}

// PasswordsMismatch is true as soon as both password fields are non-empty and differ.
func (d *Draft) PasswordsMismatch() bool {
	return d.Password != "" && d.ConfirmPassword != "" && d.Password != d.ConfirmPassword
}

// Scrub clears the credential fields.
func (d *Draft) Scrub() {
	d.Password = ""
	d.ConfirmPassword = ""
	d.Verification.LastIssuedCode = ""
}

// Payload assembles the submission payload: the draft minus confirmation and derived state.
func (d *Draft) Payload() Payload {
	return Payload{
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Email:       d.Email,
		Phone:       d.Phone,
		CountryCode: d.CountryCode,
		BirthDate:   d.BirthDate,
		Password:    d.Password,
		Language:    d.Language,
	}
}

// Payload is what the account service receives once the final gate holds.
type Payload struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	BirthDate   string `json:"birth_date,omitempty"`
	Password    string `json:"password"`
	Language    string `json:"language"`
}
