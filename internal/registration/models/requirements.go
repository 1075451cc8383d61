package models

import "strings"

// Step is the wizard cursor, 1 through 3.
type Step int

const (
	Step1 Step = 1
	Step2 Step = 2
	Step3 Step = 3
)

// FieldRequirements parameterizes the canonical workflow: which fields each gate
// demands. Step 1 always also requires a verified email; the final gate always
// requires both password fields.
type FieldRequirements struct {
	Profile string
	Step1   []Field
	Step2   []Field
	// DefaultCountryCode pre-fills the country code when the profile asks for one.
	DefaultCountryCode string
}

var (
	// ProfileAdvanced is the three-step wizard: identity and email, then birth date and phone.
	ProfileAdvanced = FieldRequirements{
		Profile: "advanced",
		Step1:   []Field{FieldFirstName, FieldLastName, FieldEmail},
		Step2:   []Field{FieldBirthDate, FieldPhone},
	}

	// ProfileCompact additionally demands an international dialling code.
	ProfileCompact = FieldRequirements{
		Profile:            "compact",
		Step1:              []Field{FieldFirstName, FieldLastName, FieldEmail},
		Step2:              []Field{FieldBirthDate, FieldCountryCode, FieldPhone},
		DefaultCountryCode: "+963",
	}
)

// Profiles lists the registered requirement sets by name.
var Profiles = map[string]FieldRequirements{
	ProfileAdvanced.Profile: ProfileAdvanced,
	ProfileCompact.Profile:  ProfileCompact,
}

// LookupProfile resolves a profile name case-insensitively.
func LookupProfile(name string) (FieldRequirements, bool) {
	p, ok := Profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Required returns the fields the gate leaving step s checks, in order.
func (r FieldRequirements) Required(s Step) []Field {
	switch s {
	case Step1:
		return r.Step1
	case Step2:
		return r.Step2
	case Step3:
		return []Field{FieldPassword, FieldConfirmPassword}
	default:
		return nil
	}
}

// FirstMissing returns the first required field of step s that is empty in d.
func (r FieldRequirements) FirstMissing(d *Draft, s Step) (Field, bool) {
	for _, f := range r.Required(s) {
		if strings.TrimSpace(d.Value(f)) == "" {
			return f, true
		}
	}
	return "", false
}
