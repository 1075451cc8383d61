package domain

import (
	"strings"
	"time"

	dErrors "cashwallet/pkg/domain-errors"
)

// BirthDateLayout is the calendar-date form accepted on the wire.
const BirthDateLayout = "2006-01-02"

// ParseBirthDate parses a YYYY-MM-DD birth date and rejects dates after now.
func ParseBirthDate(s string, now time.Time) (time.Time, error) {
	d, err := time.Parse(BirthDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "birth date must be YYYY-MM-DD")
	}
	if d.After(now.UTC()) {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "birth date cannot be in the future")
	}
	return d, nil
}
