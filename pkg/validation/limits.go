package validation

import (
	"fmt"
	"unicode/utf8"

	dErrors "cashwallet/pkg/domain-errors"
)

// MaxBodySize bounds every JSON request body (16 KB); registration payloads are small.
const MaxBodySize = 16 * 1024

// Per-field length limits, counted in runes.
const (
	MaxNameLength     = 100
	MaxEmailLength    = 254
	MaxPasswordLength = 128
	MaxPhoneLength    = 20
	MaxFieldLength    = 256
)

// CheckStringLength rejects values longer than max runes.
func CheckStringLength(fieldName, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
