package models

import "cashwallet/pkg/locale"

// DefaultLanguage is used when no supported preference is given.
const DefaultLanguage = locale.Default

// NormalizeLanguage maps a BCP 47 tag or Accept-Language style list to "ar" or "en".
func NormalizeLanguage(raw string) string {
	return locale.Normalize(raw)
}
