// Package locale resolves the interface language used for accounts and messages.
package locale

import "golang.org/x/text/language"

// Default is used when no supported preference is given.
const Default = "ar"

var matcher = language.NewMatcher([]language.Tag{language.Arabic, language.English})

// Normalize maps a BCP 47 tag or Accept-Language style list to "ar" or "en".
func Normalize(raw string) string {
	if raw == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if idx == 1 {
		return "en"
	}
	return "ar"
}
