// Package email holds the address checks shared by the registration flow and the
// verification and account services.
package email

import (
	"net/mail"
	"strings"
)

// Normalize trims surrounding whitespace and lowercases the address so the same
// mailbox always maps to the same verification and account records.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsValid performs a lightweight syntax check: a single @, a non-empty local part,
// and a dotted domain. Display names ("Jane <jane@example.com>") are rejected.
func IsValid(address string) bool {
	if address == "" || strings.ContainsAny(address, " <>") {
		return false
	}
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return false
	}
	local, domain, ok := strings.Cut(address, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
