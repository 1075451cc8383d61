// Package models holds the one-time code records and results of the verification service.
package models

import "time"

// CodeRecord is the outstanding code for one email address. Only the bcrypt
// hash of the code is stored.
type CodeRecord struct {
	Email     string    `json:"email"`
	Hash      string    `json:"hash"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

func (r *CodeRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// InCooldown reports whether a new code for the same address must still be refused.
func (r *CodeRecord) InCooldown(now time.Time, cooldown time.Duration) bool {
	return cooldown > 0 && now.Before(r.IssuedAt.Add(cooldown))
}

// SendResult is returned for an issued code. Code is filled only when the
// deployment exposes issued codes (development and test).
type SendResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Code   string `json:"otp,omitempty"`
}

type VerifyResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}
