package models

import "time"

// CodeResult is the verification service's answer to a code request.
// Code is only set outside production.
type CodeResult struct {
	OK     bool
	Reason string
	Code   string
}

// VerifyResult is the verification service's answer to a code check.
type VerifyResult struct {
	OK     bool
	Reason string
}

// AccountResult is the account service's answer to a creation request.
// A rejection must carry a human-readable Reason.
type AccountResult struct {
	OK        bool
	AccountID string
	Reason    string
}

// SessionGrant is handed back by the session service when a new account is signed in.
type SessionGrant struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Completion is the navigation signal emitted once a submission succeeds.
// AccessToken is empty when the session could not be started; the client is
// then sent to the login page instead.
type Completion struct {
	AccountID   string    `json:"account_id"`
	Redirect    string    `json:"redirect"`
	AccessToken string    `json:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
}
