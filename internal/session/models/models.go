// Package models holds signed-in sessions and the grants handed to clients.
package models

import (
	"time"

	"cashwallet/pkg/domain"
	"cashwallet/pkg/email"
	"cashwallet/pkg/validation"
)

type Origin string

const (
	OriginRegistration Origin = "registration"
	OriginLogin        Origin = "login"
)

// Session is the server-side record an access token points at. It is created
// on sign-in, replaced on the next login, and removed on logout.
type Session struct {
	ID                domain.SessionID
	AccountID         domain.AccountID
	Origin            Origin
	DeviceDisplayName string
	ClientIP          string
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Grant is what a client keeps after signing in.
type Grant struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccountID   string    `json:"account_id"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"notblank,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

func (r *LoginRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
}

func (r *LoginRequest) Validate() error {
	return validation.Validate(r)
}

// SessionView describes the current session to its holder.
type SessionView struct {
	ID        string    `json:"id"`
	Device    string    `json:"device"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewSessionView(s *Session) SessionView {
	return SessionView{
		ID:        s.ID.String(),
		Device:    s.DeviceDisplayName,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
