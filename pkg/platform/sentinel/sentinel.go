// Package sentinel holds the dependency-level errors that stores and remote
// clients return. Services translate them into domain errors exactly once.
package sentinel

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrExpired         = errors.New("expired")
	ErrMismatch        = errors.New("mismatch")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrCooldown        = errors.New("cooldown active")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnavailable     = errors.New("unavailable")
)
