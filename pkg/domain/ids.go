// Package domain provides type-safe identifiers so IDs cannot be mixed up at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "cashwallet/pkg/domain-errors"
)

type (
	AccountID  uuid.UUID
	SessionID  uuid.UUID
	WorkflowID uuid.UUID
	WalletID   uuid.UUID
)

func NewAccountID() AccountID   { return AccountID(uuid.New()) }
func NewSessionID() SessionID   { return SessionID(uuid.New()) }
func NewWorkflowID() WorkflowID { return WorkflowID(uuid.New()) }
func NewWalletID() WalletID     { return WalletID(uuid.New()) }

// Parse functions are used at trust boundaries (handlers, token claims).

func ParseAccountID(s string) (AccountID, error) {
	v, err := parseUUID(s, "account ID")
	return AccountID(v), err
}

func ParseSessionID(s string) (SessionID, error) {
	v, err := parseUUID(s, "session ID")
	return SessionID(v), err
}

func ParseWorkflowID(s string) (WorkflowID, error) {
	v, err := parseUUID(s, "registration ID")
	return WorkflowID(v), err
}

func (id AccountID) String() string  { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }
func (id WorkflowID) String() string { return uuid.UUID(id).String() }
func (id WalletID) String() string   { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id WorkflowID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id WalletID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// parseUUID allows the nil UUID through; lookups then report not found.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	v, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return v, nil
}
