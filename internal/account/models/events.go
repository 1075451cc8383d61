package models

import "time"

const (
	AggregateAccount    = "account"
	EventAccountCreated = "account.created"
)

// AccountCreated is published once an account and its wallets are committed.
type AccountCreated struct {
	AccountID  string    `json:"account_id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Language   string    `json:"language"`
	Currencies []string  `json:"currencies"`
	CreatedAt  time.Time `json:"created_at"`
}
