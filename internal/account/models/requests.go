package models

import (
	"strings"

	"cashwallet/pkg/email"
	"cashwallet/pkg/locale"
	"cashwallet/pkg/validation"
)

// CreateRequest is the account creation payload sent by a completed registration.
type CreateRequest struct {
	FirstName   string `json:"first_name" validate:"notblank,max=100"`
	LastName    string `json:"last_name" validate:"notblank,max=100"`
	Email       string `json:"email" validate:"notblank,max=254"`
	Phone       string `json:"phone,omitempty" validate:"max=32"`
	CountryCode string `json:"country_code,omitempty" validate:"omitempty,country_code"`
	BirthDate   string `json:"birth_date,omitempty" validate:"max=10"`
	Password    string `json:"password" validate:"required,max=128"`
	Language    string `json:"language" validate:"max=64"`
}

func (r *CreateRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = email.Normalize(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.CountryCode = strings.TrimSpace(r.CountryCode)
	r.BirthDate = strings.TrimSpace(r.BirthDate)
	r.Language = locale.Normalize(strings.TrimSpace(r.Language))
}

func (r *CreateRequest) Validate() error {
	return validation.Validate(r)
}

// CreateResult mirrors the {ok, account_id, reason} contract of the account endpoint.
type CreateResult struct {
	OK        bool   `json:"ok"`
	AccountID string `json:"account_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// LoginRequest authenticates an existing account.
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

// AccountView is the public profile returned to an authenticated holder.
type AccountView struct {
	ID          string       `json:"id"`
	Email       string       `json:"email"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	Phone       string       `json:"phone,omitempty"`
	CountryCode string       `json:"country_code,omitempty"`
	BirthDate   string       `json:"birth_date,omitempty"`
	Language    string       `json:"language"`
	Role        Role         `json:"role"`
	Wallets     []WalletView `json:"wallets,omitempty"`
}

type WalletView struct {
	ID           string   `json:"id"`
	Currency     Currency `json:"currency"`
	BalanceMinor int64    `json:"balance_minor"`
}

func NewAccountView(a *Account, wallets []*Wallet) AccountView {
	v := AccountView{
		ID:          a.ID.String(),
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Phone:       a.Phone,
		CountryCode: a.CountryCode,
		Language:    a.Language,
		Role:        a.Role,
	}
	if a.BirthDate != nil {
		v.BirthDate = a.BirthDate.Format("2006-01-02")
	}
	for _, w := range wallets {
		v.Wallets = append(v.Wallets, WalletView{ID: w.ID.String(), Currency: w.Currency, BalanceMinor: w.BalanceMinor})
	}
	return v
}
