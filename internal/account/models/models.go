// Package models holds wallet accounts and their per-currency wallets.
package models

import (
	"time"

	"cashwallet/pkg/domain"
)

type Role string

const RoleUser Role = "user"

type Currency string

const (
	CurrencyUSD  Currency = "USD"
	CurrencyUSDT Currency = "USDT"
	CurrencySYP  Currency = "SYP"
	CurrencyTRY  Currency = "TRY"
)

// SupportedCurrencies lists the wallets opened for every new account, in display order.
var SupportedCurrencies = []Currency{CurrencyUSD, CurrencyUSDT, CurrencySYP, CurrencyTRY}

type Account struct {
	ID           domain.AccountID
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	CountryCode  string
	BirthDate    *time.Time
	Language     string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

func (a *Account) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Wallet balances are kept in minor units to avoid floating point drift.
type Wallet struct {
	ID           domain.WalletID
	AccountID    domain.AccountID
	Currency     Currency
	BalanceMinor int64
	CreatedAt    time.Time
}

// NewWallets opens one empty wallet per supported currency.
func NewWallets(accountID domain.AccountID, now time.Time) []*Wallet {
	wallets := make([]*Wallet, 0, len(SupportedCurrencies))
	for _, c := range SupportedCurrencies {
		wallets = append(wallets, &Wallet{
			ID:        domain.NewWalletID(),
			AccountID: accountID,
			Currency:  c,
			CreatedAt: now,
		})
	}
	return wallets
}
