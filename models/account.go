package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a money account owned by a single user. Its balance is only
// ever moved by a balance-change compensation tied to a transaction event
// or by a transfer; name and currency edits never touch it.
type Account struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   string          `json:"currency"` // IDR, USD, EUR, SGD
	IsArchived bool            `json:"is_archived"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AccountRef is the minimal display identity of an account embedded in
// transaction listings.
type AccountRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ref returns the account's display identity.
func (a Account) Ref() AccountRef {
	return AccountRef{ID: a.ID, Name: a.Name}
}

// Currencies supported for accounts.
var Currencies = []string{"IDR", "USD", "EUR", "SGD"}

// DefaultCurrency is used when an account is created without one.
const DefaultCurrency = "IDR"

func validCurrency(code string) bool {
	for _, c := range Currencies {
		if c == code {
			return true
		}
	}
	return false
}

// AccountInput is used for creating/updating accounts. Balance is absent
// on purpose: it cannot be written through the account edit path.
type AccountInput struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func (a *AccountInput) Validate() string {
	if a.Name == "" {
		return "name is required"
	}
	if a.Currency != "" && !validCurrency(a.Currency) {
		return "currency must be one of: IDR, USD, EUR, SGD"
	}
	return ""
}
