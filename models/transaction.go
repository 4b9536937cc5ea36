package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind tags a ledger row as income, expense, or transfer.
// Only income and expense carry a balance delta; transfer rows are
// produced and (eventually) reversed by the dedicated transfer flow.
type TransactionKind string

const (
	KindIncome   TransactionKind = "income"
	KindExpense  TransactionKind = "expense"
	KindTransfer TransactionKind = "transfer"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindTransfer:
		return true
	}
	return false
}

// Delta returns the signed balance change a row of this kind applies to
// its account: +amount for income, -amount for expense. The second return
// is false for transfer, which exposes no delta through this path.
func (k TransactionKind) Delta(amount decimal.Decimal) (decimal.Decimal, bool) {
	switch k {
	case KindIncome:
		return amount, true
	case KindExpense:
		return amount.Neg(), true
	}
	return decimal.Zero, false
}

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

// Transaction is a ledger row. ToAccountID is set only on transfer rows.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Kind        TransactionKind `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	AccountID   string          `json:"account_id"`
	ToAccountID *string         `json:"to_account_id"`
	Title       string          `json:"title"`
	Notes       *string         `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	// Computed fields
	Account   *AccountRef `json:"account,omitempty"`
	ToAccount *AccountRef `json:"to_account,omitempty"`
}

// TransactionInput creates an income or expense row. Transfer rows are
// never created through this path; use TransferInput.
type TransactionInput struct {
	Date      string          `json:"date"`
	Kind      TransactionKind `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	AccountID string          `json:"account_id"`
	Title     string          `json:"title"`
	Notes     *string         `json:"notes"`
}

func (t *TransactionInput) Validate() string {
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return "date must be in YYYY-MM-DD format"
	}
	switch t.Kind {
	case KindIncome, KindExpense:
	case KindTransfer:
		return "transfers must be created through the transfer endpoint"
	default:
		return "type must be one of: income, expense"
	}
	if !t.Amount.IsPositive() {
		return "amount must be positive"
	}
	if t.AccountID == "" {
		return "account_id is required"
	}
	if t.Title == "" {
		return "title is required"
	}
	return ""
}

// TransactionUpdate is a partial edit of a non-transfer row. Nil fields
// keep the existing value.
type TransactionUpdate struct {
	Date      *string          `json:"date"`
	Kind      *TransactionKind `json:"type"`
	Amount    *decimal.Decimal `json:"amount"`
	AccountID *string          `json:"account_id"`
	Title     *string          `json:"title"`
	Notes     *string          `json:"notes"`
}

func (t *TransactionUpdate) Validate() string {
	if t.Date != nil {
		if _, err := time.Parse(DateLayout, *t.Date); err != nil {
			return "date must be in YYYY-MM-DD format"
		}
	}
	if t.Kind != nil {
		switch *t.Kind {
		case KindIncome, KindExpense:
		default:
			return "type must be one of: income, expense"
		}
	}
	if t.Amount != nil && !t.Amount.IsPositive() {
		return "amount must be positive"
	}
	if t.AccountID != nil && *t.AccountID == "" {
		return "account_id must not be empty"
	}
	if t.Title != nil && *t.Title == "" {
		return "title must not be empty"
	}
	return ""
}

// TransferInput moves balance between two accounts of the same user.
type TransferInput struct {
	Date          string          `json:"date"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Title         string          `json:"title"`
	Notes         *string         `json:"notes"`
}

func (t *TransferInput) Validate() string {
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return "date must be in YYYY-MM-DD format"
	}
	if t.FromAccountID == "" {
		return "from_account_id is required"
	}
	if t.ToAccountID == "" {
		return "to_account_id is required"
	}
	if t.FromAccountID == t.ToAccountID {
		return "to_account_id must differ from from_account_id"
	}
	if !t.Amount.IsPositive() {
		return "amount must be positive"
	}
	if t.Title == "" {
		return "title is required"
	}
	return ""
}
