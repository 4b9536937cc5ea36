// Package ledger keeps each account's balance consistent with the set of
// non-transfer transactions that reference it, and delegates transfers to
// an atomic store procedure.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bayarwoi/wallet/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is not owned
	// by the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrNameTaken is returned when a user already has an account with
	// the requested name.
	ErrNameTaken = errors.New("an account with this name already exists")
	// ErrInsufficientFunds is returned when a transfer exceeds the
	// source account's balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrTransferImmutable is returned when the generic edit path is
	// pointed at a transfer row.
	ErrTransferImmutable = errors.New("transfer transactions cannot be edited here; use the transfer flow")
	// ErrTransferDeleteUnsupported is returned when deleting a transfer
	// row is attempted; reversal of transfers is not supported yet.
	ErrTransferDeleteUnsupported = errors.New("deleting transfer transactions is not supported")
)

// CompensationError reports that a ledger row was written but the paired
// balance adjustment failed. RolledBack tells whether the best-effort
// removal of the row succeeded; when it is false the ledger and balance
// are inconsistent and need manual repair.
type CompensationError struct {
	Cause      error
	RolledBack bool
}

func (e *CompensationError) Error() string {
	if e.RolledBack {
		return fmt.Sprintf("balance adjustment failed, transaction rolled back: %v", e.Cause)
	}
	return fmt.Sprintf("balance adjustment failed and rollback failed, ledger is inconsistent: %v", e.Cause)
}

func (e *CompensationError) Unwrap() error { return e.Cause }

// AccountFilter scopes an account listing.
type AccountFilter struct {
	UserID          string
	IncludeArchived bool
}

// TransactionFilter scopes a transaction listing. AccountID matches rows
// where the account is involved as either source or destination.
type TransactionFilter struct {
	UserID    string
	Kind      models.TransactionKind // empty for all kinds
	AccountID string                 // empty for all accounts
	Limit     int                    // 0 for no limit
}

// Transfer is the argument to the atomic transfer procedure.
type Transfer struct {
	UserID        string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Date          string
	Title         string
	Notes         *string
}

// Store is the persistence contract the ledger service runs on: plain row
// operations plus two procedures that the store must execute atomically.
// Every operation is scoped to a user; rows owned by other users behave
// as if they do not exist.
type Store interface {
	ListAccounts(ctx context.Context, f AccountFilter) ([]models.Account, error)
	GetAccount(ctx context.Context, userID, id string) (models.Account, error)
	InsertAccount(ctx context.Context, a models.Account) (models.Account, error)
	// UpdateAccount writes name and currency only; balance and archive
	// state are out of its reach.
	UpdateAccount(ctx context.Context, userID, id, name, currency string) (models.Account, error)
	ArchiveAccount(ctx context.Context, userID, id string) (models.Account, error)

	ListTransactions(ctx context.Context, f TransactionFilter) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (models.Transaction, error)
	InsertTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error

	// ApplyBalanceChange atomically adds delta to one account's balance
	// and returns the updated account.
	ApplyBalanceChange(ctx context.Context, userID, accountID string, delta decimal.Decimal) (models.Account, error)
	// ApplyTransfer debits the source, credits the destination, and
	// inserts the transfer row as a single unit.
	ApplyTransfer(ctx context.Context, t Transfer) (models.Transaction, error)
}
