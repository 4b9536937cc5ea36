package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bayarwoi/wallet/models"
)

// ValidationError is a client-side rejection raised before any store call.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// Service is the balance-ledger adapter. It pairs every ledger-row
// mutation with a compensating balance change so that each account's
// balance stays equal to the sum of deltas of the rows that reference it.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// --- Accounts ---

// ListAccounts returns the user's accounts ordered by name ascending.
// Archived accounts are excluded unless includeArchived is set.
func (s *Service) ListAccounts(ctx context.Context, userID string, includeArchived bool) ([]models.Account, error) {
	return s.store.ListAccounts(ctx, AccountFilter{UserID: userID, IncludeArchived: includeArchived})
}

func (s *Service) GetAccount(ctx context.Context, userID, id string) (models.Account, error) {
	return s.store.GetAccount(ctx, userID, id)
}

// CreateAccount creates an account with a zero balance. The name must be
// unique among all of the user's accounts, archived ones included.
func (s *Service) CreateAccount(ctx context.Context, userID string, in models.AccountInput) (models.Account, error) {
	if msg := in.Validate(); msg != "" {
		return models.Account{}, invalid(msg)
	}
	if err := s.checkNameFree(ctx, userID, in.Name, ""); err != nil {
		return models.Account{}, err
	}
	currency := in.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}
	now := time.Now().UTC()
	return s.store.InsertAccount(ctx, models.Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      in.Name,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// UpdateAccount edits name and currency. It never writes the balance.
func (s *Service) UpdateAccount(ctx context.Context, userID, id string, in models.AccountInput) (models.Account, error) {
	if msg := in.Validate(); msg != "" {
		return models.Account{}, invalid(msg)
	}
	if err := s.checkNameFree(ctx, userID, in.Name, id); err != nil {
		return models.Account{}, err
	}
	currency := in.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return s.store.UpdateAccount(ctx, userID, id, in.Name, currency)
}

// ArchiveAccount soft-deletes an account. The row is kept so historical
// transactions can still resolve their references.
func (s *Service) ArchiveAccount(ctx context.Context, userID, id string) (models.Account, error) {
	return s.store.ArchiveAccount(ctx, userID, id)
}

func (s *Service) checkNameFree(ctx context.Context, userID, name, selfID string) error {
	accounts, err := s.store.ListAccounts(ctx, AccountFilter{UserID: userID, IncludeArchived: true})
	if err != nil {
		return fmt.Errorf("checking account name: %w", err)
	}
	for _, a := range accounts {
		if a.ID != selfID && strings.EqualFold(a.Name, name) {
			return ErrNameTaken
		}
	}
	return nil
}

// --- Transactions ---

// ListTransactions returns rows ordered by date descending, then by
// creation time descending, each enriched with the display identity of
// its source account and, for transfers, its destination account.
func (s *Service) ListTransactions(ctx context.Context, f TransactionFilter) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx, f)
}

func (s *Service) GetTransaction(ctx context.Context, userID, id string) (models.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

// CreateTransaction inserts an income or expense row, then applies the
// matching balance delta to its account. If the adjustment fails, the
// just-inserted row is deleted best-effort and a CompensationError is
// returned. A crash between the two calls leaves the ledger and balance
// inconsistent; there is no cross-call atomicity here.
func (s *Service) CreateTransaction(ctx context.Context, userID string, in models.TransactionInput) (models.Transaction, error) {
	if msg := in.Validate(); msg != "" {
		return models.Transaction{}, invalid(msg)
	}
	if _, err := s.store.GetAccount(ctx, userID, in.AccountID); err != nil {
		return models.Transaction{}, fmt.Errorf("looking up account: %w", err)
	}

	now := time.Now().UTC()
	row, err := s.store.InsertTransaction(ctx, models.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      in.Date,
		Kind:      in.Kind,
		Amount:    in.Amount,
		AccountID: in.AccountID,
		Title:     in.Title,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return models.Transaction{}, fmt.Errorf("inserting transaction: %w", err)
	}

	delta, _ := in.Kind.Delta(in.Amount)
	account, err := s.store.ApplyBalanceChange(ctx, userID, in.AccountID, delta)
	if err != nil {
		rolledBack := true
		if delErr := s.store.DeleteTransaction(ctx, userID, row.ID); delErr != nil {
			rolledBack = false
			slog.Error("transaction rollback failed", "transaction_id", row.ID, "error", delErr)
		}
		return models.Transaction{}, &CompensationError{Cause: err, RolledBack: rolledBack}
	}

	ref := account.Ref()
	row.Account = &ref
	return row, nil
}

// UpdateTransaction edits a non-transfer row and re-balances the affected
// account(s). With an unchanged account only the net difference between
// the new and old delta is applied, and only when non-zero. With a changed
// account the old delta is reversed on the old account and the new delta
// applied to the new account as two sequential calls; a failure between
// the two leaves one account adjusted and the other not.
func (s *Service) UpdateTransaction(ctx context.Context, userID, id string, upd models.TransactionUpdate) (models.Transaction, error) {
	if msg := upd.Validate(); msg != "" {
		return models.Transaction{}, invalid(msg)
	}

	existing, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("looking up transaction: %w", err)
	}
	if existing.Kind == models.KindTransfer {
		return models.Transaction{}, ErrTransferImmutable
	}

	merged := existing
	merged.Account, merged.ToAccount = nil, nil
	if upd.Date != nil {
		merged.Date = *upd.Date
	}
	if upd.Kind != nil {
		merged.Kind = *upd.Kind
	}
	if upd.Amount != nil {
		merged.Amount = *upd.Amount
	}
	if upd.AccountID != nil {
		merged.AccountID = *upd.AccountID
	}
	if upd.Title != nil {
		merged.Title = *upd.Title
	}
	if upd.Notes != nil {
		merged.Notes = upd.Notes
	}
	merged.UpdatedAt = time.Now().UTC()

	if merged.AccountID != existing.AccountID {
		if _, err := s.store.GetAccount(ctx, userID, merged.AccountID); err != nil {
			return models.Transaction{}, fmt.Errorf("looking up account: %w", err)
		}
	}

	row, err := s.store.UpdateTransaction(ctx, merged)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("updating transaction: %w", err)
	}

	oldDelta, _ := existing.Kind.Delta(existing.Amount)
	newDelta, _ := merged.Kind.Delta(merged.Amount)

	if merged.AccountID == existing.AccountID {
		difference := newDelta.Sub(oldDelta)
		if !difference.IsZero() {
			if _, err := s.store.ApplyBalanceChange(ctx, userID, merged.AccountID, difference); err != nil {
				return models.Transaction{}, fmt.Errorf("re-balancing account: %w", err)
			}
		}
	} else {
		if _, err := s.store.ApplyBalanceChange(ctx, userID, existing.AccountID, oldDelta.Neg()); err != nil {
			return models.Transaction{}, fmt.Errorf("reverting old account balance: %w", err)
		}
		if _, err := s.store.ApplyBalanceChange(ctx, userID, merged.AccountID, newDelta); err != nil {
			return models.Transaction{}, fmt.Errorf("applying new account balance: %w", err)
		}
	}

	return row, nil
}

// DeleteTransaction removes a non-transfer row and reverses its balance
// delta, restoring the account to its pre-creation value. Transfer rows
// are refused before anything is mutated; reversing a transfer needs a
// dedicated flow that does not exist yet.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) error {
	existing, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("looking up transaction: %w", err)
	}
	if existing.Kind == models.KindTransfer {
		return ErrTransferDeleteUnsupported
	}

	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	delta, _ := existing.Kind.Delta(existing.Amount)
	if _, err := s.store.ApplyBalanceChange(ctx, userID, existing.AccountID, delta.Neg()); err != nil {
		return fmt.Errorf("reverting account balance: %w", err)
	}
	return nil
}

// CreateTransfer validates the transfer against the source account's known
// balance, then delegates entirely to the store's atomic transfer
// procedure. No local compensation happens here: the debit, credit, and
// ledger insert are a single unit on the store side.
func (s *Service) CreateTransfer(ctx context.Context, userID string, in models.TransferInput) (models.Transaction, error) {
	if msg := in.Validate(); msg != "" {
		return models.Transaction{}, invalid(msg)
	}

	from, err := s.store.GetAccount(ctx, userID, in.FromAccountID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("looking up source account: %w", err)
	}
	if from.Balance.LessThan(in.Amount) {
		return models.Transaction{}, ErrInsufficientFunds
	}
	if _, err := s.store.GetAccount(ctx, userID, in.ToAccountID); err != nil {
		return models.Transaction{}, fmt.Errorf("looking up destination account: %w", err)
	}

	return s.store.ApplyTransfer(ctx, Transfer{
		UserID:        userID,
		FromAccountID: in.FromAccountID,
		ToAccountID:   in.ToAccountID,
		Amount:        in.Amount,
		Date:          in.Date,
		Title:         in.Title,
		Notes:         in.Notes,
	})
}
