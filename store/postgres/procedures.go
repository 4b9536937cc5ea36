package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bayarwoi/wallet/ledger"
	"github.com/bayarwoi/wallet/models"
	"github.com/bayarwoi/wallet/realtime"
)

// ApplyBalanceChange adds delta to one account's balance as a single
// statement and returns the updated account.
func (s *Store) ApplyBalanceChange(ctx context.Context, userID, accountID string, delta decimal.Decimal) (models.Account, error) {
	row, err := scanAccount(s.db.QueryRowContext(ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = now()
		 WHERE id = $2 AND user_id = $3
		 RETURNING `+accountColumns,
		delta, accountID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ledger.ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("adjusting balance: %w", err)
	}

	s.publish(realtime.EntityAccounts, userID, realtime.OpUpdate)
	return row, nil
}

// ApplyTransfer debits the source, credits the destination, and inserts
// the transfer row inside one database transaction. The debit statement
// also enforces the balance floor, so a concurrent spend cannot push the
// source negative.
func (s *Store) ApplyTransfer(ctx context.Context, tr ledger.Transfer) (models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Transaction{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $1, updated_at = now()
		 WHERE id = $2 AND user_id = $3 AND balance >= $1`,
		tr.Amount, tr.FromAccountID, tr.UserID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("debiting source account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// missing account and insufficient balance are indistinguishable
		// here; tell the caller which by looking the account up
		var exists bool
		tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND user_id = $2)`,
			tr.FromAccountID, tr.UserID).Scan(&exists)
		if !exists {
			return models.Transaction{}, ledger.ErrNotFound
		}
		return models.Transaction{}, ledger.ErrInsufficientFunds
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = now()
		 WHERE id = $2 AND user_id = $3`,
		tr.Amount, tr.ToAccountID, tr.UserID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("crediting destination account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Transaction{}, ledger.ErrNotFound
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, date, type, amount, account_id, to_account_id, title, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, tr.UserID, tr.Date, models.KindTransfer, tr.Amount, tr.FromAccountID, tr.ToAccountID, tr.Title, tr.Notes, now, now)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("inserting transfer row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Transaction{}, fmt.Errorf("committing transfer: %w", err)
	}

	s.publish(realtime.EntityTransactions, tr.UserID, realtime.OpInsert)
	s.publish(realtime.EntityAccounts, tr.UserID, realtime.OpUpdate)

	return s.GetTransaction(ctx, tr.UserID, id)
}
