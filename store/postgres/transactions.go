package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bayarwoi/wallet/ledger"
	"github.com/bayarwoi/wallet/models"
	"github.com/bayarwoi/wallet/realtime"
)

const txnSelectQuery = `SELECT t.id, t.user_id, t.date, t.type, t.amount, t.account_id,
	t.to_account_id, t.title, t.notes, t.created_at, t.updated_at,
	a.id, a.name,
	ta.id, ta.name
	FROM transactions t
	LEFT JOIN accounts a ON t.account_id = a.id
	LEFT JOIN accounts ta ON t.to_account_id = ta.id`

func scanTransaction(scanner interface{ Scan(...any) error }) (models.Transaction, error) {
	var t models.Transaction
	var date time.Time
	var accID, accName, toID, toName sql.NullString
	err := scanner.Scan(&t.ID, &t.UserID, &date, &t.Kind, &t.Amount, &t.AccountID,
		&t.ToAccountID, &t.Title, &t.Notes, &t.CreatedAt, &t.UpdatedAt,
		&accID, &accName, &toID, &toName)
	if err != nil {
		return t, err
	}
	t.Date = date.Format(models.DateLayout)
	if accID.Valid {
		t.Account = &models.AccountRef{ID: accID.String, Name: accName.String}
	}
	if toID.Valid {
		t.ToAccount = &models.AccountRef{ID: toID.String, Name: toName.String}
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]models.Transaction, error) {
	query := txnSelectQuery + ` WHERE t.user_id = $1`
	args := []any{f.UserID}

	if f.Kind != "" {
		args = append(args, f.Kind)
		query += fmt.Sprintf(" AND t.type = $%d", len(args))
	}
	if f.AccountID != "" {
		args = append(args, f.AccountID)
		query += fmt.Sprintf(" AND (t.account_id = $%d OR t.to_account_id = $%d)", len(args), len(args))
	}
	query += ` ORDER BY t.date DESC, t.created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	return txns, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (models.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx,
		txnSelectQuery+` WHERE t.id = $1 AND t.user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, ledger.ErrNotFound
	}
	return t, err
}

func (s *Store) InsertTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, date, type, amount, account_id, to_account_id, title, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.UserID, t.Date, t.Kind, t.Amount, t.AccountID, t.ToAccountID, t.Title, t.Notes, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("inserting transaction: %w", err)
	}

	row, err := s.GetTransaction(ctx, t.UserID, t.ID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("re-fetching created transaction: %w", err)
	}

	s.publish(realtime.EntityTransactions, t.UserID, realtime.OpInsert)
	return row, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET date = $1, type = $2, amount = $3, account_id = $4,
		 title = $5, notes = $6, updated_at = now()
		 WHERE id = $7 AND user_id = $8`,
		t.Date, t.Kind, t.Amount, t.AccountID, t.Title, t.Notes, t.ID, t.UserID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("updating transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Transaction{}, ledger.ErrNotFound
	}

	row, err := s.GetTransaction(ctx, t.UserID, t.ID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("re-fetching updated transaction: %w", err)
	}

	s.publish(realtime.EntityTransactions, t.UserID, realtime.OpUpdate)
	return row, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}

	s.publish(realtime.EntityTransactions, userID, realtime.OpDelete)
	return nil
}
