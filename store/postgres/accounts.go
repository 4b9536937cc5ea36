package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bayarwoi/wallet/ledger"
	"github.com/bayarwoi/wallet/models"
	"github.com/bayarwoi/wallet/realtime"
)

const accountColumns = `id, user_id, name, balance, currency, is_archived, created_at, updated_at`

func scanAccount(scanner interface{ Scan(...any) error }) (models.Account, error) {
	var a models.Account
	err := scanner.Scan(&a.ID, &a.UserID, &a.Name, &a.Balance, &a.Currency, &a.IsArchived, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) ListAccounts(ctx context.Context, f ledger.AccountFilter) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	if !f.IncludeArchived {
		query += ` AND is_archived = FALSE`
	}
	query += ` ORDER BY lower(name) ASC`

	rows, err := s.db.QueryContext(ctx, query, f.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, userID, id string) (models.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ledger.ErrNotFound
	}
	return a, err
}

func (s *Store) InsertAccount(ctx context.Context, a models.Account) (models.Account, error) {
	row, err := scanAccount(s.db.QueryRowContext(ctx,
		`INSERT INTO accounts (id, user_id, name, balance, currency, is_archived, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)
		 RETURNING `+accountColumns,
		a.ID, a.UserID, a.Name, a.Balance, a.Currency, a.CreatedAt, a.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Account{}, ledger.ErrNameTaken
		}
		return models.Account{}, fmt.Errorf("inserting account: %w", err)
	}

	s.publish(realtime.EntityAccounts, a.UserID, realtime.OpInsert)
	return row, nil
}

func (s *Store) UpdateAccount(ctx context.Context, userID, id, name, currency string) (models.Account, error) {
	row, err := scanAccount(s.db.QueryRowContext(ctx,
		`UPDATE accounts SET name = $1, currency = $2, updated_at = now()
		 WHERE id = $3 AND user_id = $4
		 RETURNING `+accountColumns,
		name, currency, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ledger.ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return models.Account{}, ledger.ErrNameTaken
		}
		return models.Account{}, fmt.Errorf("updating account: %w", err)
	}

	s.publish(realtime.EntityAccounts, userID, realtime.OpUpdate)
	return row, nil
}

func (s *Store) ArchiveAccount(ctx context.Context, userID, id string) (models.Account, error) {
	row, err := scanAccount(s.db.QueryRowContext(ctx,
		`UPDATE accounts SET is_archived = TRUE, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+accountColumns,
		id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ledger.ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("archiving account: %w", err)
	}

	s.publish(realtime.EntityAccounts, userID, realtime.OpUpdate)
	return row, nil
}
