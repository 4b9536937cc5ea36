package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bayarwoi/wallet/auth"
	"github.com/bayarwoi/wallet/ledger"
	"github.com/bayarwoi/wallet/models"
)

const userColumns = `id, email, name, password_hash, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) InsertUser(ctx context.Context, u models.User) (models.User, error) {
	row, err := scanUser(s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		 VALUES ($1, lower($2), $3, $4, $5, $6)
		 RETURNING `+userColumns,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, auth.ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("inserting user: %w", err)
	}
	return row, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ledger.ErrNotFound
	}
	return u, err
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ledger.ErrNotFound
	}
	return u, err
}
