// Package postgres implements the ledger store contract on a Postgres
// database via database/sql and the pgx driver. The two balance
// procedures run inside database transactions, which is where the
// atomicity the ledger service relies on actually lives.
package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bayarwoi/wallet/auth"
	"github.com/bayarwoi/wallet/ledger"
	"github.com/bayarwoi/wallet/realtime"
)

// Store is the Postgres-backed row store.
type Store struct {
	db  *sql.DB
	hub *realtime.Hub
}

var _ ledger.Store = (*Store)(nil)
var _ auth.UserStore = (*Store)(nil)

// New wraps an open database handle. hub may be nil when change
// notifications are not needed.
func New(db *sql.DB, hub *realtime.Hub) *Store {
	return &Store{db: db, hub: hub}
}

func (s *Store) publish(entity realtime.Entity, userID string, op realtime.Op) {
	if s.hub != nil {
		s.hub.Publish(realtime.Event{Entity: entity, UserID: userID, Op: op})
	}
}

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
