// Package memory is an in-process store used by tests and by
// DB_BACKEND=memory development runs. It implements the same contract as
// the Postgres store, including the two atomic procedures and change
// notifications.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bayarwoi/wallet/auth"
	"github.com/bayarwoi/wallet/ledger"
	"github.com/bayarwoi/wallet/models"
	"github.com/bayarwoi/wallet/realtime"
)

// Store is a thread-safe in-memory row store.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]models.Account
	transactions map[string]models.Transaction
	users        map[string]models.User
	emailIndex   map[string]string // email -> user id

	hub *realtime.Hub
	seq int64 // tie-breaks equal creation timestamps
}

var _ ledger.Store = (*Store)(nil)
var _ auth.UserStore = (*Store)(nil)

// New creates an empty store. hub may be nil when change notifications
// are not needed.
func New(hub *realtime.Hub) *Store {
	return &Store{
		accounts:     make(map[string]models.Account),
		transactions: make(map[string]models.Transaction),
		users:        make(map[string]models.User),
		emailIndex:   make(map[string]string),
		hub:          hub,
	}
}

func (s *Store) publish(entity realtime.Entity, userID string, op realtime.Op) {
	if s.hub != nil {
		s.hub.Publish(realtime.Event{Entity: entity, UserID: userID, Op: op})
	}
}

// --- Accounts ---

func (s *Store) ListAccounts(ctx context.Context, f ledger.AccountFilter) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Account
	for _, a := range s.accounts {
		if a.UserID != f.UserID {
			continue
		}
		if a.IsArchived && !f.IncludeArchived {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *Store) GetAccount(ctx context.Context, userID, id string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getAccountLocked(userID, id)
}

func (s *Store) getAccountLocked(userID, id string) (models.Account, error) {
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return models.Account{}, ledger.ErrNotFound
	}
	return a, nil
}

func (s *Store) InsertAccount(ctx context.Context, a models.Account) (models.Account, error) {
	s.mu.Lock()
	for _, existing := range s.accounts {
		if existing.UserID == a.UserID && strings.EqualFold(existing.Name, a.Name) {
			s.mu.Unlock()
			return models.Account{}, ledger.ErrNameTaken
		}
	}
	s.accounts[a.ID] = a
	s.mu.Unlock()

	s.publish(realtime.EntityAccounts, a.UserID, realtime.OpInsert)
	return a, nil
}

func (s *Store) UpdateAccount(ctx context.Context, userID, id, name, currency string) (models.Account, error) {
	s.mu.Lock()
	a, err := s.getAccountLocked(userID, id)
	if err != nil {
		s.mu.Unlock()
		return models.Account{}, err
	}
	for _, existing := range s.accounts {
		if existing.ID != id && existing.UserID == userID && strings.EqualFold(existing.Name, name) {
			s.mu.Unlock()
			return models.Account{}, ledger.ErrNameTaken
		}
	}
	a.Name = name
	a.Currency = currency
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	s.mu.Unlock()

	s.publish(realtime.EntityAccounts, userID, realtime.OpUpdate)
	return a, nil
}

func (s *Store) ArchiveAccount(ctx context.Context, userID, id string) (models.Account, error) {
	s.mu.Lock()
	a, err := s.getAccountLocked(userID, id)
	if err != nil {
		s.mu.Unlock()
		return models.Account{}, err
	}
	a.IsArchived = true
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	s.mu.Unlock()

	s.publish(realtime.EntityAccounts, userID, realtime.OpUpdate)
	return a, nil
}

// --- Transactions ---

func (s *Store) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]models.Transaction, error) {
	s.mu.RLock()
	var out []models.Transaction
	for _, t := range s.transactions {
		if t.UserID != f.UserID {
			continue
		}
		if f.Kind != "" && t.Kind != f.Kind {
			continue
		}
		if f.AccountID != "" && !involves(t, f.AccountID) {
			continue
		}
		out = append(out, s.enrichLocked(t))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func involves(t models.Transaction, accountID string) bool {
	if t.AccountID == accountID {
		return true
	}
	return t.ToAccountID != nil && *t.ToAccountID == accountID
}

func (s *Store) enrichLocked(t models.Transaction) models.Transaction {
	if a, ok := s.accounts[t.AccountID]; ok {
		ref := a.Ref()
		t.Account = &ref
	}
	if t.ToAccountID != nil {
		if a, ok := s.accounts[*t.ToAccountID]; ok {
			ref := a.Ref()
			t.ToAccount = &ref
		}
	}
	return t
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return models.Transaction{}, ledger.ErrNotFound
	}
	return s.enrichLocked(t), nil
}

func (s *Store) InsertTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	s.seq++
	// distinct creation instants even within one wall-clock tick
	t.CreatedAt = t.CreatedAt.Add(time.Duration(s.seq))
	s.transactions[t.ID] = t
	t = s.enrichLocked(t)
	s.mu.Unlock()

	s.publish(realtime.EntityTransactions, t.UserID, realtime.OpInsert)
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	existing, ok := s.transactions[t.ID]
	if !ok || existing.UserID != t.UserID {
		s.mu.Unlock()
		return models.Transaction{}, ledger.ErrNotFound
	}
	t.CreatedAt = existing.CreatedAt
	s.transactions[t.ID] = t
	t = s.enrichLocked(t)
	s.mu.Unlock()

	s.publish(realtime.EntityTransactions, t.UserID, realtime.OpUpdate)
	return t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		s.mu.Unlock()
		return ledger.ErrNotFound
	}
	delete(s.transactions, id)
	s.mu.Unlock()

	s.publish(realtime.EntityTransactions, userID, realtime.OpDelete)
	return nil
}

// --- Procedures ---

func (s *Store) ApplyBalanceChange(ctx context.Context, userID, accountID string, delta decimal.Decimal) (models.Account, error) {
	s.mu.Lock()
	a, err := s.getAccountLocked(userID, accountID)
	if err != nil {
		s.mu.Unlock()
		return models.Account{}, err
	}
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = time.Now().UTC()
	s.accounts[accountID] = a
	s.mu.Unlock()

	s.publish(realtime.EntityAccounts, userID, realtime.OpUpdate)
	return a, nil
}

func (s *Store) ApplyTransfer(ctx context.Context, tr ledger.Transfer) (models.Transaction, error) {
	s.mu.Lock()
	from, err := s.getAccountLocked(tr.UserID, tr.FromAccountID)
	if err != nil {
		s.mu.Unlock()
		return models.Transaction{}, err
	}
	to, err := s.getAccountLocked(tr.UserID, tr.ToAccountID)
	if err != nil {
		s.mu.Unlock()
		return models.Transaction{}, err
	}
	if from.Balance.LessThan(tr.Amount) {
		s.mu.Unlock()
		return models.Transaction{}, ledger.ErrInsufficientFunds
	}

	now := time.Now().UTC()
	from.Balance = from.Balance.Sub(tr.Amount)
	from.UpdatedAt = now
	to.Balance = to.Balance.Add(tr.Amount)
	to.UpdatedAt = now
	s.accounts[from.ID] = from
	s.accounts[to.ID] = to

	s.seq++
	toID := tr.ToAccountID
	row := models.Transaction{
		ID:          uuid.NewString(),
		UserID:      tr.UserID,
		Date:        tr.Date,
		Kind:        models.KindTransfer,
		Amount:      tr.Amount,
		AccountID:   tr.FromAccountID,
		ToAccountID: &toID,
		Title:       tr.Title,
		Notes:       tr.Notes,
		CreatedAt:   now.Add(time.Duration(s.seq)),
		UpdatedAt:   now,
	}
	s.transactions[row.ID] = row
	row = s.enrichLocked(row)
	s.mu.Unlock()

	s.publish(realtime.EntityTransactions, tr.UserID, realtime.OpInsert)
	s.publish(realtime.EntityAccounts, tr.UserID, realtime.OpUpdate)
	return row, nil
}

// --- Users ---

func (s *Store) InsertUser(ctx context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.emailIndex[strings.ToLower(u.Email)]; exists {
		return models.User{}, auth.ErrEmailTaken
	}
	s.users[u.ID] = u
	s.emailIndex[strings.ToLower(u.Email)] = u.ID
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[strings.ToLower(email)]
	if !ok {
		return models.User{}, ledger.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ledger.ErrNotFound
	}
	return u, nil
}
