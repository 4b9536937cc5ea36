package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayarwoi/wallet/auth"
	"github.com/bayarwoi/wallet/handlers"
	"github.com/bayarwoi/wallet/ledger"
	"github.com/bayarwoi/wallet/realtime"
	"github.com/bayarwoi/wallet/store/memory"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	hub := realtime.NewHub()
	store := memory.New(hub)
	sessions := auth.NewSessions()
	api := &handlers.API{
		Ledger:   ledger.NewService(store),
		Auth:     auth.NewManager([]byte("test-secret"), store, sessions),
		Sessions: sessions,
		Hub:      hub,
	}

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", api.Register)
		r.Post("/auth/login", api.Login)
		r.Group(func(r chi.Router) {
			r.Use(api.RequireAuth)
			r.Get("/auth/me", api.Me)
			r.Get("/accounts", api.ListAccounts)
			r.Post("/accounts", api.CreateAccount)
			r.Delete("/accounts/{id}", api.ArchiveAccount)
			r.Get("/transactions", api.ListTransactions)
			r.Post("/transactions", api.CreateTransaction)
			r.Delete("/transactions/{id}", api.DeleteTransaction)
			r.Post("/transfers", api.CreateTransfer)
			r.Get("/dashboard", api.GetDashboard)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	return res.StatusCode, env
}

func signUp(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	status, _ := call(t, srv, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "long enough", "name": "Tester",
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := call(t, srv, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": "long enough",
	})
	require.Equal(t, http.StatusOK, status)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)
	return login.Token
}

func createAccount(t *testing.T, srv *httptest.Server, token, name string) string {
	t.Helper()
	status, env := call(t, srv, http.MethodPost, "/api/v1/accounts", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, status)
	var acc struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &acc))
	return acc.ID
}

func TestRequiresAuth(t *testing.T) {
	srv := newServer(t)

	status, env := call(t, srv, http.MethodGet, "/api/v1/accounts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing bearer token", env.Error)

	status, _ = call(t, srv, http.MethodGet, "/api/v1/accounts", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAccountLifecycleOverHTTP(t *testing.T) {
	srv := newServer(t)
	token := signUp(t, srv, "budi@example.com")

	id := createAccount(t, srv, token, "Dompet")

	// duplicate name rejected
	status, env := call(t, srv, http.MethodPost, "/api/v1/accounts", token, map[string]string{"name": "dompet"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "already exists")

	// invalid currency rejected
	status, _ = call(t, srv, http.MethodPost, "/api/v1/accounts", token, map[string]string{"name": "Euro", "currency": "GBP"})
	assert.Equal(t, http.StatusBadRequest, status)

	// archive drops it from the default listing
	status, _ = call(t, srv, http.MethodDelete, "/api/v1/accounts/"+id, token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, srv, http.MethodGet, "/api/v1/accounts", token, nil)
	require.Equal(t, http.StatusOK, status)
	var accounts []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &accounts))
	assert.Empty(t, accounts)

	status, env = call(t, srv, http.MethodGet, "/api/v1/accounts?include_archived=true", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &accounts))
	assert.Len(t, accounts, 1)
}

func TestTransactionAndTransferFlow(t *testing.T) {
	srv := newServer(t)
	token := signUp(t, srv, "sari@example.com")

	from := createAccount(t, srv, token, "Utama")
	to := createAccount(t, srv, token, "Tabungan")

	// fund the source account
	status, _ := call(t, srv, http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"date": "2026-07-01", "type": "income", "amount": "100000",
		"account_id": from, "title": "Gaji",
	})
	require.Equal(t, http.StatusCreated, status)

	// transfer to the savings account
	status, env := call(t, srv, http.MethodPost, "/api/v1/transfers", token, map[string]any{
		"date": "2026-07-02", "from_account_id": from, "to_account_id": to,
		"amount": "40000", "title": "Nabung",
	})
	require.Equal(t, http.StatusCreated, status)
	var transfer struct {
		ID   string `json:"id"`
		Kind string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &transfer))
	assert.Equal(t, "transfer", transfer.Kind)

	// deleting the transfer row is refused
	status, env = call(t, srv, http.MethodDelete, "/api/v1/transactions/"+transfer.ID, token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "not supported")

	// kind filter never returns other kinds
	status, env = call(t, srv, http.MethodGet, "/api/v1/transactions?type=income", token, nil)
	require.Equal(t, http.StatusOK, status)
	var txns []struct {
		Kind string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &txns))
	require.Len(t, txns, 1)
	assert.Equal(t, "income", txns[0].Kind)

	// dashboard reflects both accounts and all rows
	status, env = call(t, srv, http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, status)
	var dash struct {
		TotalAccounts     int               `json:"total_accounts"`
		TotalTransactions int               `json:"total_transactions"`
		Balances          map[string]string `json:"balance_by_currency"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, 2, dash.TotalAccounts)
	assert.Equal(t, 2, dash.TotalTransactions)
}

func TestUsersCannotSeeEachOther(t *testing.T) {
	srv := newServer(t)
	tokenA := signUp(t, srv, "a@example.com")
	tokenB := signUp(t, srv, "b@example.com")

	createAccount(t, srv, tokenA, "Private")

	status, env := call(t, srv, http.MethodGet, "/api/v1/accounts", tokenB, nil)
	require.Equal(t, http.StatusOK, status)
	var accounts []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &accounts))
	assert.Empty(t, accounts, fmt.Sprintf("user B saw %d foreign accounts", len(accounts)))
}
