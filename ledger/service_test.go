package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayarwoi/wallet/ledger"
	"github.com/bayarwoi/wallet/models"
	"github.com/bayarwoi/wallet/store/memory"
)

const userA = "user-a"

func ptr[T any](v T) *T { return &v }

func amount(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func newService(t *testing.T) (*ledger.Service, *memory.Store) {
	t.Helper()
	store := memory.New(nil)
	return ledger.NewService(store), store
}

func seedAccount(t *testing.T, svc *ledger.Service, store *memory.Store, name string, balance int64) models.Account {
	t.Helper()
	a, err := svc.CreateAccount(context.Background(), userA, models.AccountInput{Name: name})
	require.NoError(t, err)
	if balance != 0 {
		a, err = store.ApplyBalanceChange(context.Background(), userA, a.ID, amount(balance))
		require.NoError(t, err)
	}
	return a
}

func accountBalance(t *testing.T, svc *ledger.Service, id string) decimal.Decimal {
	t.Helper()
	a, err := svc.GetAccount(context.Background(), userA, id)
	require.NoError(t, err)
	return a.Balance
}

func TestCreateTransactionAppliesDelta(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	acc := seedAccount(t, svc, store, "Cash", 100000)

	income, err := svc.CreateTransaction(ctx, userA, models.TransactionInput{
		Date: "2026-01-10", Kind: models.KindIncome, Amount: amount(25000),
		AccountID: acc.ID, Title: "Salary",
	})
	require.NoError(t, err)
	assert.True(t, accountBalance(t, svc, acc.ID).Equal(amount(125000)))
	require.NotNil(t, income.Account)
	assert.Equal(t, acc.ID, income.Account.ID)

	_, err = svc.CreateTransaction(ctx, userA, models.TransactionInput{
		Date: "2026-01-11", Kind: models.KindExpense, Amount: amount(30000),
		AccountID: acc.ID, Title: "Groceries",
	})
	require.NoError(t, err)
	assert.True(t, accountBalance(t, svc, acc.ID).Equal(amount(95000)))
}

// Scenario from the transfer/edit walkthrough: 100k balance, 30k expense,
// edit to 50k, delete, balance returns to 100k.
func TestTransactionEditDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	acc := seedAccount(t, svc, store, "Bank", 100000)

	txn, err := svc.CreateTransaction(ctx, userA, models.TransactionInput{
		Date: "2026-02-01", Kind: models.KindExpense, Amount: amount(30000),
		AccountID: acc.ID, Title: "Dinner",
	})
	require.NoError(t, err)
	assert.True(t, accountBalance(t, svc, acc.ID).Equal(amount(70000)))

	_, err = svc.UpdateTransaction(ctx, userA, txn.ID, models.TransactionUpdate{Amount: ptr(amount(50000))})
	require.NoError(t, err)
	assert.True(t, accountBalance(t, svc, acc.ID).Equal(amount(50000)))

	require.NoError(t, svc.DeleteTransaction(ctx, userA, txn.ID))
	assert.True(t, accountBalance(t, svc, acc.ID).Equal(amount(100000)))
}

func TestUpdateTransactionKindFlipsDelta(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	acc := seedAccount(t, svc, store, "Bank", 0)

	txn, err := svc.CreateTransaction(ctx, userA, models.TransactionInput{
		Date: "2026-02-01", Kind: models.KindIncome, Amount: amount(10000),
		AccountID: acc.ID, Title: "Refund",
	})
	require.NoError(t, err)
	assert.True(t, accountBalance(t, svc, acc.ID).Equal(amount(10000)))

	// income 10000 -> expense 10000: net change is -20000
	_, err = svc.UpdateTransaction(ctx, userA, txn.ID, models.TransactionUpdate{Kind: ptr(models.KindExpense)})
	require.NoError(t, err)
	assert.True(t, accountBalance(t, svc, acc.ID).Equal(amount(-10000)))
}

func TestUpdateTransactionMovesAccounts(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	accA := seedAccount(t, svc, store, "A", 0)
	accB := seedAccount(t, svc, store, "B", 0)

	txn, err := svc.CreateTransaction(ctx, userA, models.TransactionInput{
		Date: "2026-03-01", Kind: models.KindIncome, Amount: amount(40000),
		AccountID: accA.ID, Title: "Invoice",
	})
	require.NoError(t, err)

	_, err = svc.UpdateTransaction(ctx, userA, txn.ID, models.TransactionUpdate{
		AccountID: ptr(accB.ID), Amount: ptr(amount(15000)),
	})
	require.NoError(t, err)

	// old delta fully reversed on A, new delta applied on B
	assert.True(t, accountBalance(t, svc, accA.ID).IsZero())
	assert.True(t, accountBalance(t, svc, accB.ID).Equal(amount(15000)))
}

func TestTransferMovesBalanceAtomically(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	accA := seedAccount(t, svc, store, "A", 100000)
	accB := seedAccount(t, svc, store, "B", 0)

	row, err := svc.CreateTransfer(ctx, userA, models.TransferInput{
		Date: "2026-04-01", FromAccountID: accA.ID, ToAccountID: accB.ID,
		Amount: amount(40000), Title: "Top up",
	})
	require.NoError(t, err)

	assert.True(t, accountBalance(t, svc, accA.ID).Equal(amount(60000)))
	assert.True(t, accountBalance(t, svc, accB.ID).Equal(amount(40000)))

	assert.Equal(t, models.KindTransfer, row.Kind)
	assert.Equal(t, accA.ID, row.AccountID)
	require.NotNil(t, row.ToAccountID)
	assert.Equal(t, accB.ID, *row.ToAccountID)

	// exactly one ledger row for the whole transfer
	txns, err := svc.ListTransactions(ctx, ledger.TransactionFilter{UserID: userA, Kind: models.KindTransfer})
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestTransferRejectionsHappenBeforeAnyMutation(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	accA := seedAccount(t, svc, store, "A", 1000)
	accB := seedAccount(t, svc, store, "B", 0)

	cases := []struct {
		name  string
		input models.TransferInput
		want  string
	}{
		{"self transfer", models.TransferInput{Date: "2026-04-01", FromAccountID: accA.ID, ToAccountID: accA.ID, Amount: amount(100), Title: "x"}, "to_account_id must differ"},
		{"zero amount", models.TransferInput{Date: "2026-04-01", FromAccountID: accA.ID, ToAccountID: accB.ID, Amount: decimal.Zero, Title: "x"}, "amount must be positive"},
		{"negative amount", models.TransferInput{Date: "2026-04-01", FromAccountID: accA.ID, ToAccountID: accB.ID, Amount: amount(-5), Title: "x"}, "amount must be positive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTransfer(ctx, userA, tc.input)
			require.Error(t, err)
			var vErr *ledger.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Msg, tc.want)
		})
	}

	_, err := svc.CreateTransfer(ctx, userA, models.TransferInput{
		Date: "2026-04-01", FromAccountID: accA.ID, ToAccountID: accB.ID,
		Amount: amount(5000), Title: "too much",
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// nothing moved
	assert.True(t, accountBalance(t, svc, accA.ID).Equal(amount(1000)))
	assert.True(t, accountBalance(t, svc, accB.ID).IsZero())
	txns, err := svc.ListTransactions(ctx, ledger.TransactionFilter{UserID: userA})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestTransferRowsAreImmutableThroughGenericPath(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	accA := seedAccount(t, svc, store, "A", 50000)
	accB := seedAccount(t, svc, store, "B", 0)

	row, err := svc.CreateTransfer(ctx, userA, models.TransferInput{
		Date: "2026-04-02", FromAccountID: accA.ID, ToAccountID: accB.ID,
		Amount: amount(10000), Title: "Move",
	})
	require.NoError(t, err)

	_, err = svc.UpdateTransaction(ctx, userA, row.ID, models.TransactionUpdate{Amount: ptr(amount(99))})
	require.ErrorIs(t, err, ledger.ErrTransferImmutable)

	err = svc.DeleteTransaction(ctx, userA, row.ID)
	require.ErrorIs(t, err, ledger.ErrTransferDeleteUnsupported)

	// the row and balances are untouched
	kept, err := svc.GetTransaction(ctx, userA, row.ID)
	require.NoError(t, err)
	assert.True(t, kept.Amount.Equal(amount(10000)))
	assert.True(t, accountBalance(t, svc, accA.ID).Equal(amount(40000)))
	assert.True(t, accountBalance(t, svc, accB.ID).Equal(amount(10000)))
}

func TestGenericCreatePathRefusesTransferKind(t *testing.T) {
	svc, store := newService(t)
	acc := seedAccount(t, svc, store, "A", 0)

	_, err := svc.CreateTransaction(context.Background(), userA, models.TransactionInput{
		Date: "2026-04-01", Kind: models.KindTransfer, Amount: amount(100),
		AccountID: acc.ID, Title: "sneaky",
	})
	var vErr *ledger.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Msg, "transfer endpoint")
}

func TestListTransactionsKindFilter(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	accA := seedAccount(t, svc, store, "A", 100000)
	accB := seedAccount(t, svc, store, "B", 0)

	_, err := svc.CreateTransaction(ctx, userA, models.TransactionInput{Date: "2026-05-01", Kind: models.KindIncome, Amount: amount(1), AccountID: accA.ID, Title: "i"})
	require.NoError(t, err)
	_, err = svc.CreateTransaction(ctx, userA, models.TransactionInput{Date: "2026-05-02", Kind: models.KindExpense, Amount: amount(2), AccountID: accA.ID, Title: "e"})
	require.NoError(t, err)
	_, err = svc.CreateTransfer(ctx, userA, models.TransferInput{Date: "2026-05-03", FromAccountID: accA.ID, ToAccountID: accB.ID, Amount: amount(3), Title: "t"})
	require.NoError(t, err)

	expenses, err := svc.ListTransactions(ctx, ledger.TransactionFilter{UserID: userA, Kind: models.KindExpense})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	for _, txn := range expenses {
		assert.Equal(t, models.KindExpense, txn.Kind)
	}
}

func TestAccountNameUniquePerUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.CreateAccount(ctx, userA, models.AccountInput{Name: "Cash"})
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, userA, models.AccountInput{Name: "cash"})
	require.ErrorIs(t, err, ledger.ErrNameTaken)

	// a different user can reuse the name
	_, err = svc.CreateAccount(ctx, "user-b", models.AccountInput{Name: "Cash"})
	require.NoError(t, err)
}

func TestUpdateAccountNeverTouchesBalance(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	acc := seedAccount(t, svc, store, "Old name", 77000)

	updated, err := svc.UpdateAccount(ctx, userA, acc.ID, models.AccountInput{Name: "New name", Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)
	assert.Equal(t, "USD", updated.Currency)
	assert.True(t, updated.Balance.Equal(amount(77000)))
}

func TestArchiveAccountExcludedFromDefaultListing(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	acc := seedAccount(t, svc, store, "Dormant", 0)
	seedAccount(t, svc, store, "Active", 0)

	_, err := svc.ArchiveAccount(ctx, userA, acc.ID)
	require.NoError(t, err)

	visible, err := svc.ListAccounts(ctx, userA, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "Active", visible[0].Name)

	all, err := svc.ListAccounts(ctx, userA, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// adjustFailStore fails every balance adjustment to exercise the
// compensation path.
type adjustFailStore struct {
	ledger.Store
	adjustErr error
}

func (s *adjustFailStore) ApplyBalanceChange(ctx context.Context, userID, accountID string, delta decimal.Decimal) (models.Account, error) {
	return models.Account{}, s.adjustErr
}

func TestCreateTransactionRollsBackOnAdjustFailure(t *testing.T) {
	ctx := context.Background()
	base := memory.New(nil)
	svc := ledger.NewService(base)
	acc := seedAccount(t, svc, base, "Cash", 0)

	boom := errors.New("adjustment rejected")
	failing := ledger.NewService(&adjustFailStore{Store: base, adjustErr: boom})

	_, err := failing.CreateTransaction(ctx, userA, models.TransactionInput{
		Date: "2026-06-01", Kind: models.KindExpense, Amount: amount(500),
		AccountID: acc.ID, Title: "doomed",
	})
	require.Error(t, err)

	var cErr *ledger.CompensationError
	require.ErrorAs(t, err, &cErr)
	assert.True(t, cErr.RolledBack)
	assert.ErrorIs(t, err, boom)

	// the inserted row was removed again
	txns, err := svc.ListTransactions(ctx, ledger.TransactionFilter{UserID: userA})
	require.NoError(t, err)
	assert.Empty(t, txns)
	assert.True(t, accountBalance(t, svc, acc.ID).IsZero())
}

func TestUserScoping(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	acc := seedAccount(t, svc, store, "Mine", 1000)

	_, err := svc.GetAccount(ctx, "user-b", acc.ID)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = svc.CreateTransaction(ctx, "user-b", models.TransactionInput{
		Date: "2026-06-01", Kind: models.KindIncome, Amount: amount(100),
		AccountID: acc.ID, Title: "not yours",
	})
	require.ErrorIs(t, err, ledger.ErrNotFound)
}
