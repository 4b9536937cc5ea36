package models_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bayarwoi/wallet/models"
)

func TestKindDelta(t *testing.T) {
	amount := decimal.NewFromInt(30000)

	delta, ok := models.KindIncome.Delta(amount)
	assert.True(t, ok)
	assert.True(t, delta.Equal(decimal.NewFromInt(30000)))

	delta, ok = models.KindExpense.Delta(amount)
	assert.True(t, ok)
	assert.True(t, delta.Equal(decimal.NewFromInt(-30000)))

	_, ok = models.KindTransfer.Delta(amount)
	assert.False(t, ok, "transfer must not expose a delta")
}

func TestTransactionInputValidate(t *testing.T) {
	valid := models.TransactionInput{
		Date: "2026-01-02", Kind: models.KindExpense,
		Amount: decimal.NewFromInt(100), AccountID: "acc-1", Title: "Lunch",
	}
	assert.Empty(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*models.TransactionInput)
		want   string
	}{
		{"bad date", func(in *models.TransactionInput) { in.Date = "02/01/2026" }, "YYYY-MM-DD"},
		{"transfer kind", func(in *models.TransactionInput) { in.Kind = models.KindTransfer }, "transfer endpoint"},
		{"unknown kind", func(in *models.TransactionInput) { in.Kind = "loan" }, "income, expense"},
		{"zero amount", func(in *models.TransactionInput) { in.Amount = decimal.Zero }, "positive"},
		{"no account", func(in *models.TransactionInput) { in.AccountID = "" }, "account_id"},
		{"no title", func(in *models.TransactionInput) { in.Title = "" }, "title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			assert.Contains(t, in.Validate(), tc.want)
		})
	}
}

func TestTransferInputValidate(t *testing.T) {
	valid := models.TransferInput{
		Date: "2026-01-02", FromAccountID: "a", ToAccountID: "b",
		Amount: decimal.NewFromInt(100), Title: "Move",
	}
	assert.Empty(t, valid.Validate())

	self := valid
	self.ToAccountID = self.FromAccountID
	assert.Contains(t, self.Validate(), "must differ")

	negative := valid
	negative.Amount = decimal.NewFromInt(-1)
	assert.Contains(t, negative.Validate(), "positive")
}

func TestAccountInputValidate(t *testing.T) {
	assert.Empty(t, (&models.AccountInput{Name: "Cash"}).Validate())
	assert.Empty(t, (&models.AccountInput{Name: "Cash", Currency: "SGD"}).Validate())
	assert.Contains(t, (&models.AccountInput{}).Validate(), "name")
	assert.Contains(t, (&models.AccountInput{Name: "Cash", Currency: "BTC"}).Validate(), "currency")
}
