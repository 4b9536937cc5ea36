package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bayarwoi/wallet/ledger"
	"github.com/bayarwoi/wallet/models"
)

type dashboardData struct {
	TotalAccounts      int                        `json:"total_accounts"`
	ArchivedAccounts   int                        `json:"archived_accounts"`
	BalanceByCurrency  map[string]decimal.Decimal `json:"balance_by_currency"`
	TotalTransactions  int                        `json:"total_transactions"`
	RecentTransactions []models.Transaction       `json:"recent_transactions"`
}

// GetDashboard retrieves dashboard summary statistics
// @Summary      Get dashboard
// @Description  Get account totals, balances per currency, and the most recent transactions for the current user.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  Response{data=dashboardData}
// @Router       /dashboard [get]
// @Security     BearerAuth
func (api *API) GetDashboard(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	var d dashboardData

	accounts, err := api.Ledger.ListAccounts(r.Context(), uid, true)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	d.BalanceByCurrency = make(map[string]decimal.Decimal)
	for _, a := range accounts {
		if a.IsArchived {
			d.ArchivedAccounts++
			continue
		}
		d.TotalAccounts++
		d.BalanceByCurrency[a.Currency] = d.BalanceByCurrency[a.Currency].Add(a.Balance)
	}

	all, err := api.Ledger.ListTransactions(r.Context(), ledger.TransactionFilter{UserID: uid})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	d.TotalTransactions = len(all)

	// Recent 5 transactions
	d.RecentTransactions = all
	if len(d.RecentTransactions) > 5 {
		d.RecentTransactions = d.RecentTransactions[:5]
	}

	writeJSON(w, http.StatusOK, d)
}
