package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bayarwoi/wallet/ledger"
	"github.com/bayarwoi/wallet/models"
)

// ListTransactions lists the user's transactions
// @Summary      List transactions
// @Description  Get transactions ordered by date, newest first. Filterable by type and account involvement.
// @Tags         transactions
// @Produce      json
// @Param        type        query     string  false  "Filter by type (income, expense, transfer)"
// @Param        account_id  query     string  false  "Filter by account, matching source or destination"
// @Param        limit       query     int     false  "Maximum number of rows"
// @Success      200         {object}  Response{data=[]models.Transaction}
// @Router       /transactions [get]
// @Security     BearerAuth
func (api *API) ListTransactions(w http.ResponseWriter, r *http.Request) {
	f := ledger.TransactionFilter{
		UserID:    userID(r),
		Kind:      models.TransactionKind(r.URL.Query().Get("type")),
		AccountID: r.URL.Query().Get("account_id"),
	}
	if f.Kind != "" && !f.Kind.Valid() {
		writeError(w, http.StatusBadRequest, "type must be one of: income, expense, transfer")
		return
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}

	txns, err := api.Ledger.ListTransactions(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

// GetTransaction retrieves a single transaction by ID
// @Summary      Get transaction
// @Description  Get one transaction with its account references.
// @Tags         transactions
// @Produce      json
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  Response{data=models.Transaction}
// @Failure      404  {object}  Response{error=string}
// @Router       /transactions/{id} [get]
// @Security     BearerAuth
func (api *API) GetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := api.Ledger.GetTransaction(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateTransaction creates an income or expense transaction
// @Summary      Create transaction
// @Description  Record an income or expense and adjust the account balance by the matching delta. Transfers go through /transfers.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        transaction  body      models.TransactionInput  true  "Transaction contents"
// @Success      201          {object}  Response{data=models.Transaction}
// @Failure      400          {object}  Response{error=string}
// @Router       /transactions [post]
// @Security     BearerAuth
func (api *API) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var input models.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	t, err := api.Ledger.CreateTransaction(r.Context(), userID(r), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTransaction updates a non-transfer transaction
// @Summary      Update transaction
// @Description  Edit an income or expense row; the affected account balances are re-adjusted. Transfer rows are refused.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        id           path      string                    true  "Transaction ID"
// @Param        transaction  body      models.TransactionUpdate  true  "Fields to change"
// @Success      200          {object}  Response{data=models.Transaction}
// @Failure      400          {object}  Response{error=string}
// @Failure      404          {object}  Response{error=string}
// @Router       /transactions/{id} [put]
// @Security     BearerAuth
func (api *API) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var upd models.TransactionUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	t, err := api.Ledger.UpdateTransaction(r.Context(), userID(r), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTransaction deletes a non-transfer transaction
// @Summary      Delete transaction
// @Description  Remove an income or expense row and restore the account balance. Transfer rows cannot be deleted.
// @Tags         transactions
// @Produce      json
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      400  {object}  Response{error=string}
// @Failure      404  {object}  Response{error=string}
// @Router       /transactions/{id} [delete]
// @Security     BearerAuth
func (api *API) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := api.Ledger.DeleteTransaction(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// CreateTransfer moves balance between two accounts
// @Summary      Create transfer
// @Description  Debit the source, credit the destination, and record a single transfer row, all as one atomic unit.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        transfer  body      models.TransferInput  true  "Transfer contents"
// @Success      201       {object}  Response{data=models.Transaction}
// @Failure      400       {object}  Response{error=string}
// @Router       /transfers [post]
// @Security     BearerAuth
func (api *API) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var input models.TransferInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	t, err := api.Ledger.CreateTransfer(r.Context(), userID(r), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}
