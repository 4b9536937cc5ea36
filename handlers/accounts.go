package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bayarwoi/wallet/models"
)

// ListAccounts lists the user's accounts
// @Summary      List accounts
// @Description  Get the current user's accounts ordered by name. Archived accounts are excluded unless requested.
// @Tags         accounts
// @Produce      json
// @Param        include_archived  query     bool  false  "Include archived accounts"
// @Success      200               {object}  Response{data=[]models.Account}
// @Router       /accounts [get]
// @Security     BearerAuth
func (api *API) ListAccounts(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	accounts, err := api.Ledger.ListAccounts(r.Context(), userID(r), includeArchived)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GetAccount retrieves a single account by ID
// @Summary      Get account
// @Description  Get details and current balance of one account.
// @Tags         accounts
// @Produce      json
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  Response{data=models.Account}
// @Failure      404  {object}  Response{error=string}
// @Router       /accounts/{id} [get]
// @Security     BearerAuth
func (api *API) GetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := api.Ledger.GetAccount(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// CreateAccount creates a new account
// @Summary      Create account
// @Description  Create a new account with a zero balance. The name must be unique per user.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        account  body      models.AccountInput  true  "Account contents"
// @Success      201      {object}  Response{data=models.Account}
// @Failure      400      {object}  Response{error=string}
// @Router       /accounts [post]
// @Security     BearerAuth
func (api *API) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var input models.AccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	a, err := api.Ledger.CreateAccount(r.Context(), userID(r), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// UpdateAccount updates an account's name and currency
// @Summary      Update account
// @Description  Edit an account's name and currency. The balance cannot be written through this path.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Account ID"
// @Param        account  body      models.AccountInput  true  "Updated account contents"
// @Success      200      {object}  Response{data=models.Account}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Router       /accounts/{id} [put]
// @Security     BearerAuth
func (api *API) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var input models.AccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	a, err := api.Ledger.UpdateAccount(r.Context(), userID(r), chi.URLParam(r, "id"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ArchiveAccount soft-deletes an account
// @Summary      Archive account
// @Description  Archive an account. It disappears from default listings but is kept for historical transactions; there is no hard delete.
// @Tags         accounts
// @Produce      json
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  Response{data=models.Account}
// @Failure      404  {object}  Response{error=string}
// @Router       /accounts/{id} [delete]
// @Security     BearerAuth
func (api *API) ArchiveAccount(w http.ResponseWriter, r *http.Request) {
	a, err := api.Ledger.ArchiveAccount(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
