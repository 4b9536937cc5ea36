package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bayarwoi/wallet/models"
)

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register creates a new user
// @Summary      Register
// @Description  Create a user account with an email and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        user  body      models.RegisterInput  true  "Registration details"
// @Success      201   {object}  Response{data=models.User}
// @Failure      400   {object}  Response{error=string}
// @Router       /auth/register [post]
func (api *API) Register(w http.ResponseWriter, r *http.Request) {
	var input models.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	u, err := api.Auth.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Login opens a session
// @Summary      Log in
// @Description  Verify credentials and return a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      models.LoginInput  true  "Credentials"
// @Success      200          {object}  Response{data=loginResponse}
// @Failure      401          {object}  Response{error=string}
// @Router       /auth/login [post]
func (api *API) Login(w http.ResponseWriter, r *http.Request) {
	var input models.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	token, u, err := api.Auth.Login(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: u})
}

// Logout revokes the current session
// @Summary      Log out
// @Description  Revoke the session behind the presented token.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  Response{data=map[string]string}
// @Router       /auth/logout [post]
// @Security     BearerAuth
func (api *API) Logout(w http.ResponseWriter, r *http.Request) {
	api.Auth.Logout(bearerToken(r))
	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// Refresh exchanges a valid token for a fresh one
// @Summary      Refresh token
// @Description  Extend the session by swapping the current token for a new one.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      401  {object}  Response{error=string}
// @Router       /auth/refresh [post]
// @Security     BearerAuth
func (api *API) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := api.Auth.Refresh(bearerToken(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Me returns the current user
// @Summary      Current user
// @Description  Get the profile of the authenticated user.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  Response{data=models.User}
// @Failure      401  {object}  Response{error=string}
// @Router       /auth/me [get]
// @Security     BearerAuth
func (api *API) Me(w http.ResponseWriter, r *http.Request) {
	u, err := api.Auth.User(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
