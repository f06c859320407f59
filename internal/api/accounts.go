package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fernhill/portal-core/internal/accounts"
	"github.com/fernhill/portal-core/internal/rbac"
)

// createAccountRequest is the request body for POST /accounts.
type createAccountRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	TenantID    string `json:"tenant_id"`
	IsActive    *bool  `json:"is_active"`
}

// updateAccountRequest is the request body for PATCH /accounts/{id}.
type updateAccountRequest struct {
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	Version     int64   `json:"version"`
}

// assignRoleRequest is the request body for PUT /accounts/{id}/role.
// Version is the version the client last read; a stale value yields
// 409 instead of overwriting a concurrent change.
type assignRoleRequest struct {
	Role    string `json:"role"`
	Version int64  `json:"version"`
}

// resetPasswordRequest is the request body for PUT /accounts/{id}/password.
type resetPasswordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
	Version  int64  `json:"version"`
}

// setActivationRequest is the request body for PUT /accounts/{id}/activation.
type setActivationRequest struct {
	Active  bool  `json:"active"`
	Version int64 `json:"version"`
}

// handleListAccounts returns the accounts visible to the caller.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := s.accounts.ListAccounts(r.Context(), actorFrom(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": list,
		"count":    len(list),
	})
}

// handleCreateAccount provisions a new account.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	account, err := s.accounts.CreateAccount(r.Context(), actorFrom(r), accounts.Draft{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
		Role:        rbac.Role(req.Role),
		TenantID:    req.TenantID,
		IsActive:    active,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// handleGetAccount returns a single account.
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.GetAccount(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// handleUpdateAccount applies profile changes.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	account, err := s.accounts.UpdateAccount(r.Context(), actorFrom(r), chi.URLParam(r, "id"),
		accounts.Patch{DisplayName: req.DisplayName, Email: req.Email}, req.Version)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// handleAssignRole changes an account's role.
func (s *Server) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	account, err := s.accounts.AssignRole(r.Context(), actorFrom(r), chi.URLParam(r, "id"),
		rbac.Role(req.Role), req.Version)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// handleResetPassword replaces an account's password.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err := s.accounts.ResetCredential(r.Context(), actorFrom(r), chi.URLParam(r, "id"),
		req.Password, req.Confirm, req.Version)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "password reset"})
}

// handleSetActivation activates or deactivates an account.
func (s *Server) handleSetActivation(w http.ResponseWriter, r *http.Request) {
	var req setActivationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	account, err := s.accounts.SetActive(r.Context(), actorFrom(r), chi.URLParam(r, "id"),
		req.Active, req.Version)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}
