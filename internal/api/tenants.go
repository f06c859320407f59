package api

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/fernhill/portal-core/internal/rbac"
	"github.com/fernhill/portal-core/internal/tenant"
)

// slugPattern constrains tenant slugs to URL-safe lowercase tokens.
var slugPattern = regexp.MustCompile(`^[a-z0-9-]{1,64}$`)

// createTenantRequest is the request body for POST /tenants.
type createTenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// isStaff reports whether the actor holds a platform-operator role.
func isStaff(actor rbac.Actor) bool {
	return actor.Role == rbac.RoleSuperAdmin || actor.Role == rbac.RoleAdmin
}

// handleListTenants returns all tenants. Staff see everything; a
// tenant-bound actor sees only its own tenant.
func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	if !isStaff(actor) {
		if actor.TenantID == "" {
			writeError(w, http.StatusForbidden, ErrCodeForbidden, "no tenant scope")
			return
		}
		t, err := s.tenants.GetByID(r.Context(), actor.TenantID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tenants": []tenant.Tenant{*t}, "count": 1})
		return
	}

	list, err := s.tenants.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenants": list,
		"count":   len(list),
	})
}

// handleCreateTenant provisions a new tenant. Staff only.
func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	if !isStaff(actorFrom(r)) {
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "staff role required")
		return
	}

	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "name is required")
		return
	}
	if !slugPattern.MatchString(req.Slug) {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "slug must be lowercase letters, digits, or hyphens")
		return
	}

	t := &tenant.Tenant{Name: req.Name, Slug: req.Slug, IsActive: true}
	if err := s.tenants.Create(r.Context(), t); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// handleGetTenant returns a single tenant. Staff may read any tenant;
// tenant-bound actors only their own.
func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	id := chi.URLParam(r, "id")

	if !isStaff(actor) && actor.TenantID != id {
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "tenant out of scope")
		return
	}

	t, err := s.tenants.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}
