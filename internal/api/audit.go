package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fernhill/portal-core/internal/audit"
)

// handleQueryAudit returns audit entries matching the query, scoped
// to what the caller may see.
//
// Query parameters: actor, target, tenant, action, from, to (RFC3339),
// limit, offset.
func (s *Server) handleQueryAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := audit.Filter{
		ActorID:  q.Get("actor"),
		TargetID: q.Get("target"),
		TenantID: q.Get("tenant"),
		Action:   q.Get("action"),
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "from must be RFC3339")
			return
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "to must be RFC3339")
			return
		}
		filter.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.accounts.QueryAuditLog(r.Context(), actorFrom(r), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
