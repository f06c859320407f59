package audit

import "time"

// Actions recorded in the audit trail. One action per monitored field
// on a user account.
const (
	ActionRoleChanged       = "role_changed"
	ActionPasswordReset     = "password_reset"
	ActionActivationChanged = "activation_changed"
)

// Entry represents a single audit trail entry.
//
// ActorID is empty for system-attributed changes where no human actor
// is known. TenantID is the target account's tenant at the time of
// the change, empty for accounts outside any tenant.
type Entry struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	ActorID   string         `json:"actor_id,omitempty"`
	TargetID  string         `json:"target_id"`
	TenantID  string         `json:"tenant_id,omitempty"`
	Detail    string         `json:"detail"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter controls which audit entries to return.
type Filter struct {
	ActorID  string    // optional: filter by acting account
	TargetID string    // optional: filter by target account
	TenantID string    // optional: filter by target's tenant
	Action   string    // optional: filter by action kind
	From     time.Time // optional: entries created at or after this time
	To       time.Time // optional: entries created before this time
	Limit    int       // default 50, max 200
	Offset   int       // pagination offset
}

// ListResult contains the paginated audit entry results.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}
