package accounts

import (
	"errors"
	"regexp"
	"time"

	"github.com/fernhill/portal-core/internal/rbac"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
// Usernames must be 1-64 characters, alphanumeric with dots, hyphens, underscores.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// UserAccount represents a human account governed by the RBAC policy.
//
// IsStaff and IsSuperuser are derived from Role and never set
// directly; the repository recomputes them on every write. TenantID
// is empty for staff roles and required for tenant-bound roles.
// Version increments on every committed mutation and backs the
// optimistic concurrency check.
type UserAccount struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // never serialised
	Role         rbac.Role `json:"role"`
	TenantID     string    `json:"tenant_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	Version      int64     `json:"version"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor converts the account into the policy's actor representation.
func (u *UserAccount) Actor() rbac.Actor {
	return rbac.Actor{ID: u.ID, Role: u.Role, TenantID: u.TenantID}
}

// Subject converts the account into the policy's subject representation.
func (u *UserAccount) Subject() rbac.Subject {
	return rbac.Subject{ID: u.ID, TenantID: u.TenantID}
}

// Draft is the input for creating a new account.
type Draft struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	Password    string    `json:"password"`
	Role        rbac.Role `json:"role"`
	TenantID    string    `json:"tenant_id,omitempty"`
	IsActive    bool      `json:"is_active"`
}

// Patch is the input for updating an account's profile fields. Nil
// fields are left unchanged. Role, activation, and credentials have
// their own operations and are not patchable here.
type Patch struct {
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// Sentinel errors for account operations.
var (
	// ErrAuthorizationDenied is returned when the policy rejects an
	// action. Nothing is mutated and nothing is audited.
	ErrAuthorizationDenied = errors.New("authorisation denied")

	// ErrAccountNotFound is returned when the target account ID does
	// not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrConcurrentModification is returned when another transaction
	// committed a change to the same account first. The caller should
	// re-read and retry.
	ErrConcurrentModification = errors.New("account was modified concurrently")

	// ErrValidation is returned for malformed input: unknown roles,
	// bad tenant references, invalid usernames.
	ErrValidation = errors.New("validation failed")

	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrTokenInvalid       = errors.New("invalid token")
)
