// Package tenant manages the tenant directory that scopes
// tenant-bound accounts.
package tenant

import "time"

// Tenant represents an isolated customer organisation. Tenant-bound
// roles (tenant_owner, subscriber) always reference exactly one
// tenant; staff roles reference none.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
