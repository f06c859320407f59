package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant ID or slug does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrSlugExists is returned when creating a tenant with a slug
	// already in use.
	ErrSlugExists = errors.New("tenant slug already exists")
)
