package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fernhill/portal-core/internal/infrastructure/database"
)

// Repository defines the interface for tenant persistence.
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// SQLiteRepository implements Repository using SQLite. It accepts any
// database.Queryer, so tenant-reference checks can run inside the
// same transaction as the account mutation they guard.
type SQLiteRepository struct {
	q database.Queryer
}

// NewSQLiteRepository creates a new SQLite-backed tenant repository.
func NewSQLiteRepository(q database.Queryer) *SQLiteRepository {
	return &SQLiteRepository{q: q}
}

// Create inserts a new tenant. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, tenant *Tenant) error {
	if tenant.ID == "" {
		tenant.ID = "tnt-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	tenant.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	tenant.UpdatedAt = tenant.CreatedAt

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tenants (id, name, slug, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tenant.ID, tenant.Name, tenant.Slug, boolToInt(tenant.IsActive), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		return fmt.Errorf("creating tenant: %w", err)
	}

	return nil
}

// GetByID retrieves a tenant by its unique ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return r.getTenant(ctx, "SELECT id, name, slug, is_active, created_at, updated_at FROM tenants WHERE id = ?", id)
}

// GetBySlug retrieves a tenant by its slug.
func (r *SQLiteRepository) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return r.getTenant(ctx, "SELECT id, name, slug, is_active, created_at, updated_at FROM tenants WHERE slug = ?", slug)
}

// List returns all tenants ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT id, name, slug, is_active, created_at, updated_at FROM tenants ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenants: %w", err)
	}

	if tenants == nil {
		tenants = []Tenant{}
	}
	return tenants, nil
}

// Exists reports whether a tenant with the given ID exists.
func (r *SQLiteRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM tenants WHERE id = ?", id).Scan(&count); err != nil {
		return false, fmt.Errorf("checking tenant existence: %w", err)
	}
	return count > 0, nil
}

func (r *SQLiteRepository) getTenant(ctx context.Context, query string, args ...any) (*Tenant, error) {
	row := r.q.QueryRowContext(ctx, query, args...)
	return scanTenant(row)
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanTenant(s scanner) (*Tenant, error) {
	var t Tenant
	var isActive int
	var createdAt, updatedAt string

	err := s.Scan(&t.ID, &t.Name, &t.Slug, &isActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("scanning tenant: %w", err)
	}

	t.IsActive = isActive != 0
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
