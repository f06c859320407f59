package accounts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fernhill/portal-core/internal/infrastructure/config"
	"github.com/fernhill/portal-core/internal/infrastructure/database"
	"github.com/fernhill/portal-core/internal/infrastructure/logging"
	"github.com/fernhill/portal-core/internal/rbac"
)

// testSchema is the account subsystem schema for tests, kept in step
// with the initial migration.
const testSchema = `
	CREATE TABLE tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	) STRICT;

	CREATE TABLE user_accounts (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		email TEXT,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('superadmin', 'admin', 'tenant_owner', 'subscriber')),
		tenant_id TEXT REFERENCES tenants(id) ON DELETE SET NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		is_staff INTEGER NOT NULL DEFAULT 0,
		is_superuser INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		created_by TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	) STRICT;

	CREATE INDEX idx_user_accounts_tenant ON user_accounts(tenant_id);

	CREATE TABLE audit_entries (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL CHECK (action IN ('role_changed', 'password_reset', 'activation_changed')),
		actor_id TEXT,
		target_id TEXT NOT NULL,
		tenant_id TEXT,
		detail TEXT NOT NULL,
		details TEXT,
		created_at TEXT NOT NULL
	) STRICT;

	CREATE INDEX idx_audit_entries_target ON audit_entries(target_id);
	CREATE INDEX idx_audit_entries_tenant ON audit_entries(tenant_id);
`

// testDB opens a temporary database with the account schema applied.
func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "accounts.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("applying test schema: %v", err)
	}

	return db
}

func testSecurity() config.SecurityConfig {
	return config.SecurityConfig{
		JWT: config.JWTConfig{
			Secret:         "test-secret-key-0123456789abcdef",
			AccessTokenTTL: 15,
		},
		Password: config.PasswordConfig{MinLength: 8},
	}
}

// testService wires a service over a fresh test database.
func testService(t *testing.T) (*Service, *database.DB) {
	t.Helper()

	db := testDB(t)
	svc := NewService(db, logging.Default(), testSecurity())
	return svc, db
}

// seedTenant inserts a tenant row directly.
func seedTenant(t *testing.T, db *database.DB, id, name, slug string) {
	t.Helper()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.Exec(
		"INSERT INTO tenants (id, name, slug, is_active, created_at, updated_at) VALUES (?, ?, ?, 1, ?, ?)",
		id, name, slug, now, now); err != nil {
		t.Fatalf("seeding tenant %s: %v", id, err)
	}
}

// seedAccount creates an account through the repository and returns it.
func seedAccount(t *testing.T, db *database.DB, username string, role rbac.Role, tenantID string) *UserAccount {
	t.Helper()

	hash, err := HashPassword("seed-password-1")
	if err != nil {
		t.Fatalf("hashing seed password: %v", err)
	}

	account := &UserAccount{
		Username:     username,
		DisplayName:  username,
		PasswordHash: hash,
		Role:         role,
		TenantID:     tenantID,
		IsActive:     true,
	}
	if err := NewRepository(db).Create(context.Background(), account); err != nil {
		t.Fatalf("seeding account %s: %v", username, err)
	}
	return account
}

// countAuditEntries returns the number of persisted audit entries,
// optionally filtered by target.
func countAuditEntries(t *testing.T, db *database.DB, targetID string) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM audit_entries"
	var args []any
	if targetID != "" {
		query += " WHERE target_id = ?"
		args = append(args, targetID)
	}

	var count int
	if err := db.QueryRow(query, args...).Scan(&count); err != nil {
		t.Fatalf("counting audit entries: %v", err)
	}
	return count
}
