package audit

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the audit schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "audit-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
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
		CREATE INDEX idx_audit_entries_actor ON audit_entries(actor_id);
		CREATE INDEX idx_audit_entries_action ON audit_entries(action);
		CREATE INDEX idx_audit_entries_created ON audit_entries(created_at);
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying audit migration: %v", err)
	}

	return db
}
