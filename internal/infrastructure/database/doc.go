// Package database provides SQLite connectivity for Portal Core.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Embedded schema migrations, applied on startup
//   - Connection pooling and lifecycle management
//
// SQLite is a deliberate choice: the portal control plane is a
// single-node service with modest write volume, so a single-file
// database keeps deployment to one binary plus one volume. The
// connection pool is pinned to a single writer to match SQLite's
// locking model; the busy timeout absorbs short lock contention.
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
