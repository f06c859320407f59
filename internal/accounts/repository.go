package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fernhill/portal-core/internal/infrastructure/database"
	"github.com/fernhill/portal-core/internal/rbac"
)

// Repository defines the interface for account persistence.
type Repository interface {
	Create(ctx context.Context, account *UserAccount) error
	GetByID(ctx context.Context, id string) (*UserAccount, error)
	GetByUsername(ctx context.Context, username string) (*UserAccount, error)
	List(ctx context.Context, filter ListFilter) ([]UserAccount, error)
	Update(ctx context.Context, account *UserAccount) error
	Count(ctx context.Context) (int, error)
}

// ListFilter restricts which accounts List returns. Zero value means
// all accounts.
type ListFilter struct {
	TenantID string // only accounts in this tenant
	ID       string // only this single account
}

// Observer is notified after every successful account update with the
// state before and after the write. It runs inside the same
// transaction as the update: returning an error aborts the write.
//
// The generic audit path hangs off this hook, so mutations that
// bypass the action API still land in the trail.
type Observer func(ctx context.Context, before, after *UserAccount) error

// SQLiteAccountRepository implements Repository using SQLite.
//
// It accepts any database.Queryer: hand it the pooled connection for
// standalone reads, or an open transaction so the account write, the
// audit entry, and the version check commit atomically.
type SQLiteAccountRepository struct {
	q        database.Queryer
	observer Observer
}

// NewRepository creates a new SQLite-backed account repository.
func NewRepository(q database.Queryer) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{q: q}
}

// SetObserver registers the update observer. Pass nil to disable.
func (r *SQLiteAccountRepository) SetObserver(obs Observer) {
	r.observer = obs
}

const accountColumns = `id, username, display_name, email, password_hash, role, tenant_id,
	is_active, is_staff, is_superuser, version, created_by, created_at, updated_at`

// Create inserts a new account. The ID is generated if empty, the
// privilege flags are derived from the role, and the version starts
// at 1.
func (r *SQLiteAccountRepository) Create(ctx context.Context, account *UserAccount) error {
	if account.ID == "" {
		account.ID = "usr-" + uuid.NewString()[:8]
	}

	flags := rbac.DeriveFlags(account.Role)
	account.IsStaff = flags.IsStaff
	account.IsSuperuser = flags.IsSuperuser
	account.Version = 1

	now := time.Now().UTC().Format(time.RFC3339)
	account.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	account.UpdatedAt = account.CreatedAt

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO user_accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.Username, account.DisplayName, nullString(account.Email),
		account.PasswordHash, string(account.Role), nullString(account.TenantID),
		boolToInt(account.IsActive), boolToInt(account.IsStaff), boolToInt(account.IsSuperuser),
		account.Version, nullString(account.CreatedBy), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its unique ID.
func (r *SQLiteAccountRepository) GetByID(ctx context.Context, id string) (*UserAccount, error) {
	return r.getAccount(ctx,
		"SELECT "+accountColumns+" FROM user_accounts WHERE id = ?", id)
}

// GetByUsername retrieves an account by its username.
func (r *SQLiteAccountRepository) GetByUsername(ctx context.Context, username string) (*UserAccount, error) {
	return r.getAccount(ctx,
		"SELECT "+accountColumns+" FROM user_accounts WHERE username = ?", username)
}

// List returns accounts matching the filter, ordered by creation date.
func (r *SQLiteAccountRepository) List(ctx context.Context, filter ListFilter) ([]UserAccount, error) {
	query := "SELECT " + accountColumns + " FROM user_accounts"
	var args []any

	switch {
	case filter.ID != "":
		query += " WHERE id = ?"
		args = append(args, filter.ID)
	case filter.TenantID != "":
		query += " WHERE tenant_id = ?"
		args = append(args, filter.TenantID)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []UserAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}

	if accounts == nil {
		accounts = []UserAccount{}
	}
	return accounts, nil
}

// Update writes an account's mutable fields with an optimistic
// version check. The privilege flags are rederived from the role so
// no write path can leave them inconsistent.
//
// The UPDATE matches on (id, version). If no row matches, either the
// account is gone (ErrAccountNotFound) or another transaction
// committed first (ErrConcurrentModification). On success the
// account's Version is incremented in place.
func (r *SQLiteAccountRepository) Update(ctx context.Context, account *UserAccount) error {
	flags := rbac.DeriveFlags(account.Role)
	account.IsStaff = flags.IsStaff
	account.IsSuperuser = flags.IsSuperuser

	var before *UserAccount
	if r.observer != nil {
		var err error
		before, err = r.GetByID(ctx, account.ID)
		if err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.q.ExecContext(ctx,
		`UPDATE user_accounts
		 SET display_name = ?, email = ?, password_hash = ?, role = ?, tenant_id = ?,
		     is_active = ?, is_staff = ?, is_superuser = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		account.DisplayName, nullString(account.Email), account.PasswordHash,
		string(account.Role), nullString(account.TenantID),
		boolToInt(account.IsActive), boolToInt(account.IsStaff), boolToInt(account.IsSuperuser),
		now, account.ID, account.Version,
	)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		var count int
		if err := r.q.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM user_accounts WHERE id = ?", account.ID).Scan(&count); err != nil {
			return fmt.Errorf("checking account existence: %w", err)
		}
		if count == 0 {
			return ErrAccountNotFound
		}
		return ErrConcurrentModification
	}

	account.Version++
	account.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	if r.observer != nil {
		if err := r.observer(ctx, before, account); err != nil {
			return fmt.Errorf("update observer: %w", err)
		}
	}

	return nil
}

// Count returns the total number of accounts.
func (r *SQLiteAccountRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_accounts").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return count, nil
}

func (r *SQLiteAccountRepository) getAccount(ctx context.Context, query string, args ...any) (*UserAccount, error) {
	row := r.q.QueryRowContext(ctx, query, args...)
	return scanAccount(row)
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*UserAccount, error) {
	var a UserAccount
	var email, tenantID, createdBy sql.NullString
	var role string
	var isActive, isStaff, isSuperuser int
	var createdAt, updatedAt string

	err := s.Scan(&a.ID, &a.Username, &a.DisplayName, &email,
		&a.PasswordHash, &role, &tenantID,
		&isActive, &isStaff, &isSuperuser,
		&a.Version, &createdBy, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	a.Role = rbac.Role(role)
	a.IsActive = isActive != 0
	a.IsStaff = isStaff != 0
	a.IsSuperuser = isSuperuser != 0
	if email.Valid {
		a.Email = email.String
	}
	if tenantID.Valid {
		a.TenantID = tenantID.String
	}
	if createdBy.Valid {
		a.CreatedBy = createdBy.String
	}

	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &a, nil
}

// Helper functions.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
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
