package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fernhill/portal-core/internal/infrastructure/database"
)

// Pagination defaults for audit queries.
const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Repository defines the interface for audit entry operations.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository reads and writes audit entries in SQLite.
//
// It accepts any database.Queryer, so the same repository works
// against the pooled connection for reads and against an open
// transaction when recording alongside an account mutation.
type SQLiteRepository struct {
	q database.Queryer
}

// NewSQLiteRepository creates a new audit entry repository.
func NewSQLiteRepository(q database.Queryer) *SQLiteRepository {
	return &SQLiteRepository{q: q}
}

// Create inserts a new audit entry. The ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = "aud-" + uuid.NewString()[:8]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var detailsJSON *string
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		s := string(b)
		detailsJSON = &s
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO audit_entries (id, action, actor_id, target_id, tenant_id, detail, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action,
		nullableString(entry.ActorID), entry.TargetID, nullableString(entry.TenantID),
		entry.Detail, detailsJSON,
		entry.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns audit entries matching the filter, ordered by most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	// Clamp limit.
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where, args := buildWhere(filter)

	// WHERE clause is built from parameterised conditions (? placeholders); no user input in SQL string.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_entries %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit entries: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, action, actor_id, target_id, tenant_id, detail, details, created_at FROM audit_entries %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// Iterate returns a lazy sequence of audit entries matching the
// filter, most recent first. Pages are fetched on demand, so callers
// can stop early without loading the whole result set. The sequence
// is restartable: ranging over it again re-runs the query.
//
// The filter's Limit and Offset are ignored; the sequence covers all
// matching entries.
func (r *SQLiteRepository) Iterate(ctx context.Context, filter Filter) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		offset := 0
		for {
			page := filter
			page.Limit = defaultPageSize
			page.Offset = offset

			result, err := r.List(ctx, page)
			if err != nil {
				yield(Entry{}, err)
				return
			}

			for _, entry := range result.Entries {
				if !yield(entry, nil) {
					return
				}
			}

			offset += len(result.Entries)
			if len(result.Entries) < defaultPageSize || offset >= result.Total {
				return
			}
		}
	}
}

// buildWhere assembles the WHERE clause and bind arguments for a filter.
func buildWhere(filter Filter) (string, []any) {
	var conditions []string
	var args []any

	if filter.ActorID != "" {
		conditions = append(conditions, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.TargetID != "" {
		conditions = append(conditions, "target_id = ?")
		args = append(args, filter.TargetID)
	}
	if filter.TenantID != "" {
		conditions = append(conditions, "tenant_id = ?")
		args = append(args, filter.TenantID)
	}
	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.From.UTC().Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "created_at < ?")
		args = append(args, filter.To.UTC().Format(time.RFC3339))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var actorID, tenantID, detailsJSON sql.NullString
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.Action,
			&actorID, &entry.TargetID, &tenantID,
			&entry.Detail, &detailsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		if actorID.Valid {
			entry.ActorID = actorID.String
		}
		if tenantID.Valid {
			entry.TenantID = tenantID.String
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			var details map[string]any
			if json.Unmarshal([]byte(detailsJSON.String), &details) == nil {
				entry.Details = details
			}
		}

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing audit entry timestamp %q: %w", createdAt, err)
		}
		entry.CreatedAt = t

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
