package audit

import (
	"context"
	"errors"
	"testing"
)

// failingRepo simulates audit storage failure.
type failingRepo struct{}

var errStorage = errors.New("disk full")

func (failingRepo) Create(context.Context, *Entry) error        { return errStorage }
func (failingRepo) List(context.Context, Filter) (*ListResult, error) { return nil, errStorage }

func TestRecorder_Record_RoleChange(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	rec := NewRecorder(repo)

	target := Target{ID: "usr-42", TenantID: "tnt-one"}
	before := Snapshot{Role: "subscriber", Active: true, CredentialHash: "h1"}
	after := Snapshot{Role: "tenant_owner", Active: true, CredentialHash: "h1"}

	entries, err := rec.Record(t.Context(), "usr-root", target, before, after)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Action != ActionRoleChanged {
		t.Errorf("Action = %q, want %q", e.Action, ActionRoleChanged)
	}
	if e.ActorID != "usr-root" {
		t.Errorf("ActorID = %q, want usr-root", e.ActorID)
	}
	if e.TargetID != "usr-42" {
		t.Errorf("TargetID = %q, want usr-42", e.TargetID)
	}
	if e.Detail != "role changed from subscriber to tenant_owner" {
		t.Errorf("Detail = %q", e.Detail)
	}

	result, err := repo.List(t.Context(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 {
		t.Errorf("persisted entries = %d, want 1", result.Total)
	}
}

func TestRecorder_Record_NoOp(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	rec := NewRecorder(repo)

	snap := Snapshot{Role: "subscriber", Active: true, CredentialHash: "h1"}

	entries, err := rec.Record(t.Context(), "usr-root", Target{ID: "usr-42"}, snap, snap)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries for unchanged snapshot, got %d", len(entries))
	}

	result, err := repo.List(t.Context(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 0 {
		t.Errorf("persisted entries = %d, want 0", result.Total)
	}
}

func TestRecorder_Record_PasswordResetCarriesNoHashes(t *testing.T) {
	db := testDB(t)
	rec := NewRecorder(NewSQLiteRepository(db))

	before := Snapshot{Role: "subscriber", Active: true, CredentialHash: "old-hash"}
	after := Snapshot{Role: "subscriber", Active: true, CredentialHash: "new-hash"}

	entries, err := rec.Record(t.Context(), "usr-root", Target{ID: "usr-42"}, before, after)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Action != ActionPasswordReset {
		t.Errorf("Action = %q, want %q", e.Action, ActionPasswordReset)
	}
	if e.Details != nil {
		t.Errorf("password reset entries must carry no details, got %v", e.Details)
	}
}

func TestRecorder_Record_MultipleFieldsChanged(t *testing.T) {
	db := testDB(t)
	rec := NewRecorder(NewSQLiteRepository(db))

	before := Snapshot{Role: "subscriber", Active: true, CredentialHash: "h1"}
	after := Snapshot{Role: "admin", Active: false, CredentialHash: "h2"}

	entries, err := rec.Record(t.Context(), "usr-root", Target{ID: "usr-42"}, before, after)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	actions := map[string]bool{}
	for _, e := range entries {
		actions[e.Action] = true
	}
	for _, want := range []string{ActionRoleChanged, ActionPasswordReset, ActionActivationChanged} {
		if !actions[want] {
			t.Errorf("missing entry for %s", want)
		}
	}
}

func TestRecorder_Record_SystemAttribution(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	rec := NewRecorder(repo)

	before := Snapshot{Role: "subscriber", Active: true}
	after := Snapshot{Role: "subscriber", Active: false}

	entries, err := rec.Record(t.Context(), "", Target{ID: "usr-42"}, before, after)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ActorID != "" {
		t.Errorf("ActorID = %q, want empty for system attribution", entries[0].ActorID)
	}
	if entries[0].Detail != "account deactivated" {
		t.Errorf("Detail = %q", entries[0].Detail)
	}
}

func TestRecorder_Record_OncePerTransaction(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	rec := NewRecorder(repo)

	ctx := WithTransaction(t.Context())
	target := Target{ID: "usr-42", TenantID: "tnt-one"}
	before := Snapshot{Role: "subscriber", Active: true}
	after := Snapshot{Role: "admin", Active: true}

	// First path records.
	entries, err := rec.Record(ctx, "usr-root", target, before, after)
	if err != nil {
		t.Fatalf("first Record() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry from first path, got %d", len(entries))
	}

	// Second path (generic change observer) must be a no-op.
	entries, err = rec.Record(ctx, "", target, before, after)
	if err != nil {
		t.Fatalf("second Record() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries from second path, got %d", len(entries))
	}

	result, err := repo.List(t.Context(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 {
		t.Errorf("persisted entries = %d, want exactly 1", result.Total)
	}
}

func TestRecorder_Record_SeparateTransactions(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)
	rec := NewRecorder(repo)

	target := Target{ID: "usr-42"}

	ctx1 := WithTransaction(t.Context())
	if _, err := rec.Record(ctx1, "usr-root", target,
		Snapshot{Role: "subscriber", Active: true},
		Snapshot{Role: "admin", Active: true}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	ctx2 := WithTransaction(t.Context())
	if _, err := rec.Record(ctx2, "usr-root", target,
		Snapshot{Role: "admin", Active: true},
		Snapshot{Role: "admin", Active: false}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	result, err := repo.List(t.Context(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 2 {
		t.Errorf("persisted entries = %d, want 2", result.Total)
	}
}

func TestRecorder_Record_StorageFailure(t *testing.T) {
	rec := NewRecorder(failingRepo{})

	_, err := rec.Record(t.Context(), "usr-root", Target{ID: "usr-42"},
		Snapshot{Role: "subscriber", Active: true},
		Snapshot{Role: "admin", Active: true})
	if !errors.Is(err, errStorage) {
		t.Errorf("Record() error = %v, want wrapped storage error", err)
	}
}
