package audit

import (
	"context"
	"fmt"
	"sync"
)

// Snapshot captures the monitored fields of a user account. The
// recorder compares two snapshots to decide which entries to emit.
//
// CredentialHash is compared, never stored: entries for credential
// changes carry no hash material.
type Snapshot struct {
	Role           string
	Active         bool
	CredentialHash string
}

// Target identifies the account a pair of snapshots belongs to.
type Target struct {
	ID       string
	TenantID string
}

// markerKey is the context key for the transaction-scoped recording marker.
type markerKey struct{}

// txMarker tracks whether audit recording has already happened within
// one transaction. Two paths can observe the same mutation (the
// action API and the repository change observer); whichever calls
// Record first sets the marker and the other becomes a no-op.
type txMarker struct {
	mu       sync.Mutex
	recorded bool
}

// WithTransaction returns a context carrying a fresh recording marker.
// Attach it when beginning a transaction that may touch monitored
// account fields.
func WithTransaction(ctx context.Context) context.Context {
	return context.WithValue(ctx, markerKey{}, &txMarker{})
}

func markerFrom(ctx context.Context) *txMarker {
	m, _ := ctx.Value(markerKey{}).(*txMarker)
	return m
}

// Recorder emits audit entries for committed account changes.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a Recorder writing through the given repository.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record compares the before and after snapshots and creates one
// entry per monitored field that actually changed. A request that
// changes nothing produces no entries.
//
// actorID attributes the change; pass an empty string for
// system-attributed mutations with no known human actor.
//
// If ctx carries a marker from WithTransaction and another Record
// call already ran in the same transaction, Record returns
// immediately with no entries. Any storage error aborts recording so
// the caller can roll back the enclosing transaction: a committed
// mutation without its audit entry must never be observable.
func (r *Recorder) Record(ctx context.Context, actorID string, target Target, before, after Snapshot) ([]Entry, error) {
	if m := markerFrom(ctx); m != nil {
		m.mu.Lock()
		already := m.recorded
		m.recorded = true
		m.mu.Unlock()
		if already {
			return nil, nil
		}
	}

	entries := diff(actorID, target, before, after)
	for i := range entries {
		if err := r.repo.Create(ctx, &entries[i]); err != nil {
			return nil, fmt.Errorf("recording %s: %w", entries[i].Action, err)
		}
	}

	return entries, nil
}

// diff builds the entries for every monitored field that differs
// between the snapshots.
func diff(actorID string, target Target, before, after Snapshot) []Entry {
	var entries []Entry

	base := func() Entry {
		return Entry{
			ActorID:  actorID,
			TargetID: target.ID,
			TenantID: target.TenantID,
		}
	}

	if before.Role != after.Role {
		e := base()
		e.Action = ActionRoleChanged
		e.Detail = fmt.Sprintf("role changed from %s to %s", before.Role, after.Role)
		e.Details = map[string]any{
			"old_role": before.Role,
			"new_role": after.Role,
		}
		entries = append(entries, e)
	}

	if before.CredentialHash != after.CredentialHash {
		e := base()
		e.Action = ActionPasswordReset
		e.Detail = "password reset"
		entries = append(entries, e)
	}

	if before.Active != after.Active {
		e := base()
		e.Action = ActionActivationChanged
		if after.Active {
			e.Detail = "account activated"
		} else {
			e.Detail = "account deactivated"
		}
		e.Details = map[string]any{
			"old_active": before.Active,
			"new_active": after.Active,
		}
		entries = append(entries, e)
	}

	return entries
}
