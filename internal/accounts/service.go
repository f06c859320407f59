package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fernhill/portal-core/internal/audit"
	"github.com/fernhill/portal-core/internal/infrastructure/config"
	"github.com/fernhill/portal-core/internal/infrastructure/database"
	"github.com/fernhill/portal-core/internal/infrastructure/logging"
	"github.com/fernhill/portal-core/internal/rbac"
	"github.com/fernhill/portal-core/internal/tenant"
)

// Notifier receives audit entries after their transaction commits.
// Delivery is best effort: implementations must not block or fail the
// caller.
type Notifier interface {
	NotifyAuditEvents(ctx context.Context, entries []audit.Entry)
}

// Service coordinates account mutations: policy checks, optimistic
// concurrency, audit recording, and post-commit event notification.
//
// Every mutation runs in a single transaction covering the account
// write and its audit entries. The actor is always passed explicitly.
type Service struct {
	db       *database.DB
	logger   *logging.Logger
	security config.SecurityConfig
	notifier Notifier
}

// NewService creates the account service.
func NewService(db *database.DB, logger *logging.Logger, security config.SecurityConfig) *Service {
	return &Service{
		db:       db,
		logger:   logger.With("component", "accounts"),
		security: security,
	}
}

// SetNotifier registers the post-commit event notifier. Pass nil to
// disable notification.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// snapshotOf projects the audit-relevant fields of an account.
func snapshotOf(a *UserAccount) audit.Snapshot {
	return audit.Snapshot{
		Role:           string(a.Role),
		Active:         a.IsActive,
		CredentialHash: a.PasswordHash,
	}
}

// txRepos bundles the repositories bound to one transaction.
type txRepos struct {
	accounts *SQLiteAccountRepository
	tenants  *tenant.SQLiteRepository
	recorder *audit.Recorder
}

// mutate runs fn inside a transaction with the audit once-marker
// attached. The account repository's update observer feeds every
// write through the recorder, so mutations that skip the explicit
// Record call still produce system-attributed entries. Entries
// returned by fn are handed to the notifier after a successful
// commit.
func (s *Service) mutate(ctx context.Context, fn func(ctx context.Context, r txRepos) ([]audit.Entry, error)) error {
	ctx = audit.WithTransaction(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	recorder := audit.NewRecorder(audit.NewSQLiteRepository(tx))
	repo := NewRepository(tx)
	repo.SetObserver(func(ctx context.Context, before, after *UserAccount) error {
		_, err := recorder.Record(ctx, "",
			audit.Target{ID: after.ID, TenantID: after.TenantID},
			snapshotOf(before), snapshotOf(after))
		return err
	})

	entries, err := fn(ctx, txRepos{
		accounts: repo,
		tenants:  tenant.NewSQLiteRepository(tx),
		recorder: recorder,
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	if s.notifier != nil && len(entries) > 0 {
		s.notifier.NotifyAuditEvents(ctx, entries)
	}
	return nil
}

// ListAccounts returns the accounts visible to the actor.
//
// SuperAdmin and Admin see every account, a TenantOwner sees its own
// tenant, and a Subscriber sees only itself.
func (s *Service) ListAccounts(ctx context.Context, actor rbac.Actor) ([]UserAccount, error) {
	var filter ListFilter
	switch actor.Role {
	case rbac.RoleSuperAdmin, rbac.RoleAdmin:
	case rbac.RoleTenantOwner:
		if actor.TenantID == "" {
			return nil, ErrAuthorizationDenied
		}
		filter.TenantID = actor.TenantID
	case rbac.RoleSubscriber:
		filter.ID = actor.ID
	default:
		return nil, ErrAuthorizationDenied
	}

	return NewRepository(s.db).List(ctx, filter)
}

// GetAccount returns a single account if the actor may see it.
// Accounts that exist but fall outside the actor's scope come back as
// ErrAuthorizationDenied, never as not-found.
func (s *Service) GetAccount(ctx context.Context, actor rbac.Actor, id string) (*UserAccount, error) {
	account, err := NewRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(actor, account) {
		return nil, ErrAuthorizationDenied
	}
	return account, nil
}

func (s *Service) canView(actor rbac.Actor, account *UserAccount) bool {
	if actor.ID == account.ID {
		return true
	}
	return rbac.CanManageAccount(actor, account.Subject())
}

// CreateAccount provisions a new account on behalf of the actor.
//
// The actor must hold assignment authority over the requested role in
// the requested tenant. Tenant-bound roles require an existing
// tenant; tenant-less roles must not carry one. The check and the
// insert share a transaction so the tenant cannot vanish between
// them.
func (s *Service) CreateAccount(ctx context.Context, actor rbac.Actor, draft Draft) (*UserAccount, error) {
	if !IsValidUsername(draft.Username) {
		return nil, fmt.Errorf("%w: invalid username", ErrValidation)
	}
	if !draft.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, draft.Role)
	}
	if err := ValidateNewPassword(draft.Password, draft.Password, s.security.Password.MinLength); err != nil {
		return nil, err
	}

	if draft.Role.RequiresTenant() {
		if draft.TenantID == "" {
			return nil, fmt.Errorf("%w: role %s requires a tenant", ErrValidation, draft.Role)
		}
	} else if draft.TenantID != "" {
		return nil, fmt.Errorf("%w: role %s cannot be tenant-scoped", ErrValidation, draft.Role)
	}

	if !rbac.CanAssignRole(actor, rbac.Subject{TenantID: draft.TenantID}, draft.Role) {
		return nil, ErrAuthorizationDenied
	}

	hash, err := HashPassword(draft.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	account := &UserAccount{
		Username:     draft.Username,
		DisplayName:  draft.DisplayName,
		Email:        draft.Email,
		PasswordHash: hash,
		Role:         draft.Role,
		TenantID:     draft.TenantID,
		IsActive:     draft.IsActive,
		CreatedBy:    actor.ID,
	}

	err = s.mutate(ctx, func(ctx context.Context, r txRepos) ([]audit.Entry, error) {
		if draft.TenantID != "" {
			exists, err := r.tenants.Exists(ctx, draft.TenantID)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, fmt.Errorf("%w: tenant %s does not exist", ErrValidation, draft.TenantID)
			}
		}
		return nil, r.accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		"account_id", account.ID,
		"username", account.Username,
		"role", string(account.Role),
		"actor_id", actor.ID)
	return account, nil
}

// checkVersion compares the version the caller last observed against
// the current row. Zero means the caller did not supply one, in which
// case only the storage-level check applies.
func checkVersion(account *UserAccount, expected int64) error {
	if expected != 0 && account.Version != expected {
		return ErrConcurrentModification
	}
	return nil
}

// UpdateAccount applies profile changes to an account. Only the
// fields set in the patch are touched; role, credentials, and
// activation have their own operations.
func (s *Service) UpdateAccount(ctx context.Context, actor rbac.Actor, id string, patch Patch, expectedVersion int64) (*UserAccount, error) {
	var updated *UserAccount

	err := s.mutate(ctx, func(ctx context.Context, r txRepos) ([]audit.Entry, error) {
		account, err := r.accounts.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !rbac.CanManageAccount(actor, account.Subject()) {
			return nil, ErrAuthorizationDenied
		}
		if err := checkVersion(account, expectedVersion); err != nil {
			return nil, err
		}

		if patch.DisplayName != nil {
			account.DisplayName = *patch.DisplayName
		}
		if patch.Email != nil {
			account.Email = *patch.Email
		}

		if err := r.accounts.Update(ctx, account); err != nil {
			return nil, err
		}
		updated = account
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AssignRole changes an account's role and rederives its privilege
// flags.
//
// Assigning the role the account already holds is a no-op: nothing is
// written, no audit entry is produced, and the version does not move.
// Moving an account onto a tenant-less role clears its tenant; moving
// a tenant-less account onto a tenant-bound role is rejected because
// there is no tenant to bind it to.
//
// expectedVersion is the version the caller last read. A non-zero
// value that no longer matches means another mutation committed in
// between, and the caller gets ErrConcurrentModification instead of
// silently overwriting it.
func (s *Service) AssignRole(ctx context.Context, actor rbac.Actor, id string, role rbac.Role, expectedVersion int64) (*UserAccount, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	var updated *UserAccount

	err := s.mutate(ctx, func(ctx context.Context, r txRepos) ([]audit.Entry, error) {
		account, err := r.accounts.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !rbac.CanAssignRole(actor, account.Subject(), role) {
			return nil, ErrAuthorizationDenied
		}
		if err := checkVersion(account, expectedVersion); err != nil {
			return nil, err
		}

		if account.Role == role {
			updated = account
			return nil, nil
		}
		if role.RequiresTenant() && account.TenantID == "" {
			return nil, fmt.Errorf("%w: role %s requires a tenant", ErrValidation, role)
		}

		before := snapshotOf(account)
		target := audit.Target{ID: account.ID, TenantID: account.TenantID}

		account.Role = role
		if !role.RequiresTenant() {
			account.TenantID = ""
		}

		entries, err := r.recorder.Record(ctx, actor.ID, target, before, snapshotOf(account))
		if err != nil {
			return nil, err
		}
		if err := r.accounts.Update(ctx, account); err != nil {
			return nil, err
		}
		updated = account
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("role assigned",
		"account_id", id,
		"role", string(updated.Role),
		"actor_id", actor.ID)
	return updated, nil
}

// ResetCredential replaces an account's password.
//
// The new password and its confirmation must match and meet the
// configured minimum length. The audit entry records that a reset
// happened but never any credential material.
func (s *Service) ResetCredential(ctx context.Context, actor rbac.Actor, id, password, confirm string, expectedVersion int64) error {
	if err := ValidateNewPassword(password, confirm, s.security.Password.MinLength); err != nil {
		return err
	}

	err := s.mutate(ctx, func(ctx context.Context, r txRepos) ([]audit.Entry, error) {
		account, err := r.accounts.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !rbac.CanManageAccount(actor, account.Subject()) {
			return nil, ErrAuthorizationDenied
		}
		if err := checkVersion(account, expectedVersion); err != nil {
			return nil, err
		}

		hash, err := HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}

		before := snapshotOf(account)
		account.PasswordHash = hash

		entries, err := r.recorder.Record(ctx, actor.ID,
			audit.Target{ID: account.ID, TenantID: account.TenantID},
			before, snapshotOf(account))
		if err != nil {
			return nil, err
		}
		if err := r.accounts.Update(ctx, account); err != nil {
			return nil, err
		}
		return entries, nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("credential reset", "account_id", id, "actor_id", actor.ID)
	return nil
}

// SetActive activates or deactivates an account. Setting the current
// state is a no-op with no audit entry.
func (s *Service) SetActive(ctx context.Context, actor rbac.Actor, id string, active bool, expectedVersion int64) (*UserAccount, error) {
	var updated *UserAccount

	err := s.mutate(ctx, func(ctx context.Context, r txRepos) ([]audit.Entry, error) {
		account, err := r.accounts.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !rbac.CanManageAccount(actor, account.Subject()) {
			return nil, ErrAuthorizationDenied
		}
		if err := checkVersion(account, expectedVersion); err != nil {
			return nil, err
		}

		if account.IsActive == active {
			updated = account
			return nil, nil
		}

		before := snapshotOf(account)
		account.IsActive = active

		entries, err := r.recorder.Record(ctx, actor.ID,
			audit.Target{ID: account.ID, TenantID: account.TenantID},
			before, snapshotOf(account))
		if err != nil {
			return nil, err
		}
		if err := r.accounts.Update(ctx, account); err != nil {
			return nil, err
		}
		updated = account
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("activation changed",
		"account_id", id,
		"active", active,
		"actor_id", actor.ID)
	return updated, nil
}

// QueryAuditLog returns audit entries visible to the actor.
//
// Staff roles query the full trail. A TenantOwner is pinned to its
// own tenant regardless of the tenant requested in the filter.
// Subscribers have no audit access.
func (s *Service) QueryAuditLog(ctx context.Context, actor rbac.Actor, filter audit.Filter) (*audit.ListResult, error) {
	switch actor.Role {
	case rbac.RoleSuperAdmin, rbac.RoleAdmin:
	case rbac.RoleTenantOwner:
		if actor.TenantID == "" {
			return nil, ErrAuthorizationDenied
		}
		filter.TenantID = actor.TenantID
	default:
		return nil, ErrAuthorizationDenied
	}

	return audit.NewSQLiteRepository(s.db).List(ctx, filter)
}

// Authenticate verifies a username and password and issues a signed
// access token. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*UserAccount, string, error) {
	account, err := NewRepository(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	ok, err := VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, "", ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, "", ErrAccountInactive
	}

	ttl := time.Duration(s.security.JWT.AccessTokenTTL) * time.Minute
	token, err := GenerateAccessToken(account, s.security.JWT.Secret, ttl)
	if err != nil {
		return nil, "", fmt.Errorf("generating token: %w", err)
	}

	s.logger.Info("authenticated", "account_id", account.ID, "username", account.Username)
	return account, token, nil
}
