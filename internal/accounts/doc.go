// Package accounts implements the user-account lifecycle: creation,
// profile updates, role assignment, credential resets, and activation
// changes.
//
// Every mutating operation takes an explicit actor and runs as a
// single transaction: the authorisation check, the mutation, the
// derived-flag update, and the audit entry commit together or not at
// all. Concurrent writers are serialised by an optimistic version
// check on the account row; the loser receives
// ErrConcurrentModification and retries.
//
// Authorisation policy lives in the rbac package; this package wires
// it to storage and to the audit trail.
package accounts
