// Package rbac defines the role model and authorisation policy for
// Portal Core.
//
// It has two halves:
//
//   - The role registry: the Role enumeration and DeriveFlags, the
//     single source of truth mapping a role to its staff/superuser
//     flags. Flags are never writable independently of role.
//   - The authorisation policy: CanManageAccount and CanAssignRole,
//     pure decisions over (actor, target, requested role) including
//     tenant scoping.
//
// Everything in this package is pure and deterministic: no I/O, no
// clock, no ambient state. Callers pass the acting identity explicitly.
package rbac
