package rbac

// Actor is the identity performing an operation. It is always passed
// explicitly; there is no ambient "current user".
type Actor struct {
	ID       string
	Role     Role
	TenantID string // empty for tenant-less roles
}

// Subject is the tenant-scoping view of a target account that policy
// decisions need.
type Subject struct {
	ID       string
	TenantID string // empty for tenant-less accounts
}

// CanManageAccount reports whether the actor may manage (update,
// deactivate, reset credentials for) the target account.
//
//   - SuperAdmin and Admin manage any account.
//   - TenantOwner manages only accounts in its own tenant.
//   - Subscriber manages none.
func CanManageAccount(actor Actor, target Subject) bool {
	switch actor.Role {
	case RoleSuperAdmin, RoleAdmin:
		return true
	case RoleTenantOwner:
		return actor.TenantID != "" && actor.TenantID == target.TenantID
	default:
		return false
	}
}

// CanAssignRole reports whether the actor may assign requested to the
// target account. It requires CanManageAccount and restricts the
// requested role to the actor's own assignable set:
//
//   - SuperAdmin assigns any role.
//   - Admin assigns any role except SuperAdmin.
//   - TenantOwner assigns only TenantOwner or Subscriber, within its tenant.
//   - Subscriber assigns nothing.
//
// The decision depends on the requested role, never on the target's
// current role: an actor can never hand out more authority than it
// holds, regardless of what the target used to be.
func CanAssignRole(actor Actor, target Subject, requested Role) bool {
	if !requested.IsValid() {
		return false
	}
	if !CanManageAccount(actor, target) {
		return false
	}

	switch actor.Role {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		return requested != RoleSuperAdmin
	case RoleTenantOwner:
		return requested == RoleTenantOwner || requested == RoleSubscriber
	default:
		return false
	}
}
