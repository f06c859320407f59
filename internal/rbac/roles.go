package rbac

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleSuperAdmin has unrestricted platform control, including
	// creating other SuperAdmins. Tenant-less.
	RoleSuperAdmin Role = "superadmin"

	// RoleAdmin is a platform operator: manages any account but cannot
	// mint SuperAdmins. Tenant-less.
	RoleAdmin Role = "admin"

	// RoleTenantOwner manages accounts within its own tenant only.
	// Always bound to a tenant.
	RoleTenantOwner Role = "tenant_owner"

	// RoleSubscriber is an end-user account with no management rights.
	// Always bound to a tenant.
	RoleSubscriber Role = "subscriber"
)

// AllRoles is the complete role enumeration, in descending authority order.
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleTenantOwner, RoleSubscriber}

// IsValid returns true if r is one of the enumerated roles.
func (r Role) IsValid() bool {
	for _, v := range AllRoles {
		if r == v {
			return true
		}
	}
	return false
}

// RequiresTenant returns true if accounts holding this role must carry
// a tenant reference. SuperAdmin and Admin are platform-level and may
// be tenant-less.
func (r Role) RequiresTenant() bool {
	return r == RoleTenantOwner || r == RoleSubscriber
}

// Flags are the privilege bits derived from a role. They exist only as
// a function of role; no code path writes them directly.
type Flags struct {
	IsStaff     bool
	IsSuperuser bool
}

// roleFlags is the single source of truth for role-derived flags.
// Adding a role means adding a row here; DeriveFlags and the tests
// iterate AllRoles, so an unmapped role fails loudly.
var roleFlags = map[Role]Flags{
	RoleSuperAdmin:  {IsStaff: true, IsSuperuser: true},
	RoleAdmin:       {IsStaff: true, IsSuperuser: false},
	RoleTenantOwner: {IsStaff: false, IsSuperuser: false},
	RoleSubscriber:  {IsStaff: false, IsSuperuser: false},
}

// DeriveFlags returns the privilege flags for a role.
//
// It is total over the enumerated roles and deterministic. Unknown
// roles derive no privileges, matching the deny-by-default posture of
// the policy functions.
func DeriveFlags(role Role) Flags {
	return roleFlags[role]
}
