package rbac

import "testing"

func TestDeriveFlags_Table(t *testing.T) {
	tests := []struct {
		role Role
		want Flags
	}{
		{RoleSuperAdmin, Flags{IsStaff: true, IsSuperuser: true}},
		{RoleAdmin, Flags{IsStaff: true, IsSuperuser: false}},
		{RoleTenantOwner, Flags{IsStaff: false, IsSuperuser: false}},
		{RoleSubscriber, Flags{IsStaff: false, IsSuperuser: false}},
	}

	for _, tt := range tests {
		if got := DeriveFlags(tt.role); got != tt.want {
			t.Errorf("DeriveFlags(%s) = %+v, want %+v", tt.role, got, tt.want)
		}
	}
}

func TestDeriveFlags_TotalOverEnumeration(t *testing.T) {
	// Every enumerated role must have a row in the flag table.
	// Adding a role without extending roleFlags fails here.
	for _, role := range AllRoles {
		if _, ok := roleFlags[role]; !ok {
			t.Errorf("role %s has no derived-flag mapping", role)
		}
	}
	if len(roleFlags) != len(AllRoles) {
		t.Errorf("roleFlags has %d rows, AllRoles has %d", len(roleFlags), len(AllRoles))
	}
}

func TestDeriveFlags_UnknownRole(t *testing.T) {
	if got := DeriveFlags(Role("ghost")); got != (Flags{}) {
		t.Errorf("unknown role should derive no privileges, got %+v", got)
	}
}

func TestRole_IsValid(t *testing.T) {
	for _, role := range AllRoles {
		if !role.IsValid() {
			t.Errorf("%s should be valid", role)
		}
	}
	if Role("owner").IsValid() {
		t.Error("owner is not an enumerated role")
	}
	if Role("").IsValid() {
		t.Error("empty role should be invalid")
	}
}

func TestRole_RequiresTenant(t *testing.T) {
	if RoleSuperAdmin.RequiresTenant() || RoleAdmin.RequiresTenant() {
		t.Error("platform roles must not require a tenant")
	}
	if !RoleTenantOwner.RequiresTenant() || !RoleSubscriber.RequiresTenant() {
		t.Error("tenant roles must require a tenant")
	}
}
