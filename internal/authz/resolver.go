// Package authz holds the static role to permission table and the pure
// permission resolver used by the authorization gate and HTTP handlers.
package authz

// Well-known role and permission names. These are configuration data, not
// user data; runtime role mutation is an administrative concern outside the
// auth core.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	// PermissionAll is an internal marker granted to the admin role. It is
	// deliberately NOT a checkable capability: HasPermission always answers
	// false for it, even for admins, so nothing can be gated on "all" and
	// accidentally widen over time.
	PermissionAll = "all"

	PermissionUsersManage    = "users.manage"
	PermissionRolesManage    = "roles.manage"
	PermissionSettingsManage = "settings.manage"
	PermissionAdminDashboard = "admin.dashboard"
	PermissionDashboardView  = "dashboard.view"
)

// rolePermissions is the static role name -> granted permissions table.
var rolePermissions = map[string][]string{
	RoleAdmin: {
		PermissionAll,
		PermissionUsersManage,
		PermissionRolesManage,
		PermissionSettingsManage,
		PermissionAdminDashboard,
	},
	RoleUser: {
		PermissionDashboardView,
	},
}

// PermissionsForRole returns the static grant list for a role name, or nil
// for an unknown role. Callers must not mutate the returned slice.
func PermissionsForRole(role string) []string {
	return rolePermissions[role]
}

// Roles returns the role names present in the static table.
func Roles() []string {
	return []string{RoleAdmin, RoleUser}
}

// HasPermission reports whether any of the given roles grants the permission.
// An admin role grants everything except the literal "all" sentinel.
func HasPermission(roles []string, permission string) bool {
	if permission == "" {
		return false
	}

	for _, role := range roles {
		if role == RoleAdmin {
			return permission != PermissionAll
		}
	}

	for _, role := range roles {
		for _, granted := range rolePermissions[role] {
			if granted == permission {
				return true
			}
		}
	}
	return false
}

// HasRole reports whether the role set contains the named role.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the two role sets intersect.
func HasAnyRole(roles []string, wanted []string) bool {
	for _, w := range wanted {
		if HasRole(roles, w) {
			return true
		}
	}
	return false
}
