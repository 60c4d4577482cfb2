package rbac

import "strings"

// Project permissions. The Gateway enforces them; here they only decide
// which actions a view offers.
const (
	PermissionUpdateProject = "project:update"
	PermissionDeleteProject = "project:delete"
	PermissionInviteMember  = "member:invite"
	PermissionCreateTask    = "task:create"
	PermissionUpdateTask    = "task:update"
	PermissionMoveTask      = "task:move"
	PermissionDeleteTask    = "task:delete"
	PermissionComment       = "comment:create"
)

// Project roles
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

var rolePermissions = map[string][]string{
	RoleOwner: {
		PermissionUpdateProject,
		PermissionDeleteProject,
		PermissionInviteMember,
		PermissionCreateTask,
		PermissionUpdateTask,
		PermissionMoveTask,
		PermissionDeleteTask,
		PermissionComment,
	},
	RoleAdmin: {
		PermissionUpdateProject,
		PermissionInviteMember,
		PermissionCreateTask,
		PermissionUpdateTask,
		PermissionMoveTask,
		PermissionDeleteTask,
		PermissionComment,
	},
	RoleMember: {
		PermissionCreateTask,
		PermissionUpdateTask,
		PermissionMoveTask,
		PermissionComment,
	},
	RoleViewer: {
		PermissionComment,
	},
}

// Permissions lists what role may do, in a stable order. Unknown roles,
// including "", get nothing.
func Permissions(role string) []string {
	perms := rolePermissions[strings.ToLower(strings.TrimSpace(role))]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether role grants permission
func HasPermission(role, permission string) bool {
	for _, p := range rolePermissions[strings.ToLower(strings.TrimSpace(role))] {
		if p == permission {
			return true
		}
	}
	return false
}
