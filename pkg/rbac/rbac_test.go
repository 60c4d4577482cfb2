package rbac

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role string
		perm string
		want bool
	}{
		{RoleOwner, PermissionDeleteProject, true},
		{"Owner", PermissionDeleteProject, true},
		{RoleAdmin, PermissionDeleteProject, false},
		{RoleAdmin, PermissionInviteMember, true},
		{RoleMember, PermissionMoveTask, true},
		{RoleMember, PermissionInviteMember, false},
		{RoleViewer, PermissionComment, true},
		{"", PermissionComment, false},
		{"unknown", PermissionCreateTask, false},
	}
	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.perm); got != tt.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestPermissionsReturnsCopy(t *testing.T) {
	perms := Permissions(RoleMember)
	perms[0] = "mutated"
	if Permissions(RoleMember)[0] == "mutated" {
		t.Error("Permissions must not expose the internal slice")
	}
	if got := Permissions("nobody"); len(got) != 0 {
		t.Errorf("expected no permissions, got %v", got)
	}
}
