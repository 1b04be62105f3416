package state

import (
	"strings"
	"testing"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

func TestRoles(t *testing.T) {
	g := models.Group{GroupID: 1, CreatedBy: &models.User{ID: 1}}
	members := []models.Member{
		{UserID: 1, Name: "Owner", Role: "ADMIN"},
		{UserID: 2, Name: "Bea", Role: "member"},
	}

	if r := DetailRole(g, members, 1); r != models.RoleOwner {
		t.Errorf("creator role = %s", r)
	}
	if r := DetailRole(g, members, 2); r != models.RoleMember {
		t.Errorf("member role = %s", r)
	}
	if r := DetailRole(g, members, 3); r != models.RoleNonMember {
		t.Errorf("stranger role = %s", r)
	}

	if r := ManagementRole(members, 1); r != models.RoleAdmin {
		t.Errorf("admin by member list = %s", r)
	}
	if r := ManagementRole(members, 2); r != models.RoleMember {
		t.Errorf("plain member = %s", r)
	}
	if r := ManagementRole(members, 9); r != models.RoleNonMember {
		t.Errorf("outsider = %s", r)
	}
}

func TestLeaveWarning(t *testing.T) {
	g := models.Group{CreatedBy: &models.User{ID: 1}}

	alone := []models.Member{{UserID: 1, Role: "admin"}}
	if w := LeaveWarning(models.RoleOwner, g, alone, 1); !strings.Contains(w, "delete") {
		t.Errorf("last member warning = %q", w)
	}

	members := []models.Member{
		{UserID: 1, Role: "admin"},
		{UserID: 5, Name: "Cy", Role: "admin"},
		{UserID: 6, Name: "Di", Role: "member"},
	}
	if w := LeaveWarning(models.RoleOwner, g, members, 1); !strings.Contains(w, "Di") {
		t.Errorf("transfer warning should name the first non-admin, got %q", w)
	}

	onlyAdmins := []models.Member{{UserID: 1}, {UserID: 5, Role: "admin"}}
	if w := LeaveWarning(models.RoleOwner, g, onlyAdmins, 1); !strings.Contains(w, "another member") {
		t.Errorf("fallback warning = %q", w)
	}

	if w := LeaveWarning(models.RoleMember, g, members, 6); w != "Are you sure you want to leave this group?" {
		t.Errorf("member warning = %q", w)
	}
}
