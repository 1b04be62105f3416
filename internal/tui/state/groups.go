package state

import (
	"fmt"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

// DetailRole is the viewer's role on the group page: owner when they
// created it, member when listed, otherwise non-member.
func DetailRole(g models.Group, members []models.Member, userID int64) string {
	if userID != 0 && g.CreatorID() == userID {
		return models.RoleOwner
	}
	for _, m := range members {
		if m.UserID == userID {
			return models.RoleMember
		}
	}
	return models.RoleNonMember
}

// ManagementRole is the viewer's role on the management page, read from
// the member list alone.
func ManagementRole(members []models.Member, userID int64) string {
	for _, m := range members {
		if m.UserID != userID {
			continue
		}
		if m.IsAdmin() {
			return models.RoleAdmin
		}
		return models.RoleMember
	}
	return models.RoleNonMember
}

func CanManage(role string) bool {
	return role == models.RoleOwner || role == models.RoleAdmin
}

// NextAdminCandidate is the first other member who is neither an admin
// nor the creator.
func NextAdminCandidate(g models.Group, members []models.Member, userID int64) (models.Member, bool) {
	for _, m := range members {
		if m.UserID == userID || m.IsAdmin() || m.UserID == g.CreatorID() {
			continue
		}
		return m, true
	}
	return models.Member{}, false
}

// LeaveWarning is the confirmation text shown before leaving.
func LeaveWarning(role string, g models.Group, members []models.Member, userID int64) string {
	if role != models.RoleOwner {
		return "Are you sure you want to leave this group?"
	}
	others := 0
	for _, m := range members {
		if m.UserID != userID {
			others++
		}
	}
	if others == 0 {
		return "You are the owner and the last member. Leaving will permanently delete this group."
	}
	if next, ok := NextAdminCandidate(g, members, userID); ok {
		name := next.Name
		if name == "" {
			name = "another member"
		}
		return fmt.Sprintf("You are the owner. Leaving will transfer ownership to %s.", name)
	}
	return "You are the owner. Leaving will transfer ownership to another member."
}
