package models

import "strings"

const (
	RoleOwner     = "owner"
	RoleAdmin     = "admin"
	RoleMember    = "member"
	RoleNonMember = "non-member"
)

const (
	PrivacyPublic  = "PUBLIC"
	PrivacyPrivate = "PRIVATE"
)

const (
	RequestPending  = "PENDING"
	RequestApproved = "APPROVED"
	RequestDenied   = "DENIED"
)

type Group struct {
	GroupID          int64   `json:"groupId"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	AssociatedCourse *Course `json:"associatedCourse,omitempty"`
	CreatedBy        *User   `json:"createdBy,omitempty"`
	Privacy          string  `json:"privacy"`
	MemberLimit      int     `json:"memberLimit"`
	MemberCount      int64   `json:"memberCount"`
	HasPasskey       bool    `json:"hasPasskey"`
	UserRole         string  `json:"userRole,omitempty"`
}

// CreatorID returns 0 when the backend omitted the creator.
func (g Group) CreatorID() int64 {
	if g.CreatedBy == nil {
		return 0
	}
	return g.CreatedBy.ID
}

func (g Group) CourseName() string {
	if g.AssociatedCourse == nil {
		return ""
	}
	return g.AssociatedCourse.CourseName
}

type Member struct {
	UserID   int64     `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Role     string    `json:"role"`
	JoinedAt LocalTime `json:"joinedAt"`
}

func (m Member) IsAdmin() bool {
	return strings.EqualFold(m.Role, RoleAdmin)
}

type JoinRequest struct {
	ID     int64  `json:"id"`
	User   User   `json:"user"`
	Status string `json:"status"`
}

type JoinRequestsResponse struct {
	Requests []JoinRequest `json:"requests"`
}

type CreateGroupRequest struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	AssociatedCourseID string `json:"associatedCourseId"`
	Privacy            string `json:"privacy"`
	Passkey            string `json:"passkey,omitempty"`
	MemberLimit        int    `json:"memberLimit"`
}

type UpdateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type JoinGroupRequest struct {
	Passkey string `json:"passkey,omitempty"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type HandleRequestAction struct {
	Action string `json:"action"`
}
