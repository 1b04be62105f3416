package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/repositories"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

const (
	JoinStatusJoined  = "JOINED"
	JoinStatusPending = models.RequestPending
)

// JoinResult is the body of a join call.
type JoinResult struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type GroupService struct {
	repos  Repos
	notify *NotificationService
	caches *utils.Caches
	now    func() time.Time
}

// Role is the user's standing in the group: owner for the creator, then
// admin or member from the member row, otherwise non-member.
func (s *GroupService) Role(groupID, userID int64) (string, error) {
	key := utils.MembershipKey(userID, groupID)
	if v, ok := s.caches.Membership.Get(key); ok {
		return v.(string), nil
	}
	g, err := s.repos.Groups.FindByID(groupID)
	if err != nil {
		return "", lookup(err, "group")
	}
	role, err := s.roleIn(g, userID)
	if err != nil {
		return "", err
	}
	s.caches.Membership.Set(key, role, cache.DefaultExpiration)
	return role, nil
}

func (s *GroupService) roleIn(g *repositories.GroupRecord, userID int64) (string, error) {
	m, err := s.repos.Groups.FindMember(g.ID, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.RoleNonMember, nil
	case err != nil:
		return "", err
	case g.CreatedByID == userID:
		return models.RoleOwner, nil
	case strings.EqualFold(m.Role, models.RoleAdmin):
		return models.RoleAdmin, nil
	default:
		return models.RoleMember, nil
	}
}

// RequireMember fails with ErrForbidden unless the user belongs to the group.
func (s *GroupService) RequireMember(groupID, userID int64) (string, error) {
	role, err := s.Role(groupID, userID)
	if err != nil {
		return "", err
	}
	if role == models.RoleNonMember {
		return "", fail(ErrForbidden, "you are not a member of this group")
	}
	return role, nil
}

func (s *GroupService) requireManager(groupID, userID int64) error {
	role, err := s.Role(groupID, userID)
	if err != nil {
		return err
	}
	if role != models.RoleOwner && role != models.RoleAdmin {
		return fail(ErrForbidden, "only group admins can do that")
	}
	return nil
}

// dtos renders groups for the viewer with courses, creators and counts
// resolved in batches.
func (s *GroupService) dtos(groups []repositories.GroupRecord, viewerID int64) ([]models.Group, error) {
	out := make([]models.Group, 0, len(groups))
	if len(groups) == 0 {
		return out, nil
	}
	var (
		groupIDs   []int64
		creatorIDs []int64
		courseIDs  []string
	)
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
		creatorIDs = append(creatorIDs, g.CreatedByID)
		courseIDs = append(courseIDs, g.CourseID)
	}
	counts, err := s.repos.Groups.CountMembers(groupIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.repos.Users.FindByIDs(creatorIDs)
	if err != nil {
		return nil, err
	}
	creators := make(map[int64]models.User, len(users))
	for _, u := range users {
		creators[u.ID] = userDTO(u)
	}
	courseRows, err := s.repos.Courses.FindByIDs(dedupe(courseIDs))
	if err != nil {
		return nil, err
	}
	courses := make(map[string]models.Course, len(courseRows))
	for _, c := range courseRows {
		courses[c.CourseID] = courseDTO(c)
	}

	for i := range groups {
		g := groups[i]
		dto := models.Group{
			GroupID:     g.ID,
			Name:        g.Name,
			Description: g.Description,
			Privacy:     g.Privacy,
			MemberLimit: g.MemberLimit,
			MemberCount: counts[g.ID],
			HasPasskey:  g.Passkey != "",
		}
		if c, ok := courses[g.CourseID]; ok {
			dto.AssociatedCourse = &c
		}
		if u, ok := creators[g.CreatedByID]; ok {
			dto.CreatedBy = &u
		}
		if viewerID != 0 {
			role, err := s.roleIn(&g, viewerID)
			if err != nil {
				return nil, err
			}
			dto.UserRole = role
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *GroupService) dto(g *repositories.GroupRecord, viewerID int64) (models.Group, error) {
	list, err := s.dtos([]repositories.GroupRecord{*g}, viewerID)
	if err != nil {
		return models.Group{}, err
	}
	return list[0], nil
}

func (s *GroupService) Get(viewerID, groupID int64) (models.Group, error) {
	g, err := s.repos.Groups.FindByID(groupID)
	if err != nil {
		return models.Group{}, lookup(err, "group")
	}
	return s.dto(g, viewerID)
}

func (s *GroupService) ListByCourse(viewerID int64, courseID string) ([]models.Group, error) {
	if _, err := s.repos.Courses.FindByID(courseID); err != nil {
		return nil, lookup(err, "course")
	}
	groups, err := s.repos.Groups.ListByCourse(courseID)
	if err != nil {
		return nil, err
	}
	return s.dtos(groups, viewerID)
}

func (s *GroupService) Joined(userID int64) ([]models.Group, error) {
	groups, err := s.repos.Groups.ListJoined(userID)
	if err != nil {
		return nil, err
	}
	return s.dtos(groups, userID)
}

func (s *GroupService) Create(viewerID int64, req models.CreateGroupRequest) (models.Group, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return models.Group{}, fail(ErrInvalid, "group name is required")
	}
	if _, err := s.repos.Courses.FindByID(req.AssociatedCourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Group{}, fail(ErrInvalid, "unknown course %q", req.AssociatedCourseID)
		}
		return models.Group{}, err
	}
	privacy := strings.ToUpper(strings.TrimSpace(req.Privacy))
	switch privacy {
	case "":
		privacy = models.PrivacyPublic
	case models.PrivacyPublic, models.PrivacyPrivate:
	default:
		return models.Group{}, fail(ErrInvalid, "privacy must be PUBLIC or PRIVATE")
	}
	if req.MemberLimit < 0 {
		return models.Group{}, fail(ErrInvalid, "member limit cannot be negative")
	}

	now := s.now()
	g := repositories.GroupRecord{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CourseID:    req.AssociatedCourseID,
		CreatedByID: viewerID,
		Privacy:     privacy,
		Passkey:     req.Passkey,
		MemberLimit: req.MemberLimit,
		CreatedAt:   now,
	}
	if err := s.repos.Groups.Create(&g); err != nil {
		return models.Group{}, err
	}
	owner := repositories.MemberRecord{GroupID: g.ID, UserID: viewerID, Role: models.RoleAdmin, JoinedAt: now}
	if err := s.repos.Groups.AddMember(&owner); err != nil {
		return models.Group{}, err
	}
	s.caches.ForgetMembership(g.ID)
	return s.dto(&g, viewerID)
}

func (s *GroupService) Update(viewerID, groupID int64, req models.UpdateGroupRequest) (models.Group, error) {
	if err := s.requireManager(groupID, viewerID); err != nil {
		return models.Group{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		return models.Group{}, fail(ErrInvalid, "name and description are both required")
	}
	g, err := s.repos.Groups.FindByID(groupID)
	if err != nil {
		return models.Group{}, lookup(err, "group")
	}
	g.Name, g.Description = req.Name, req.Description
	if err := s.repos.Groups.Save(g); err != nil {
		return models.Group{}, err
	}
	return s.dto(g, viewerID)
}

func (s *GroupService) Members(groupID int64) ([]models.Member, error) {
	if _, err := s.repos.Groups.FindByID(groupID); err != nil {
		return nil, lookup(err, "group")
	}
	rows, err := s.repos.Groups.ListMembers(groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.UserID)
	}
	users, err := s.repos.Users.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]repositories.UserRecord, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]models.Member, 0, len(rows))
	for _, m := range rows {
		u := byID[m.UserID]
		out = append(out, models.Member{
			UserID:   m.UserID,
			Name:     u.Name,
			Email:    u.Email,
			Role:     strings.ToLower(m.Role),
			JoinedAt: models.NewLocalTime(m.JoinedAt),
		})
	}
	return out, nil
}

// memberIDs lists the user ids of the group, optionally only its managers.
func (s *GroupService) memberIDs(g *repositories.GroupRecord, managersOnly bool) ([]int64, error) {
	rows, err := s.repos.Groups.ListMembers(g.ID)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, m := range rows {
		if managersOnly && m.UserID != g.CreatedByID && !strings.EqualFold(m.Role, models.RoleAdmin) {
			continue
		}
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

func (s *GroupService) RemoveMember(viewerID, groupID, memberID int64) error {
	if err := s.requireManager(groupID, viewerID); err != nil {
		return err
	}
	g, err := s.repos.Groups.FindByID(groupID)
	if err != nil {
		return lookup(err, "group")
	}
	if memberID == viewerID {
		return fail(ErrInvalid, "leave the group instead of removing yourself")
	}
	if memberID == g.CreatedByID {
		return fail(ErrForbidden, "the group owner cannot be removed")
	}
	if _, err := s.repos.Groups.FindMember(groupID, memberID); err != nil {
		return lookup(err, "member")
	}
	if err := s.repos.Groups.RemoveMember(groupID, memberID); err != nil {
		return err
	}
	s.caches.ForgetMembership(groupID)
	s.notify.Notify(Alert{
		Title:             "Removed from group",
		Message:           fmt.Sprintf("You were removed from '%s'.", g.Name),
		Type:              models.NotificationUpdates,
		RelatedEntityID:   g.ID,
		RelatedEntityType: "GROUP",
	}, memberID)
	return nil
}

func (s *GroupService) ChangeRole(viewerID, groupID, memberID int64, role string) error {
	if err := s.requireManager(groupID, viewerID); err != nil {
		return err
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role != models.RoleAdmin && role != models.RoleMember {
		return fail(ErrInvalid, "role must be admin or member")
	}
	g, err := s.repos.Groups.FindByID(groupID)
	if err != nil {
		return lookup(err, "group")
	}
	if memberID == g.CreatedByID {
		return fail(ErrForbidden, "the group owner's role cannot change")
	}
	m, err := s.repos.Groups.FindMember(groupID, memberID)
	if err != nil {
		return lookup(err, "member")
	}
	m.Role = role
	if err := s.repos.Groups.SaveMember(m); err != nil {
		return err
	}
	s.caches.ForgetMembership(groupID)
	return nil
}

func (s *GroupService) Requests(viewerID, groupID int64) (models.JoinRequestsResponse, error) {
	resp := models.JoinRequestsResponse{Requests: []models.JoinRequest{}}
	if err := s.requireManager(groupID, viewerID); err != nil {
		return resp, err
	}
	reqs, err := s.repos.Groups.ListPendingRequests(groupID)
	if err != nil {
		return resp, err
	}
	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.UserID)
	}
	users, err := s.repos.Users.FindByIDs(ids)
	if err != nil {
		return resp, err
	}
	byID := make(map[int64]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = userDTO(u)
	}
	for _, r := range reqs {
		resp.Requests = append(resp.Requests, models.JoinRequest{ID: r.ID, User: byID[r.UserID], Status: r.Status})
	}
	return resp, nil
}

func (s *GroupService) HandleRequest(viewerID, groupID, requestID int64, action string) error {
	if err := s.requireManager(groupID, viewerID); err != nil {
		return err
	}
	action = strings.ToUpper(strings.TrimSpace(action))
	if action != models.RequestApproved && action != models.RequestDenied {
		return fail(ErrInvalid, "action must be APPROVED or DENIED")
	}
	req, err := s.repos.Groups.FindRequest(requestID)
	if err != nil || req.GroupID != groupID {
		return fail(ErrNotFound, "join request not found")
	}
	if req.Status != models.RequestPending {
		return fail(ErrConflict, "join request was already handled")
	}
	g, err := s.repos.Groups.FindByID(groupID)
	if err != nil {
		return lookup(err, "group")
	}

	req.Status = action
	var member *repositories.MemberRecord
	if action == models.RequestApproved {
		if err := s.checkCapacity(g); err != nil {
			return err
		}
		member = &repositories.MemberRecord{GroupID: groupID, UserID: req.UserID, Role: models.RoleMember, JoinedAt: s.now()}
	}
	if err := s.repos.Groups.ResolveRequest(req, member); err != nil {
		return err
	}
	s.caches.ForgetMembership(groupID)

	alert := Alert{
		Title:             "Join request approved",
		Message:           fmt.Sprintf("You are now a member of '%s'.", g.Name),
		Type:              models.NotificationUpdates,
		RelatedEntityID:   g.ID,
		RelatedEntityType: "GROUP",
	}
	if action == models.RequestDenied {
		alert.Title = "Join request denied"
		alert.Message = fmt.Sprintf("Your request to join '%s' was denied.", g.Name)
	}
	s.notify.Notify(alert, req.UserID)
	return nil
}

func (s *GroupService) checkCapacity(g *repositories.GroupRecord) error {
	if g.MemberLimit <= 0 {
		return nil
	}
	counts, err := s.repos.Groups.CountMembers([]int64{g.ID})
	if err != nil {
		return err
	}
	if counts[g.ID] >= int64(g.MemberLimit) {
		return fail(ErrConflict, "group is full")
	}
	return nil
}

// Join adds the user directly when the group is public or the passkey
// matches; a private group without a passkey gets a pending request.
func (s *GroupService) Join(viewerID, groupID int64, passkey string) (JoinResult, error) {
	g, err := s.repos.Groups.FindByID(groupID)
	if err != nil {
		return JoinResult{}, lookup(err, "group")
	}
	role, err := s.roleIn(g, viewerID)
	if err != nil {
		return JoinResult{}, err
	}
	if role != models.RoleNonMember {
		return JoinResult{}, fail(ErrConflict, "you are already a member of this group")
	}

	if g.Passkey == "" && g.Privacy == models.PrivacyPrivate {
		if _, err := s.repos.Groups.FindPendingRequest(groupID, viewerID); err == nil {
			return JoinResult{}, fail(ErrConflict, "a join request is already pending")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return JoinResult{}, err
		}
		req := repositories.JoinRequestRecord{GroupID: groupID, UserID: viewerID, Status: models.RequestPending, CreatedAt: s.now()}
		if err := s.repos.Groups.CreateRequest(&req); err != nil {
			return JoinResult{}, err
		}
		s.notifyRequest(g, viewerID)
		return JoinResult{Message: "Join request sent to the group admins", Status: JoinStatusPending}, nil
	}

	if g.Passkey != "" && passkey != g.Passkey {
		return JoinResult{}, fail(ErrForbidden, "incorrect passkey")
	}
	if err := s.checkCapacity(g); err != nil {
		return JoinResult{}, err
	}
	m := repositories.MemberRecord{GroupID: groupID, UserID: viewerID, Role: models.RoleMember, JoinedAt: s.now()}
	if err := s.repos.Groups.AddMember(&m); err != nil {
		return JoinResult{}, err
	}
	s.caches.ForgetMembership(groupID)
	return JoinResult{Message: "Joined " + g.Name, Status: JoinStatusJoined}, nil
}

func (s *GroupService) notifyRequest(g *repositories.GroupRecord, requesterID int64) {
	name := "Someone"
	if u, err := s.repos.Users.FindByID(requesterID); err == nil {
		name = u.Name
	}
	managers, err := s.memberIDs(g, true)
	if err != nil {
		return
	}
	s.notify.Notify(Alert{
		Title:             "New join request",
		Message:           fmt.Sprintf("%s wants to join '%s'.", name, g.Name),
		Type:              models.NotificationInvites,
		RelatedEntityID:   g.ID,
		RelatedEntityType: "GROUP_JOIN_REQUEST",
	}, managers...)
}

// Leave removes the user. An owner hands the group to the next member,
// preferring one who is not already an admin; the last member leaving
// deletes the group.
func (s *GroupService) Leave(viewerID, groupID int64) (JoinResult, error) {
	g, err := s.repos.Groups.FindByID(groupID)
	if err != nil {
		return JoinResult{}, lookup(err, "group")
	}
	if _, err := s.repos.Groups.FindMember(groupID, viewerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return JoinResult{}, fail(ErrInvalid, "you are not a member of this group")
		}
		return JoinResult{}, err
	}
	defer s.caches.ForgetMembership(groupID)

	if g.CreatedByID != viewerID {
		if err := s.repos.Groups.RemoveMember(groupID, viewerID); err != nil {
			return JoinResult{}, err
		}
		return JoinResult{Message: "Left " + g.Name, Status: "LEFT"}, nil
	}

	rows, err := s.repos.Groups.ListMembers(groupID)
	if err != nil {
		return JoinResult{}, err
	}
	var next *repositories.MemberRecord
	for i := range rows {
		m := &rows[i]
		if m.UserID == viewerID {
			continue
		}
		if next == nil {
			next = m
		}
		if !strings.EqualFold(m.Role, models.RoleAdmin) {
			next = m
			break
		}
	}
	if next == nil {
		if err := s.repos.Groups.DeleteByID(groupID); err != nil {
			return JoinResult{}, err
		}
		return JoinResult{Message: g.Name + " was deleted as its last member left", Status: "DELETED"}, nil
	}

	next.Role = models.RoleAdmin
	g.CreatedByID = next.UserID
	if err := s.repos.Groups.TransferOwnership(g, next, viewerID); err != nil {
		return JoinResult{}, err
	}
	s.notify.Notify(Alert{
		Title:             "You now own a group",
		Message:           fmt.Sprintf("Ownership of '%s' was transferred to you.", g.Name),
		Type:              models.NotificationUpdates,
		RelatedEntityID:   g.ID,
		RelatedEntityType: "GROUP",
	}, next.UserID)
	return JoinResult{Message: "Left " + g.Name, Status: "LEFT"}, nil
}
