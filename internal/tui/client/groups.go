package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

// JoinResult tells a direct join apart from a pending request.
type JoinResult struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (c *APIClient) Group(groupID int64) (models.Group, error) {
	var g models.Group
	body, err := c.get(fmt.Sprintf("/groups/%d", groupID))
	if err != nil {
		return g, err
	}
	err = decode(body, &g)
	return g, err
}

func (c *APIClient) CreateGroup(req models.CreateGroupRequest) (models.Group, error) {
	var g models.Group
	if strings.TrimSpace(req.Name) == "" {
		return g, errors.New("group name is required")
	}
	if req.AssociatedCourseID == "" {
		return g, errors.New("a course is required")
	}
	if req.Privacy == "" {
		req.Privacy = models.PrivacyPublic
	}
	body, err := c.post("/groups", req)
	if err != nil {
		return g, err
	}
	c.invalidate("course_groups:")
	err = decode(body, &g)
	return g, err
}

func (c *APIClient) UpdateGroup(groupID int64, req models.UpdateGroupRequest) (models.Group, error) {
	var g models.Group
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		return g, errors.New("name and description are both required")
	}
	body, err := c.put(fmt.Sprintf("/groups/%d", groupID), req)
	if err != nil {
		return g, err
	}
	c.invalidate("course_groups:")
	err = decode(body, &g)
	return g, err
}

func (c *APIClient) Members(groupID int64) ([]models.Member, error) {
	var members []models.Member
	body, err := c.get(fmt.Sprintf("/groups/%d/members", groupID))
	if err != nil {
		return nil, err
	}
	err = decode(body, &members)
	return members, err
}

func (c *APIClient) RemoveMember(groupID, memberID int64) error {
	_, err := c.delete(fmt.Sprintf("/groups/%d/members/%d", groupID, memberID), nil)
	return err
}

func (c *APIClient) ChangeMemberRole(groupID, memberID int64, role string) error {
	_, err := c.put(fmt.Sprintf("/groups/%d/members/%d/role", groupID, memberID), models.ChangeRoleRequest{Role: role})
	return err
}

func (c *APIClient) JoinRequests(groupID int64) ([]models.JoinRequest, error) {
	var res models.JoinRequestsResponse
	body, err := c.get(fmt.Sprintf("/groups/%d/requests", groupID))
	if err != nil {
		return nil, err
	}
	err = decode(body, &res)
	return res.Requests, err
}

// HandleJoinRequest approves or denies a pending request.
func (c *APIClient) HandleJoinRequest(groupID, requestID int64, action string) error {
	if action != models.RequestApproved && action != models.RequestDenied {
		return fmt.Errorf("unknown join request action %q", action)
	}
	_, err := c.put(fmt.Sprintf("/groups/%d/requests/%d", groupID, requestID), models.HandleRequestAction{Action: action})
	return err
}

func (c *APIClient) JoinGroup(groupID int64, passkey string) (JoinResult, error) {
	var res JoinResult
	body, err := c.post(fmt.Sprintf("/groups/%d/join", groupID), models.JoinGroupRequest{Passkey: passkey})
	if err != nil {
		return res, err
	}
	c.invalidate("course_groups:")
	err = decode(body, &res)
	return res, err
}

func (c *APIClient) LeaveGroup(groupID int64) error {
	_, err := c.delete(fmt.Sprintf("/groups/leave/%d", groupID), nil)
	if err == nil {
		c.invalidate("course_groups:")
	}
	return err
}
