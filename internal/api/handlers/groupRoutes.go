package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wal-20/studysphere-cli/internal/api/middleware"
	"github.com/Wal-20/studysphere-cli/internal/models"
)

func (h *Handlers) GetGroup(c *gin.Context) {
	groupID, valid := pathID(c, "id")
	if !valid {
		return
	}
	g, err := h.Svcs.Groups.Get(middleware.CurrentUser(c).ID, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handlers) CourseGroups(c *gin.Context) {
	courseID := strings.TrimSpace(c.Param("courseId"))
	if courseID == "" {
		middleware.Abort(c, http.StatusBadRequest, "Invalid course ID")
		return
	}
	groups, err := h.Svcs.Groups.ListByCourse(middleware.CurrentUser(c).ID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *Handlers) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	g, err := h.Svcs.Groups.Create(middleware.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *Handlers) UpdateGroup(c *gin.Context) {
	groupID, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req models.UpdateGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	g, err := h.Svcs.Groups.Update(middleware.CurrentUser(c).ID, groupID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handlers) Members(c *gin.Context) {
	groupID, valid := pathID(c, "id")
	if !valid {
		return
	}
	members, err := h.Svcs.Groups.Members(groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *Handlers) RemoveMember(c *gin.Context) {
	groupID, valid := pathID(c, "id")
	if !valid {
		return
	}
	memberID, valid := pathID(c, "memberId")
	if !valid {
		return
	}
	if err := h.Svcs.Groups.RemoveMember(middleware.CurrentUser(c).ID, groupID, memberID); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Member removed")
}

func (h *Handlers) ChangeRole(c *gin.Context) {
	groupID, valid := pathID(c, "id")
	if !valid {
		return
	}
	memberID, valid := pathID(c, "memberId")
	if !valid {
		return
	}
	var req models.ChangeRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svcs.Groups.ChangeRole(middleware.CurrentUser(c).ID, groupID, memberID, req.Role); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Role updated")
}

func (h *Handlers) JoinRequests(c *gin.Context) {
	groupID, valid := pathID(c, "id")
	if !valid {
		return
	}
	res, err := h.Svcs.Groups.Requests(middleware.CurrentUser(c).ID, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) HandleJoinRequest(c *gin.Context) {
	groupID, valid := pathID(c, "id")
	if !valid {
		return
	}
	requestID, valid := pathID(c, "requestId")
	if !valid {
		return
	}
	var req models.HandleRequestAction
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Svcs.Groups.HandleRequest(middleware.CurrentUser(c).ID, groupID, requestID, req.Action); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Request "+strings.ToLower(req.Action))
}

func (h *Handlers) JoinGroup(c *gin.Context) {
	groupID, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req models.JoinGroupRequest
	// an empty body is a join without passkey
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	res, err := h.Svcs.Groups.Join(middleware.CurrentUser(c).ID, groupID, req.Passkey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) LeaveGroup(c *gin.Context) {
	groupID, valid := pathID(c, "id")
	if !valid {
		return
	}
	res, err := h.Svcs.Groups.Leave(middleware.CurrentUser(c).ID, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
