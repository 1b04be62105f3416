package handlers

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Wal-20/studysphere-cli/internal/api/middleware"
	"github.com/Wal-20/studysphere-cli/internal/models"
)

// The routes below run behind middleware.GroupMember unless noted.

func (h *Handlers) History(c *gin.Context) {
	msgs, err := h.Svcs.Messages.History(middleware.CurrentUser(c).ID, middleware.GroupID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handlers) DeleteMessage(c *gin.Context) {
	messageID, valid := pathID(c, "messageId")
	if !valid {
		return
	}
	if err := h.Svcs.Messages.Delete(middleware.CurrentUser(c).ID, middleware.GroupID(c), messageID); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Message deleted")
}

func (h *Handlers) Pins(c *gin.Context) {
	pins, err := h.Svcs.Messages.Pins(middleware.CurrentUser(c).ID, middleware.GroupID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pins)
}

func (h *Handlers) Pin(c *gin.Context) {
	messageID, valid := pathID(c, "messageId")
	if !valid {
		return
	}
	pin, err := h.Svcs.Messages.Pin(middleware.CurrentUser(c).ID, middleware.GroupID(c), messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pin)
}

func (h *Handlers) Unpin(c *gin.Context) {
	messageID, valid := pathID(c, "messageId")
	if !valid {
		return
	}
	if err := h.Svcs.Messages.Unpin(middleware.CurrentUser(c).ID, middleware.GroupID(c), messageID); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Message unpinned")
}

func (h *Handlers) CreatePoll(c *gin.Context) {
	var req models.CreatePollRequest
	if !bindJSON(c, &req) {
		return
	}
	user := middleware.CurrentUser(c)
	if req.CreatorID != 0 && req.CreatorID != user.ID {
		middleware.Abort(c, http.StatusForbidden, "Cannot create a poll for another user")
		return
	}
	msg, err := h.Svcs.Messages.CreatePoll(user, middleware.GroupID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Vote is not group scoped; the service resolves the poll's group.
func (h *Handlers) Vote(c *gin.Context) {
	pollID, valid := pathID(c, "pollId")
	if !valid {
		return
	}
	optionID, valid := pathID(c, "optionId")
	if !valid {
		return
	}
	var req models.VoteRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	user := middleware.CurrentUser(c)
	if req.VoterID != 0 && req.VoterID != user.ID {
		middleware.Abort(c, http.StatusForbidden, "Cannot vote for another user")
		return
	}
	option, err := h.Svcs.Messages.Vote(user.ID, pollID, optionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, option)
}

// Upload takes a multipart form with "file" and "groupId".
func (h *Handlers) Upload(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.PostForm("groupId"), 10, 64)
	if err != nil || groupID <= 0 {
		middleware.Abort(c, http.StatusBadRequest, "Invalid groupId")
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		middleware.Abort(c, http.StatusBadRequest, "A file is required")
		return
	}
	f, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	msg, err := h.Svcs.Messages.Upload(middleware.CurrentUser(c), groupID, header.Filename, header.Size, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handlers) Documents(c *gin.Context) {
	groupID, valid := pathID(c, "id")
	if !valid {
		return
	}
	docs, err := h.Svcs.Messages.Documents(middleware.CurrentUser(c).ID, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Download streams a document as an attachment under its original name.
func (h *Handlers) Download(c *gin.Context) {
	messageID, valid := pathID(c, "messageId")
	if !valid {
		return
	}
	path, name, err := h.Svcs.Messages.Document(middleware.CurrentUser(c).ID, messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			middleware.Abort(c, http.StatusNotFound, "Document file is missing")
			return
		}
		respondError(c, err)
		return
	}
	c.FileAttachment(path, name)
}
