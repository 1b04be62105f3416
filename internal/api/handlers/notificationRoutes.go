package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wal-20/studysphere-cli/internal/api/middleware"
)

func (h *Handlers) Notifications(c *gin.Context) {
	userID, valid := pathID(c, "id")
	if !valid {
		return
	}
	list, err := h.Svcs.Notifications.List(middleware.CurrentUser(c).ID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) MarkRead(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.Svcs.Notifications.MarkRead(middleware.CurrentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Notification marked as read")
}

func (h *Handlers) MarkAllRead(c *gin.Context) {
	userID, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.Svcs.Notifications.MarkAllRead(middleware.CurrentUser(c).ID, userID); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "All notifications marked as read")
}

func (h *Handlers) DeleteRead(c *gin.Context) {
	userID, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.Svcs.Notifications.DeleteRead(middleware.CurrentUser(c).ID, userID); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Read notifications deleted")
}

// DeleteSelected takes a JSON array of notification ids.
func (h *Handlers) DeleteSelected(c *gin.Context) {
	var ids []int64
	if !bindJSON(c, &ids) {
		return
	}
	if err := h.Svcs.Notifications.DeleteSelected(middleware.CurrentUser(c).ID, ids); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Notifications deleted")
}
