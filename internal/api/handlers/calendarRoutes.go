package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wal-20/studysphere-cli/internal/api/middleware"
	"github.com/Wal-20/studysphere-cli/internal/models"
)

func (h *Handlers) AllEvents(c *gin.Context) {
	events, err := h.Svcs.Calendar.All(middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handlers) UpcomingEvents(c *gin.Context) {
	events, err := h.Svcs.Calendar.Upcoming(middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handlers) GroupEvents(c *gin.Context) {
	groupID, valid := pathID(c, "id")
	if !valid {
		return
	}
	events, err := h.Svcs.Calendar.ByGroup(middleware.CurrentUser(c).ID, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handlers) CreateEvent(c *gin.Context) {
	var req models.SessionRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.Svcs.Calendar.Create(middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *Handlers) UpdateEvent(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req models.SessionRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.Svcs.Calendar.Update(middleware.CurrentUser(c).ID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handlers) DeleteEvent(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.Svcs.Calendar.Delete(middleware.CurrentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Session deleted")
}
