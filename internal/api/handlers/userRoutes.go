package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wal-20/studysphere-cli/internal/api/middleware"
	"github.com/Wal-20/studysphere-cli/internal/models"
)

func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Svcs.Auth.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Svcs.Auth.Register(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handlers) Profile(c *gin.Context) {
	user, err := h.Svcs.Auth.Profile(middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Courses is public; clients use it as their reachability check.
func (h *Handlers) Courses(c *gin.Context) {
	courses, err := h.Svcs.Courses.Courses()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *Handlers) MyCourses(c *gin.Context) {
	courses, err := h.Svcs.Courses.Enrolled(middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *Handlers) Dashboard(c *gin.Context) {
	dash, err := h.Svcs.Courses.Dashboard(middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
