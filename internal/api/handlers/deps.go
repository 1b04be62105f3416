// Package handlers serves the sandbox backend's REST routes and the
// STOMP application destinations.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Wal-20/studysphere-cli/internal/api/middleware"
	"github.com/Wal-20/studysphere-cli/internal/logger"
	"github.com/Wal-20/studysphere-cli/internal/services"
)

// Handlers holds the services every route shares. Svcs may be set after
// the broker is built, as long as it is set before serving.
type Handlers struct {
	Svcs *services.Services
}

func New(svcs *services.Services) *Handlers {
	return &Handlers{Svcs: svcs}
}

// respondError maps a service error to its status.
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError || !errors.As(err, &svcErr) {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		middleware.Abort(c, status, "Internal server error")
		return
	}
	middleware.Abort(c, status, svcErr.Msg)
}

// pathID parses a positive integer path parameter, answering 400 itself
// when it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.Abort(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.Abort(c, http.StatusBadRequest, "Unable to decode request body")
		return false
	}
	return true
}

func ok(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
