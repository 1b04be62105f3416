package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Wal-20/studysphere-cli/internal/services"
)

// GroupID is the group id GroupMember parsed from the path.
func GroupID(c *gin.Context) int64 {
	return c.GetInt64(groupIDKey)
}

// GroupRole is the caller's role in that group.
func GroupRole(c *gin.Context) string {
	return c.GetString(groupRoleKey)
}

// GroupMember lets the request through only for members of the group
// named by the :id path parameter.
func GroupMember(groups *services.GroupService) gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || groupID <= 0 {
			Abort(c, http.StatusBadRequest, "Invalid group ID")
			return
		}
		role, err := groups.RequireMember(groupID, CurrentUser(c).ID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrNotFound):
				Abort(c, http.StatusNotFound, err.Error())
			case errors.Is(err, services.ErrForbidden):
				Abort(c, http.StatusForbidden, err.Error())
			default:
				Abort(c, http.StatusInternalServerError, "Error checking group membership")
			}
			return
		}
		c.Set(groupIDKey, groupID)
		c.Set(groupRoleKey, role)
		c.Next()
	}
}
