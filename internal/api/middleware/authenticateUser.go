package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/services"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

const (
	currentUserKey = "currentUser"
	groupIDKey     = "groupID"
	groupRoleKey   = "groupRole"
)

// Abort ends the request with the {"message": ...} body the client reads.
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// CurrentUser is the user AuthMiddleware resolved.
func CurrentUser(c *gin.Context) models.User {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(models.User); ok {
			return u
		}
	}
	return models.User{}
}

// AuthMiddleware checks the bearer token and puts the user in the
// context. Resolved tokens are cached for a few minutes.
func AuthMiddleware(auth *services.AuthService, caches *utils.Caches) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if header == "" || !ok || strings.TrimSpace(token) == "" {
			Abort(c, http.StatusUnauthorized, "Missing authorization header")
			return
		}
		token = strings.TrimSpace(token)

		if v, found := caches.Auth.Get(token); found {
			c.Set(currentUserKey, v.(models.User))
			c.Next()
			return
		}
		user, err := auth.Authenticate(token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				Abort(c, http.StatusUnauthorized, err.Error())
			} else {
				Abort(c, http.StatusInternalServerError, "could not verify session")
			}
			return
		}
		caches.Auth.Set(token, user, cache.DefaultExpiration)
		c.Set(currentUserKey, user)
		c.Next()
	}
}
