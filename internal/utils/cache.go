package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Caches are the sandbox server's short-lived lookups. Each server owns
// its own set so parallel test servers never share entries.
type Caches struct {
	Auth       *cache.Cache
	Membership *cache.Cache
}

func NewCaches() *Caches {
	return &Caches{
		Auth:       cache.New(time.Minute*5, time.Second*30),
		Membership: cache.New(time.Minute*5, time.Second*30),
	}
}

func MembershipKey(userID, groupID int64) string {
	return fmt.Sprintf("membership:%d:%d", userID, groupID)
}

// ForgetMembership drops every cached membership answer for a group, used
// after joins, leaves and removals.
func (c *Caches) ForgetMembership(groupID int64) {
	suffix := fmt.Sprintf(":%d", groupID)
	for key := range c.Membership.Items() {
		if strings.HasSuffix(key, suffix) {
			c.Membership.Delete(key)
		}
	}
}
