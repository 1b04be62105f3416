package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

// SendMessagePrefix is the application destination chat messages are
// sent to, followed by the group id.
const SendMessagePrefix = "/app/chat.sendMessage/"

const (
	groupTopicPrefix        = "/topic/group/"
	notificationQueuePrefix = "/queue/notifications/"
)

// Authenticate resolves a STOMP CONNECT token.
func (h *Handlers) Authenticate(token string) (models.User, error) {
	return h.Svcs.Auth.Authenticate(token)
}

// Subscribe allows group topics to members and a notification queue to
// its owner only.
func (h *Handlers) Subscribe(user models.User, destination string) error {
	switch {
	case strings.HasPrefix(destination, groupTopicPrefix):
		groupID, err := destinationID(destination, groupTopicPrefix)
		if err != nil {
			return err
		}
		_, err = h.Svcs.Groups.RequireMember(groupID, user.ID)
		return err
	case strings.HasPrefix(destination, notificationQueuePrefix):
		userID, err := destinationID(destination, notificationQueuePrefix)
		if err != nil {
			return err
		}
		if userID != user.ID {
			return fmt.Errorf("%s belongs to another user", destination)
		}
		return nil
	}
	return fmt.Errorf("unknown destination %s", destination)
}

// SendMessage stores a chat message sent over STOMP and broadcasts it to
// the group topic.
func (h *Handlers) SendMessage(user models.User, destination string, body []byte) error {
	groupID, err := destinationID(destination, SendMessagePrefix)
	if err != nil {
		return err
	}
	var in models.OutgoingMessage
	if err := json.Unmarshal(body, &in); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if in.GroupID != 0 && in.GroupID != groupID {
		return fmt.Errorf("message for group %d sent to group %d", in.GroupID, groupID)
	}
	_, err = h.Svcs.Messages.Send(user, groupID, in)
	return err
}

func destinationID(destination, prefix string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(destination, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad destination %s", destination)
	}
	return id, nil
}
