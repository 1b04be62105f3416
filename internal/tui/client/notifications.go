package client

import (
	"fmt"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

func (c *APIClient) Notifications(userID int64) ([]models.Notification, error) {
	var list []models.Notification
	body, err := c.get(fmt.Sprintf("/notifications/user/%d", userID))
	if err != nil {
		return nil, err
	}
	err = decode(body, &list)
	return list, err
}

func (c *APIClient) MarkNotificationRead(id int64) error {
	_, err := c.put(fmt.Sprintf("/notifications/%d/read", id), nil)
	return err
}

func (c *APIClient) MarkAllNotificationsRead(userID int64) error {
	_, err := c.put(fmt.Sprintf("/notifications/user/%d/read-all", userID), nil)
	return err
}

func (c *APIClient) DeleteReadNotifications(userID int64) error {
	_, err := c.delete(fmt.Sprintf("/notifications/user/%d/read", userID), nil)
	return err
}

// DeleteNotifications removes the given ids. A 403 here means the
// session no longer owns them and the caller should force a new login.
func (c *APIClient) DeleteNotifications(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.delete("/notifications/selected", ids)
	return err
}
