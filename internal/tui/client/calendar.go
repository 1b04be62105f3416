package client

import (
	"fmt"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

func (c *APIClient) events(path string) ([]models.CalendarEvent, error) {
	var list []models.CalendarEvent
	body, err := c.get(path)
	if err != nil {
		return nil, err
	}
	err = decode(body, &list)
	return list, err
}

func (c *APIClient) AllEvents() ([]models.CalendarEvent, error) {
	return c.events("/calendar/events/all")
}

func (c *APIClient) UpcomingEvents() ([]models.CalendarEvent, error) {
	return c.events("/calendar/events/upcoming")
}

func (c *APIClient) GroupEvents(groupID int64) ([]models.CalendarEvent, error) {
	return c.events(fmt.Sprintf("/calendar/events/group/%d", groupID))
}

func (c *APIClient) CreateEvent(req models.SessionRequest) (models.CalendarEvent, error) {
	var ev models.CalendarEvent
	body, err := c.post("/calendar/events", req)
	if err != nil {
		return ev, err
	}
	err = decode(body, &ev)
	return ev, err
}

func (c *APIClient) UpdateEvent(id int64, req models.SessionRequest) (models.CalendarEvent, error) {
	var ev models.CalendarEvent
	body, err := c.put(fmt.Sprintf("/calendar/events/%d", id), req)
	if err != nil {
		return ev, err
	}
	err = decode(body, &ev)
	return ev, err
}

func (c *APIClient) DeleteEvent(id int64) error {
	_, err := c.delete(fmt.Sprintf("/calendar/events/%d", id), nil)
	return err
}
