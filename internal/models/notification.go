package models

import (
	"encoding/json"
	"time"
)

const (
	NotificationInvites   = "Invites"
	NotificationReminders = "Reminders"
	NotificationUpdates   = "Updates"
)

// NotificationCategories is the tab order of the inbox.
var NotificationCategories = []string{"All", NotificationInvites, NotificationReminders, NotificationUpdates}

type Notification struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"userId"`
	Title             string    `json:"title,omitempty"`
	Message           string    `json:"message"`
	Type              string    `json:"type"`
	IsRead            bool      `json:"isRead"`
	CreatedAt         LocalTime `json:"createdAt"`
	RelatedEntityID   *int64    `json:"relatedEntityId,omitempty"`
	RelatedEntityType string    `json:"relatedEntityType,omitempty"`
}

// Text is what the inbox renders: the message, or the title when empty.
func (n Notification) Text() string {
	if n.Message != "" {
		return n.Message
	}
	return n.Title
}

func (n Notification) Created() time.Time {
	return n.CreatedAt.Time
}

// NotificationCategory folds any backend type into one of the inbox tabs.
func NotificationCategory(raw string) string {
	switch raw {
	case NotificationInvites, NotificationReminders:
		return raw
	default:
		return NotificationUpdates
	}
}

type notificationWire struct {
	ID                int64     `json:"id"`
	UserID            *int64    `json:"userId"`
	UserIDSnake       *int64    `json:"user_id"`
	Title             *string   `json:"title"`
	Message           *string   `json:"message"`
	Content           *string   `json:"content"`
	Type              *string   `json:"type"`
	Category          *string   `json:"category"`
	IsRead            *bool     `json:"isRead"`
	IsReadSnake       *bool     `json:"is_read"`
	Read              *bool     `json:"read"`
	CreatedAt         LocalTime `json:"createdAt"`
	CreatedAtSnake    LocalTime `json:"created_at"`
	RelatedEntityID   *int64    `json:"relatedEntityId"`
	RelatedEntityType *string   `json:"relatedEntityType"`
}

// UnmarshalJSON accepts both camel and snake case field names.
func (n *Notification) UnmarshalJSON(data []byte) error {
	var w notificationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*n = Notification{ID: w.ID, RelatedEntityID: w.RelatedEntityID}
	switch {
	case w.UserID != nil:
		n.UserID = *w.UserID
	case w.UserIDSnake != nil:
		n.UserID = *w.UserIDSnake
	}
	if w.Title != nil {
		n.Title = *w.Title
	}
	switch {
	case w.Message != nil:
		n.Message = *w.Message
	case w.Content != nil:
		n.Message = *w.Content
	}

	rawType := ""
	switch {
	case w.Type != nil:
		rawType = *w.Type
	case w.Category != nil:
		rawType = *w.Category
	}
	n.Type = NotificationCategory(rawType)

	switch {
	case w.IsRead != nil:
		n.IsRead = *w.IsRead
	case w.IsReadSnake != nil:
		n.IsRead = *w.IsReadSnake
	case w.Read != nil:
		n.IsRead = *w.Read
	}

	n.CreatedAt = w.CreatedAt
	if n.CreatedAt.IsZero() {
		n.CreatedAt = w.CreatedAtSnake
	}
	if w.RelatedEntityType != nil {
		n.RelatedEntityType = *w.RelatedEntityType
	}
	return nil
}
