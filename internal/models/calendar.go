package models

import "strings"

const (
	SessionOnline  = "ONLINE"
	SessionOffline = "OFFLINE"
	SessionHybrid  = "HYBRID"

	EventOngoing  = "ONGOING"
	EventDone     = "DONE"
	EventCanceled = "CANCELED"
)

var SessionTypes = []string{SessionOnline, SessionHybrid, SessionOffline}

type CalendarEvent struct {
	ID            int64     `json:"id"`
	Topic         string    `json:"topic"`
	Description   string    `json:"description"`
	StartTime     LocalTime `json:"startTime"`
	EndTime       LocalTime `json:"endTime"`
	Location      string    `json:"location,omitempty"`
	MeetingLink   string    `json:"meetingLink,omitempty"`
	OrganizerName string    `json:"organizerName,omitempty"`
	SessionType   string    `json:"sessionType"`
	Passcode      string    `json:"passcode,omitempty"`
	GroupID       int64     `json:"groupId"`
	GroupName     string    `json:"groupName,omitempty"`
	CourseName    string    `json:"courseName,omitempty"`
	CreatedBy     *User     `json:"createdBy,omitempty"`
	Status        string    `json:"status,omitempty"`
}

func (e CalendarEvent) IsOnline() bool {
	return !strings.EqualFold(e.SessionType, SessionOffline)
}

func (e CalendarEvent) IsInPerson() bool {
	return !strings.EqualFold(e.SessionType, SessionOnline)
}

// SessionRequest is the body of a create or update call. Times are naive UTC.
type SessionRequest struct {
	Topic         string    `json:"topic"`
	Description   string    `json:"description"`
	OrganizerName string    `json:"organizerName,omitempty"`
	SessionType   string    `json:"sessionType"`
	Status        string    `json:"status"`
	StartTime     LocalTime `json:"startTime"`
	EndTime       LocalTime `json:"endTime"`
	MeetingLink   string    `json:"meetingLink,omitempty"`
	Passcode      string    `json:"passcode,omitempty"`
	Location      string    `json:"location,omitempty"`
	GroupID       int64     `json:"groupId"`
}
