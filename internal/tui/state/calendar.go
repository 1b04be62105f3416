package state

import (
	"errors"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

var (
	ErrMissingFields  = errors.New("please fill all required fields")
	ErrStartInPast    = errors.New("start time cannot be in the past")
	ErrEndBeforeStart = errors.New("end time must be after start time")
	ErrMeetingLink    = errors.New("meeting link must be valid and start with https://")
)

// SessionDraft is the create-session form as typed: date "2006-01-02",
// times "15:04", all in the viewer's zone.
type SessionDraft struct {
	Topic         string
	Description   string
	Date          string
	Start         string
	End           string
	SessionType   string
	MeetingLink   string
	Passcode      string
	Location      string
	GroupID       int64
	OrganizerName string
}

// Validate checks the draft and converts it to a request with UTC times.
func (d SessionDraft) Validate(now time.Time, loc *time.Location) (models.SessionRequest, error) {
	if loc == nil {
		loc = time.Local
	}
	fields := []string{d.Topic, d.Description, d.Date, d.Start, d.End}
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return models.SessionRequest{}, ErrMissingFields
		}
	}
	if d.GroupID == 0 {
		return models.SessionRequest{}, ErrMissingFields
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", d.Date+" "+d.Start, loc)
	if err != nil {
		return models.SessionRequest{}, errors.New("start must look like 2024-05-30 14:00")
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", d.Date+" "+d.End, loc)
	if err != nil {
		return models.SessionRequest{}, errors.New("end must look like 2024-05-30 15:00")
	}
	if start.Before(now) {
		return models.SessionRequest{}, ErrStartInPast
	}
	if !end.After(start) {
		return models.SessionRequest{}, ErrEndBeforeStart
	}

	kind := strings.ToUpper(strings.TrimSpace(d.SessionType))
	if kind == "" {
		kind = models.SessionOnline
	}
	if !slices.Contains(models.SessionTypes, kind) {
		return models.SessionRequest{}, errors.New("session type must be online, hybrid or offline")
	}

	req := models.SessionRequest{
		Topic:         strings.TrimSpace(d.Topic),
		Description:   strings.TrimSpace(d.Description),
		OrganizerName: d.OrganizerName,
		SessionType:   kind,
		Status:        models.EventOngoing,
		StartTime:     models.NewLocalTime(start),
		EndTime:       models.NewLocalTime(end),
		Passcode:      d.Passcode,
		GroupID:       d.GroupID,
	}
	if kind != models.SessionOffline {
		if !validMeetingLink(d.MeetingLink) {
			return models.SessionRequest{}, ErrMeetingLink
		}
		req.MeetingLink = strings.TrimSpace(d.MeetingLink)
	}
	if kind != models.SessionOnline {
		req.Location = strings.TrimSpace(d.Location)
	}
	return req, nil
}

func validMeetingLink(link string) bool {
	link = strings.TrimSpace(link)
	if !strings.HasPrefix(link, "https://") {
		return false
	}
	u, err := url.Parse(link)
	return err == nil && u.Host != ""
}

// DayGroup is one day of the agenda.
type DayGroup struct {
	Day    time.Time
	Label  string
	Events []models.CalendarEvent
}

// GroupByDay buckets events by local start day, days and events ascending.
func GroupByDay(events []models.CalendarEvent, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}
	sorted := append([]models.CalendarEvent(nil), events...)
	slices.SortStableFunc(sorted, func(a, b models.CalendarEvent) int {
		return a.StartTime.Compare(b.StartTime.Time)
	})

	var groups []DayGroup
	for _, ev := range sorted {
		local := ev.StartTime.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		if n := len(groups); n > 0 && groups[n-1].Day.Equal(day) {
			groups[n-1].Events = append(groups[n-1].Events, ev)
			continue
		}
		groups = append(groups, DayGroup{Day: day, Label: day.Format("Mon, Jan 2 2006"), Events: []models.CalendarEvent{ev}})
	}
	return groups
}

// ReminderTracker remembers which sessions already raised a reminder.
// It is shared between the scheduler goroutine and the UI.
type ReminderTracker struct {
	mu   sync.Mutex
	seen map[int64]bool
}

func NewReminderTracker() *ReminderTracker {
	return &ReminderTracker{seen: map[int64]bool{}}
}

// Due returns the sessions starting within lead of now that have not been
// reminded yet, and marks them.
func (t *ReminderTracker) Due(events []models.CalendarEvent, now time.Time, lead time.Duration) []models.CalendarEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var due []models.CalendarEvent
	for _, ev := range events {
		if t.seen[ev.ID] || ev.Status == models.EventCanceled {
			continue
		}
		start := ev.StartTime.Time
		if start.After(now) && !start.After(now.Add(lead)) {
			t.seen[ev.ID] = true
			due = append(due, ev)
		}
	}
	return due
}
