package state

import (
	"errors"
	"testing"
	"time"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

func TestSessionDraftValidate(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, loc)
	valid := SessionDraft{
		Topic:       "Review",
		Description: "Chapter 4",
		Date:        "2024-06-01",
		Start:       "10:00",
		End:         "11:30",
		SessionType: "online",
		MeetingLink: "https://meet.example.com/abc",
		GroupID:     3,
	}

	req, err := valid.Validate(now, loc)
	if err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}
	if got := req.StartTime.UTC().Format(models.LocalTimeLayout); got != "2024-06-01T08:00:00" {
		t.Errorf("start sent as %s, want UTC", got)
	}
	if req.SessionType != models.SessionOnline || req.Status != models.EventOngoing || req.Location != "" {
		t.Errorf("request = %+v", req)
	}

	cases := []struct {
		name  string
		tweak func(*SessionDraft)
		want  error
	}{
		{"missing topic", func(d *SessionDraft) { d.Topic = " " }, ErrMissingFields},
		{"missing group", func(d *SessionDraft) { d.GroupID = 0 }, ErrMissingFields},
		{"past start", func(d *SessionDraft) { d.Start = "08:30" }, ErrStartInPast},
		{"end before start", func(d *SessionDraft) { d.End = "10:00" }, ErrEndBeforeStart},
		{"http link", func(d *SessionDraft) { d.MeetingLink = "http://meet.example.com" }, ErrMeetingLink},
		{"hybrid needs link", func(d *SessionDraft) { d.SessionType = "hybrid"; d.MeetingLink = "" }, ErrMeetingLink},
	}
	for _, c := range cases {
		d := valid
		c.tweak(&d)
		if _, err := d.Validate(now, loc); !errors.Is(err, c.want) {
			t.Errorf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}

	offline := valid
	offline.SessionType = "offline"
	offline.MeetingLink = ""
	offline.Location = "Library room 2"
	req, err = offline.Validate(now, loc)
	if err != nil {
		t.Fatalf("offline draft rejected: %v", err)
	}
	if req.MeetingLink != "" || req.Location != "Library room 2" {
		t.Errorf("offline request = %+v", req)
	}
}

func TestGroupByDay(t *testing.T) {
	ev := func(id int64, at time.Time) models.CalendarEvent {
		return models.CalendarEvent{ID: id, StartTime: models.NewLocalTime(at)}
	}
	day := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
	groups := GroupByDay([]models.CalendarEvent{
		ev(3, day.Add(48*time.Hour)),
		ev(1, day),
		ev(2, day.Add(time.Hour)),
	}, time.UTC)

	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	if groups[0].Events[0].ID != 1 || groups[1].Events[0].ID != 2 || groups[2].Events[0].ID != 3 {
		t.Errorf("unexpected grouping: %+v", groups)
	}
}

func TestReminderTrackerFiresOnce(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	events := []models.CalendarEvent{
		{ID: 1, StartTime: models.NewLocalTime(now.Add(10 * time.Minute))},
		{ID: 2, StartTime: models.NewLocalTime(now.Add(2 * time.Hour))},
		{ID: 3, StartTime: models.NewLocalTime(now.Add(-time.Minute))},
		{ID: 4, StartTime: models.NewLocalTime(now.Add(5 * time.Minute)), Status: models.EventCanceled},
	}
	tr := NewReminderTracker()
	due := tr.Due(events, now, 15*time.Minute)
	if len(due) != 1 || due[0].ID != 1 {
		t.Fatalf("due = %+v", due)
	}
	if again := tr.Due(events, now.Add(time.Minute), 15*time.Minute); len(again) != 0 {
		t.Errorf("reminder repeated: %+v", again)
	}
}
