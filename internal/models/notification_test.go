package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNotificationTolerantDecoding(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		read    bool
		kind    string
		text    string
		created time.Time
	}{
		{
			name:    "camel case",
			payload: `{"id":1,"userId":2,"message":"m","type":"Invites","isRead":true,"createdAt":"2024-01-02T03:04:05"}`,
			read:    true,
			kind:    NotificationInvites,
			text:    "m",
			created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:    "snake case",
			payload: `{"id":1,"title":"t","is_read":true,"created_at":"2024-01-02T03:04:05Z","category":"Reminders"}`,
			read:    true,
			kind:    NotificationReminders,
			text:    "t",
			created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:    "bare read flag and unknown type",
			payload: `{"id":1,"message":"x","read":true,"type":"JOIN_REQUEST"}`,
			read:    true,
			kind:    NotificationUpdates,
			text:    "x",
		},
		{
			name:    "defaults",
			payload: `{"id":1}`,
			kind:    NotificationUpdates,
		},
	}
	for _, c := range cases {
		var n Notification
		if err := json.Unmarshal([]byte(c.payload), &n); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if n.IsRead != c.read || n.Type != c.kind || n.Text() != c.text {
			t.Errorf("%s: got read=%v type=%q text=%q", c.name, n.IsRead, n.Type, n.Text())
		}
		if !n.Created().Equal(c.created) {
			t.Errorf("%s: created = %v, want %v", c.name, n.Created(), c.created)
		}
	}
}

func TestLocalTimeWire(t *testing.T) {
	var lt LocalTime
	if err := json.Unmarshal([]byte(`"2024-05-06T07:08:09"`), &lt); err != nil {
		t.Fatal(err)
	}
	if lt.Location() != time.UTC || lt.Hour() != 7 {
		t.Errorf("naive string should read as UTC, got %v", lt.Time)
	}

	zoned := NewLocalTime(time.Date(2024, 5, 6, 9, 8, 9, 0, time.FixedZone("", 2*3600)))
	out, _ := json.Marshal(zoned)
	if string(out) != `"2024-05-06T07:08:09"` {
		t.Errorf("marshal = %s", out)
	}

	out, _ = json.Marshal(LocalTime{})
	if string(out) != "null" {
		t.Errorf("zero marshal = %s", out)
	}

	if err := json.Unmarshal([]byte(`"yesterday"`), &lt); err == nil {
		t.Error("expected parse error")
	}
}

func TestHumanSize(t *testing.T) {
	cases := map[int64]string{
		0:       "0 Bytes",
		512:     "512 Bytes",
		2048:    "2.00 KB",
		5 << 20: "5.00 MB",
	}
	for in, want := range cases {
		if got := HumanSize(in); got != want {
			t.Errorf("HumanSize(%d) = %q, want %q", in, got, want)
		}
	}
}
