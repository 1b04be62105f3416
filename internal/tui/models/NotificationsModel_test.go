package models

import (
	"net/http"
	"testing"

	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
)

func inboxWithSelection(t *testing.T) NotificationsModel {
	t.Helper()
	m := NewNotificationsModel(stubBackend(t), nil)
	m.inbox.Load([]appmodels.Notification{
		{ID: 1, Message: "Bob wants to join", Type: appmodels.NotificationInvites},
		{ID: 2, Message: "New session", Type: appmodels.NotificationUpdates, IsRead: true},
	})
	m.inbox.ToggleSelectMode()
	m.inbox.ToggleSelected(1)
	m.inbox.ToggleSelected(2)
	return m
}

func TestNotificationActionOutcomes(t *testing.T) {
	httpErr := func(code int) error {
		return &client.HTTPError{StatusCode: code, Status: http.StatusText(code), Body: `{"message":"nope"}`}
	}
	tests := []struct {
		name          string
		msg           notificationActionMsg
		wantExpired   bool
		wantSelecting bool
	}{
		{"delete selected ok", notificationActionMsg{done: "deleted", forbid: true}, false, false},
		{"delete selected fails", notificationActionMsg{forbid: true, err: httpErr(http.StatusInternalServerError)}, false, false},
		{"delete selected forbidden", notificationActionMsg{forbid: true, err: httpErr(http.StatusForbidden)}, true, false},
		{"mark read forbidden", notificationActionMsg{err: httpErr(http.StatusForbidden)}, false, true},
		{"mark read unauthorized", notificationActionMsg{err: httpErr(http.StatusUnauthorized)}, true, true},
		{"delete read ok", notificationActionMsg{done: "Read notifications deleted"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, cmd := inboxWithSelection(t).Update(tt.msg)
			m := next.(NotificationsModel)
			if cmd == nil {
				t.Fatal("no follow-up command")
			}
			switch got := cmd().(type) {
			case sessionExpiredMsg:
				if !tt.wantExpired {
					t.Errorf("signed out on %v", got.err)
				}
			case notificationsLoadedMsg:
				if tt.wantExpired {
					t.Error("refetched instead of signing out")
				}
				if got.err != nil {
					t.Errorf("refetch: %v", got.err)
				}
			default:
				t.Fatalf("command produced %T", got)
			}
			if m.inbox.Selecting != tt.wantSelecting {
				t.Errorf("select mode = %v, want %v", m.inbox.Selecting, tt.wantSelecting)
			}
			if !tt.wantSelecting && len(m.inbox.SelectedIDs()) != 0 {
				t.Errorf("selection kept: %v", m.inbox.SelectedIDs())
			}
		})
	}
}

func TestNotificationPushRefetches(t *testing.T) {
	m := NewNotificationsModel(stubBackend(t), nil)
	_, cmd := m.Update(notificationPushMsg{})
	if cmd == nil {
		t.Fatal("push did not trigger a fetch")
	}
	if _, ok := cmd().(notificationsLoadedMsg); !ok {
		t.Error("push should reload the inbox")
	}
}
