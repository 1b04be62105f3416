package models

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Wal-20/studysphere-cli/internal/config"
	appmodels "github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/tui/client"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

// stubBackend answers the notification list with an empty array and
// everything else, the broker included, with 404.
func stubBackend(t *testing.T) *client.APIClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/notifications/user/") {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("[]"))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	cfg := config.DefaultClient()
	cfg.ServerURL = srv.URL
	cfg.ReconnectDelay = 20 * time.Millisecond
	return client.NewAPIClient(cfg)
}

func TestStartPageGate(t *testing.T) {
	live, err := utils.GenerateJWTToken("secret", 1, "ada@uni.test", time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	user := appmodels.User{ID: 1, Name: "Ada"}

	tests := []struct {
		name      string
		session   *utils.Session
		clock     time.Duration
		wantLogin bool
		cleared   bool
	}{
		{"no stored session", nil, 0, true, false},
		{"live token", &utils.Session{Token: live, User: user}, 0, false, false},
		{"expired token", &utils.Session{Token: live, User: user}, 2 * time.Hour, true, true},
		{"corrupt token", &utils.Session{Token: "garbage", User: user}, 0, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := stubBackend(t)
			path := filepath.Join(t.TempDir(), "session.json")
			if tt.session != nil {
				if err := utils.SaveSession(path, *tt.session); err != nil {
					t.Fatalf("save: %v", err)
				}
			}
			app := NewAppModel(api, path)
			app.now = func() time.Time { return time.Now().Add(tt.clock) }

			next, cmd := app.Update(serverUpMsg{})
			got := next.(AppModel)
			defer got.signOutStreams()
			if cmd == nil {
				t.Error("start page returned no command")
			}

			switch page := got.page.(type) {
			case LoginModel:
				if !tt.wantLogin {
					t.Fatalf("got login screen, want dashboard")
				}
				if tt.cleared && !strings.Contains(page.statusMessage, "expired") {
					t.Errorf("login status = %q, want an expiry notice", page.statusMessage)
				}
			case DashboardModel:
				if tt.wantLogin {
					t.Fatalf("got dashboard for %s", tt.name)
				}
				if got.notifications == nil {
					t.Error("dashboard opened without the notification stream")
				}
				if api.CurrentUser().ID != user.ID {
					t.Errorf("client user = %+v", api.CurrentUser())
				}
			default:
				t.Fatalf("page = %T", got.page)
			}

			_, statErr := os.Stat(path)
			if tt.cleared && !errors.Is(statErr, os.ErrNotExist) {
				t.Errorf("stale session file kept: %v", statErr)
			}
		})
	}
}

func TestDockClosesChatStream(t *testing.T) {
	api := stubBackend(t)
	app := NewAppModel(api, filepath.Join(t.TempDir(), "session.json"))

	next, _ := app.Update(openDockMsg{groupID: 5, name: "Algebra"})
	app = next.(AppModel)
	next, _ = app.Update(openDockMsg{groupID: 5, name: "Algebra"})
	app = next.(AppModel)

	if app.dock.Len() != 1 || len(app.sessions) != 1 || len(app.dockChats) != 1 {
		t.Fatalf("reopening a docked group: dock=%d sessions=%d chats=%d", app.dock.Len(), len(app.sessions), len(app.dockChats))
	}
	if !app.dockFocused {
		t.Error("opened chat should take focus")
	}
	var stream *client.Stream
	for s := range app.sessions {
		stream = s
	}
	if want := "/topic/group/5"; stream.Destination() != want {
		t.Errorf("subscribed to %s, want %s", stream.Destination(), want)
	}

	next, _ = app.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	app = next.(AppModel)
	if app.dock.Len() != 0 || len(app.sessions) != 0 || len(app.dockChats) != 0 {
		t.Errorf("after close: dock=%d sessions=%d chats=%d", app.dock.Len(), len(app.sessions), len(app.dockChats))
	}
	if app.dockFocused {
		t.Error("empty dock still focused")
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-stream.Events():
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("chat stream still running after its dock entry closed")
		}
	}
}

func TestLogoutTearsDownSession(t *testing.T) {
	api := stubBackend(t)
	path := filepath.Join(t.TempDir(), "session.json")
	token, err := utils.GenerateJWTToken("secret", 1, "ada@uni.test", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := utils.SaveSession(path, utils.Session{Token: token, User: appmodels.User{ID: 1, Name: "Ada"}}); err != nil {
		t.Fatal(err)
	}
	app := NewAppModel(api, path)
	next, _ := app.Update(serverUpMsg{})
	next, _ = next.Update(openDockMsg{groupID: 2, name: "Physics"})

	next, _ = next.Update(sessionExpiredMsg{err: client.ErrSessionExpired})
	app = next.(AppModel)
	if _, ok := app.page.(LoginModel); !ok {
		t.Fatalf("page = %T, want login", app.page)
	}
	if app.dock.Len() != 0 || len(app.sessions) != 0 || app.notifications != nil {
		t.Error("streams survived the expired session")
	}
	if api.Session().Token != "" {
		t.Error("client still holds the token")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("session file kept: %v", err)
	}
}
