package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"

	"github.com/Wal-20/studysphere-cli/internal/config"
	"github.com/Wal-20/studysphere-cli/internal/stomp"
)

// flakyBroker accepts CONNECT and SUBSCRIBE, then drops every session.
func flakyBroker(t *testing.T) (string, *atomic.Int32) {
	t.Helper()
	var dials atomic.Int32
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		dials.Add(1)
		conn := stomp.Wrap(ws)
		defer conn.Drop()
		if f, err := conn.ReadFrame(); err != nil || f.Command != frame.CONNECT {
			return
		}
		if err := conn.WriteFrame(stomp.NewConnected("s")); err != nil {
			return
		}
		_, _ = conn.ReadFrame()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/websocket", &dials
}

func TestGroupStreamReconnectsUntilClosed(t *testing.T) {
	wsURL, dials := flakyBroker(t)
	cfg := config.DefaultClient()
	cfg.ServerURL = "http://unused.test"
	cfg.WSURL = wsURL
	cfg.ReconnectDelay = 100 * time.Millisecond
	c := NewAPIClient(cfg)

	s := c.SubscribeGroup(7)
	var kinds []StreamEventKind
	var lastDrop time.Time
	timeout := time.After(5 * time.Second)
	for len(kinds) < 6 {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				t.Fatal("stream closed while reconnecting")
			}
			if ev.Kind == StreamConnected && !lastDrop.IsZero() {
				if gap := time.Since(lastDrop); gap < cfg.ReconnectDelay {
					t.Errorf("reconnected after %v, want at least %v", gap, cfg.ReconnectDelay)
				}
			}
			if ev.Kind == StreamDisconnected {
				lastDrop = time.Now()
			}
			kinds = append(kinds, ev.Kind)
		case <-timeout:
			t.Fatalf("timed out, events so far %v", kinds)
		}
	}
	for i, k := range kinds {
		want := StreamConnected
		if i%2 == 1 {
			want = StreamDisconnected
		}
		if k != want {
			t.Fatalf("events = %v, want connect/disconnect pairs", kinds)
		}
	}

	s.Close()
	for range s.Events() {
	}
	before := dials.Load()
	time.Sleep(3 * cfg.ReconnectDelay)
	if after := dials.Load(); after != before {
		t.Errorf("dialed %d more times after Close", after-before)
	}
}

func TestNotificationStreamDoesNotReconnect(t *testing.T) {
	wsURL, dials := flakyBroker(t)
	cfg := config.DefaultClient()
	cfg.ServerURL = "http://unused.test"
	cfg.WSURL = wsURL
	cfg.ReconnectDelay = 50 * time.Millisecond
	c := NewAPIClient(cfg)

	s := c.SubscribeNotifications(1)
	defer s.Close()
	var kinds []StreamEventKind
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				done = true
				break
			}
			kinds = append(kinds, ev.Kind)
		case <-timeout:
			t.Fatalf("stream still open, events %v", kinds)
		}
	}
	if len(kinds) != 2 || kinds[0] != StreamConnected || kinds[1] != StreamDisconnected {
		t.Errorf("events = %v", kinds)
	}
	time.Sleep(3 * cfg.ReconnectDelay)
	if n := dials.Load(); n != 1 {
		t.Errorf("dials = %d, want 1", n)
	}
}
