package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-stomp/stomp/v3/frame"

	"github.com/Wal-20/studysphere-cli/internal/config"
	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/repositories"
	"github.com/Wal-20/studysphere-cli/internal/stomp"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	db, err := config.InitDB(":memory:", false)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if err := repositories.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := repositories.SeedCourses(db); err != nil {
		t.Fatalf("SeedCourses: %v", err)
	}
	cfg := config.DefaultServer()
	cfg.Mode = "test"
	cfg.UploadDir = t.TempDir()
	cfg.AllowedOrigins = []string{"http://app.test"}
	srv := NewServer(cfg, db, nil)
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func login(t *testing.T, ts *httptest.Server, name string) (string, int64) {
	t.Helper()
	email := strings.ToLower(name) + "@uni.test"
	status, _ := call(t, ts, http.MethodPost, "/api/users/register", "", models.RegisterRequest{Name: name, Email: email, Password: "secret123"})
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d", name, status)
	}
	status, body := call(t, ts, http.MethodPost, "/api/users/login", "", models.LoginRequest{Email: email, Password: "secret123"})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d", name, status)
	}
	user := body["user"].(map[string]any)
	return body["token"].(string), int64(user["id"].(float64))
}

func TestErrorStatuses(t *testing.T) {
	_, ts := newTestServer(t)
	token, userID := login(t, ts, "Alice")
	_, bobID := login(t, ts, "Bob")

	status, body := call(t, ts, http.MethodPost, "/api/groups", token, models.CreateGroupRequest{Name: "G", AssociatedCourseID: "CS101"})
	if status != http.StatusCreated {
		t.Fatalf("create group: %d %v", status, body)
	}

	tests := []struct {
		name, method, path, token string
		body                      any
		status                    int
		message                   string
	}{
		{"no token", http.MethodGet, "/api/dashboard", "", nil, http.StatusUnauthorized, "Missing authorization header"},
		{"bad token", http.MethodGet, "/api/dashboard", "garbage", nil, http.StatusUnauthorized, "invalid or expired token"},
		{"bad id", http.MethodGet, "/api/groups/abc", token, nil, http.StatusBadRequest, "Invalid id"},
		{"missing group", http.MethodGet, "/api/groups/999", token, nil, http.StatusNotFound, "group not found"},
		{"unknown course", http.MethodPost, "/api/groups", token, models.CreateGroupRequest{Name: "X", AssociatedCourseID: "NOPE"}, http.StatusBadRequest, `unknown course "NOPE"`},
		{"already member", http.MethodPost, "/api/groups/1/join", token, nil, http.StatusConflict, "you are already a member of this group"},
		{"other inbox", http.MethodGet, "/api/notifications/user/" + itoa(bobID), token, nil, http.StatusForbidden, "cannot read notifications of another user"},
		{"own inbox", http.MethodGet, "/api/notifications/user/" + itoa(userID), token, nil, http.StatusOK, ""},
		{"static beside param", http.MethodGet, "/api/groups/course/CS101", token, nil, http.StatusOK, ""},
	}
	for _, tt := range tests {
		status, body := call(t, ts, tt.method, tt.path, tt.token, tt.body)
		if status != tt.status {
			t.Errorf("%s: status = %d, want %d (%v)", tt.name, status, tt.status, body)
		}
		if tt.message != "" && body["message"] != tt.message {
			t.Errorf("%s: message = %v, want %q", tt.name, body["message"], tt.message)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t)
	for _, tt := range []struct {
		origin string
		allow  string
	}{
		{"http://app.test", "http://app.test"},
		{"http://evil.test", ""},
	} {
		req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/courses", nil)
		req.Header.Set("Origin", tt.origin)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("%s: status = %d", tt.origin, resp.StatusCode)
		}
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.allow {
			t.Errorf("%s: allow origin = %q, want %q", tt.origin, got, tt.allow)
		}
	}
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/websocket"
}

func readFrame(t *testing.T, conn *stomp.Conn) (*frame.Frame, error) {
	t.Helper()
	type result struct {
		f   *frame.Frame
		err error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := conn.ReadFrame()
		ch <- result{f, err}
	}()
	select {
	case r := <-ch:
		return r.f, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return nil, nil
	}
}

func TestNotificationPush(t *testing.T) {
	_, ts := newTestServer(t)
	aliceToken, aliceID := login(t, ts, "Alice")
	bobToken, _ := login(t, ts, "Bob")

	status, body := call(t, ts, http.MethodPost, "/api/groups", aliceToken,
		models.CreateGroupRequest{Name: "Closed", AssociatedCourseID: "CS101", Privacy: models.PrivacyPrivate})
	if status != http.StatusCreated {
		t.Fatalf("create group: %d %v", status, body)
	}
	groupID := int64(body["groupId"].(float64))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := stomp.Dial(ctx, wsURL(ts), aliceToken)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	sub := stomp.NewSubscribe("n1", "/queue/notifications/"+itoa(aliceID))
	sub.Header.Set(stomp.HeaderReceipt, "ready")
	if err := conn.WriteFrame(sub); err != nil {
		t.Fatal(err)
	}
	if f, err := readFrame(t, conn); err != nil || f.Command != frame.RECEIPT {
		t.Fatalf("receipt: %v %v", f, err)
	}

	if status, body := call(t, ts, http.MethodPost, "/api/groups/"+itoa(groupID)+"/join", bobToken, nil); status != http.StatusOK || body["status"] != "PENDING" {
		t.Fatalf("join: %d %v", status, body)
	}
	f, err := readFrame(t, conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var n models.Notification
	if err := json.Unmarshal(f.Body, &n); err != nil {
		t.Fatalf("decode notification: %v", err)
	}
	if n.UserID != aliceID || n.Type != models.NotificationInvites || !strings.Contains(n.Message, "Bob") {
		t.Errorf("pushed = %+v", n)
	}
}

func TestSubscriptionGuard(t *testing.T) {
	_, ts := newTestServer(t)
	aliceToken, aliceID := login(t, ts, "Alice")
	bobToken, _ := login(t, ts, "Bob")
	status, body := call(t, ts, http.MethodPost, "/api/groups", aliceToken, models.CreateGroupRequest{Name: "G", AssociatedCourseID: "CS101"})
	if status != http.StatusCreated {
		t.Fatalf("create group: %d", status)
	}
	groupID := int64(body["groupId"].(float64))

	for _, dest := range []string{
		"/queue/notifications/" + itoa(aliceID),
		"/topic/group/" + itoa(groupID),
		"/topic/anything",
	} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		conn, err := stomp.Dial(ctx, wsURL(ts), bobToken)
		cancel()
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
		if err := conn.WriteFrame(stomp.NewSubscribe("s", dest)); err != nil {
			t.Fatal(err)
		}
		if _, err := readFrame(t, conn); !errors.Is(err, stomp.ErrBrokerError) {
			t.Errorf("bob subscribing to %s: err = %v, want refusal", dest, err)
		}
		conn.Close()
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
