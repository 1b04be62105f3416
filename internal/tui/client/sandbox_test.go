package client

import (
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Wal-20/studysphere-cli/internal/api"
	"github.com/Wal-20/studysphere-cli/internal/config"
	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/repositories"
)

// newSandbox starts the sandbox backend over a fresh in-memory database.
func newSandbox(t *testing.T) string {
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
	cfg.UploadDir = t.TempDir()
	cfg.Mode = "test"
	srv := api.NewServer(cfg, db, nil)
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return ts.URL
}

func newTestClient(serverURL string) *APIClient {
	cfg := config.DefaultClient()
	cfg.ServerURL = serverURL
	cfg.ReconnectDelay = 50 * time.Millisecond
	return NewAPIClient(cfg)
}

// signUp registers and logs in a fresh user on its own client.
func signUp(t *testing.T, serverURL, name string, courses ...string) *APIClient {
	t.Helper()
	c := newTestClient(serverURL)
	email := strings.ToLower(name) + "@uni.test"
	if err := c.Register(models.RegisterRequest{Name: name, Email: email, Password: "secret123", CourseIDs: courses}); err != nil {
		t.Fatalf("Register(%s): %v", name, err)
	}
	if _, err := c.Login(email, "secret123"); err != nil {
		t.Fatalf("Login(%s): %v", name, err)
	}
	return c
}

func createGroup(t *testing.T, c *APIClient, req models.CreateGroupRequest) models.Group {
	t.Helper()
	if req.Description == "" {
		req.Description = "weekly"
	}
	if req.AssociatedCourseID == "" {
		req.AssociatedCourseID = "CS101"
	}
	g, err := c.CreateGroup(req)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	return g
}

// nextEvent waits for the next stream event of the wanted kind.
func nextEvent(t *testing.T, s *Stream, kind StreamEventKind) StreamEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				t.Fatal("stream closed")
			}
			if ev.Kind == kind {
				return ev
			}
			if ev.Kind == StreamDisconnected {
				t.Fatalf("stream disconnected: %v", ev.Err)
			}
		case <-timeout:
			t.Fatalf("timed out waiting for stream event %d", kind)
		}
	}
}

func TestAuthAgainstSandbox(t *testing.T) {
	url := newSandbox(t)
	c := newTestClient(url)

	if err := c.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if _, err := c.Profile(); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Profile without session: err = %v", err)
	}
	if err := c.Register(models.RegisterRequest{Name: "Al", Email: "al@uni.test", Password: "letters"}); err == nil {
		t.Error("weak password reached the server")
	}
	if err := c.Register(models.RegisterRequest{Name: "Al", Email: "al@uni.test", Password: "secret123", CourseIDs: []string{"CS101", "MATH150"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := c.Register(models.RegisterRequest{Name: "Al", Email: "al@uni.test", Password: "secret123"})
	if ErrorText(err) != "email is already registered" {
		t.Errorf("duplicate register: %q", ErrorText(err))
	}

	_, err = c.Login("al@uni.test", "wrongpass1")
	if !errors.Is(err, ErrUnauthorized) || ErrorText(err) != "invalid email or password" {
		t.Errorf("bad login: %v", err)
	}
	s, err := c.Login("AL@uni.test", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.User.Name != "Al" {
		t.Errorf("session user = %+v", s.User)
	}

	profile, err := c.Profile()
	if err != nil || profile.ID != s.User.ID {
		t.Errorf("Profile = %+v, %v", profile, err)
	}
	all, err := c.Courses()
	if err != nil || len(all) != len(repositories.DefaultCourses) {
		t.Errorf("Courses = %d, %v", len(all), err)
	}
	mine, err := c.MyCourses()
	if err != nil || len(mine) != 2 {
		t.Errorf("MyCourses = %+v, %v", mine, err)
	}
}

func TestGroupMembershipAgainstSandbox(t *testing.T) {
	url := newSandbox(t)
	alice := signUp(t, url, "Alice", "CS101")
	bob := signUp(t, url, "Bob", "CS101")

	g := createGroup(t, alice, models.CreateGroupRequest{Name: "Algorithms", Privacy: models.PrivacyPrivate})
	if g.UserRole != models.RoleOwner || g.MemberCount != 1 {
		t.Errorf("created group = %+v", g)
	}

	res, err := bob.JoinGroup(g.GroupID, "")
	if err != nil || res.Status != "PENDING" {
		t.Fatalf("JoinGroup = %+v, %v", res, err)
	}
	manage, err := alice.LoadManagement(g.GroupID)
	if err != nil || len(manage.Requests) != 1 {
		t.Fatalf("LoadManagement = %+v, %v", manage, err)
	}
	if err := alice.HandleJoinRequest(g.GroupID, manage.Requests[0].ID, models.RequestApproved); err != nil {
		t.Fatalf("HandleJoinRequest: %v", err)
	}

	detail, err := bob.LoadGroup(g.GroupID)
	if err != nil {
		t.Fatalf("LoadGroup: %v", err)
	}
	if detail.Group.UserRole != models.RoleMember || len(detail.Members) != 2 {
		t.Errorf("bob sees %+v with %d members", detail.Group, len(detail.Members))
	}
	if _, err := bob.UpdateGroup(g.GroupID, models.UpdateGroupRequest{Name: "Mine", Description: "now"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("member update: err = %v", err)
	}
	if err := alice.ChangeMemberRole(g.GroupID, bob.CurrentUser().ID, models.RoleAdmin); err != nil {
		t.Fatalf("ChangeMemberRole: %v", err)
	}
	if _, err := bob.UpdateGroup(g.GroupID, models.UpdateGroupRequest{Name: "Algorithms II", Description: "now"}); err != nil {
		t.Errorf("admin update: %v", err)
	}

	groups, err := bob.GroupsForCourse("CS101")
	if err != nil || len(groups) != 1 || groups[0].Name != "Algorithms II" {
		t.Errorf("GroupsForCourse = %+v, %v", groups, err)
	}
	dash, err := bob.LoadDashboard()
	if err != nil || dash.DashboardErr != nil {
		t.Fatalf("LoadDashboard: %v %v", err, dash.DashboardErr)
	}
	if len(dash.Dashboard.JoinedGroups) != 1 || len(dash.Dashboard.SuggestedPeers) != 1 {
		t.Errorf("dashboard = %+v", dash.Dashboard)
	}

	if err := alice.LeaveGroup(g.GroupID); err != nil {
		t.Fatalf("LeaveGroup: %v", err)
	}
	after, err := bob.Group(g.GroupID)
	if err != nil || after.UserRole != models.RoleOwner {
		t.Errorf("bob after owner left = %+v, %v", after, err)
	}
}

func TestChatAgainstSandbox(t *testing.T) {
	url := newSandbox(t)
	alice := signUp(t, url, "Alice")
	bob := signUp(t, url, "Bob")
	g := createGroup(t, alice, models.CreateGroupRequest{Name: "Chat"})
	if _, err := bob.JoinGroup(g.GroupID, ""); err != nil {
		t.Fatalf("JoinGroup: %v", err)
	}

	stream := alice.SubscribeGroup(g.GroupID)
	defer stream.Close()
	nextEvent(t, stream, StreamConnected)

	if err := stream.SendMessage(models.OutgoingMessage{GroupID: g.GroupID, Content: "hello group"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	ev := nextEvent(t, stream, StreamFrame)
	first, err := models.NormalizeMessage(ev.Body, time.Now())
	if err != nil {
		t.Fatalf("NormalizeMessage: %v", err)
	}
	if first.Content != "hello group" || first.SenderName != "Alice" || !first.Persisted() {
		t.Errorf("echo = %+v", first)
	}

	history, err := bob.History(g.GroupID)
	if err != nil || len(history) != 1 || history[0].ID != first.ID {
		t.Fatalf("History = %+v, %v", history, err)
	}
	if err := bob.PinMessage(g.GroupID, first.ID); err != nil {
		t.Fatalf("PinMessage: %v", err)
	}
	pins, err := alice.Pins(g.GroupID)
	if err != nil || len(pins) != 1 || strconv.FormatInt(pins[0].MessageID, 10) != first.ID {
		t.Errorf("Pins = %+v, %v", pins, err)
	}
	if err := bob.DeleteMessage(g.GroupID, first.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("deleting another member's message: err = %v", err)
	}

	if err := bob.CreatePoll(g.GroupID, "Next topic?", []string{"Graphs", "Trees", " "}); err != nil {
		t.Fatalf("CreatePoll: %v", err)
	}
	poll, err := models.NormalizeMessage(nextEvent(t, stream, StreamFrame).Body, time.Now())
	if err != nil || !poll.IsPoll() || len(poll.PollOptions) != 2 {
		t.Fatalf("poll frame = %+v, %v", poll, err)
	}
	if err := alice.Vote(poll.PollID, poll.PollOptions[1].ID); err != nil {
		t.Fatalf("Vote: %v", err)
	}
	vote, err := models.NormalizeMessage(nextEvent(t, stream, StreamFrame).Body, time.Now())
	if err != nil || vote.MessageType != models.MessageTypePollVote {
		t.Errorf("vote frame = %+v, %v", vote, err)
	}

	if err := alice.DeleteMessage(g.GroupID, first.ID); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if pins, _ := alice.Pins(g.GroupID); len(pins) != 0 {
		t.Errorf("pin survived its message: %+v", pins)
	}

	outsider := signUp(t, url, "Eve")
	if _, err := outsider.History(g.GroupID); !errors.Is(err, ErrForbidden) {
		t.Errorf("outsider history: err = %v", err)
	}
}

func TestNotificationsAgainstSandbox(t *testing.T) {
	url := newSandbox(t)
	alice := signUp(t, url, "Alice")
	bob := signUp(t, url, "Bob")
	carol := signUp(t, url, "Carol")
	g := createGroup(t, alice, models.CreateGroupRequest{Name: "Closed", Privacy: models.PrivacyPrivate})
	for _, c := range []*APIClient{bob, carol} {
		if _, err := c.JoinGroup(g.GroupID, ""); err != nil {
			t.Fatalf("JoinGroup: %v", err)
		}
	}

	aliceID := alice.CurrentUser().ID
	list, err := alice.Notifications(aliceID)
	if err != nil || len(list) != 2 {
		t.Fatalf("Notifications = %+v, %v", list, err)
	}
	for _, n := range list {
		if n.Type != models.NotificationInvites || n.IsRead {
			t.Errorf("notification = %+v", n)
		}
	}
	if _, err := bob.Notifications(aliceID); !errors.Is(err, ErrForbidden) {
		t.Errorf("reading another user's inbox: err = %v", err)
	}
	if err := bob.DeleteNotifications([]int64{list[0].ID}); !errors.Is(err, ErrForbidden) {
		t.Errorf("deleting another user's notification: err = %v", err)
	}

	if err := alice.MarkNotificationRead(list[0].ID); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if err := alice.DeleteReadNotifications(aliceID); err != nil {
		t.Fatalf("DeleteReadNotifications: %v", err)
	}
	list, _ = alice.Notifications(aliceID)
	if len(list) != 1 {
		t.Fatalf("after deleting read: %+v", list)
	}
	if err := alice.MarkAllNotificationsRead(aliceID); err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	if err := alice.DeleteNotifications([]int64{list[0].ID}); err != nil {
		t.Fatalf("DeleteNotifications: %v", err)
	}
	if list, _ := alice.Notifications(aliceID); len(list) != 0 {
		t.Errorf("inbox not empty: %+v", list)
	}
}

func TestDocumentsAgainstSandbox(t *testing.T) {
	url := newSandbox(t)
	alice := signUp(t, url, "Alice")
	g := createGroup(t, alice, models.CreateGroupRequest{Name: "Files"})

	src := filepath.Join(t.TempDir(), "notes week 1.txt")
	if err := os.WriteFile(src, []byte("graphs are trees with cycles"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := alice.UploadDocument(g.GroupID, src); err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	docs, err := alice.GroupDocuments(g.GroupID)
	if err != nil || len(docs) != 1 {
		t.Fatalf("GroupDocuments = %+v, %v", docs, err)
	}
	if docs[0].OriginalFilename != "notes week 1.txt" || docs[0].FileType != "txt" {
		t.Errorf("document = %+v", docs[0])
	}

	dir := t.TempDir()
	path, err := alice.DownloadDocument(strconv.FormatInt(docs[0].MessageID, 10), dir, "fallback.bin")
	if err != nil {
		t.Fatalf("DownloadDocument: %v", err)
	}
	if filepath.Base(path) != "notes week 1.txt" {
		t.Errorf("saved as %s", path)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "graphs are trees with cycles" {
		t.Errorf("downloaded %q", got)
	}

	history, _ := alice.History(g.GroupID)
	if len(history) != 1 || !history[0].IsDocument() {
		t.Errorf("history = %+v", history)
	}
}

func TestCalendarAgainstSandbox(t *testing.T) {
	url := newSandbox(t)
	alice := signUp(t, url, "Alice")
	bob := signUp(t, url, "Bob")
	g := createGroup(t, alice, models.CreateGroupRequest{Name: "Sessions"})
	if _, err := bob.JoinGroup(g.GroupID, ""); err != nil {
		t.Fatalf("JoinGroup: %v", err)
	}

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	req := models.SessionRequest{
		Topic:       "Midterm review",
		Description: "past papers",
		SessionType: models.SessionOnline,
		StartTime:   models.NewLocalTime(start),
		EndTime:     models.NewLocalTime(start.Add(90 * time.Minute)),
		MeetingLink: "https://meet.test/review",
		Location:    "ignored",
		GroupID:     g.GroupID,
	}
	ev, err := alice.CreateEvent(req)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if !ev.StartTime.Equal(start) || ev.Location != "" || ev.GroupName != "Sessions" {
		t.Errorf("created = %+v", ev)
	}

	for name, load := range map[string]func() ([]models.CalendarEvent, error){
		"all":      bob.AllEvents,
		"upcoming": bob.UpcomingEvents,
		"group":    func() ([]models.CalendarEvent, error) { return bob.GroupEvents(g.GroupID) },
	} {
		list, err := load()
		if err != nil || len(list) != 1 || list[0].ID != ev.ID {
			t.Errorf("%s events = %+v, %v", name, list, err)
		}
	}

	if _, err := bob.UpdateEvent(ev.ID, req); !errors.Is(err, ErrForbidden) {
		t.Errorf("member updating: err = %v", err)
	}
	req.Topic = "Final review"
	updated, err := alice.UpdateEvent(ev.ID, req)
	if err != nil || updated.Topic != "Final review" {
		t.Errorf("UpdateEvent = %+v, %v", updated, err)
	}
	if err := alice.DeleteEvent(ev.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if list, _ := bob.AllEvents(); len(list) != 0 {
		t.Errorf("events after delete = %+v", list)
	}

	canceled := 0
	notes, _ := bob.Notifications(bob.CurrentUser().ID)
	for _, n := range notes {
		if n.Title == "Session canceled" {
			canceled++
		}
	}
	if canceled != 1 {
		t.Errorf("bob got %d cancel notices", canceled)
	}
}

func TestDashboardIsNotCached(t *testing.T) {
	url := newSandbox(t)
	ada := signUp(t, url, "Ada", "CS101")

	before, err := ada.Dashboard()
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	createGroup(t, ada, models.CreateGroupRequest{Name: "Fresh"})
	after, err := ada.Dashboard()
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(after.JoinedGroups) != len(before.JoinedGroups)+1 {
		t.Errorf("joined groups %d -> %d, want the new group to show at once", len(before.JoinedGroups), len(after.JoinedGroups))
	}
}
