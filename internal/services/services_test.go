package services

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Wal-20/studysphere-cli/internal/config"
	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/repositories"
)

type published struct {
	destination string
	payload     any
}

type recorder struct {
	mu   sync.Mutex
	sent []published
}

func (r *recorder) Publish(destination string, payload any) error {
	r.mu.Lock()
	r.sent = append(r.sent, published{destination, payload})
	r.mu.Unlock()
	return nil
}

func (r *recorder) to(destination string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, p := range r.sent {
		if p.destination == destination {
			out = append(out, p.payload)
		}
	}
	return out
}

type testEnv struct {
	db  *gorm.DB
	svc *Services
	pub *recorder
	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := config.InitDB(":memory:", false)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := repositories.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := repositories.SeedCourses(db); err != nil {
		t.Fatalf("SeedCourses: %v", err)
	}
	env := &testEnv{db: db, pub: &recorder{}, now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	env.svc = New(NewRepos(db), Options{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		UploadDir: t.TempDir(),
		Publisher: env.pub,
		Now:       func() time.Time { return env.now },
	})
	return env
}

func (e *testEnv) register(t *testing.T, name string, courses ...string) models.User {
	t.Helper()
	u, err := e.svc.Auth.Register(models.RegisterRequest{
		Name:      name,
		Email:     strings.ToLower(name) + "@uni.test",
		Password:  "secret123",
		CourseIDs: courses,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", name, err)
	}
	return u
}

func (e *testEnv) group(t *testing.T, owner models.User, req models.CreateGroupRequest) models.Group {
	t.Helper()
	if req.AssociatedCourseID == "" {
		req.AssociatedCourseID = "CS101"
	}
	g, err := e.svc.Groups.Create(owner.ID, req)
	if err != nil {
		t.Fatalf("Create group: %v", err)
	}
	return g
}

func (e *testEnv) notifications(t *testing.T, userID int64) []models.Notification {
	t.Helper()
	list, err := e.svc.Notifications.List(userID, userID)
	if err != nil {
		t.Fatalf("List notifications: %v", err)
	}
	return list
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "Alice", "CS101")

	_, err := env.svc.Auth.Register(models.RegisterRequest{Name: "Alice 2", Email: "ALICE@uni.test", Password: "secret123"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate email: err = %v, want ErrConflict", err)
	}
	_, err = env.svc.Auth.Register(models.RegisterRequest{Name: "Bob", Email: "bob@uni.test", Password: "short"})
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("weak password: err = %v, want ErrInvalid", err)
	}
	_, err = env.svc.Auth.Register(models.RegisterRequest{Name: "Bob", Email: "bob@uni.test", Password: "secret123", CourseIDs: []string{"NOPE1"}})
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("unknown course: err = %v, want ErrInvalid", err)
	}

	if _, err := env.svc.Auth.Login("alice@uni.test", "wrong-pass1"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong password: err = %v, want ErrUnauthorized", err)
	}
	res, err := env.svc.Auth.Login("alice@uni.test", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != alice.ID || res.Token == "" {
		t.Fatalf("Login = %+v", res)
	}
	u, err := env.svc.Auth.Authenticate(res.Token)
	if err != nil || u.ID != alice.ID {
		t.Errorf("Authenticate = %+v, %v", u, err)
	}
	if _, err := env.svc.Auth.Authenticate(res.Token + "x"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("tampered token: err = %v", err)
	}
}

func TestJoinRules(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "Owner")

	public := env.group(t, owner, models.CreateGroupRequest{Name: "Open"})
	private := env.group(t, owner, models.CreateGroupRequest{Name: "Closed", Privacy: models.PrivacyPrivate})
	keyed := env.group(t, owner, models.CreateGroupRequest{Name: "Keyed", Privacy: models.PrivacyPrivate, Passkey: "k3y"})
	full := env.group(t, owner, models.CreateGroupRequest{Name: "Full", MemberLimit: 1})

	tests := []struct {
		name    string
		groupID int64
		passkey string
		status  string
		err     error
	}{
		{"public joins", public.GroupID, "", JoinStatusJoined, nil},
		{"private asks", private.GroupID, "", JoinStatusPending, nil},
		{"wrong passkey", keyed.GroupID, "nope", "", ErrForbidden},
		{"right passkey", keyed.GroupID, "k3y", JoinStatusJoined, nil},
		{"member limit", full.GroupID, "", "", ErrConflict},
	}
	for _, tt := range tests {
		user := env.register(t, "User"+strings.ReplaceAll(tt.name, " ", ""))
		res, err := env.svc.Groups.Join(user.ID, tt.groupID, tt.passkey)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("%s: err = %v, want %v", tt.name, err, tt.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if res.Status != tt.status {
			t.Errorf("%s: status = %q, want %q", tt.name, res.Status, tt.status)
		}
		role, _ := env.svc.Groups.Role(tt.groupID, user.ID)
		wantRole := models.RoleMember
		if tt.status == JoinStatusPending {
			wantRole = models.RoleNonMember
		}
		if role != wantRole {
			t.Errorf("%s: role = %q, want %q", tt.name, role, wantRole)
		}
	}

	invites := 0
	for _, n := range env.notifications(t, owner.ID) {
		if n.Type == models.NotificationInvites {
			invites++
		}
	}
	if invites != 1 {
		t.Errorf("owner got %d invite notifications, want 1", invites)
	}
}

func TestHandleRequest(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "Owner")
	bob := env.register(t, "Bob")
	g := env.group(t, owner, models.CreateGroupRequest{Name: "Closed", Privacy: models.PrivacyPrivate})

	if _, err := env.svc.Groups.Join(bob.ID, g.GroupID, ""); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := env.svc.Groups.Join(bob.ID, g.GroupID, ""); !errors.Is(err, ErrConflict) {
		t.Errorf("second request: err = %v, want ErrConflict", err)
	}
	if _, err := env.svc.Groups.Requests(bob.ID, g.GroupID); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-manager listing requests: err = %v", err)
	}

	res, err := env.svc.Groups.Requests(owner.ID, g.GroupID)
	if err != nil {
		t.Fatalf("Requests: %v", err)
	}
	if len(res.Requests) != 1 || res.Requests[0].User.ID != bob.ID {
		t.Fatalf("Requests = %+v", res.Requests)
	}
	reqID := res.Requests[0].ID

	if err := env.svc.Groups.HandleRequest(owner.ID, g.GroupID, reqID, "maybe"); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad action: err = %v", err)
	}
	if err := env.svc.Groups.HandleRequest(owner.ID, g.GroupID, reqID, "approved"); err != nil {
		t.Fatalf("HandleRequest: %v", err)
	}
	if err := env.svc.Groups.HandleRequest(owner.ID, g.GroupID, reqID, models.RequestDenied); !errors.Is(err, ErrConflict) {
		t.Errorf("handled twice: err = %v", err)
	}
	if role, _ := env.svc.Groups.Role(g.GroupID, bob.ID); role != models.RoleMember {
		t.Errorf("bob role = %q", role)
	}
	notes := env.notifications(t, bob.ID)
	if len(notes) != 1 || notes[0].Title != "Join request approved" {
		t.Errorf("bob notifications = %+v", notes)
	}
	if got := env.pub.to(NotificationQueue(bob.ID)); len(got) != 1 {
		t.Errorf("pushed %d notifications to bob, want 1", len(got))
	}
}

func TestLeaveTransfersOwnership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "Alice")
	bob := env.register(t, "Bob")
	carol := env.register(t, "Carol")
	g := env.group(t, alice, models.CreateGroupRequest{Name: "Study"})
	for _, u := range []models.User{bob, carol} {
		if _, err := env.svc.Groups.Join(u.ID, g.GroupID, ""); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}
	if err := env.svc.Groups.ChangeRole(alice.ID, g.GroupID, bob.ID, "ADMIN"); err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if err := env.svc.Groups.ChangeRole(bob.ID, g.GroupID, alice.ID, models.RoleMember); !errors.Is(err, ErrForbidden) {
		t.Errorf("demoting the owner: err = %v", err)
	}

	steps := []struct {
		leaver    models.User
		status    string
		nextOwner int64
	}{
		{alice, "LEFT", carol.ID},
		{carol, "LEFT", bob.ID},
		{bob, "DELETED", 0},
	}
	for _, st := range steps {
		res, err := env.svc.Groups.Leave(st.leaver.ID, g.GroupID)
		if err != nil {
			t.Fatalf("%s leaves: %v", st.leaver.Name, err)
		}
		if res.Status != st.status {
			t.Errorf("%s leaves: status = %q, want %q", st.leaver.Name, res.Status, st.status)
		}
		if st.nextOwner == 0 {
			continue
		}
		if role, _ := env.svc.Groups.Role(g.GroupID, st.nextOwner); role != models.RoleOwner {
			t.Errorf("after %s leaves: role of %d = %q, want owner", st.leaver.Name, st.nextOwner, role)
		}
	}
	if _, err := env.svc.Groups.Get(alice.ID, g.GroupID); !errors.Is(err, ErrNotFound) {
		t.Errorf("group after last member left: err = %v", err)
	}
}

func TestLeaveRollsBackFailedHandover(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "Alice")
	bob := env.register(t, "Bob")
	g := env.group(t, alice, models.CreateGroupRequest{Name: "Study"})
	if _, err := env.svc.Groups.Join(bob.ID, g.GroupID, ""); err != nil {
		t.Fatalf("Join: %v", err)
	}

	const failDelete = "test:fail_member_delete"
	err := env.db.Callback().Delete().Before("gorm:delete").Register(failDelete, func(tx *gorm.DB) {
		if tx.Statement.Table == "group_members" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	if _, err := env.svc.Groups.Leave(alice.ID, g.GroupID); err == nil {
		t.Fatal("Leave succeeded although the member row could not be removed")
	}
	for _, tt := range []struct {
		user models.User
		want string
	}{
		{alice, models.RoleOwner},
		{bob, models.RoleMember},
	} {
		if role, err := env.svc.Groups.Role(g.GroupID, tt.user.ID); err != nil || role != tt.want {
			t.Errorf("after failed leave: role of %s = %q, %v; want %q", tt.user.Name, role, err, tt.want)
		}
	}

	if err := env.db.Callback().Delete().Remove(failDelete); err != nil {
		t.Fatalf("remove callback: %v", err)
	}
	if _, err := env.svc.Groups.Leave(alice.ID, g.GroupID); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if role, _ := env.svc.Groups.Role(g.GroupID, bob.ID); role != models.RoleOwner {
		t.Errorf("bob after handover = %q, want owner", role)
	}
}

func TestSendAndReply(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "Alice")
	bob := env.register(t, "Bob")
	g := env.group(t, alice, models.CreateGroupRequest{Name: "Study"})

	if _, err := env.svc.Messages.Send(bob, g.GroupID, models.OutgoingMessage{Content: "hi"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-member send: err = %v", err)
	}
	if _, err := env.svc.Messages.Send(alice, g.GroupID, models.OutgoingMessage{Content: "   "}); !errors.Is(err, ErrInvalid) {
		t.Errorf("blank send: err = %v", err)
	}

	first, err := env.svc.Messages.Send(alice, g.GroupID, models.OutgoingMessage{Content: strings.Repeat("a", 250)})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	parent := first.MessageID
	reply, err := env.svc.Messages.Send(alice, g.GroupID, models.OutgoingMessage{Content: "re", ReplyToMessageID: &parent})
	if err != nil {
		t.Fatalf("Send reply: %v", err)
	}
	if reply.ReplyToSenderName != "Alice" || len([]rune(reply.ReplyToContent)) != replyPreviewRunes+3 {
		t.Errorf("reply preview = %q by %q", reply.ReplyToContent, reply.ReplyToSenderName)
	}
	if got := env.pub.to(GroupTopic(g.GroupID)); len(got) != 2 {
		t.Errorf("broadcast %d messages, want 2", len(got))
	}

	history, err := env.svc.Messages.History(alice.ID, g.GroupID)
	if err != nil || len(history) != 2 {
		t.Fatalf("History = %d, %v", len(history), err)
	}

	if _, err := env.svc.Messages.Pin(alice.ID, g.GroupID, parent); err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if _, err := env.svc.Messages.Pin(alice.ID, g.GroupID, parent); !errors.Is(err, ErrConflict) {
		t.Errorf("pin twice: err = %v", err)
	}
	if err := env.svc.Messages.Delete(alice.ID, g.GroupID, parent); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if pins, _ := env.svc.Messages.Pins(alice.ID, g.GroupID); len(pins) != 0 {
		t.Errorf("pins after delete = %+v", pins)
	}
}

func TestVoteMovesBetweenOptions(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "Alice")
	g := env.group(t, alice, models.CreateGroupRequest{Name: "Study"})

	if _, err := env.svc.Messages.CreatePoll(alice, g.GroupID, models.CreatePollRequest{Question: "When?", Options: []string{"Mon", " "}}); !errors.Is(err, ErrInvalid) {
		t.Errorf("one-option poll: err = %v", err)
	}
	poll, err := env.svc.Messages.CreatePoll(alice, g.GroupID, models.CreatePollRequest{Question: "When?", Options: []string{"Mon", "Tue"}})
	if err != nil {
		t.Fatalf("CreatePoll: %v", err)
	}
	if poll.PollID == nil || len(poll.PollOptions) != 2 {
		t.Fatalf("poll = %+v", poll)
	}
	mon, tue := poll.PollOptions[0].ID, poll.PollOptions[1].ID

	if o, err := env.svc.Messages.Vote(alice.ID, *poll.PollID, mon); err != nil || o.VoteCount != 1 {
		t.Fatalf("Vote mon = %+v, %v", o, err)
	}
	if _, err := env.svc.Messages.Vote(alice.ID, *poll.PollID, mon); !errors.Is(err, ErrConflict) {
		t.Errorf("same option twice: err = %v", err)
	}
	if o, err := env.svc.Messages.Vote(alice.ID, *poll.PollID, tue); err != nil || o.VoteCount != 1 {
		t.Fatalf("Vote tue = %+v, %v", o, err)
	}

	counts := map[int64]int64{}
	for _, p := range env.pub.to(GroupTopic(g.GroupID)) {
		if v, ok := p.(models.PollVote); ok {
			counts[v.OptionID] = v.VoteCount
		}
	}
	if counts[mon] != 0 || counts[tue] != 1 {
		t.Errorf("last broadcast counts = %v", counts)
	}
}

func TestNotificationOwnership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "Alice")
	bob := env.register(t, "Bob")
	env.svc.Notifications.Notify(Alert{Title: "a", Message: "for alice", Type: "whatever"}, alice.ID)
	env.svc.Notifications.Notify(Alert{Title: "b", Message: "for bob"}, bob.ID)

	mine := env.notifications(t, alice.ID)
	if len(mine) != 1 || mine[0].Type != models.NotificationUpdates {
		t.Fatalf("alice notifications = %+v", mine)
	}
	theirs := env.notifications(t, bob.ID)

	if _, err := env.svc.Notifications.List(alice.ID, bob.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("listing another user's: err = %v", err)
	}
	if err := env.svc.Notifications.MarkRead(alice.ID, theirs[0].ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("marking another user's: err = %v", err)
	}
	if err := env.svc.Notifications.DeleteSelected(alice.ID, []int64{mine[0].ID, theirs[0].ID}); !errors.Is(err, ErrForbidden) {
		t.Errorf("deleting another user's: err = %v", err)
	}
	if err := env.svc.Notifications.MarkAllRead(alice.ID, alice.ID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}

	env.now = env.now.Add(ReadNotificationRetention + time.Hour)
	n, err := env.svc.Notifications.PurgeRead()
	if err != nil || n != 1 {
		t.Errorf("PurgeRead = %d, %v; want 1", n, err)
	}
	if left := env.notifications(t, bob.ID); len(left) != 1 {
		t.Errorf("unread notification purged: %+v", left)
	}
}

func TestSessionsAndReminders(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "Alice")
	bob := env.register(t, "Bob")
	g := env.group(t, alice, models.CreateGroupRequest{Name: "Study"})
	if _, err := env.svc.Groups.Join(bob.ID, g.GroupID, ""); err != nil {
		t.Fatalf("Join: %v", err)
	}

	start := env.now.Add(10 * time.Minute)
	req := models.SessionRequest{
		Topic:       "Exam prep",
		Description: "chapter 4",
		SessionType: models.SessionOffline,
		StartTime:   models.NewLocalTime(start),
		EndTime:     models.NewLocalTime(start.Add(time.Hour)),
		MeetingLink: "https://meet.test/x",
		Location:    "Library",
		GroupID:     g.GroupID,
	}
	bad := req
	bad.EndTime = bad.StartTime
	if _, err := env.svc.Calendar.Create(alice, bad); !errors.Is(err, ErrInvalid) {
		t.Errorf("end before start: err = %v", err)
	}
	ev, err := env.svc.Calendar.Create(alice, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ev.MeetingLink != "" || ev.Location != "Library" || ev.GroupName != "Study" || ev.OrganizerName != "Alice" {
		t.Errorf("event = %+v", ev)
	}
	if _, err := env.svc.Calendar.Update(bob.ID, ev.ID, req); !errors.Is(err, ErrForbidden) {
		t.Errorf("member editing another's session: err = %v", err)
	}

	for _, want := range []int{1, 0} {
		n, err := env.svc.Calendar.SendReminders(15 * time.Minute)
		if err != nil || n != want {
			t.Errorf("SendReminders = %d, %v; want %d", n, err, want)
		}
	}
	reminders := 0
	for _, n := range env.notifications(t, bob.ID) {
		if n.Type == models.NotificationReminders {
			reminders++
		}
	}
	if reminders != 1 {
		t.Errorf("bob got %d reminders, want 1", reminders)
	}

	upcoming, err := env.svc.Calendar.Upcoming(bob.ID)
	if err != nil || len(upcoming) != 1 {
		t.Errorf("Upcoming = %d, %v", len(upcoming), err)
	}
	env.now = start.Add(2 * time.Hour)
	if upcoming, _ := env.svc.Calendar.Upcoming(bob.ID); len(upcoming) != 0 {
		t.Errorf("ended session still upcoming: %+v", upcoming)
	}
}

func TestDashboardSuggestsPeers(t *testing.T) {
	env := newTestEnv(t)
	me := env.register(t, "Me", "CS101", "MATH150")
	two := env.register(t, "Two", "CS101", "MATH150")
	one := env.register(t, "One", "CS101")
	env.register(t, "None", "PHYS120")

	d, err := env.svc.Courses.Dashboard(me.ID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.EnrolledCoursesCount != 2 || len(d.AllPeers) != 3 {
		t.Errorf("dashboard counts: enrolled %d, peers %d", d.EnrolledCoursesCount, len(d.AllPeers))
	}
	if len(d.SuggestedPeers) != 2 || d.SuggestedPeers[0].User.ID != two.ID || d.SuggestedPeers[1].User.ID != one.ID {
		t.Fatalf("suggested = %+v", d.SuggestedPeers)
	}
	if d.SuggestedPeers[0].CommonCoursesCount != 2 {
		t.Errorf("common courses = %v", d.SuggestedPeers[0].CommonCourses)
	}
}
