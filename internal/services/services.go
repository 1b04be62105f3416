// Package services holds the sandbox backend's business rules. Handlers
// translate the sentinel kinds below into HTTP statuses.
package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Wal-20/studysphere-cli/internal/repositories"
	"github.com/Wal-20/studysphere-cli/internal/utils"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid request")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a user-facing message tagged with one of the kinds above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// lookup turns a missing row into ErrNotFound named after what.
func lookup(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(ErrNotFound, "%s not found", what)
	}
	return err
}

// Publisher delivers a payload to every subscriber of a destination.
type Publisher interface {
	Publish(destination string, payload any) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) error { return nil }

func GroupTopic(groupID int64) string {
	return fmt.Sprintf("/topic/group/%d", groupID)
}

func NotificationQueue(userID int64) string {
	return fmt.Sprintf("/queue/notifications/%d", userID)
}

// Repos bundles the gorm repositories one server shares.
type Repos struct {
	Users         repositories.UserRepository
	Courses       repositories.CourseRepository
	Groups        repositories.GroupRepository
	Messages      repositories.MessageRepository
	Notifications repositories.NotificationRepository
	Events        repositories.EventRepository
}

func NewRepos(db *gorm.DB) Repos {
	return Repos{
		Users:         repositories.NewUserRepository(db),
		Courses:       repositories.NewCourseRepository(db),
		Groups:        repositories.NewGroupRepository(db),
		Messages:      repositories.NewMessageRepository(db),
		Notifications: repositories.NewNotificationRepository(db),
		Events:        repositories.NewEventRepository(db),
	}
}

// Services wires every service over one set of repositories.
type Services struct {
	Auth          *AuthService
	Courses       *CourseService
	Groups        *GroupService
	Messages      *MessageService
	Notifications *NotificationService
	Calendar      *CalendarService
}

type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	UploadDir string
	Caches    *utils.Caches
	Publisher Publisher
	Now       func() time.Time
}

func New(repos Repos, opts Options) *Services {
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.Caches == nil {
		opts.Caches = utils.NewCaches()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	clock := func() time.Time { return opts.Now().UTC() }

	notifications := &NotificationService{repo: repos.Notifications, pub: opts.Publisher, now: clock}
	groups := &GroupService{repos: repos, notify: notifications, caches: opts.Caches, now: clock}
	return &Services{
		Auth: &AuthService{
			users:   repos.Users,
			courses: repos.Courses,
			secret:  opts.JWTSecret,
			ttl:     opts.TokenTTL,
			now:     clock,
		},
		Courses:       &CourseService{repos: repos, groups: groups},
		Groups:        groups,
		Messages:      &MessageService{repos: repos, groups: groups, pub: opts.Publisher, uploadDir: opts.UploadDir, now: clock},
		Notifications: notifications,
		Calendar:      &CalendarService{repos: repos, groups: groups, notify: notifications, now: clock},
	}
}
