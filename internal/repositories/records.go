package repositories

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRecord struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	Email     string `gorm:"size:190;uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	AboutMe   string `gorm:"size:500"`
	CreatedAt time.Time
	LastLogin *time.Time
}

func (UserRecord) TableName() string { return "users" }

type CourseRecord struct {
	CourseID    string `gorm:"primaryKey;size:32"`
	CourseName  string `gorm:"size:150;not null"`
	Description string `gorm:"size:500"`
}

func (CourseRecord) TableName() string { return "courses" }

type EnrollmentRecord struct {
	UserID   int64  `gorm:"primaryKey"`
	CourseID string `gorm:"primaryKey;size:32"`
}

func (EnrollmentRecord) TableName() string { return "enrollments" }

type GroupRecord struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"size:500"`
	CourseID    string `gorm:"size:32;index"`
	CreatedByID int64  `gorm:"index"`
	Privacy     string `gorm:"size:16;not null;default:PUBLIC"`
	Passkey     string `gorm:"size:100"`
	MemberLimit int
	CreatedAt   time.Time
}

func (GroupRecord) TableName() string { return "study_groups" }

type MemberRecord struct {
	GroupID  int64  `gorm:"primaryKey"`
	UserID   int64  `gorm:"primaryKey"`
	Role     string `gorm:"size:16;not null"`
	JoinedAt time.Time
}

func (MemberRecord) TableName() string { return "group_members" }

type JoinRequestRecord struct {
	ID        int64  `gorm:"primaryKey"`
	GroupID   int64  `gorm:"index"`
	UserID    int64  `gorm:"index"`
	Status    string `gorm:"size:16;not null"`
	CreatedAt time.Time
}

func (JoinRequestRecord) TableName() string { return "join_requests" }

type MessageRecord struct {
	ID                int64  `gorm:"primaryKey"`
	GroupID           int64  `gorm:"index"`
	SenderID          int64  `gorm:"index"`
	SenderName        string `gorm:"size:100"`
	Content           string `gorm:"type:text"`
	MessageType       string `gorm:"size:16;not null"`
	ReplyToMessageID  *int64
	ReplyToSenderName string `gorm:"size:100"`
	ReplyToContent    string `gorm:"type:text"`
	PollID            *int64
	CreatedAt         time.Time
}

func (MessageRecord) TableName() string { return "messages" }

type PinRecord struct {
	ID        int64 `gorm:"primaryKey"`
	GroupID   int64 `gorm:"uniqueIndex:idx_pin_group_message"`
	MessageID int64 `gorm:"uniqueIndex:idx_pin_group_message"`
	PinnedBy  int64
	PinnedAt  time.Time
}

func (PinRecord) TableName() string { return "pinned_messages" }

type PollRecord struct {
	ID        int64 `gorm:"primaryKey"`
	GroupID   int64 `gorm:"index"`
	CreatorID int64
	Question  string `gorm:"size:300"`
	Options   []PollOptionRecord `gorm:"foreignKey:PollID"`
	CreatedAt time.Time
}

func (PollRecord) TableName() string { return "polls" }

type PollOptionRecord struct {
	ID         int64  `gorm:"primaryKey"`
	PollID     int64  `gorm:"index"`
	OptionText string `gorm:"size:200"`
	VoteCount  int64
}

func (PollOptionRecord) TableName() string { return "poll_options" }

type VoteRecord struct {
	PollID   int64 `gorm:"primaryKey"`
	VoterID  int64 `gorm:"primaryKey"`
	OptionID int64
}

func (VoteRecord) TableName() string { return "poll_votes" }

type DocumentRecord struct {
	ID               int64 `gorm:"primaryKey"`
	GroupID          int64 `gorm:"index"`
	MessageID        int64 `gorm:"uniqueIndex"`
	OriginalFilename string
	StoredName       string
	FileType         string
	FileSize         int64
	SenderName       string
	UploadTime       time.Time
}

func (DocumentRecord) TableName() string { return "documents" }

type NotificationRecord struct {
	ID                int64 `gorm:"primaryKey"`
	UserID            int64 `gorm:"index"`
	Title             string
	Message           string
	Type              string `gorm:"size:16"`
	IsRead            bool   `gorm:"index"`
	RelatedEntityID   *int64
	RelatedEntityType string `gorm:"size:32"`
	CreatedAt         time.Time
}

func (NotificationRecord) TableName() string { return "notifications" }

type EventRecord struct {
	ID            int64  `gorm:"primaryKey"`
	GroupID       int64  `gorm:"index"`
	Topic         string `gorm:"size:150"`
	Description   string `gorm:"size:1000"`
	StartTime     time.Time
	EndTime       time.Time
	Location      string
	MeetingLink   string
	Passcode      string
	OrganizerName string
	SessionType   string `gorm:"size:16"`
	Status        string `gorm:"size:16"`
	CreatedByID   int64
	ReminderSent  bool
	CreatedAt     time.Time
}

func (EventRecord) TableName() string { return "calendar_events" }

// Migrate creates or updates every table of the sandbox schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserRecord{},
		&CourseRecord{},
		&EnrollmentRecord{},
		&GroupRecord{},
		&MemberRecord{},
		&JoinRequestRecord{},
		&MessageRecord{},
		&PinRecord{},
		&PollRecord{},
		&PollOptionRecord{},
		&VoteRecord{},
		&DocumentRecord{},
		&NotificationRecord{},
		&EventRecord{},
	)
}

// DefaultCourses is the catalogue a fresh sandbox starts with.
var DefaultCourses = []CourseRecord{
	{CourseID: "CS101", CourseName: "Introduction to Programming", Description: "Variables, control flow and functions."},
	{CourseID: "CS201", CourseName: "Data Structures", Description: "Lists, trees, graphs and hashing."},
	{CourseID: "CS301", CourseName: "Operating Systems", Description: "Processes, memory and file systems."},
	{CourseID: "MATH150", CourseName: "Linear Algebra", Description: "Vectors, matrices and eigenvalues."},
	{CourseID: "MATH210", CourseName: "Probability", Description: "Random variables and distributions."},
	{CourseID: "PHYS120", CourseName: "Classical Mechanics", Description: "Newtonian motion and energy."},
}

// SeedCourses inserts the default catalogue, leaving existing rows alone.
func SeedCourses(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&DefaultCourses).Error
}
