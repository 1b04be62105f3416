package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/Wal-20/studysphere-cli/internal/logger"
	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/repositories"
)

const calendarEntity = "CALENDAR_EVENT"

type CalendarService struct {
	repos  Repos
	groups *GroupService
	notify *NotificationService
	now    func() time.Time
}

// dtos renders events with their group, course and creator.
func (s *CalendarService) dtos(events []repositories.EventRecord) ([]models.CalendarEvent, error) {
	out := make([]models.CalendarEvent, 0, len(events))
	if len(events) == 0 {
		return out, nil
	}
	var groupIDs, userIDs []int64
	for _, e := range events {
		groupIDs = append(groupIDs, e.GroupID)
		userIDs = append(userIDs, e.CreatedByID)
	}
	groups, err := s.repos.Groups.FindByIDs(groupIDs)
	if err != nil {
		return nil, err
	}
	byGroup := make(map[int64]repositories.GroupRecord, len(groups))
	var courseIDs []string
	for _, g := range groups {
		byGroup[g.ID] = g
		courseIDs = append(courseIDs, g.CourseID)
	}
	courses, err := s.repos.Courses.FindByIDs(dedupe(courseIDs))
	if err != nil {
		return nil, err
	}
	courseNames := make(map[string]string, len(courses))
	for _, c := range courses {
		courseNames[c.CourseID] = c.CourseName
	}
	users, err := s.repos.Users.FindByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	creators := make(map[int64]models.User, len(users))
	for _, u := range users {
		creators[u.ID] = userDTO(u)
	}

	for _, e := range events {
		g := byGroup[e.GroupID]
		dto := models.CalendarEvent{
			ID:            e.ID,
			Topic:         e.Topic,
			Description:   e.Description,
			StartTime:     models.NewLocalTime(e.StartTime),
			EndTime:       models.NewLocalTime(e.EndTime),
			Location:      e.Location,
			MeetingLink:   e.MeetingLink,
			OrganizerName: e.OrganizerName,
			SessionType:   e.SessionType,
			Passcode:      e.Passcode,
			GroupID:       e.GroupID,
			GroupName:     g.Name,
			CourseName:    courseNames[g.CourseID],
			Status:        e.Status,
		}
		if u, ok := creators[e.CreatedByID]; ok {
			dto.CreatedBy = &u
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *CalendarService) joinedGroupIDs(userID int64) ([]int64, error) {
	groups, err := s.repos.Groups.ListJoined(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func (s *CalendarService) All(viewerID int64) ([]models.CalendarEvent, error) {
	ids, err := s.joinedGroupIDs(viewerID)
	if err != nil {
		return nil, err
	}
	events, err := s.repos.Events.ListByGroups(ids)
	if err != nil {
		return nil, err
	}
	return s.dtos(events)
}

// Upcoming lists sessions in the viewer's groups that have not ended.
func (s *CalendarService) Upcoming(viewerID int64) ([]models.CalendarEvent, error) {
	ids, err := s.joinedGroupIDs(viewerID)
	if err != nil {
		return nil, err
	}
	events, err := s.repos.Events.ListUpcoming(ids, s.now())
	if err != nil {
		return nil, err
	}
	return s.dtos(events)
}

func (s *CalendarService) ByGroup(viewerID, groupID int64) ([]models.CalendarEvent, error) {
	if _, err := s.groups.RequireMember(groupID, viewerID); err != nil {
		return nil, err
	}
	events, err := s.repos.Events.ListByGroups([]int64{groupID})
	if err != nil {
		return nil, err
	}
	return s.dtos(events)
}

// apply validates req onto e.
func apply(e *repositories.EventRecord, req models.SessionRequest) error {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return fail(ErrInvalid, "topic is required")
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return fail(ErrInvalid, "start and end times are required")
	}
	if !req.EndTime.After(req.StartTime.Time) {
		return fail(ErrInvalid, "end time must be after start time")
	}
	sessionType := strings.ToUpper(strings.TrimSpace(req.SessionType))
	switch sessionType {
	case "":
		sessionType = models.SessionOnline
	case models.SessionOnline, models.SessionOffline, models.SessionHybrid:
	default:
		return fail(ErrInvalid, "unknown session type %q", req.SessionType)
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = models.EventOngoing
	}

	e.Topic = topic
	e.Description = strings.TrimSpace(req.Description)
	e.StartTime = req.StartTime.UTC()
	e.EndTime = req.EndTime.UTC()
	e.SessionType = sessionType
	e.Status = status
	e.OrganizerName = strings.TrimSpace(req.OrganizerName)
	e.MeetingLink, e.Passcode, e.Location = "", "", ""
	if sessionType != models.SessionOffline {
		e.MeetingLink = strings.TrimSpace(req.MeetingLink)
		e.Passcode = strings.TrimSpace(req.Passcode)
	}
	if sessionType != models.SessionOnline {
		e.Location = strings.TrimSpace(req.Location)
	}
	return nil
}

func (s *CalendarService) Create(viewer models.User, req models.SessionRequest) (models.CalendarEvent, error) {
	if _, err := s.groups.RequireMember(req.GroupID, viewer.ID); err != nil {
		return models.CalendarEvent{}, err
	}
	g, err := s.repos.Groups.FindByID(req.GroupID)
	if err != nil {
		return models.CalendarEvent{}, lookup(err, "group")
	}
	e := repositories.EventRecord{GroupID: req.GroupID, CreatedByID: viewer.ID, CreatedAt: s.now()}
	if err := apply(&e, req); err != nil {
		return models.CalendarEvent{}, err
	}
	if e.OrganizerName == "" {
		e.OrganizerName = viewer.Name
	}
	if err := s.repos.Events.Create(&e); err != nil {
		return models.CalendarEvent{}, err
	}

	s.notify.Notify(Alert{
		Title:             "New session created",
		Message:           fmt.Sprintf("You created '%s' in '%s'.", e.Topic, g.Name),
		Type:              models.NotificationUpdates,
		RelatedEntityID:   e.ID,
		RelatedEntityType: calendarEntity,
	}, viewer.ID)
	if members, err := s.groups.memberIDs(g, false); err == nil {
		others := make([]int64, 0, len(members))
		for _, id := range members {
			if id != viewer.ID {
				others = append(others, id)
			}
		}
		s.notify.Notify(Alert{
			Title:             "New session created",
			Message:           fmt.Sprintf("%s created '%s' in '%s'.", viewer.Name, e.Topic, g.Name),
			Type:              models.NotificationUpdates,
			RelatedEntityID:   e.ID,
			RelatedEntityType: calendarEntity,
		}, others...)
	}

	list, err := s.dtos([]repositories.EventRecord{e})
	if err != nil {
		return models.CalendarEvent{}, err
	}
	return list[0], nil
}

// editable loads an event the viewer created or administers.
func (s *CalendarService) editable(viewerID, id int64) (*repositories.EventRecord, error) {
	e, err := s.repos.Events.FindByID(id)
	if err != nil {
		return nil, lookup(err, "session")
	}
	if e.CreatedByID == viewerID {
		return e, nil
	}
	role, err := s.groups.Role(e.GroupID, viewerID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleOwner && role != models.RoleAdmin {
		return nil, fail(ErrForbidden, "you are not authorized to change this session")
	}
	return e, nil
}

func (s *CalendarService) Update(viewerID, id int64, req models.SessionRequest) (models.CalendarEvent, error) {
	e, err := s.editable(viewerID, id)
	if err != nil {
		return models.CalendarEvent{}, err
	}
	if err := apply(e, req); err != nil {
		return models.CalendarEvent{}, err
	}
	e.ReminderSent = false
	if err := s.repos.Events.Save(e); err != nil {
		return models.CalendarEvent{}, err
	}
	list, err := s.dtos([]repositories.EventRecord{*e})
	if err != nil {
		return models.CalendarEvent{}, err
	}
	return list[0], nil
}

func (s *CalendarService) Delete(viewerID, id int64) error {
	e, err := s.editable(viewerID, id)
	if err != nil {
		return err
	}
	g, err := s.repos.Groups.FindByID(e.GroupID)
	if err != nil {
		return lookup(err, "group")
	}
	if err := s.repos.Events.Delete(id); err != nil {
		return err
	}
	if members, err := s.groups.memberIDs(g, false); err == nil {
		s.notify.Notify(Alert{
			Title:             "Session canceled",
			Message:           fmt.Sprintf("Update: '%s' has been canceled in '%s'.", e.Topic, g.Name),
			Type:              models.NotificationUpdates,
			RelatedEntityID:   e.ID,
			RelatedEntityType: calendarEntity,
		}, members...)
	}
	return nil
}

// SendReminders notifies group members once about every session starting
// within lead.
func (s *CalendarService) SendReminders(lead time.Duration) (int, error) {
	now := s.now()
	events, err := s.repos.Events.ListStartingBefore(now.Add(lead), now)
	if err != nil {
		return 0, err
	}
	for i := range events {
		e := &events[i]
		g, err := s.repos.Groups.FindByID(e.GroupID)
		if err != nil {
			logger.Errorf("reminder for session %d: %v", e.ID, err)
			continue
		}
		members, err := s.groups.memberIDs(g, false)
		if err != nil {
			return i, err
		}
		s.notify.Notify(Alert{
			Title: "Upcoming session reminder",
			Message: fmt.Sprintf("Reminder: '%s' starts at %s UTC in '%s'.",
				e.Topic, e.StartTime.UTC().Format("Jan 2 15:04"), g.Name),
			Type:              models.NotificationReminders,
			RelatedEntityID:   e.ID,
			RelatedEntityType: calendarEntity,
		}, members...)
		e.ReminderSent = true
		if err := s.repos.Events.Save(e); err != nil {
			return i, err
		}
	}
	return len(events), nil
}
