package services

import (
	"time"

	"github.com/Wal-20/studysphere-cli/internal/logger"
	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/Wal-20/studysphere-cli/internal/repositories"
)

// ReadNotificationRetention is how long read notifications are kept.
const ReadNotificationRetention = 30 * 24 * time.Hour

// NotificationService stores user notifications and pushes each new one
// to the user's broker queue.
type NotificationService struct {
	repo repositories.NotificationRepository
	pub  Publisher
	now  func() time.Time
}

// Alert is one notification to create.
type Alert struct {
	Title             string
	Message           string
	Type              string
	RelatedEntityID   int64
	RelatedEntityType string
}

func notificationDTO(n repositories.NotificationRecord) models.Notification {
	return models.Notification{
		ID:                n.ID,
		UserID:            n.UserID,
		Title:             n.Title,
		Message:           n.Message,
		Type:              n.Type,
		IsRead:            n.IsRead,
		CreatedAt:         models.NewLocalTime(n.CreatedAt),
		RelatedEntityID:   n.RelatedEntityID,
		RelatedEntityType: n.RelatedEntityType,
	}
}

// Notify stores the alert for every user and pushes it. Failures are
// logged; a missed notification never fails the triggering action.
func (s *NotificationService) Notify(alert Alert, userIDs ...int64) {
	for _, userID := range userIDs {
		rec := repositories.NotificationRecord{
			UserID:            userID,
			Title:             alert.Title,
			Message:           alert.Message,
			Type:              models.NotificationCategory(alert.Type),
			RelatedEntityType: alert.RelatedEntityType,
			CreatedAt:         s.now(),
		}
		if alert.RelatedEntityID != 0 {
			id := alert.RelatedEntityID
			rec.RelatedEntityID = &id
		}
		if err := s.repo.Create(&rec); err != nil {
			logger.Errorf("store notification for user %d: %v", userID, err)
			continue
		}
		if err := s.pub.Publish(NotificationQueue(userID), notificationDTO(rec)); err != nil {
			logger.Errorf("push notification to user %d: %v", userID, err)
		}
	}
}

func (s *NotificationService) List(viewerID, userID int64) ([]models.Notification, error) {
	if viewerID != userID {
		return nil, fail(ErrForbidden, "cannot read notifications of another user")
	}
	recs, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Notification, 0, len(recs))
	for _, r := range recs {
		out = append(out, notificationDTO(r))
	}
	return out, nil
}

func (s *NotificationService) MarkRead(viewerID, id int64) error {
	n, err := s.repo.FindByID(id)
	if err != nil {
		return lookup(err, "notification")
	}
	if n.UserID != viewerID {
		return fail(ErrForbidden, "cannot mark notification as read for another user")
	}
	return s.repo.MarkRead(id)
}

func (s *NotificationService) MarkAllRead(viewerID, userID int64) error {
	if viewerID != userID {
		return fail(ErrForbidden, "cannot modify notifications for another user")
	}
	return s.repo.MarkAllRead(userID)
}

func (s *NotificationService) DeleteRead(viewerID, userID int64) error {
	if viewerID != userID {
		return fail(ErrForbidden, "cannot delete notifications for another user")
	}
	return s.repo.DeleteRead(userID)
}

// DeleteSelected removes ids only when every one belongs to the viewer.
func (s *NotificationService) DeleteSelected(viewerID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	recs, err := s.repo.FindByIDs(ids)
	if err != nil {
		return err
	}
	for _, r := range recs {
		if r.UserID != viewerID {
			return fail(ErrForbidden, "cannot delete notifications that don't belong to you")
		}
	}
	return s.repo.DeleteByIDs(ids)
}

// PurgeRead drops read notifications older than the retention window.
func (s *NotificationService) PurgeRead() (int64, error) {
	return s.repo.PurgeRead(s.now().Add(-ReadNotificationRetention))
}
