package repositories

import (
	"time"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(n *NotificationRecord) error
	FindByID(id int64) (*NotificationRecord, error)
	FindByIDs(ids []int64) ([]NotificationRecord, error)
	ListByUser(userID int64) ([]NotificationRecord, error)
	MarkRead(id int64) error
	MarkAllRead(userID int64) error
	DeleteRead(userID int64) error
	DeleteByIDs(ids []int64) error
	PurgeRead(before time.Time) (int64, error)
}

type GormNotificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(n *NotificationRecord) error { return r.db.Create(n).Error }

func (r *GormNotificationRepository) FindByID(id int64) (*NotificationRecord, error) {
	var n NotificationRecord
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *GormNotificationRepository) FindByIDs(ids []int64) ([]NotificationRecord, error) {
	var list []NotificationRecord
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&list).Error
	return list, err
}

// ListByUser returns newest first.
func (r *GormNotificationRepository) ListByUser(userID int64) ([]NotificationRecord, error) {
	var list []NotificationRecord
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *GormNotificationRepository) MarkRead(id int64) error {
	return r.db.Model(&NotificationRecord{}).Where("id = ?", id).Update("is_read", true).Error
}

func (r *GormNotificationRepository) MarkAllRead(userID int64) error {
	return r.db.Model(&NotificationRecord{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func (r *GormNotificationRepository) DeleteRead(userID int64) error {
	return r.db.Where("user_id = ? AND is_read = ?", userID, true).Delete(&NotificationRecord{}).Error
}

func (r *GormNotificationRepository) DeleteByIDs(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&NotificationRecord{}).Error
}

// PurgeRead deletes read notifications created before the cutoff.
func (r *GormNotificationRepository) PurgeRead(before time.Time) (int64, error) {
	res := r.db.Where("is_read = ? AND created_at < ?", true, before).Delete(&NotificationRecord{})
	return res.RowsAffected, res.Error
}
