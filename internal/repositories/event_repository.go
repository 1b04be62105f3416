package repositories

import (
	"time"

	"gorm.io/gorm"
)

type EventRepository interface {
	Create(e *EventRecord) error
	Save(e *EventRecord) error
	Delete(id int64) error
	FindByID(id int64) (*EventRecord, error)
	ListByGroups(groupIDs []int64) ([]EventRecord, error)
	ListUpcoming(groupIDs []int64, after time.Time) ([]EventRecord, error)
	ListStartingBefore(cutoff, after time.Time) ([]EventRecord, error)
}

type GormEventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *GormEventRepository { return &GormEventRepository{db: db} }

func (r *GormEventRepository) Create(e *EventRecord) error { return r.db.Create(e).Error }
func (r *GormEventRepository) Save(e *EventRecord) error   { return r.db.Save(e).Error }

func (r *GormEventRepository) Delete(id int64) error {
	return r.db.Delete(&EventRecord{}, id).Error
}

func (r *GormEventRepository) FindByID(id int64) (*EventRecord, error) {
	var e EventRecord
	if err := r.db.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *GormEventRepository) ListByGroups(groupIDs []int64) ([]EventRecord, error) {
	var events []EventRecord
	if len(groupIDs) == 0 {
		return events, nil
	}
	err := r.db.Where("group_id IN ?", groupIDs).Order("start_time, id").Find(&events).Error
	return events, err
}

// ListUpcoming returns sessions of the groups that have not ended yet.
func (r *GormEventRepository) ListUpcoming(groupIDs []int64, after time.Time) ([]EventRecord, error) {
	var events []EventRecord
	if len(groupIDs) == 0 {
		return events, nil
	}
	err := r.db.Where("group_id IN ? AND end_time > ? AND status <> ?", groupIDs, after, "CANCELED").
		Order("start_time, id").Find(&events).Error
	return events, err
}

// ListStartingBefore returns un-reminded sessions starting in (after, cutoff].
func (r *GormEventRepository) ListStartingBefore(cutoff, after time.Time) ([]EventRecord, error) {
	var events []EventRecord
	err := r.db.Where("reminder_sent = ? AND start_time > ? AND start_time <= ? AND status <> ?", false, after, cutoff, "CANCELED").
		Order("start_time, id").Find(&events).Error
	return events, err
}
