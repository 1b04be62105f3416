package repositories

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyVoted is returned when a voter picks the option they already chose.
var ErrAlreadyVoted = errors.New("already voted for this option")

type MessageRepository interface {
	Create(message *MessageRecord) error
	FindByID(id int64) (*MessageRecord, error)
	ListByGroup(groupID int64) ([]MessageRecord, error)
	Delete(message *MessageRecord) error

	ListPins(groupID int64) ([]PinRecord, error)
	FindPin(groupID, messageID int64) (*PinRecord, error)
	CreatePin(pin *PinRecord) error
	DeletePin(groupID, messageID int64) error

	CreatePoll(poll *PollRecord, message *MessageRecord) error
	FindPoll(id int64) (*PollRecord, error)
	PollOptions(pollIDs []int64) (map[int64][]PollOptionRecord, error)
	Vote(pollID, optionID, voterID int64) ([]PollOptionRecord, error)

	CreateDocument(doc *DocumentRecord, message *MessageRecord) error
	ListDocuments(groupID int64) ([]DocumentRecord, error)
	FindDocumentByMessage(messageID int64) (*DocumentRecord, error)
}

type GormMessageRepository struct{ db *gorm.DB }

func NewMessageRepository(db *gorm.DB) *GormMessageRepository { return &GormMessageRepository{db: db} }

func (r *GormMessageRepository) Create(message *MessageRecord) error {
	return r.db.Create(message).Error
}

func (r *GormMessageRepository) FindByID(id int64) (*MessageRecord, error) {
	var m MessageRecord
	if err := r.db.First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormMessageRepository) ListByGroup(groupID int64) ([]MessageRecord, error) {
	var messages []MessageRecord
	err := r.db.Where("group_id = ?", groupID).Order("created_at, id").Find(&messages).Error
	return messages, err
}

// Delete removes a message with its pin and, for documents, its record.
func (r *GormMessageRepository) Delete(message *MessageRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", message.ID).Delete(&PinRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", message.ID).Delete(&DocumentRecord{}).Error; err != nil {
			return err
		}
		if message.PollID != nil {
			pollID := *message.PollID
			for _, model := range []any{&VoteRecord{}, &PollOptionRecord{}} {
				if err := tx.Where("poll_id = ?", pollID).Delete(model).Error; err != nil {
					return err
				}
			}
			if err := tx.Delete(&PollRecord{}, pollID).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&MessageRecord{}, message.ID).Error
	})
}

func (r *GormMessageRepository) ListPins(groupID int64) ([]PinRecord, error) {
	var pins []PinRecord
	err := r.db.Where("group_id = ?", groupID).Order("pinned_at DESC, id DESC").Find(&pins).Error
	return pins, err
}

func (r *GormMessageRepository) FindPin(groupID, messageID int64) (*PinRecord, error) {
	var p PinRecord
	if err := r.db.Where("group_id = ? AND message_id = ?", groupID, messageID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormMessageRepository) CreatePin(pin *PinRecord) error { return r.db.Create(pin).Error }

func (r *GormMessageRepository) DeletePin(groupID, messageID int64) error {
	return r.db.Where("group_id = ? AND message_id = ?", groupID, messageID).Delete(&PinRecord{}).Error
}

// CreatePoll stores the poll, its options and the chat message announcing it.
func (r *GormMessageRepository) CreatePoll(poll *PollRecord, message *MessageRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(poll).Error; err != nil {
			return err
		}
		message.PollID = &poll.ID
		return tx.Create(message).Error
	})
}

func (r *GormMessageRepository) FindPoll(id int64) (*PollRecord, error) {
	var p PollRecord
	if err := r.db.Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormMessageRepository) PollOptions(pollIDs []int64) (map[int64][]PollOptionRecord, error) {
	out := make(map[int64][]PollOptionRecord, len(pollIDs))
	if len(pollIDs) == 0 {
		return out, nil
	}
	var options []PollOptionRecord
	if err := r.db.Where("poll_id IN ?", pollIDs).Order("id").Find(&options).Error; err != nil {
		return nil, err
	}
	for _, o := range options {
		out[o.PollID] = append(out[o.PollID], o)
	}
	return out, nil
}

// Vote records the voter's choice. A voter switching options moves their
// vote; picking the same option again returns ErrAlreadyVoted. The
// options whose counts moved come back with their new counts.
func (r *GormMessageRepository) Vote(pollID, optionID, voterID int64) ([]PollOptionRecord, error) {
	var changed []PollOptionRecord
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var option PollOptionRecord
		if err := tx.Where("id = ? AND poll_id = ?", optionID, pollID).First(&option).Error; err != nil {
			return err
		}

		var existing VoteRecord
		err := tx.Where("poll_id = ? AND voter_id = ?", pollID, voterID).First(&existing).Error
		switch {
		case err == nil && existing.OptionID == optionID:
			return ErrAlreadyVoted
		case err == nil:
			if err := tx.Model(&PollOptionRecord{}).Where("id = ? AND vote_count > 0", existing.OptionID).
				UpdateColumn("vote_count", gorm.Expr("vote_count - 1")).Error; err != nil {
				return err
			}
			var previous PollOptionRecord
			if err := tx.First(&previous, existing.OptionID).Error; err != nil {
				return err
			}
			changed = append(changed, previous)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		vote := VoteRecord{PollID: pollID, VoterID: voterID, OptionID: optionID}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&vote).Error; err != nil {
			return err
		}
		if err := tx.Model(&option).UpdateColumn("vote_count", gorm.Expr("vote_count + 1")).Error; err != nil {
			return err
		}
		if err := tx.First(&option, option.ID).Error; err != nil {
			return err
		}
		changed = append(changed, option)
		return nil
	})
	return changed, err
}

// CreateDocument stores the chat message and the document it carries.
func (r *GormMessageRepository) CreateDocument(doc *DocumentRecord, message *MessageRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		doc.MessageID = message.ID
		return tx.Create(doc).Error
	})
}

func (r *GormMessageRepository) ListDocuments(groupID int64) ([]DocumentRecord, error) {
	var docs []DocumentRecord
	err := r.db.Where("group_id = ?", groupID).Order("upload_time DESC, id DESC").Find(&docs).Error
	return docs, err
}

func (r *GormMessageRepository) FindDocumentByMessage(messageID int64) (*DocumentRecord, error) {
	var d DocumentRecord
	if err := r.db.Where("message_id = ?", messageID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
