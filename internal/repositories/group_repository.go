package repositories

import (
	"gorm.io/gorm"
)

type GroupRepository interface {
	FindByID(id int64) (*GroupRecord, error)
	FindByIDs(ids []int64) ([]GroupRecord, error)
	ListByCourse(courseID string) ([]GroupRecord, error)
	ListJoined(userID int64) ([]GroupRecord, error)
	Create(g *GroupRecord) error
	Save(g *GroupRecord) error
	DeleteByID(id int64) error

	FindMember(groupID, userID int64) (*MemberRecord, error)
	ListMembers(groupID int64) ([]MemberRecord, error)
	CountMembers(groupIDs []int64) (map[int64]int64, error)
	AddMember(m *MemberRecord) error
	SaveMember(m *MemberRecord) error
	RemoveMember(groupID, userID int64) error
	TransferOwnership(g *GroupRecord, next *MemberRecord, leavingID int64) error

	FindRequest(id int64) (*JoinRequestRecord, error)
	FindPendingRequest(groupID, userID int64) (*JoinRequestRecord, error)
	ListPendingRequests(groupID int64) ([]JoinRequestRecord, error)
	CreateRequest(req *JoinRequestRecord) error
	ResolveRequest(req *JoinRequestRecord, member *MemberRecord) error
}

type GormGroupRepository struct{ db *gorm.DB }

func NewGroupRepository(db *gorm.DB) *GormGroupRepository { return &GormGroupRepository{db: db} }

func (r *GormGroupRepository) FindByID(id int64) (*GroupRecord, error) {
	var g GroupRecord
	if err := r.db.First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GormGroupRepository) FindByIDs(ids []int64) ([]GroupRecord, error) {
	var groups []GroupRecord
	if len(ids) == 0 {
		return groups, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&groups).Error
	return groups, err
}

func (r *GormGroupRepository) ListByCourse(courseID string) ([]GroupRecord, error) {
	var groups []GroupRecord
	err := r.db.Where("course_id = ?", courseID).Order("created_at DESC, id DESC").Find(&groups).Error
	return groups, err
}

func (r *GormGroupRepository) ListJoined(userID int64) ([]GroupRecord, error) {
	var groups []GroupRecord
	sub := r.db.Model(&MemberRecord{}).Select("group_id").Where("user_id = ?", userID)
	err := r.db.Where("id IN (?)", sub).Order("name").Find(&groups).Error
	return groups, err
}

func (r *GormGroupRepository) Create(g *GroupRecord) error { return r.db.Create(g).Error }
func (r *GormGroupRepository) Save(g *GroupRecord) error   { return r.db.Save(g).Error }

// DeleteByID removes the group with everything that hangs off it.
func (r *GormGroupRepository) DeleteByID(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		polls := tx.Model(&PollRecord{}).Select("id").Where("group_id = ?", id)
		for _, model := range []any{&VoteRecord{}, &PollOptionRecord{}} {
			if err := tx.Where("poll_id IN (?)", polls).Delete(model).Error; err != nil {
				return err
			}
		}
		for _, model := range []any{
			&PollRecord{}, &PinRecord{}, &DocumentRecord{}, &MessageRecord{},
			&JoinRequestRecord{}, &MemberRecord{}, &EventRecord{},
		} {
			if err := tx.Where("group_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&GroupRecord{}).Error
	})
}

func (r *GormGroupRepository) FindMember(groupID, userID int64) (*MemberRecord, error) {
	var m MemberRecord
	if err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormGroupRepository) ListMembers(groupID int64) ([]MemberRecord, error) {
	var members []MemberRecord
	err := r.db.Where("group_id = ?", groupID).Order("joined_at, user_id").Find(&members).Error
	return members, err
}

func (r *GormGroupRepository) CountMembers(groupIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(groupIDs))
	if len(groupIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		GroupID int64
		Count   int64
	}
	err := r.db.Model(&MemberRecord{}).
		Select("group_id, COUNT(*) AS count").
		Where("group_id IN ?", groupIDs).
		Group("group_id").
		Scan(&rows).Error
	for _, row := range rows {
		counts[row.GroupID] = row.Count
	}
	return counts, err
}

func (r *GormGroupRepository) AddMember(m *MemberRecord) error  { return r.db.Create(m).Error }
func (r *GormGroupRepository) SaveMember(m *MemberRecord) error { return r.db.Save(m).Error }

func (r *GormGroupRepository) RemoveMember(groupID, userID int64) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&MemberRecord{}).Error
}

// TransferOwnership saves the promoted member and the group's new
// creator, then removes the leaving owner, in one transaction.
func (r *GormGroupRepository) TransferOwnership(g *GroupRecord, next *MemberRecord, leavingID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(next).Error; err != nil {
			return err
		}
		if err := tx.Save(g).Error; err != nil {
			return err
		}
		return tx.Where("group_id = ? AND user_id = ?", g.ID, leavingID).Delete(&MemberRecord{}).Error
	})
}

func (r *GormGroupRepository) FindRequest(id int64) (*JoinRequestRecord, error) {
	var req JoinRequestRecord
	if err := r.db.First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GormGroupRepository) FindPendingRequest(groupID, userID int64) (*JoinRequestRecord, error) {
	var req JoinRequestRecord
	err := r.db.Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, "PENDING").First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GormGroupRepository) ListPendingRequests(groupID int64) ([]JoinRequestRecord, error) {
	var reqs []JoinRequestRecord
	err := r.db.Where("group_id = ? AND status = ?", groupID, "PENDING").Order("created_at, id").Find(&reqs).Error
	return reqs, err
}

func (r *GormGroupRepository) CreateRequest(req *JoinRequestRecord) error {
	return r.db.Create(req).Error
}

// ResolveRequest stores the decision and, for an approval, the new member.
func (r *GormGroupRepository) ResolveRequest(req *JoinRequestRecord, member *MemberRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(req).Error; err != nil {
			return err
		}
		if member == nil {
			return nil
		}
		return tx.Create(member).Error
	})
}
