package repositories

import (
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(id int64) (*UserRecord, error)
	FindByEmail(email string) (*UserRecord, error)
	FindByIDs(ids []int64) ([]UserRecord, error)
	ListExcept(userID int64) ([]UserRecord, error)
	Create(user *UserRecord, courseIDs []string) error
	Save(user *UserRecord) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *GormUserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id int64) (*UserRecord, error) {
	var u UserRecord
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*UserRecord, error) {
	var u UserRecord
	if err := r.db.Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByIDs(ids []int64) ([]UserRecord, error) {
	var users []UserRecord
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *GormUserRepository) ListExcept(userID int64) ([]UserRecord, error) {
	var users []UserRecord
	err := r.db.Where("id <> ?", userID).Order("name").Find(&users).Error
	return users, err
}

// Create stores the user and enrolls them in courseIDs in one transaction.
func (r *GormUserRepository) Create(user *UserRecord, courseIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		for _, id := range courseIDs {
			if err := tx.Create(&EnrollmentRecord{UserID: user.ID, CourseID: id}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormUserRepository) Save(user *UserRecord) error { return r.db.Save(user).Error }
