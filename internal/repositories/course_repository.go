package repositories

import "gorm.io/gorm"

type CourseRepository interface {
	List() ([]CourseRecord, error)
	FindByID(id string) (*CourseRecord, error)
	FindByIDs(ids []string) ([]CourseRecord, error)
	Enrolled(userID int64) ([]CourseRecord, error)
	Enrollments() ([]EnrollmentRecord, error)
}

type GormCourseRepository struct{ db *gorm.DB }

func NewCourseRepository(db *gorm.DB) *GormCourseRepository { return &GormCourseRepository{db: db} }

func (r *GormCourseRepository) List() ([]CourseRecord, error) {
	var courses []CourseRecord
	err := r.db.Order("course_id").Find(&courses).Error
	return courses, err
}

func (r *GormCourseRepository) FindByID(id string) (*CourseRecord, error) {
	var c CourseRecord
	if err := r.db.Where("course_id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormCourseRepository) FindByIDs(ids []string) ([]CourseRecord, error) {
	var courses []CourseRecord
	if len(ids) == 0 {
		return courses, nil
	}
	err := r.db.Where("course_id IN ?", ids).Find(&courses).Error
	return courses, err
}

func (r *GormCourseRepository) Enrolled(userID int64) ([]CourseRecord, error) {
	var courses []CourseRecord
	sub := r.db.Model(&EnrollmentRecord{}).Select("course_id").Where("user_id = ?", userID)
	err := r.db.Where("course_id IN (?)", sub).Order("course_id").Find(&courses).Error
	return courses, err
}

func (r *GormCourseRepository) Enrollments() ([]EnrollmentRecord, error) {
	var rows []EnrollmentRecord
	err := r.db.Order("user_id, course_id").Find(&rows).Error
	return rows, err
}
