package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
)

// UserRepository provides read access to user records.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
}

// CourseRepository provides read access to course records.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
}

// EnrollmentRepository resolves the courses a student is enrolled in.
type EnrollmentRepository interface {
	CourseIDsForUser(ctx context.Context, userID uint) ([]uint, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) CourseIDsForUser(ctx context.Context, userID uint) ([]uint, error) {
	var courseIDs []uint
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("user_id = ?", userID).
		Pluck("course_id", &courseIDs).Error; err != nil {
		return nil, err
	}

	return courseIDs, nil
}

// DirectorySeeder bulk loads directory records for development environments.
type DirectorySeeder interface {
	UpsertDirectory(ctx context.Context, users []models.User, courses []models.Course, enrollments []models.Enrollment) (DirectorySeedCounts, error)
}

// DirectorySeedCounts reports the rows written per table.
type DirectorySeedCounts struct {
	Users       int64
	Courses     int64
	Enrollments int64
}

type directorySeeder struct {
	db *gorm.DB
}

// NewDirectorySeeder constructs the directory seeder.
func NewDirectorySeeder(db *gorm.DB) DirectorySeeder {
	return &directorySeeder{db: db}
}

// UpsertDirectory writes every record in one transaction. Users and courses are keyed by id,
// existing enrollments are left untouched.
func (s *directorySeeder) UpsertDirectory(ctx context.Context, users []models.User, courses []models.Course, enrollments []models.Enrollment) (DirectorySeedCounts, error) {
	var counts DirectorySeedCounts
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(users) > 0 {
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "email", "role", "updated_at"}),
			}).Create(&users)
			if result.Error != nil {
				return result.Error
			}
			counts.Users = result.RowsAffected
		}

		if len(courses) > 0 {
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "description", "instructor_id", "updated_at"}),
			}).Create(&courses)
			if result.Error != nil {
				return result.Error
			}
			counts.Courses = result.RowsAffected
		}

		if len(enrollments) > 0 {
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
				DoNothing: true,
			}).Create(&enrollments)
			if result.Error != nil {
				return result.Error
			}
			counts.Enrollments = result.RowsAffected
		}

		return nil
	})
	if err != nil {
		return DirectorySeedCounts{}, err
	}
	return counts, nil
}
