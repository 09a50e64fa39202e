package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
)

// AnalyticsRepository supplies the raw rows behind assessment statistics.
type AnalyticsRepository interface {
	CountEnrolledStudents(ctx context.Context, courseID uint) (int64, error)
	ListSubmissionsForAssessment(ctx context.Context, assessmentID uint) ([]models.Submission, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository constructs the analytics repository.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CountEnrolledStudents(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("enrollments.course_id = ?", courseID).
		Where("users.role = ?", models.RoleStudent).
		Count(&count).Error
	return count, err
}

// ListSubmissionsForAssessment returns grading columns only; answers are not loaded.
func (r *analyticsRepository) ListSubmissionsForAssessment(ctx context.Context, assessmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Select("id", "assessment_id", "student_id", "status", "total_marks", "grade", "submitted_at").
		Where("assessment_id = ?", assessmentID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	return submissions, err
}
