package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
)

// ErrAssessmentHasSubmissions is returned by Update once any student has submitted.
var ErrAssessmentHasSubmissions = errors.New("assessment has submissions")

// AssessmentRepository defines persistence operations for assessments and their question banks.
type AssessmentRepository interface {
	ListByCourse(ctx context.Context, courseID uint) ([]models.Assessment, error)
	ListUpcoming(ctx context.Context, courseIDs []uint, after time.Time) ([]models.Assessment, error)
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	HasSubmissions(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	Update(ctx context.Context, assessment *models.Assessment, removedQuestionIDs []uint) error
	Delete(ctx context.Context, id uint) error
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository instantiates a GORM-backed repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Assessment{}).
		Preload("Course").
		Preload("Questions", orderQuestions)
}

func orderQuestions(tx *gorm.DB) *gorm.DB {
	return tx.Order("position ASC").Order("id ASC")
}

func (r *assessmentRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Assessment, error) {
	var assessments []models.Assessment
	if err := r.baseQuery(ctx).
		Where("course_id = ?", courseID).
		Order("due_date ASC").
		Find(&assessments).Error; err != nil {
		return nil, err
	}

	return assessments, nil
}

func (r *assessmentRepository) ListUpcoming(ctx context.Context, courseIDs []uint, after time.Time) ([]models.Assessment, error) {
	if len(courseIDs) == 0 {
		return []models.Assessment{}, nil
	}

	var assessments []models.Assessment
	if err := r.baseQuery(ctx).
		Where("course_id IN ?", courseIDs).
		Where("due_date > ?", after).
		Order("due_date ASC").
		Find(&assessments).Error; err != nil {
		return nil, err
	}

	return assessments, nil
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.baseQuery(ctx).First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}

	return assessment, nil
}

func (r *assessmentRepository) HasSubmissions(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("assessment_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// lockAssessment reads the assessment row FOR UPDATE so submits and edits of the same
// assessment serialize. SQLite ignores the locking clause and serializes writers itself.
func lockAssessment(tx *gorm.DB, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}

	return assessment, nil
}

// Create stores the assessment together with its whole question bank.
func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(assessment).Error; err != nil {
			return err
		}

		for i := range assessment.Questions {
			assessment.Questions[i].AssessmentID = assessment.ID
		}

		if len(assessment.Questions) == 0 {
			return nil
		}

		return tx.Omit(clause.Associations).Create(&assessment.Questions).Error
	})
}

// Update applies the diffed question bank: removed ids are deleted, the rest are upserted.
// The submission check runs under the assessment lock, so a concurrent submit either lands
// first and the edit fails with ErrAssessmentHasSubmissions, or waits and sees the new bank.
func (r *assessmentRepository) Update(ctx context.Context, assessment *models.Assessment, removedQuestionIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockAssessment(tx, assessment.ID); err != nil {
			return err
		}

		submitted, err := (&assessmentRepository{db: tx}).HasSubmissions(ctx, assessment.ID)
		if err != nil {
			return err
		}
		if submitted {
			return ErrAssessmentHasSubmissions
		}

		result := tx.Model(&models.Assessment{}).
			Where("id = ?", assessment.ID).
			Updates(map[string]interface{}{
				"title":       assessment.Title,
				"description": assessment.Description,
				"due_date":    assessment.DueDate,
				"total_marks": assessment.TotalMarks,
				"updated_at":  time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if len(removedQuestionIDs) > 0 {
			if err := tx.Where("assessment_id = ? AND id IN ?", assessment.ID, removedQuestionIDs).
				Delete(&models.Question{}).Error; err != nil {
				return err
			}
		}

		for i := range assessment.Questions {
			question := &assessment.Questions[i]
			question.AssessmentID = assessment.ID
			if err := tx.Omit(clause.Associations).Save(question).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete removes the assessment and everything that references it.
func (r *assessmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submissionIDs []uint
		if err := tx.Model(&models.Submission{}).
			Where("assessment_id = ?", id).
			Pluck("id", &submissionIDs).Error; err != nil {
			return err
		}

		if len(submissionIDs) > 0 {
			if err := tx.Where("submission_id IN ?", submissionIDs).Delete(&models.Answer{}).Error; err != nil {
				return err
			}
			if err := tx.Where("submission_id IN ?", submissionIDs).Delete(&models.SubmissionGradeHistory{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", submissionIDs).Delete(&models.Submission{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("assessment_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Assessment{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}
