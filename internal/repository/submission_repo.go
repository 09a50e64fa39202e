package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	AssessmentID *uint
	StudentID    *uint
	Status       *models.SubmissionStatus
}

// GradeUpdate carries the submission level fields written by a manual grade.
type GradeUpdate struct {
	Grade    float64
	Feedback string
	Status   models.SubmissionStatus
	History  models.SubmissionGradeHistory
}

// SubmissionBuilder turns the locked assessment and its current question bank into the
// submission to store. An error aborts the transaction and is returned unchanged.
type SubmissionBuilder func(assessment models.Assessment, questions []models.Question) (models.Submission, error)

// SubmissionRepository defines data operations for submissions and their answers.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetDetailed(ctx context.Context, assessmentID, studentID uint) (models.Submission, error)
	CreateWithAnswers(ctx context.Context, assessmentID uint, build SubmissionBuilder) (models.Submission, error)
	ApplyGrade(ctx context.Context, submissionID uint, update GradeUpdate) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assessment").
		Preload("Student")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.AssessmentID != nil {
		query = query.Where("assessment_id = ?", *filter.AssessmentID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("submitted_at DESC").Order("id DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Preload("Answers").
		Preload("History", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("graded_at DESC")
		}).
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetDetailed(ctx context.Context, assessmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Assessment.Course").
		Preload("Answers", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("id ASC")
		}).
		Preload("Answers.Question").
		Where("assessment_id = ?", assessmentID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

// CreateWithAnswers locks the assessment, reads its question bank and stores the built
// submission with all its answers in one transaction. A missing assessment yields
// gorm.ErrRecordNotFound and a second submission for the same student gorm.ErrDuplicatedKey.
func (r *submissionRepository) CreateWithAnswers(ctx context.Context, assessmentID uint, build SubmissionBuilder) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assessment, err := lockAssessment(tx, assessmentID)
		if err != nil {
			return err
		}

		questions, err := NewQuestionBank(tx).ListByAssessment(ctx, assessmentID)
		if err != nil {
			return err
		}

		submission, err = build(assessment, questions)
		if err != nil {
			return err
		}
		submission.AssessmentID = assessment.ID

		var existing int64
		if err := tx.Model(&models.Submission{}).
			Where("assessment_id = ? AND student_id = ?", submission.AssessmentID, submission.StudentID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return gorm.ErrDuplicatedKey
		}

		if err := tx.Omit(clause.Associations).Create(&submission).Error; err != nil {
			return err
		}

		if len(submission.Answers) == 0 {
			return nil
		}

		for i := range submission.Answers {
			submission.Answers[i].SubmissionID = submission.ID
		}

		return tx.Omit(clause.Associations).CreateInBatches(&submission.Answers, 100).Error
	})
	if err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

// ApplyGrade overwrites the submission level grade and appends a history entry.
func (r *submissionRepository) ApplyGrade(ctx context.Context, submissionID uint, update GradeUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{}).
			Where("id = ?", submissionID).
			Updates(map[string]interface{}{
				"grade":     update.Grade,
				"feedback":  update.Feedback,
				"status":    update.Status,
				"graded_at": update.History.GradedAt,
				"graded_by": update.History.GradedBy,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		history := update.History
		history.SubmissionID = submissionID
		return tx.Create(&history).Error
	})
}
