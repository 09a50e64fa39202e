package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
)

// QuestionBank is the read-only view of an assessment's questions.
type QuestionBank interface {
	ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Question, error)
	GetInAssessment(ctx context.Context, assessmentID, questionID uint) (models.Question, error)
}

type questionBank struct {
	db *gorm.DB
}

// NewQuestionBank constructs a question bank reader.
func NewQuestionBank(db *gorm.DB) QuestionBank {
	return &questionBank{db: db}
}

func (r *questionBank) ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := orderQuestions(r.db.WithContext(ctx)).
		Where("assessment_id = ?", assessmentID).
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionBank) GetInAssessment(ctx context.Context, assessmentID, questionID uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		First(&question, questionID).Error; err != nil {
		return models.Question{}, err
	}

	return question, nil
}
