package dto

import (
	"time"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
)

// AnswerInput is one submitted answer keyed by question id.
type AnswerInput struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	Answer     string `json:"answer" validate:"max=10000"`
}

// SubmitAssessmentRequest carries a student's complete answer set.
type SubmitAssessmentRequest struct {
	Answers []AnswerInput `json:"answers" validate:"dive"`
}

// SubmissionReceipt is returned once a submission has been stored.
type SubmissionReceipt struct {
	SubmissionID uint       `json:"submission_id"`
	AssessmentID uint       `json:"assessment_id"`
	StudentID    uint       `json:"student_id"`
	Status       string     `json:"status"`
	TotalMarks   float64    `json:"total_marks"`
	Grade        *float64   `json:"grade"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	GradedAt     *time.Time `json:"graded_at"`
}

// GradeSubmissionRequest is the instructor's holistic grade for a submission.
type GradeSubmissionRequest struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0"`
	Feedback string   `json:"feedback" validate:"max=5000"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint                             `json:"id"`
	AssessmentID uint                             `json:"assessment_id"`
	StudentID    uint                             `json:"student_id"`
	Status       string                           `json:"status"`
	TotalMarks   float64                          `json:"total_marks"`
	Grade        *float64                         `json:"grade"`
	Feedback     *string                          `json:"feedback"`
	SubmittedAt  time.Time                        `json:"submitted_at"`
	GradedBy     *uint                            `json:"graded_by"`
	GradedAt     *time.Time                       `json:"graded_at"`
	Answers      []AnswerResponse                 `json:"answers"`
	History      []SubmissionGradeHistoryResponse `json:"history"`
	Assessment   AssessmentLite                   `json:"assessment"`
	Student      StudentLite                      `json:"student"`
}

// AnswerResponse serializes a stored answer.
type AnswerResponse struct {
	ID         uint    `json:"id"`
	QuestionID uint    `json:"question_id"`
	Answer     string  `json:"answer"`
	Marks      float64 `json:"marks"`
	Feedback   string  `json:"feedback"`
}

// AssessmentLite summarizes an assessment in submission responses.
type AssessmentLite struct {
	ID      uint      `json:"id"`
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
}

// SubmissionGradeHistoryResponse serializes grading history entries.
type SubmissionGradeHistoryResponse struct {
	Grade    float64   `json:"grade"`
	Feedback string    `json:"feedback"`
	GradedBy uint      `json:"graded_by"`
	GradedAt time.Time `json:"graded_at"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionReceipt converts a freshly stored submission into a receipt.
func NewSubmissionReceipt(model models.Submission) SubmissionReceipt {
	return SubmissionReceipt{
		SubmissionID: model.ID,
		AssessmentID: model.AssessmentID,
		StudentID:    model.StudentID,
		Status:       string(model.Status),
		TotalMarks:   model.TotalMarks,
		Grade:        model.Grade,
		SubmittedAt:  model.SubmittedAt,
		GradedAt:     model.GradedAt,
	}
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssessmentID: model.AssessmentID,
		StudentID:    model.StudentID,
		Status:       string(model.Status),
		TotalMarks:   model.TotalMarks,
		Grade:        model.Grade,
		Feedback:     model.Feedback,
		SubmittedAt:  model.SubmittedAt,
		GradedBy:     model.GradedBy,
		GradedAt:     model.GradedAt,
		Answers:      make([]AnswerResponse, 0, len(model.Answers)),
	}

	if model.Assessment.ID != 0 {
		response.Assessment = AssessmentLite{
			ID:      model.Assessment.ID,
			Title:   model.Assessment.Title,
			DueDate: model.Assessment.DueDate,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	for _, answer := range model.Answers {
		response.Answers = append(response.Answers, AnswerResponse{
			ID:         answer.ID,
			QuestionID: answer.QuestionID,
			Answer:     answer.Text,
			Marks:      answer.Marks,
			Feedback:   answer.Feedback,
		})
	}

	if len(model.History) > 0 {
		history := make([]SubmissionGradeHistoryResponse, 0, len(model.History))
		for _, entry := range model.History {
			history = append(history, SubmissionGradeHistoryResponse{
				Grade:    entry.Grade,
				Feedback: entry.Feedback,
				GradedBy: entry.GradedBy,
				GradedAt: entry.GradedAt,
			})
		}
		response.History = history
	}

	return response
}
