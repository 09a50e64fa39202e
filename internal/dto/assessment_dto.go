package dto

import (
	"time"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
)

// StatusNotStarted marks an assessment the student has not submitted yet.
const StatusNotStarted = "not_started"

// QuestionRequest describes one question of an authored question bank. A zero or unknown
// ID on update adds a new question.
type QuestionRequest struct {
	ID            uint     `json:"id"`
	Text          string   `json:"text" validate:"required,max=4000"`
	Type          string   `json:"type" validate:"required,max=32"`
	Options       []string `json:"options" validate:"omitempty,max=20,dive,required,max=500"`
	CorrectAnswer string   `json:"correct_answer" validate:"max=2000"`
}

// AssessmentCreateRequest is the payload for authoring a new assessment.
type AssessmentCreateRequest struct {
	CourseID    uint              `json:"course_id" validate:"required,gt=0"`
	Title       string            `json:"title" validate:"required,min=3,max=255"`
	Description string            `json:"description" validate:"max=5000"`
	DueDate     time.Time         `json:"due_date" validate:"required"`
	Questions   []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// AssessmentUpdateRequest replaces an assessment's fields and question bank.
type AssessmentUpdateRequest struct {
	Title       string            `json:"title" validate:"required,min=3,max=255"`
	Description string            `json:"description" validate:"max=5000"`
	DueDate     time.Time         `json:"due_date" validate:"required"`
	Questions   []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuestionResponse serializes a question. CorrectAnswer is omitted for students.
type QuestionResponse struct {
	ID            uint     `json:"id"`
	Position      int      `json:"position"`
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Marks         float64  `json:"marks"`
}

// AssessmentResponse serializes an assessment with its question bank.
type AssessmentResponse struct {
	ID          uint               `json:"id"`
	CourseID    uint               `json:"course_id"`
	CourseName  string             `json:"course_name"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	DueDate     time.Time          `json:"due_date"`
	TotalMarks  float64            `json:"total_marks"`
	Questions   []QuestionResponse `json:"questions"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// UpcomingAssessmentResponse is an assessment annotated with the student's progress.
type UpcomingAssessmentResponse struct {
	ID           uint      `json:"id"`
	CourseID     uint      `json:"course_id"`
	CourseName   string    `json:"course_name"`
	Title        string    `json:"title"`
	DueDate      time.Time `json:"due_date"`
	TotalMarks   float64   `json:"total_marks"`
	Status       string    `json:"status"`
	SubmissionID *uint     `json:"submission_id,omitempty"`
}

// NewAssessmentResponse converts an assessment model into a DTO.
func NewAssessmentResponse(model models.Assessment, revealAnswers bool) AssessmentResponse {
	response := AssessmentResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		CourseName:  model.Course.Name,
		Title:       model.Title,
		Description: model.Description,
		DueDate:     model.DueDate,
		TotalMarks:  model.TotalMarks,
		Questions:   make([]QuestionResponse, 0, len(model.Questions)),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	for _, question := range model.Questions {
		item := QuestionResponse{
			ID:       question.ID,
			Position: question.Position,
			Text:     question.Text,
			Type:     string(question.Type),
			Options:  []string(question.Options),
			Marks:    question.Marks,
		}
		if item.Options == nil {
			item.Options = []string{}
		}
		if revealAnswers {
			item.CorrectAnswer = question.CorrectAnswer
		}
		response.Questions = append(response.Questions, item)
	}

	return response
}

// NewAssessmentResponseSlice converts assessment models into DTOs.
func NewAssessmentResponseSlice(items []models.Assessment, revealAnswers bool) []AssessmentResponse {
	responses := make([]AssessmentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAssessmentResponse(item, revealAnswers))
	}

	return responses
}
