package models

import "time"

// SubmissionStatus tracks the grading lifecycle of a submission.
type SubmissionStatus string

const (
	// SubmissionStatusSubmitted indicates the submission awaits manual grading.
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	// SubmissionStatusGraded indicates the submission has a final grade.
	SubmissionStatusGraded SubmissionStatus = "graded"
)

// Submission is one student's attempt at one assessment.
type Submission struct {
	ID           uint                     `gorm:"primaryKey" json:"id"`
	AssessmentID uint                     `gorm:"not null;uniqueIndex:idx_submission_assessment_student" json:"assessment_id"`
	StudentID    uint                     `gorm:"not null;uniqueIndex:idx_submission_assessment_student;index" json:"student_id"`
	Status       SubmissionStatus         `gorm:"size:32;not null" json:"status"`
	TotalMarks   float64                  `gorm:"not null" json:"total_marks"`
	Grade        *float64                 `json:"grade"`
	Feedback     *string                  `gorm:"type:text" json:"feedback"`
	SubmittedAt  time.Time                `gorm:"not null" json:"submitted_at"`
	GradedAt     *time.Time               `json:"graded_at"`
	GradedBy     *uint                    `json:"graded_by"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	Assessment   Assessment               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assessment"`
	Student      User                     `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Answers      []Answer                 `gorm:"constraint:OnDelete:CASCADE" json:"answers"`
	History      []SubmissionGradeHistory `gorm:"constraint:OnDelete:CASCADE" json:"history"`
}

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// Answer is one question's response within a submission.
type Answer struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	SubmissionID uint     `gorm:"not null;uniqueIndex:idx_answer_submission_question" json:"submission_id"`
	QuestionID   uint     `gorm:"not null;uniqueIndex:idx_answer_submission_question" json:"question_id"`
	Text         string   `gorm:"type:text;not null" json:"text"`
	Marks        float64  `gorm:"not null;default:0" json:"marks"`
	Feedback     string   `gorm:"type:text" json:"feedback"`
	Question     Question `gorm:"constraint:OnDelete:CASCADE" json:"question"`
}

// SubmissionGradeHistory records every manual grade applied to a submission.
type SubmissionGradeHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	Grade        float64   `gorm:"not null" json:"grade"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	GradedBy     uint      `gorm:"not null" json:"graded_by"`
	GradedAt     time.Time `gorm:"not null" json:"graded_at"`
}
