package dto

import "time"

// FeedbackNotProvided is rendered when a submission carries no feedback.
const FeedbackNotProvided = "No feedback provided"

// ResultSummary is the compact projection of one submission for result listings.
type ResultSummary struct {
	SubmissionID    uint      `json:"submission_id"`
	AssessmentID    uint      `json:"assessment_id"`
	StudentID       uint      `json:"student_id"`
	Score           int       `json:"score"`
	AttemptDate     time.Time `json:"attempt_date"`
	StudentName     string    `json:"student_name"`
	AssessmentTitle string    `json:"assessment_title"`
}

// DetailedResult is the percentage-normalised view of one student's submission.
type DetailedResult struct {
	SubmissionID    uint           `json:"submission_id"`
	AssessmentID    uint           `json:"assessment_id"`
	AssessmentTitle string         `json:"assessment_title"`
	Description     string         `json:"description"`
	CourseID        uint           `json:"course_id"`
	CourseName      string         `json:"course_name"`
	DueDate         time.Time      `json:"due_date"`
	StudentID       uint           `json:"student_id"`
	StudentName     string         `json:"student_name"`
	Status          string         `json:"status"`
	Grade           float64        `json:"grade"`
	TotalMarks      float64        `json:"total_marks"`
	Score           int            `json:"score"`
	Feedback        string         `json:"feedback"`
	SubmittedAt     time.Time      `json:"submitted_at"`
	GradedAt        *time.Time     `json:"graded_at"`
	Answers         []AnswerResult `json:"answers"`
}

// AnswerResult is one question of a detailed result.
type AnswerResult struct {
	QuestionID    uint     `json:"question_id"`
	QuestionText  string   `json:"question_text"`
	QuestionType  string   `json:"question_type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	UserAnswer    string   `json:"user_answer"`
	IsCorrect     bool     `json:"is_correct"`
	Marks         float64  `json:"marks"`
	Score         int      `json:"score"`
	Feedback      string   `json:"feedback"`
}
