package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MultipleChoice"
	QuestionTypeTrueFalse      QuestionType = "TrueFalse"
	QuestionTypeEssay          QuestionType = "Essay"
	QuestionTypeShortAnswer    QuestionType = "ShortAnswer"
)

var knownQuestionTypes = []QuestionType{
	QuestionTypeMultipleChoice,
	QuestionTypeTrueFalse,
	QuestionTypeEssay,
	QuestionTypeShortAnswer,
}

// NormalizeQuestionType maps case variants of a known type to its canonical spelling.
// Unknown types are kept (trimmed) and are graded manually.
func NormalizeQuestionType(value string) QuestionType {
	trimmed := strings.TrimSpace(value)
	for _, known := range knownQuestionTypes {
		if strings.EqualFold(trimmed, string(known)) {
			return known
		}
	}
	return QuestionType(trimmed)
}

// IsAutoGradable reports whether answers of this type are graded by text comparison.
func (t QuestionType) IsAutoGradable() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Assessment is a gradable assignment scoped to one course.
type Assessment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CourseID    uint       `gorm:"not null;index" json:"course_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     time.Time  `gorm:"not null" json:"due_date"`
	TotalMarks  float64    `gorm:"not null" json:"total_marks"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Course      Course     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
	Questions   []Question `gorm:"constraint:OnDelete:CASCADE" json:"questions"`
}

// IsPastDue returns true when the assessment deadline has already passed.
func (a Assessment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// SumMarks returns the sum of the marks of the given questions.
func SumMarks(questions []Question) float64 {
	var total float64
	for _, question := range questions {
		total += question.Marks
	}
	return total
}

// Question is one item of an assessment's question bank.
type Question struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	AssessmentID  uint                        `gorm:"not null;index" json:"assessment_id"`
	Position      int                         `gorm:"not null;default:0" json:"position"`
	Text          string                      `gorm:"type:text;not null" json:"text"`
	Type          QuestionType                `gorm:"size:32;not null" json:"type"`
	Options       datatypes.JSONSlice[string] `gorm:"type:json" json:"options"`
	CorrectAnswer string                      `gorm:"type:text;not null" json:"correct_answer"`
	Marks         float64                     `gorm:"not null" json:"marks"`
}
