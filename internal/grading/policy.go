// Package grading holds the pure grading rules applied to submitted answers.
package grading

import (
	"fmt"
	"strings"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
)

const (
	// FeedbackCorrect is attached to auto-graded answers that match the canonical answer.
	FeedbackCorrect = "Correct answer"
	// FeedbackPendingManual is attached to answers that need an instructor.
	FeedbackPendingManual = "Pending manual grading"
)

// Outcome is the result of grading a single answer.
type Outcome struct {
	Marks      float64
	Feedback   string
	AutoGraded bool
}

// Grade applies the grading policy to one submitted answer.
func Grade(question models.Question, submitted string) Outcome {
	if !question.Type.IsAutoGradable() {
		return Outcome{Feedback: FeedbackPendingManual}
	}

	if IsCorrect(submitted, question.CorrectAnswer) {
		return Outcome{Marks: question.Marks, Feedback: FeedbackCorrect, AutoGraded: true}
	}

	return Outcome{
		Feedback:   fmt.Sprintf("Incorrect. The correct answer was: %s", question.CorrectAnswer),
		AutoGraded: true,
	}
}

// IsCorrect compares a submitted answer with the canonical answer, ignoring case and
// surrounding whitespace.
func IsCorrect(submitted, canonical string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(canonical))
}

// AutoGradedFeedback renders the submission level feedback of a fully auto-graded attempt.
func AutoGradedFeedback(total, totalMarks float64) string {
	return fmt.Sprintf("Auto-graded. Total marks: %s out of %s", formatMarks(total), formatMarks(totalMarks))
}

func formatMarks(value float64) string {
	return fmt.Sprintf("%g", value)
}
