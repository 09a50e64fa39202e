package grading

import (
	"strings"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
)

// GradedAnswer pairs a question with its submitted text and grading outcome.
type GradedAnswer struct {
	QuestionID uint
	Text       string
	Outcome    Outcome
}

// Tally is the aggregate of grading every answer of a submission.
type Tally struct {
	Answers       []GradedAnswer
	Total         float64
	AllAutoGraded bool
}

// Fold grades the answers in question bank order. The caller guarantees every question
// has an answer; questions without one are skipped.
func Fold(questions []models.Question, answers map[uint]string) Tally {
	tally := Tally{
		Answers:       make([]GradedAnswer, 0, len(questions)),
		AllAutoGraded: true,
	}

	for _, question := range questions {
		text, ok := answers[question.ID]
		if !ok {
			continue
		}

		outcome := Grade(question, text)
		tally.Answers = append(tally.Answers, GradedAnswer{
			QuestionID: question.ID,
			Text:       strings.TrimSpace(text),
			Outcome:    outcome,
		})
		tally.Total += outcome.Marks
		tally.AllAutoGraded = tally.AllAutoGraded && outcome.AutoGraded
	}

	return tally
}
