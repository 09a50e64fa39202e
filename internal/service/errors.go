package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrAssessmentNotFound indicates the referenced assessment does not exist.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrUserNotFound indicates the referenced student or user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrSubmissionNotFound indicates the submission was not located.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrResultNotFound indicates no result exists for the assessment and student pair.
	ErrResultNotFound = errors.New("result not found")
	// ErrDuplicateSubmission indicates the student already submitted the assessment.
	ErrDuplicateSubmission = errors.New("assessment already submitted")
	// ErrAssessmentLocked indicates the question bank can no longer change because students submitted.
	ErrAssessmentLocked = errors.New("assessment has submissions and can no longer be edited")
	// ErrInvalidQuestion indicates an authored question cannot be graded as written.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrPersistence wraps storage failures.
	ErrPersistence = errors.New("persistence failure")
)

// InvalidInputReason classifies a submission validation problem.
type InvalidInputReason string

const (
	ReasonMissingAnswers  InvalidInputReason = "missing_answers"
	ReasonEmptyAnswer     InvalidInputReason = "empty_answer"
	ReasonUnknownQuestion InvalidInputReason = "unknown_question"
	ReasonDuplicateAnswer InvalidInputReason = "duplicate_answer"
)

// InputProblem lists every question id affected by one validation reason.
type InputProblem struct {
	Reason      InvalidInputReason `json:"reason"`
	QuestionIDs []uint             `json:"question_ids"`
}

// InvalidInputError reports every problem found in an answer set at once.
type InvalidInputError struct {
	Problems []InputProblem
}

func (e *InvalidInputError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, problem := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s %v", problem.Reason, problem.QuestionIDs))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Has reports whether the error carries a problem with the given reason.
func (e *InvalidInputError) Has(reason InvalidInputReason) bool {
	_, ok := e.Problem(reason)
	return ok
}

// Problem returns the problem recorded for the given reason.
func (e *InvalidInputError) Problem(reason InvalidInputReason) (InputProblem, bool) {
	for _, problem := range e.Problems {
		if problem.Reason == reason {
			return problem, true
		}
	}
	return InputProblem{}, false
}

func (e *InvalidInputError) add(reason InvalidInputReason, ids []uint) {
	if len(ids) == 0 {
		return
	}
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	e.Problems = append(e.Problems, InputProblem{Reason: reason, QuestionIDs: sorted})
}

func (e *InvalidInputError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

func persistenceError(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
