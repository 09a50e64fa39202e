package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/grading"
	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/observability"
	"github.com/noah-isme/edusync-assessment-api/internal/repository"
)

// SubmissionService records a student's answer set as one atomic, auto-graded submission.
type SubmissionService interface {
	Submit(ctx context.Context, assessmentID, studentID uint, payload dto.SubmitAssessmentRequest) (dto.SubmissionReceipt, error)
}

type submissionService struct {
	assessments repository.AssessmentRepository
	users       repository.UserRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	cache       *ResultCache
	events      EventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs the submission engine.
func NewSubmissionService(
	assessments repository.AssessmentRepository,
	users repository.UserRepository,
	submissions repository.SubmissionRepository,
	validate *validator.Validate,
	cache *ResultCache,
	events EventPublisher,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		assessments: assessments,
		users:       users,
		submissions: submissions,
		validator:   validate,
		cache:       cache,
		events:      events,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/edusync-assessment-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, assessmentID, studentID uint, payload dto.SubmitAssessmentRequest) (dto.SubmissionReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "submission.create", trace.WithAttributes(
		attribute.Int64("submission.assessment_id", int64(assessmentID)),
		attribute.Int64("submission.student_id", int64(studentID)),
		attribute.Int("submission.answer_count", len(payload.Answers)),
	))
	defer span.End()

	fail := func(err error, status string) (dto.SubmissionReceipt, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.SubmissionReceipt{}, err
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrAssessmentNotFound, "assessment_not_found")
		}
		return fail(persistenceError(err), "assessment_lookup_failed")
	}

	if _, err := s.users.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrUserNotFound, "student_not_found")
		}
		return fail(persistenceError(err), "student_lookup_failed")
	}

	if err := s.validator.Struct(payload); err != nil {
		return fail(err, "validation_failed")
	}

	// The bank is graded as it stands under the assessment lock, not as read above.
	var tally grading.Tally
	submission, err := s.submissions.CreateWithAnswers(ctx, assessment.ID, func(locked models.Assessment, questions []models.Question) (models.Submission, error) {
		answers, err := collectAnswers(questions, payload.Answers)
		if err != nil {
			return models.Submission{}, err
		}
		tally = grading.Fold(questions, answers)
		return s.buildSubmission(locked, studentID, tally), nil
	})
	if err != nil {
		var invalid *InvalidInputError
		switch {
		case errors.As(err, &invalid):
			for _, problem := range invalid.Problems {
				observability.SubmissionRejections().WithLabelValues(string(problem.Reason)).Inc()
			}
			return fail(err, "invalid_answers")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fail(ErrAssessmentNotFound, "assessment_not_found")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			observability.SubmissionRejections().WithLabelValues("duplicate_submission").Inc()
			return fail(ErrDuplicateSubmission, "duplicate_submission")
		}
		s.logger.Error().Err(err).
			Uint("assessment_id", assessmentID).
			Uint("student_id", studentID).
			Msg("failed to persist submission")
		return fail(persistenceError(err), "submission_persist_failed")
	}

	observability.SubmissionsTotal().WithLabelValues(string(submission.Status)).Inc()
	span.SetAttributes(
		attribute.Int64("submission.id", int64(submission.ID)),
		attribute.String("submission.status", string(submission.Status)),
		attribute.Float64("submission.auto_marks", tally.Total),
	)

	s.cache.Invalidate(ctx, assessmentID, studentID)

	events := []SubmissionEvent{NewSubmissionEvent(EventSubmissionCreated, submission, submission.SubmittedAt)}
	if submission.IsGraded() {
		events = append(events, NewSubmissionEvent(EventSubmissionGraded, submission, submission.SubmittedAt))
	}
	publishEvents(ctx, s.events, s.logger, events...)

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assessment_id", assessmentID).
		Uint("student_id", studentID).
		Str("status", string(submission.Status)).
		Msg("submission recorded")

	return dto.NewSubmissionReceipt(submission), nil
}

func (s *submissionService) buildSubmission(assessment models.Assessment, studentID uint, tally grading.Tally) models.Submission {
	submittedAt := s.now().UTC()

	submission := models.Submission{
		AssessmentID: assessment.ID,
		StudentID:    studentID,
		Status:       models.SubmissionStatusSubmitted,
		TotalMarks:   assessment.TotalMarks,
		SubmittedAt:  submittedAt,
		Answers:      make([]models.Answer, 0, len(tally.Answers)),
	}

	for _, answer := range tally.Answers {
		submission.Answers = append(submission.Answers, models.Answer{
			QuestionID: answer.QuestionID,
			Text:       answer.Text,
			Marks:      answer.Outcome.Marks,
			Feedback:   answer.Outcome.Feedback,
		})
	}

	if tally.AllAutoGraded {
		grade := tally.Total
		feedback := grading.AutoGradedFeedback(tally.Total, assessment.TotalMarks)
		submission.Status = models.SubmissionStatusGraded
		submission.Grade = &grade
		submission.Feedback = &feedback
		submission.GradedAt = &submittedAt
	}

	return submission
}

// collectAnswers checks the answer set against the question bank and reports every problem
// found, each with the full list of offending question ids.
func collectAnswers(questions []models.Question, inputs []dto.AnswerInput) (map[uint]string, error) {
	bankIDs := lo.Map(questions, func(question models.Question, _ int) uint { return question.ID })
	submittedIDs := lo.Map(inputs, func(input dto.AnswerInput, _ int) uint { return input.QuestionID })

	problems := &InvalidInputError{}
	problems.add(ReasonMissingAnswers, lo.Without(bankIDs, submittedIDs...))
	problems.add(ReasonEmptyAnswer, lo.Uniq(lo.FilterMap(inputs, func(input dto.AnswerInput, _ int) (uint, bool) {
		return input.QuestionID, strings.TrimSpace(input.Answer) == ""
	})))
	problems.add(ReasonUnknownQuestion, lo.Uniq(lo.Without(submittedIDs, bankIDs...)))
	problems.add(ReasonDuplicateAnswer, lo.FindDuplicates(submittedIDs))

	if err := problems.orNil(); err != nil {
		return nil, err
	}

	return lo.SliceToMap(inputs, func(input dto.AnswerInput) (uint, string) {
		return input.QuestionID, input.Answer
	}), nil
}
