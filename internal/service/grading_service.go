package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/observability"
	"github.com/noah-isme/edusync-assessment-api/internal/repository"
)

// GradingService applies instructor grades to submissions.
type GradingService interface {
	Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, actor ActivityActor) (dto.SubmissionResponse, error)
}

type gradingService struct {
	repo      repository.SubmissionRepository
	validator *validator.Validate
	activity  ActivityRecorder
	cache     *ResultCache
	events    EventPublisher
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewGradingService constructs the manual grading gate.
func NewGradingService(repo repository.SubmissionRepository, validate *validator.Validate, activity ActivityRecorder, cache *ResultCache, events EventPublisher, logger zerolog.Logger) GradingService {
	return &gradingService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		cache:     cache,
		events:    events,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "grading_service").Logger(),
		now:       time.Now,
	}
}

// Grade overwrites the submission level grade and feedback. Regrading is allowed and the last
// call wins; per-answer marks are never touched.
func (s *gradingService) Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/edusync-assessment-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.update")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.repo.GetByID(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, persistenceError(err)
	}

	grade := *payload.Grade
	feedback := plainText(s.sanitizer, payload.Feedback)
	gradedAt := s.now().UTC()

	history := models.SubmissionGradeHistory{
		SubmissionID: submission.ID,
		Grade:        grade,
		Feedback:     feedback,
		GradedBy:     actor.ID,
		GradedAt:     gradedAt,
	}
	update := repository.GradeUpdate{
		Grade:    grade,
		Feedback: feedback,
		Status:   models.SubmissionStatusGraded,
		History:  history,
	}

	if err := s.repo.ApplyGrade(ctx, submission.ID, update); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.SetStatus(codes.Error, "submission_update_failed")
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to apply grade")
		return dto.SubmissionResponse{}, persistenceError(err)
	}

	gradedBy := actor.ID
	submission.Grade = &grade
	submission.Feedback = &feedback
	submission.Status = models.SubmissionStatusGraded
	submission.GradedAt = &gradedAt
	submission.GradedBy = &gradedBy
	submission.History = append([]models.SubmissionGradeHistory{history}, submission.History...)

	observability.GradesApplied().Inc()
	s.cache.Invalidate(ctx, submission.AssessmentID, submission.StudentID)

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "submission.graded",
		EntityType: "submission",
		EntityID:   &submission.ID,
		Metadata: map[string]interface{}{
			"submission_id": submission.ID,
			"assessment_id": submission.AssessmentID,
			"student_id":    submission.StudentID,
			"grade":         grade,
		},
	})

	publishEvents(ctx, s.events, s.logger, NewSubmissionEvent(EventSubmissionGraded, submission, gradedAt))

	span.SetAttributes(
		attribute.Float64("grading.grade", grade),
		attribute.String("grading.status", string(submission.Status)),
	)

	return dto.NewSubmissionResponse(submission), nil
}
