package service

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/grading"
	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/repository"
)

// ResultService projects stored submissions into result views.
type ResultService interface {
	ResultsForAssessment(ctx context.Context, assessmentID uint) ([]dto.ResultSummary, error)
	ResultsForStudent(ctx context.Context, studentID uint) ([]dto.ResultSummary, error)
	DetailedResult(ctx context.Context, assessmentID, studentID uint) (dto.DetailedResult, error)
}

type resultService struct {
	submissions repository.SubmissionRepository
	cache       *ResultCache
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewResultService constructs the result projector.
func NewResultService(submissions repository.SubmissionRepository, cache *ResultCache, logger zerolog.Logger) ResultService {
	return &resultService{
		submissions: submissions,
		cache:       cache,
		logger:      logger.With().Str("component", "result_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/edusync-assessment-api/internal/service/result"),
	}
}

func (s *resultService) ResultsForAssessment(ctx context.Context, assessmentID uint) ([]dto.ResultSummary, error) {
	return s.summaries(ctx, repository.SubmissionFilter{AssessmentID: &assessmentID})
}

func (s *resultService) ResultsForStudent(ctx context.Context, studentID uint) ([]dto.ResultSummary, error) {
	return s.summaries(ctx, repository.SubmissionFilter{StudentID: &studentID})
}

func (s *resultService) summaries(ctx context.Context, filter repository.SubmissionFilter) ([]dto.ResultSummary, error) {
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, persistenceError(err)
	}

	results := make([]dto.ResultSummary, 0, len(submissions))
	for _, submission := range submissions {
		results = append(results, summarize(submission))
	}

	return results, nil
}

func (s *resultService) DetailedResult(ctx context.Context, assessmentID, studentID uint) (dto.DetailedResult, error) {
	ctx, span := s.tracer.Start(ctx, "results.detail", trace.WithAttributes(
		attribute.Int64("result.assessment_id", int64(assessmentID)),
		attribute.Int64("result.student_id", int64(studentID)),
	))
	defer span.End()

	cached, generation, ok := s.cache.Get(ctx, assessmentID, studentID)
	if ok {
		span.SetAttributes(attribute.Bool("result.cache_hit", true))
		return cached, nil
	}

	submission, err := s.submissions.GetDetailed(ctx, assessmentID, studentID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "result_not_found")
			return dto.DetailedResult{}, ErrResultNotFound
		}
		span.SetStatus(codes.Error, "result_lookup_failed")
		return dto.DetailedResult{}, persistenceError(err)
	}

	if submission.Assessment.ID == 0 || submission.Student.ID == 0 {
		s.logger.Warn().
			Uint("submission_id", submission.ID).
			Msg("submission references a missing assessment or student")
		span.SetStatus(codes.Error, "result_not_found")
		return dto.DetailedResult{}, ErrResultNotFound
	}

	result := projectDetailedResult(submission)
	s.cache.Set(ctx, result, generation)

	return result, nil
}

func summarize(submission models.Submission) dto.ResultSummary {
	score := 0
	if submission.Grade != nil {
		score = int(*submission.Grade)
	}

	return dto.ResultSummary{
		SubmissionID:    submission.ID,
		AssessmentID:    submission.AssessmentID,
		StudentID:       submission.StudentID,
		Score:           score,
		AttemptDate:     submission.SubmittedAt,
		StudentName:     submission.Student.Name,
		AssessmentTitle: submission.Assessment.Title,
	}
}

func projectDetailedResult(submission models.Submission) dto.DetailedResult {
	assessment := submission.Assessment

	result := dto.DetailedResult{
		SubmissionID:    submission.ID,
		AssessmentID:    submission.AssessmentID,
		AssessmentTitle: assessment.Title,
		Description:     assessment.Description,
		CourseID:        assessment.CourseID,
		CourseName:      assessment.Course.Name,
		DueDate:         assessment.DueDate,
		StudentID:       submission.StudentID,
		StudentName:     submission.Student.Name,
		Status:          string(submission.Status),
		TotalMarks:      submission.TotalMarks,
		Feedback:        dto.FeedbackNotProvided,
		SubmittedAt:     submission.SubmittedAt,
		GradedAt:        submission.GradedAt,
		Answers:         make([]dto.AnswerResult, 0, len(submission.Answers)),
	}

	if submission.Grade != nil {
		result.Grade = *submission.Grade
		result.Score = percentage(*submission.Grade, submission.TotalMarks)
	}
	if submission.Feedback != nil && *submission.Feedback != "" {
		result.Feedback = *submission.Feedback
	}

	for _, answer := range submission.Answers {
		question := answer.Question
		item := dto.AnswerResult{
			QuestionID:    answer.QuestionID,
			QuestionText:  question.Text,
			QuestionType:  string(question.Type),
			Options:       []string(question.Options),
			CorrectAnswer: question.CorrectAnswer,
			UserAnswer:    answer.Text,
			IsCorrect:     grading.IsCorrect(answer.Text, question.CorrectAnswer),
			Marks:         answer.Marks,
			Feedback:      answer.Feedback,
		}
		if item.Options == nil {
			item.Options = []string{}
		}
		// A correct answer worth zero marks renders as 0, the same as an ungraded one.
		if answer.Marks > 0 {
			item.Score = percentage(answer.Marks, question.Marks)
		}
		result.Answers = append(result.Answers, item)
	}

	return result
}

func percentage(value, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(value / total * 100))
}
