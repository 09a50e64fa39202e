package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/repository"
)

// AssessmentService manages assessments and their question banks.
type AssessmentService interface {
	ListByCourse(ctx context.Context, courseID uint, viewer ActivityActor) ([]dto.AssessmentResponse, error)
	Get(ctx context.Context, id uint, viewer ActivityActor) (dto.AssessmentResponse, error)
	Create(ctx context.Context, payload dto.AssessmentCreateRequest, actor ActivityActor) (dto.AssessmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssessmentUpdateRequest, actor ActivityActor) (dto.AssessmentResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
	Upcoming(ctx context.Context, studentID uint) ([]dto.UpcomingAssessmentResponse, error)
}

type assessmentService struct {
	assessments   repository.AssessmentRepository
	courses       repository.CourseRepository
	users         repository.UserRepository
	enrollments   repository.EnrollmentRepository
	submissions   repository.SubmissionRepository
	validator     *validator.Validate
	activity      ActivityRecorder
	cache         *ResultCache
	sanitizer     *bluemonday.Policy
	questionMarks float64
	logger        zerolog.Logger
	now           func() time.Time
}

// AssessmentRepositories groups the stores the authoring service reads and writes.
type AssessmentRepositories struct {
	Assessments repository.AssessmentRepository
	Courses     repository.CourseRepository
	Users       repository.UserRepository
	Enrollments repository.EnrollmentRepository
	Submissions repository.SubmissionRepository
}

// NewAssessmentService constructs the authoring service. Every authored question is worth
// questionMarks.
func NewAssessmentService(repos AssessmentRepositories, validate *validator.Validate, activity ActivityRecorder, cache *ResultCache, questionMarks float64, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		assessments:   repos.Assessments,
		courses:       repos.Courses,
		users:         repos.Users,
		enrollments:   repos.Enrollments,
		submissions:   repos.Submissions,
		validator:     validate,
		activity:      activity,
		cache:         cache,
		sanitizer:     bluemonday.StrictPolicy(),
		questionMarks: questionMarks,
		logger:        logger.With().Str("component", "assessment_service").Logger(),
		now:           time.Now,
	}
}

func (s *assessmentService) ListByCourse(ctx context.Context, courseID uint, viewer ActivityActor) ([]dto.AssessmentResponse, error) {
	assessments, err := s.assessments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, persistenceError(err)
	}

	return dto.NewAssessmentResponseSlice(assessments, viewer.IsStaff()), nil
}

func (s *assessmentService) Get(ctx context.Context, id uint, viewer ActivityActor) (dto.AssessmentResponse, error) {
	assessment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment, viewer.IsStaff()), nil
}

func (s *assessmentService) Create(ctx context.Context, payload dto.AssessmentCreateRequest, actor ActivityActor) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrCourseNotFound
		}
		return dto.AssessmentResponse{}, persistenceError(err)
	}

	questions, err := s.buildQuestions(payload.Questions, nil)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	assessment := models.Assessment{
		CourseID:    payload.CourseID,
		Title:       s.clean(payload.Title),
		Description: s.clean(payload.Description),
		DueDate:     payload.DueDate.UTC(),
		TotalMarks:  models.SumMarks(questions),
		Questions:   questions,
	}

	if err := s.assessments.Create(ctx, &assessment); err != nil {
		s.logger.Error().Err(err).Uint("course_id", payload.CourseID).Msg("failed to create assessment")
		return dto.AssessmentResponse{}, persistenceError(err)
	}

	s.audit(ctx, actor, "assessment.created", assessment)

	stored, err := s.load(ctx, assessment.ID)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	return dto.NewAssessmentResponse(stored, true), nil
}

func (s *assessmentService) Update(ctx context.Context, id uint, payload dto.AssessmentUpdateRequest, actor ActivityActor) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	assessment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	existing := make(map[uint]struct{}, len(assessment.Questions))
	for _, question := range assessment.Questions {
		existing[question.ID] = struct{}{}
	}

	questions, err := s.buildQuestions(payload.Questions, existing)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	kept := make(map[uint]struct{}, len(questions))
	for _, question := range questions {
		if question.ID != 0 {
			kept[question.ID] = struct{}{}
		}
	}
	removed := make([]uint, 0)
	for _, question := range assessment.Questions {
		if _, ok := kept[question.ID]; !ok {
			removed = append(removed, question.ID)
		}
	}

	assessment.Title = s.clean(payload.Title)
	assessment.Description = s.clean(payload.Description)
	assessment.DueDate = payload.DueDate.UTC()
	assessment.Questions = questions
	assessment.TotalMarks = models.SumMarks(questions)

	if err := s.assessments.Update(ctx, &assessment, removed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		if errors.Is(err, repository.ErrAssessmentHasSubmissions) {
			return dto.AssessmentResponse{}, ErrAssessmentLocked
		}
		s.logger.Error().Err(err).Uint("assessment_id", id).Msg("failed to update assessment")
		return dto.AssessmentResponse{}, persistenceError(err)
	}

	s.cache.InvalidateAssessment(ctx, id)
	s.audit(ctx, actor, "assessment.updated", assessment)

	stored, err := s.load(ctx, id)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	return dto.NewAssessmentResponse(stored, true), nil
}

func (s *assessmentService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.assessments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssessmentNotFound
		}
		s.logger.Error().Err(err).Uint("assessment_id", id).Msg("failed to delete assessment")
		return persistenceError(err)
	}

	s.cache.InvalidateAssessment(ctx, id)
	s.audit(ctx, actor, "assessment.deleted", models.Assessment{ID: id})

	return nil
}

func (s *assessmentService) Upcoming(ctx context.Context, studentID uint) ([]dto.UpcomingAssessmentResponse, error) {
	if _, err := s.users.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError(err)
	}

	courseIDs, err := s.enrollments.CourseIDsForUser(ctx, studentID)
	if err != nil {
		return nil, persistenceError(err)
	}

	assessments, err := s.assessments.ListUpcoming(ctx, courseIDs, s.now().UTC())
	if err != nil {
		return nil, persistenceError(err)
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return nil, persistenceError(err)
	}

	byAssessment := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		byAssessment[submission.AssessmentID] = submission
	}

	responses := make([]dto.UpcomingAssessmentResponse, 0, len(assessments))
	for _, assessment := range assessments {
		item := dto.UpcomingAssessmentResponse{
			ID:         assessment.ID,
			CourseID:   assessment.CourseID,
			CourseName: assessment.Course.Name,
			Title:      assessment.Title,
			DueDate:    assessment.DueDate,
			TotalMarks: assessment.TotalMarks,
			Status:     dto.StatusNotStarted,
		}
		if submission, ok := byAssessment[assessment.ID]; ok {
			submissionID := submission.ID
			item.Status = string(submission.Status)
			item.SubmissionID = &submissionID
		}
		responses = append(responses, item)
	}

	return responses, nil
}

func (s *assessmentService) load(ctx context.Context, id uint) (models.Assessment, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assessment{}, ErrAssessmentNotFound
		}
		return models.Assessment{}, persistenceError(err)
	}
	return assessment, nil
}

// buildQuestions maps requested questions onto models. Ids not in existing become new questions.
func (s *assessmentService) buildQuestions(requests []dto.QuestionRequest, existing map[uint]struct{}) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(requests))
	seen := make(map[uint]struct{}, len(requests))

	for i, request := range requests {
		question := models.Question{
			Position:      i,
			Text:          s.clean(request.Text),
			Type:          models.NormalizeQuestionType(request.Type),
			Options:       cleanOptions(request.Options),
			CorrectAnswer: strings.TrimSpace(request.CorrectAnswer),
			Marks:         s.questionMarks,
		}

		if question.Text == "" {
			return nil, fmt.Errorf("%w: question %d has no text", ErrInvalidQuestion, i+1)
		}
		if question.Type.IsAutoGradable() && question.CorrectAnswer == "" {
			return nil, fmt.Errorf("%w: question %d needs a correct answer", ErrInvalidQuestion, i+1)
		}

		if _, ok := existing[request.ID]; ok && request.ID != 0 {
			if _, dup := seen[request.ID]; dup {
				return nil, fmt.Errorf("%w: question id %d listed twice", ErrInvalidQuestion, request.ID)
			}
			seen[request.ID] = struct{}{}
			question.ID = request.ID
		}

		questions = append(questions, question)
	}

	return questions, nil
}

func (s *assessmentService) clean(value string) string {
	return plainText(s.sanitizer, value)
}

// plainText strips markup and keeps the remaining characters as typed. The policy escapes
// text it lets through, so entities are decoded again before storing.
func plainText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(value)))
}

func (s *assessmentService) audit(ctx context.Context, actor ActivityActor, action string, assessment models.Assessment) {
	metadata := map[string]interface{}{"assessment_id": assessment.ID}
	if assessment.CourseID != 0 {
		metadata["course_id"] = assessment.CourseID
		metadata["question_count"] = len(assessment.Questions)
		metadata["total_marks"] = assessment.TotalMarks
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "assessment",
		EntityID:   &assessment.ID,
		Metadata:   metadata,
	})
}

func cleanOptions(options []string) []string {
	cleaned := make([]string, 0, len(options))
	for _, option := range options {
		if trimmed := strings.TrimSpace(option); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
