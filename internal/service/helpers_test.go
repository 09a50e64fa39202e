package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func floatPointer(value float64) *float64 {
	return &value
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []SubmissionEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event SubmissionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}

type engineFixture struct {
	db          *gorm.DB
	mini        *miniredis.Miniredis
	cache       *ResultCache
	events      *recordingPublisher
	activity    ActivityService
	course      models.Course
	student     models.User
	instructor  models.User
	submissions SubmissionService
	grading     GradingService
	results     ResultService
	assessments AssessmentService
	now         time.Time
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &engineFixture{
		db:     db,
		mini:   mini,
		cache:  NewResultCache(client, time.Minute, testLogger()),
		events: &recordingPublisher{},
		now:    time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}

	f.course = models.Course{Name: "Physics 101"}
	require.NoError(t, db.Create(&f.course).Error)
	f.student = models.User{Name: "Jane Student", Email: "jane@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&f.student).Error)
	f.instructor = models.User{Name: "Ian Instructor", Email: "ian@example.com", Role: models.RoleInstructor}
	require.NoError(t, db.Create(&f.instructor).Error)

	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)

	f.activity = NewActivityService(repository.NewActivityLogRepository(db), testLogger())

	submissions := NewSubmissionService(assessmentRepo, userRepo, submissionRepo, testValidator(), f.cache, f.events, testLogger())
	submissions.(*submissionService).now = func() time.Time { return f.now }
	f.submissions = submissions

	gradingSvc := NewGradingService(submissionRepo, testValidator(), f.activity, f.cache, f.events, testLogger())
	gradingSvc.(*gradingService).now = func() time.Time { return f.now.Add(time.Hour) }
	f.grading = gradingSvc

	f.results = NewResultService(submissionRepo, f.cache, testLogger())

	assessments := NewAssessmentService(AssessmentRepositories{
		Assessments: assessmentRepo,
		Courses:     repository.NewCourseRepository(db),
		Users:       userRepo,
		Enrollments: repository.NewEnrollmentRepository(db),
		Submissions: submissionRepo,
	}, testValidator(), f.activity, f.cache, 10, testLogger())
	assessments.(*assessmentService).now = func() time.Time { return f.now }
	f.assessments = assessments

	return f
}

func (f *engineFixture) seedAssessment(t *testing.T, questions ...models.Question) models.Assessment {
	t.Helper()
	for i := range questions {
		questions[i].Position = i
	}
	assessment := models.Assessment{
		CourseID:   f.course.ID,
		Title:      "Mechanics quiz",
		DueDate:    f.now.Add(72 * time.Hour),
		TotalMarks: models.SumMarks(questions),
		Questions:  questions,
	}
	require.NoError(t, repository.NewAssessmentRepository(f.db).Create(context.Background(), &assessment))
	return assessment
}

func (f *engineFixture) staff() ActivityActor {
	return ActivityActor{ID: f.instructor.ID, Role: models.RoleInstructor}
}

func multipleChoice(correct string, marks float64) models.Question {
	return models.Question{
		Text:          "Pick the right option",
		Type:          models.QuestionTypeMultipleChoice,
		Options:       []string{"A", "B", "C"},
		CorrectAnswer: correct,
		Marks:         marks,
	}
}

func trueFalse(correct string, marks float64) models.Question {
	return models.Question{
		Text:          "Is it true",
		Type:          models.QuestionTypeTrueFalse,
		Options:       []string{"True", "False"},
		CorrectAnswer: correct,
		Marks:         marks,
	}
}

func essay(marks float64) models.Question {
	return models.Question{Text: "Explain momentum", Type: models.QuestionTypeEssay, Marks: marks}
}

func isValidationError(err error) bool {
	_, ok := err.(validator.ValidationErrors)
	return ok
}
