package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/repository"
)

func newStatisticsService(f *engineFixture) *statisticsService {
	svc := NewStatisticsService(repository.NewAssessmentRepository(f.db), repository.NewAnalyticsRepository(f.db), f.cache, testLogger())
	impl := svc.(*statisticsService)
	impl.now = func() time.Time { return f.now }
	return impl
}

func (f *engineFixture) enrollStudent(t *testing.T, name, email string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: email, Role: models.RoleStudent}
	require.NoError(t, f.db.Create(&user).Error)
	require.NoError(t, f.db.Create(&models.Enrollment{UserID: user.ID, CourseID: f.course.ID}).Error)
	return user
}

func TestStatisticsServiceAggregatesProgress(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Create(&models.Enrollment{UserID: f.student.ID, CourseID: f.course.ID}).Error)
	require.NoError(t, f.db.Create(&models.Enrollment{UserID: f.instructor.ID, CourseID: f.course.ID}).Error)
	second := f.enrollStudent(t, "Sam Student", "sam@example.com")
	third := f.enrollStudent(t, "Kim Student", "kim@example.com")
	f.enrollStudent(t, "Lee Student", "lee@example.com")

	assessment := f.seedAssessment(t, multipleChoice("A", 10), essay(10))

	submit := func(student models.User, answers ...string) uint {
		receipt, err := f.submissions.Submit(ctx, assessment.ID, student.ID, dto.SubmitAssessmentRequest{
			Answers: answersFor(assessment.Questions, answers...),
		})
		require.NoError(t, err)
		return receipt.SubmissionID
	}

	first := submit(f.student, "A", "essay one")
	_, err := f.grading.Grade(ctx, first, dto.GradeSubmissionRequest{Grade: floatPointer(19)}, f.staff())
	require.NoError(t, err)

	secondID := submit(second, "B", "essay two")
	_, err = f.grading.Grade(ctx, secondID, dto.GradeSubmissionRequest{Grade: floatPointer(11)}, f.staff())
	require.NoError(t, err)

	lateID := submit(third, "A", "essay three")
	require.NoError(t, f.db.Model(&models.Submission{}).
		Where("id = ?", lateID).
		Update("submitted_at", assessment.DueDate.Add(24*time.Hour)).Error)

	stats, err := newStatisticsService(f).ForAssessment(ctx, assessment.ID)
	require.NoError(t, err)
	require.False(t, stats.CacheHit)
	require.Equal(t, "Mechanics quiz", stats.AssessmentTitle)
	require.Equal(t, int64(4), stats.EnrolledStudents)
	require.Equal(t, int64(3), stats.Submitted)
	require.Equal(t, int64(2), stats.Graded)
	require.Equal(t, int64(1), stats.PendingGrading)
	require.Equal(t, int64(1), stats.NotSubmitted)
	require.Equal(t, int64(2), stats.OnTime)
	require.Equal(t, int64(1), stats.Late)
	require.Equal(t, 95, stats.HighestScore)
	require.Equal(t, 55, stats.LowestScore)
	require.InDelta(t, 75.0, stats.AverageScore, 0.001)
	require.Equal(t, int64(1), stats.ScoreDistribution[dto.ScoreBandExcellent])
	require.Equal(t, int64(1), stats.ScoreDistribution[dto.ScoreBandLow])
	require.Zero(t, stats.ScoreDistribution[dto.ScoreBandGood])
	require.Len(t, stats.DailySubmissions, 2)
	require.Equal(t, int64(2), stats.DailySubmissions[0].Submissions)
	require.True(t, stats.DailySubmissions[0].Day.Before(stats.DailySubmissions[1].Day))
}

func TestStatisticsServiceCachesUntilNextGrade(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	assessment := f.seedAssessment(t, essay(10))
	svc := newStatisticsService(f)

	receipt, err := f.submissions.Submit(ctx, assessment.ID, f.student.ID, dto.SubmitAssessmentRequest{
		Answers: answersFor(assessment.Questions, "essay"),
	})
	require.NoError(t, err)

	stats, err := svc.ForAssessment(ctx, assessment.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.PendingGrading)
	require.True(t, f.mini.Exists(statisticsKey(assessment.ID)))

	cached, err := svc.ForAssessment(ctx, assessment.ID)
	require.NoError(t, err)
	require.True(t, cached.CacheHit)

	_, err = f.grading.Grade(ctx, receipt.SubmissionID, dto.GradeSubmissionRequest{Grade: floatPointer(8)}, f.staff())
	require.NoError(t, err)
	require.False(t, f.mini.Exists(statisticsKey(assessment.ID)))

	fresh, err := svc.ForAssessment(ctx, assessment.ID)
	require.NoError(t, err)
	require.False(t, fresh.CacheHit)
	require.Equal(t, int64(1), fresh.Graded)
	require.Equal(t, 80, fresh.HighestScore)
}

func TestStatisticsServiceEmptyAndMissing(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	svc := newStatisticsService(f)

	_, err := svc.ForAssessment(ctx, 404)
	require.ErrorIs(t, err, ErrAssessmentNotFound)

	assessment := f.seedAssessment(t, multipleChoice("A", 10))
	stats, err := svc.ForAssessment(ctx, assessment.ID)
	require.NoError(t, err)
	require.Zero(t, stats.Submitted)
	require.Zero(t, stats.AverageScore)
	require.Zero(t, stats.NotSubmitted)
	require.Empty(t, stats.DailySubmissions)
	require.Len(t, stats.ScoreDistribution, 4)
}

func TestScoreBand(t *testing.T) {
	require.Equal(t, dto.ScoreBandExcellent, scoreBand(100))
	require.Equal(t, dto.ScoreBandExcellent, scoreBand(90))
	require.Equal(t, dto.ScoreBandGood, scoreBand(75))
	require.Equal(t, dto.ScoreBandFair, scoreBand(60))
	require.Equal(t, dto.ScoreBandLow, scoreBand(59))
}
