package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/repository"
)

// StatisticsService aggregates submission and grading progress per assessment.
type StatisticsService interface {
	ForAssessment(ctx context.Context, assessmentID uint) (dto.AssessmentStatistics, error)
}

type statisticsService struct {
	assessments repository.AssessmentRepository
	analytics   repository.AnalyticsRepository
	cache       *ResultCache
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStatisticsService constructs the statistics service.
func NewStatisticsService(assessments repository.AssessmentRepository, analytics repository.AnalyticsRepository, cache *ResultCache, logger zerolog.Logger) StatisticsService {
	return &statisticsService{
		assessments: assessments,
		analytics:   analytics,
		cache:       cache,
		logger:      logger.With().Str("component", "statistics_service").Logger(),
		now:         time.Now,
	}
}

func (s *statisticsService) ForAssessment(ctx context.Context, assessmentID uint) (dto.AssessmentStatistics, error) {
	tracer := otel.Tracer("github.com/noah-isme/edusync-assessment-api/internal/service/statistics")
	ctx, span := tracer.Start(ctx, "statistics.aggregate")
	span.SetAttributes(attribute.Int64("statistics.assessment_id", int64(assessmentID)))
	defer span.End()

	cached, generation, ok := s.cache.GetStatistics(ctx, assessmentID)
	if ok {
		cached.CacheHit = true
		span.SetAttributes(attribute.Bool("statistics.cache_hit", true))
		return cached, nil
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "assessment_not_found")
			return dto.AssessmentStatistics{}, ErrAssessmentNotFound
		}
		span.SetStatus(codes.Error, "assessment_lookup_failed")
		return dto.AssessmentStatistics{}, persistenceError(err)
	}

	enrolled, err := s.analytics.CountEnrolledStudents(ctx, assessment.CourseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_enrolled_failed")
		return dto.AssessmentStatistics{}, persistenceError(err)
	}

	submissions, err := s.analytics.ListSubmissionsForAssessment(ctx, assessmentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_submissions_failed")
		return dto.AssessmentStatistics{}, persistenceError(err)
	}

	stats := s.buildStatistics(assessment, enrolled, submissions)
	span.SetAttributes(
		attribute.Int64("statistics.enrolled", enrolled),
		attribute.Int("statistics.submission_count", len(submissions)),
	)

	s.cache.SetStatistics(ctx, stats, generation)
	return stats, nil
}

func (s *statisticsService) buildStatistics(assessment models.Assessment, enrolled int64, submissions []models.Submission) dto.AssessmentStatistics {
	stats := dto.AssessmentStatistics{
		AssessmentID:     assessment.ID,
		AssessmentTitle:  assessment.Title,
		EnrolledStudents: enrolled,
		Submitted:        int64(len(submissions)),
		ScoreDistribution: dto.ScoreDistribution{
			dto.ScoreBandExcellent: 0,
			dto.ScoreBandGood:      0,
			dto.ScoreBandFair:      0,
			dto.ScoreBandLow:       0,
		},
		DailySubmissions: []dto.DailySubmissionPoint{},
		GeneratedAt:      s.now().UTC(),
	}

	daily := map[time.Time]int64{}
	scoreSum := 0
	for _, submission := range submissions {
		if submission.SubmittedAt.After(assessment.DueDate) {
			stats.Late++
		} else {
			stats.OnTime++
		}
		daily[startOfDay(submission.SubmittedAt)]++

		if submission.Grade == nil {
			stats.PendingGrading++
			continue
		}

		score := percentage(*submission.Grade, submission.TotalMarks)
		if stats.Graded == 0 || score > stats.HighestScore {
			stats.HighestScore = score
		}
		if stats.Graded == 0 || score < stats.LowestScore {
			stats.LowestScore = score
		}
		stats.Graded++
		scoreSum += score
		stats.ScoreDistribution[scoreBand(score)]++
	}

	if stats.Graded > 0 {
		stats.AverageScore = math.Round(float64(scoreSum)/float64(stats.Graded)*100) / 100
	}
	stats.NotSubmitted = max(enrolled-stats.Submitted, 0)

	days := make([]time.Time, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	for _, day := range days {
		stats.DailySubmissions = append(stats.DailySubmissions, dto.DailySubmissionPoint{Day: day, Submissions: daily[day]})
	}

	return stats
}

func scoreBand(score int) string {
	switch {
	case score >= 90:
		return dto.ScoreBandExcellent
	case score >= 75:
		return dto.ScoreBandGood
	case score >= 60:
		return dto.ScoreBandFair
	default:
		return dto.ScoreBandLow
	}
}

func startOfDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}
