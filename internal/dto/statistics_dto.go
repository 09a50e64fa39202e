package dto

import "time"

// Score bands used by AssessmentStatistics.ScoreDistribution.
const (
	ScoreBandExcellent = "90-100"
	ScoreBandGood      = "75-89"
	ScoreBandFair      = "60-74"
	ScoreBandLow       = "0-59"
)

// ScoreDistribution counts graded submissions per percentage band.
type ScoreDistribution map[string]int64

// DailySubmissionPoint is the number of submissions received on one UTC day.
type DailySubmissionPoint struct {
	Day         time.Time `json:"day"`
	Submissions int64     `json:"submissions"`
}

// AssessmentStatistics aggregates submission and grading progress for one assessment.
type AssessmentStatistics struct {
	AssessmentID      uint                   `json:"assessment_id"`
	AssessmentTitle   string                 `json:"assessment_title"`
	EnrolledStudents  int64                  `json:"enrolled_students"`
	Submitted         int64                  `json:"submitted"`
	Graded            int64                  `json:"graded"`
	PendingGrading    int64                  `json:"pending_grading"`
	NotSubmitted      int64                  `json:"not_submitted"`
	OnTime            int64                  `json:"on_time"`
	Late              int64                  `json:"late"`
	AverageScore      float64                `json:"average_score"`
	HighestScore      int                    `json:"highest_score"`
	LowestScore       int                    `json:"lowest_score"`
	ScoreDistribution ScoreDistribution      `json:"score_distribution"`
	DailySubmissions  []DailySubmissionPoint `json:"daily_submissions"`
	GeneratedAt       time.Time              `json:"generated_at"`
	CacheHit          bool                   `json:"cache_hit"`
}
