package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/models"
)

func TestGradingServiceLastGradeWins(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	assessment := f.seedAssessment(t, multipleChoice("B", 10), essay(10))

	receipt, err := f.submissions.Submit(ctx, assessment.ID, f.student.ID, dto.SubmitAssessmentRequest{
		Answers: answersFor(assessment.Questions, "B", "essay"),
	})
	require.NoError(t, err)

	_, err = f.grading.Grade(ctx, receipt.SubmissionID, dto.GradeSubmissionRequest{Grade: floatPointer(12), Feedback: "Decent"}, f.staff())
	require.NoError(t, err)
	response, err := f.grading.Grade(ctx, receipt.SubmissionID, dto.GradeSubmissionRequest{Grade: floatPointer(18), Feedback: "Much better"}, f.staff())
	require.NoError(t, err)
	require.Equal(t, 18.0, *response.Grade)
	require.Equal(t, "Much better", *response.Feedback)
	require.Len(t, response.History, 2)
	require.Equal(t, 18.0, response.History[0].Grade)

	var stored models.Submission
	require.NoError(t, f.db.Preload("Answers").First(&stored, receipt.SubmissionID).Error)
	require.Equal(t, models.SubmissionStatusGraded, stored.Status)
	require.Equal(t, 18.0, *stored.Grade)
	require.Equal(t, "Much better", *stored.Feedback)
	require.NotNil(t, stored.GradedAt)
	require.Equal(t, f.instructor.ID, *stored.GradedBy)

	byQuestion := map[uint]float64{}
	for _, answer := range stored.Answers {
		byQuestion[answer.QuestionID] = answer.Marks
	}
	require.Equal(t, 10.0, byQuestion[assessment.Questions[0].ID], "per-answer marks untouched")
	require.Zero(t, byQuestion[assessment.Questions[1].ID])

	activity, err := f.activity.List(ctx, dto.ActivityListRequest{Action: "submission.graded"})
	require.NoError(t, err)
	require.Equal(t, int64(2), activity.Pagination.TotalItems)

	require.Equal(t, []string{EventSubmissionCreated, EventSubmissionGraded, EventSubmissionGraded}, f.events.types())
}

func TestGradingServiceOverridesAutoGrade(t *testing.T) {
	f := newEngineFixture(t)
	assessment := f.seedAssessment(t, trueFalse("True", 10))

	receipt, err := f.submissions.Submit(context.Background(), assessment.ID, f.student.ID, dto.SubmitAssessmentRequest{
		Answers: answersFor(assessment.Questions, "false"),
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, *receipt.Grade)

	response, err := f.grading.Grade(context.Background(), receipt.SubmissionID, dto.GradeSubmissionRequest{Grade: floatPointer(5)}, f.staff())
	require.NoError(t, err)
	require.Equal(t, string(models.SubmissionStatusGraded), response.Status)
	require.Equal(t, 5.0, *response.Grade)
}

func TestGradingServiceSanitizesFeedback(t *testing.T) {
	f := newEngineFixture(t)
	assessment := f.seedAssessment(t, essay(10))

	receipt, err := f.submissions.Submit(context.Background(), assessment.ID, f.student.ID, dto.SubmitAssessmentRequest{
		Answers: answersFor(assessment.Questions, "essay"),
	})
	require.NoError(t, err)

	response, err := f.grading.Grade(context.Background(), receipt.SubmissionID, dto.GradeSubmissionRequest{
		Grade:    floatPointer(7),
		Feedback: "<script>alert(1)</script><b>Nice</b>",
	}, f.staff())
	require.NoError(t, err)
	require.Equal(t, "Nice", *response.Feedback)
}

func TestGradingServiceKeepsPlainTextFeedbackVerbatim(t *testing.T) {
	f := newEngineFixture(t)
	assessment := f.seedAssessment(t, essay(10))

	receipt, err := f.submissions.Submit(context.Background(), assessment.ID, f.student.ID, dto.SubmitAssessmentRequest{
		Answers: answersFor(assessment.Questions, "essay"),
	})
	require.NoError(t, err)

	feedback := `Score < 50% & "needs" work, O'Brien`
	response, err := f.grading.Grade(context.Background(), receipt.SubmissionID, dto.GradeSubmissionRequest{
		Grade:    floatPointer(4),
		Feedback: feedback,
	}, f.staff())
	require.NoError(t, err)
	require.Equal(t, feedback, *response.Feedback)

	var stored models.Submission
	require.NoError(t, f.db.First(&stored, receipt.SubmissionID).Error)
	require.Equal(t, feedback, *stored.Feedback)

	detailed, err := f.results.DetailedResult(context.Background(), assessment.ID, f.student.ID)
	require.NoError(t, err)
	require.Equal(t, feedback, detailed.Feedback)
}

func TestGradingServiceValidation(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.grading.Grade(context.Background(), 1, dto.GradeSubmissionRequest{Grade: floatPointer(-1)}, f.staff())
	require.Error(t, err)
	require.True(t, isValidationError(err))

	_, err = f.grading.Grade(context.Background(), 1, dto.GradeSubmissionRequest{}, f.staff())
	require.True(t, isValidationError(err))

	_, err = f.grading.Grade(context.Background(), 404, dto.GradeSubmissionRequest{Grade: floatPointer(3)}, f.staff())
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
