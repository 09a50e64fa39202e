package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/service"
)

func (f *apiFixture) createAssessment(t *testing.T) dto.AssessmentResponse {
	t.Helper()

	status, payload := f.call(t, http.MethodPost, "/api/v2/assessments", f.instructor, dto.AssessmentCreateRequest{
		CourseID:    f.course.ID,
		Title:       "Mechanics quiz",
		Description: "Forces and motion",
		DueDate:     time.Now().Add(72 * time.Hour).UTC(),
		Questions: []dto.QuestionRequest{
			{Text: "Unit of force?", Type: string(models.QuestionTypeMultipleChoice), Options: []string{"Newton", "Joule"}, CorrectAnswer: "Newton"},
			{Text: "Explain inertia.", Type: string(models.QuestionTypeEssay)},
		},
	})
	require.Equal(t, fiber.StatusCreated, status, payload.Message)

	var assessment dto.AssessmentResponse
	decodeData(t, payload, &assessment)
	return assessment
}

func answersFor(assessment dto.AssessmentResponse, values ...string) dto.SubmitAssessmentRequest {
	request := dto.SubmitAssessmentRequest{}
	for i, question := range assessment.Questions {
		if i >= len(values) {
			break
		}
		request.Answers = append(request.Answers, dto.AnswerInput{QuestionID: question.ID, Answer: values[i]})
	}
	return request
}

func TestSubmitGradeAndReadResult(t *testing.T) {
	f := setupAPI(t)
	assessment := f.createAssessment(t)
	require.Equal(t, 20.0, assessment.TotalMarks)

	status, payload := f.call(t, http.MethodPost, path("/api/v2/assessments/%d/submit", assessment.ID), f.student, answersFor(assessment, "Newton", "Objects resist changes in motion."))
	require.Equal(t, fiber.StatusCreated, status, payload.Message)

	var receipt dto.SubmissionReceipt
	decodeData(t, payload, &receipt)
	require.Equal(t, string(models.SubmissionStatusSubmitted), receipt.Status)
	require.Equal(t, f.student.ID, receipt.StudentID)
	require.Nil(t, receipt.Grade)

	status, payload = f.call(t, http.MethodPut, path("/api/v2/assessments/submissions/%d/grade", receipt.SubmissionID), f.instructor, map[string]interface{}{
		"grade":    15,
		"feedback": "Solid reasoning",
	})
	require.Equal(t, fiber.StatusOK, status, payload.Message)

	var graded dto.SubmissionResponse
	decodeData(t, payload, &graded)
	require.Equal(t, string(models.SubmissionStatusGraded), graded.Status)
	require.Len(t, graded.History, 1)

	status, payload = f.call(t, http.MethodGet, path("/api/v2/assessments/%d/result/%d", assessment.ID, f.student.ID), f.student, nil)
	require.Equal(t, fiber.StatusOK, status, payload.Message)

	var result dto.DetailedResult
	decodeData(t, payload, &result)
	require.Equal(t, 75, result.Score)
	require.Equal(t, "Solid reasoning", result.Feedback)
	require.Equal(t, "Physics 101", result.CourseName)
	require.Len(t, result.Answers, 2)
	require.True(t, result.Answers[0].IsCorrect)
	require.Equal(t, 100, result.Answers[0].Score)

	status, payload = f.call(t, http.MethodGet, path("/api/v2/assessments/%d/results", assessment.ID), f.instructor, nil)
	require.Equal(t, fiber.StatusOK, status)
	var summaries []dto.ResultSummary
	decodeData(t, payload, &summaries)
	require.Len(t, summaries, 1)
	require.Equal(t, 15, summaries[0].Score)
	require.Equal(t, "Jane Student", summaries[0].StudentName)

	status, payload = f.call(t, http.MethodGet, path("/api/v2/assessments/%d/statistics", assessment.ID), f.instructor, nil)
	require.Equal(t, fiber.StatusOK, status)
	var stats dto.AssessmentStatistics
	decodeData(t, payload, &stats)
	require.Equal(t, int64(1), stats.EnrolledStudents)
	require.Equal(t, int64(1), stats.Graded)
	require.Equal(t, 75, stats.HighestScore)

	status, _ = f.call(t, http.MethodGet, path("/api/v2/assessments/%d/statistics", assessment.ID), f.student, nil)
	require.Equal(t, fiber.StatusForbidden, status)

	status, payload = f.call(t, http.MethodGet, path("/api/v2/assessments/student/%d/results", f.student.ID), f.student, nil)
	require.Equal(t, fiber.StatusOK, status)
	decodeData(t, payload, &summaries)
	require.Len(t, summaries, 1)
	require.Equal(t, "Mechanics quiz", summaries[0].AssessmentTitle)
}

func TestSubmitReportsEveryInvalidAnswer(t *testing.T) {
	f := setupAPI(t)
	assessment := f.createAssessment(t)

	mc := assessment.Questions[0].ID
	status, payload := f.call(t, http.MethodPost, path("/api/v2/assessments/%d/submit", assessment.ID), f.student, dto.SubmitAssessmentRequest{
		Answers: []dto.AnswerInput{
			{QuestionID: mc, Answer: " "},
			{QuestionID: 9999, Answer: "extra"},
		},
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.False(t, payload.Success)

	var problems []service.InputProblem
	require.NoError(t, json.Unmarshal(payload.Details, &problems))

	reasons := map[service.InvalidInputReason][]uint{}
	for _, problem := range problems {
		reasons[problem.Reason] = problem.QuestionIDs
	}
	require.Equal(t, []uint{assessment.Questions[1].ID}, reasons[service.ReasonMissingAnswers])
	require.Equal(t, []uint{mc}, reasons[service.ReasonEmptyAnswer])
	require.Equal(t, []uint{9999}, reasons[service.ReasonUnknownQuestion])

	var count int64
	require.NoError(t, f.db.Model(&models.Submission{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSubmitTwiceConflicts(t *testing.T) {
	f := setupAPI(t)
	assessment := f.createAssessment(t)
	body := answersFor(assessment, "Newton", "Mass resists acceleration.")

	status, _ := f.call(t, http.MethodPost, path("/api/v2/assessments/%d/submit", assessment.ID), f.student, body)
	require.Equal(t, fiber.StatusCreated, status)

	status, payload := f.call(t, http.MethodPost, path("/api/v2/assessments/%d/submit", assessment.ID), f.student, body)
	require.Equal(t, fiber.StatusConflict, status)
	require.Equal(t, service.ErrDuplicateSubmission.Error(), payload.Message)
}

func TestSubmitUnknownAssessment(t *testing.T) {
	f := setupAPI(t)

	status, payload := f.call(t, http.MethodPost, "/api/v2/assessments/4242/submit", f.student, dto.SubmitAssessmentRequest{})
	require.Equal(t, fiber.StatusNotFound, status)
	require.Equal(t, service.ErrAssessmentNotFound.Error(), payload.Message)
}

func TestRoleBoundaries(t *testing.T) {
	f := setupAPI(t)
	assessment := f.createAssessment(t)

	status, _ := f.call(t, http.MethodPost, path("/api/v2/assessments/%d/submit", assessment.ID), f.instructor, answersFor(assessment, "Newton", "x"))
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.call(t, http.MethodPut, "/api/v2/assessments/submissions/1/grade", f.student, map[string]interface{}{"grade": 100})
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.call(t, http.MethodGet, path("/api/v2/assessments/%d/result/%d", assessment.ID, f.student.ID), f.classmate, nil)
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.call(t, http.MethodGet, path("/api/v2/assessments/%d/results", assessment.ID), f.student, nil)
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.call(t, http.MethodGet, path("/api/v2/assessments/%d", assessment.ID), anonymous, nil)
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = f.call(t, http.MethodGet, "/api/v2/admin/activities", f.student, nil)
	require.Equal(t, fiber.StatusForbidden, status)
}

func TestStudentsDoNotSeeCorrectAnswers(t *testing.T) {
	f := setupAPI(t)
	assessment := f.createAssessment(t)
	require.Equal(t, "Newton", assessment.Questions[0].CorrectAnswer)

	status, payload := f.call(t, http.MethodGet, path("/api/v2/assessments/%d", assessment.ID), f.student, nil)
	require.Equal(t, fiber.StatusOK, status)

	var view dto.AssessmentResponse
	decodeData(t, payload, &view)
	require.Len(t, view.Questions, 2)
	for _, question := range view.Questions {
		require.Empty(t, question.CorrectAnswer)
	}

	status, payload = f.call(t, http.MethodGet, path("/api/v2/assessments/course/%d", f.course.ID), f.student, nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []dto.AssessmentResponse
	decodeData(t, payload, &list)
	require.Len(t, list, 1)
}

func TestUpdateLockedAfterSubmission(t *testing.T) {
	f := setupAPI(t)
	assessment := f.createAssessment(t)

	update := dto.AssessmentUpdateRequest{
		Title:   "Mechanics quiz v2",
		DueDate: assessment.DueDate,
		Questions: []dto.QuestionRequest{
			{ID: assessment.Questions[0].ID, Text: "Unit of force?", Type: string(models.QuestionTypeMultipleChoice), Options: []string{"Newton", "Joule"}, CorrectAnswer: "Newton"},
		},
	}
	status, payload := f.call(t, http.MethodPut, path("/api/v2/assessments/%d", assessment.ID), f.instructor, update)
	require.Equal(t, fiber.StatusOK, status, payload.Message)

	var updated dto.AssessmentResponse
	decodeData(t, payload, &updated)
	require.Equal(t, 10.0, updated.TotalMarks)

	status, _ = f.call(t, http.MethodPost, path("/api/v2/assessments/%d/submit", assessment.ID), f.student, answersFor(updated, "Newton"))
	require.Equal(t, fiber.StatusCreated, status)

	status, payload = f.call(t, http.MethodPut, path("/api/v2/assessments/%d", assessment.ID), f.instructor, update)
	require.Equal(t, fiber.StatusConflict, status)
	require.Equal(t, service.ErrAssessmentLocked.Error(), payload.Message)
}

func TestCreateAssessmentValidation(t *testing.T) {
	f := setupAPI(t)

	status, payload := f.call(t, http.MethodPost, "/api/v2/assessments", f.instructor, dto.AssessmentCreateRequest{
		CourseID: f.course.ID,
		Title:    "Q",
	})
	require.Equal(t, fiber.StatusBadRequest, status)

	var details map[string]string
	require.NoError(t, json.Unmarshal(payload.Details, &details))
	require.Equal(t, "min", details["AssessmentCreateRequest.Title"])
	require.Equal(t, "required", details["AssessmentCreateRequest.DueDate"])
}

func TestDeleteAssessmentAndUpcoming(t *testing.T) {
	f := setupAPI(t)
	assessment := f.createAssessment(t)

	status, payload := f.call(t, http.MethodGet, path("/api/v2/assessments/student/%d/upcoming", f.student.ID), f.student, nil)
	require.Equal(t, fiber.StatusOK, status)
	var upcoming []dto.UpcomingAssessmentResponse
	decodeData(t, payload, &upcoming)
	require.Len(t, upcoming, 1)
	require.Equal(t, dto.StatusNotStarted, upcoming[0].Status)

	status, _ = f.call(t, http.MethodGet, path("/api/v2/assessments/student/%d/upcoming", f.student.ID), f.classmate, nil)
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.call(t, http.MethodDelete, path("/api/v2/assessments/%d", assessment.ID), f.instructor, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = f.call(t, http.MethodGet, path("/api/v2/assessments/%d", assessment.ID), f.instructor, nil)
	require.Equal(t, fiber.StatusNotFound, status)

	status, payload = f.call(t, http.MethodGet, "/api/v2/admin/activities?action=assessment.deleted", f.instructor, nil)
	require.Equal(t, fiber.StatusOK, status)
	var activities []dto.ActivityResponse
	decodeData(t, payload, &activities)
	require.Len(t, activities, 1)

	var meta dto.PaginationMeta
	require.NoError(t, json.Unmarshal(payload.Meta, &meta))
	require.Equal(t, int64(1), meta.TotalItems)
	require.Equal(t, 25, meta.PageSize)
}

func TestInvalidPathParameters(t *testing.T) {
	f := setupAPI(t)

	status, _ := f.call(t, http.MethodGet, "/api/v2/assessments/abc", f.instructor, nil)
	require.Equal(t, fiber.StatusBadRequest, status)

	status, _ = f.call(t, http.MethodGet, "/api/v2/admin/activities?page=x", f.instructor, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
}
