package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/middleware"
	"github.com/noah-isme/edusync-assessment-api/internal/service"
	"github.com/noah-isme/edusync-assessment-api/internal/utils"
)

// SubmissionHandler accepts student submissions and instructor grades.
type SubmissionHandler struct {
	submissions service.SubmissionService
	grading     service.GradingService
	limiter     fiber.Handler
	logger      zerolog.Logger
}

// NewSubmissionHandler builds a submission handler. A nil limiter leaves submits unthrottled.
func NewSubmissionHandler(submissions service.SubmissionService, grading service.GradingService, limiter fiber.Handler, logger zerolog.Logger) *SubmissionHandler {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &SubmissionHandler{
		submissions: submissions,
		grading:     grading,
		limiter:     limiter,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("/:id/submit", h.limiter, middleware.WithAuth(h.submit, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Put("/submissions/:submissionId/grade", middleware.WithAuth(h.grade, middleware.AuthOptions{Role: middleware.AuthRoleStaff}))
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmitAssessmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	receipt, err := h.submissions.Submit(c.UserContext(), assessmentID, userIDFromContext(c), payload)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("submission_id", receipt.SubmissionID).
		Uint("assessment_id", receipt.AssessmentID).
		Str("status", receipt.Status).
		Msg("assessment submitted")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment submitted", receipt)
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "submissionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.grading.Grade(c.UserContext(), submissionID, payload, activityActorFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}
