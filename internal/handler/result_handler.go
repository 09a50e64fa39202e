package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusync-assessment-api/internal/middleware"
	"github.com/noah-isme/edusync-assessment-api/internal/service"
	"github.com/noah-isme/edusync-assessment-api/internal/utils"
)

// ResultHandler serves result summaries and per-answer breakdowns.
type ResultHandler struct {
	service service.ResultService
	logger  zerolog.Logger
}

// NewResultHandler constructs the handler.
func NewResultHandler(service service.ResultService, logger zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		service: service,
		logger:  logger.With().Str("component", "result_handler").Logger(),
	}
}

// Register attaches result routes to the assessments group.
func (h *ResultHandler) Register(router fiber.Router) {
	router.Get("/student/:studentId/results", middleware.WithAuth(h.studentResults, middleware.AuthOptions{SelfParam: "studentId"}))
	router.Get("/:id/results", middleware.WithAuth(h.assessmentResults, middleware.AuthOptions{Role: middleware.AuthRoleStaff}))
	router.Get("/:id/result/:studentId", middleware.WithAuth(h.detailedResult, middleware.AuthOptions{SelfParam: "studentId"}))
}

func (h *ResultHandler) assessmentResults(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	results, err := h.service.ResultsForAssessment(c.UserContext(), assessmentID)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "results retrieved", results)
}

func (h *ResultHandler) studentResults(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	results, err := h.service.ResultsForStudent(c.UserContext(), studentID)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "results retrieved", results)
}

func (h *ResultHandler) detailedResult(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.DetailedResult(c.UserContext(), assessmentID, studentID)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "result retrieved", result)
}
