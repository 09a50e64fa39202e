package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/service"
	"github.com/noah-isme/edusync-assessment-api/internal/utils"
)

// SeedHandler exposes tooling endpoints for seeding directory data.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/directory", h.directory)
}

func (h *SeedHandler) directory(c *fiber.Ctx) error {
	var payload dto.DirectorySeedRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.SeedDirectory(c.UserContext(), c.Get("X-Seed-Token"), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSeedDisabled):
			return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
		case errors.Is(err, service.ErrSeedUnauthorized):
			return utils.SendError(c, fiber.StatusForbidden, "invalid token")
		default:
			return handleServiceError(c, h.logger, err)
		}
	}

	return utils.SendSuccess(c, "directory seeded", result)
}
