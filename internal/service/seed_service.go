package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/noah-isme/edusync-assessment-api/internal/dto"
	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService loads directory data into development environments.
type SeedService interface {
	SeedDirectory(ctx context.Context, token string, payload dto.DirectorySeedRequest) (dto.DirectorySeedResult, error)
}

type seedService struct {
	seeder    repository.DirectorySeeder
	validator *validator.Validate
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(seeder repository.DirectorySeeder, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		seeder:    seeder,
		validator: validate,
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedDirectory(ctx context.Context, token string, payload dto.DirectorySeedRequest) (dto.DirectorySeedResult, error) {
	if !s.enabled {
		return dto.DirectorySeedResult{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.DirectorySeedResult{}, ErrSeedUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.DirectorySeedResult{}, err
	}

	users := lo.Map(payload.Users, func(item dto.SeedUser, _ int) models.User {
		return models.User{
			ID:    item.ID,
			Name:  strings.TrimSpace(item.Name),
			Email: strings.ToLower(strings.TrimSpace(item.Email)),
			Role:  item.Role,
		}
	})
	courses := lo.Map(payload.Courses, func(item dto.SeedCourse, _ int) models.Course {
		return models.Course{
			ID:           item.ID,
			Name:         strings.TrimSpace(item.Name),
			Description:  item.Description,
			InstructorID: item.InstructorID,
		}
	})
	enrollments := lo.UniqBy(lo.Map(payload.Enrollments, func(item dto.SeedEnrollment, _ int) models.Enrollment {
		return models.Enrollment{UserID: item.UserID, CourseID: item.CourseID}
	}), func(item models.Enrollment) [2]uint {
		return [2]uint{item.UserID, item.CourseID}
	})

	counts, err := s.seeder.UpsertDirectory(ctx, users, courses, enrollments)
	if err != nil {
		return dto.DirectorySeedResult{}, persistenceError(err)
	}

	s.logger.Info().
		Int64("users", counts.Users).
		Int64("courses", counts.Courses).
		Int64("enrollments", counts.Enrollments).
		Msg("directory seeded")

	return dto.DirectorySeedResult{
		Users:       counts.Users,
		Courses:     counts.Courses,
		Enrollments: counts.Enrollments,
	}, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
