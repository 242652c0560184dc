package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grapplehub/grapplehub/models"
	"github.com/grapplehub/grapplehub/repositories"
)

type TrainingService interface {
	LogSession(ctx context.Context, userID int, input TrainingInput) (*models.TrainingLog, error)
	ListUserSessions(ctx context.Context, userID int, limit, offset int) ([]*models.TrainingLog, error)
	DeleteSession(ctx context.Context, actorID, logID int) error
}

type TrainingInput struct {
	Date            time.Time          `json:"date"`
	DurationMinutes int                `json:"duration_minutes"`
	Format          models.MatchFormat `json:"format"`
	Category        *string            `json:"category"`
	Notes           *string            `json:"notes"`
}

type trainingService struct {
	trainingRepo repositories.TrainingRepository
}

func NewTrainingService(trainingRepo repositories.TrainingRepository) TrainingService {
	return &trainingService{trainingRepo: trainingRepo}
}

func (s *trainingService) LogSession(ctx context.Context, userID int, input TrainingInput) (*models.TrainingLog, error) {
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: session date is required", ErrValidationFailed)
	}
	if input.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrValidationFailed)
	}
	switch input.Format {
	case models.FormatGi, models.FormatNoGi, models.FormatBoth:
	default:
		return nil, fmt.Errorf("%w: unknown training format %q", ErrValidationFailed, input.Format)
	}

	log := &models.TrainingLog{
		UserID:          userID,
		Date:            input.Date,
		DurationMinutes: input.DurationMinutes,
		Format:          input.Format,
		Category:        input.Category,
		Notes:           input.Notes,
	}
	if err := s.trainingRepo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to create training log: %w", err)
	}
	return log, nil
}

func (s *trainingService) ListUserSessions(ctx context.Context, userID int, limit, offset int) ([]*models.TrainingLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := s.trainingRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list training logs for user %d: %w", userID, err)
	}
	return logs, nil
}

func (s *trainingService) DeleteSession(ctx context.Context, actorID, logID int) error {
	log, err := s.trainingRepo.GetByID(ctx, logID)
	if err != nil {
		if errors.Is(err, repositories.ErrTrainingLogNotFound) {
			return ErrTrainingLogNotFound
		}
		return fmt.Errorf("failed to get training log %d: %w", logID, err)
	}
	if log.UserID != actorID {
		return ErrForbiddenOperation
	}
	if err := s.trainingRepo.Delete(ctx, logID); err != nil {
		return fmt.Errorf("failed to delete training log %d: %w", logID, err)
	}
	return nil
}
