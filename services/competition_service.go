package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/grapplehub/grapplehub/models"
	"github.com/grapplehub/grapplehub/repositories"
	"github.com/grapplehub/grapplehub/storage"
)

var ErrPodiumPhotoUploadFailed = errors.New("failed to upload podium photo")

// CompetitionService — пользовательский журнал выступлений. Записи здесь
// создаются вручную; синтезированные записи пишет менеджер матчей напрямую.
type CompetitionService interface {
	CreateEntry(ctx context.Context, userID int, input CompetitionInput) (*models.Competition, error)
	ListUserEntries(ctx context.Context, userID int, limit, offset int) ([]*models.Competition, error)
	UpdateEntry(ctx context.Context, actorID, entryID int, input CompetitionInput) (*models.Competition, error)
	DeleteEntry(ctx context.Context, actorID, entryID int) error
	UploadPodiumPhoto(ctx context.Context, actorID, entryID int, contentType string, reader io.Reader) (*models.Competition, error)
}

type CompetitionInput struct {
	EventName string                      `json:"event_name"`
	EventDate time.Time                   `json:"event_date"`
	City      *string                     `json:"city"`
	State     *string                     `json:"state"`
	Country   *string                     `json:"country"`
	Placement *int                        `json:"placement"`
	Result    *models.CompetitionResult   `json:"result"`
	Status    models.CompetitionStatus    `json:"status"`
	MatchType models.CompetitionMatchType `json:"match_type"`
	Notes     *string                     `json:"notes"`
}

type competitionService struct {
	competitionRepo repositories.CompetitionRepository
	uploader        storage.FileUploader
}

func NewCompetitionService(competitionRepo repositories.CompetitionRepository, uploader storage.FileUploader) CompetitionService {
	return &competitionService{
		competitionRepo: competitionRepo,
		uploader:        uploader,
	}
}

func validateCompetitionInput(input CompetitionInput) error {
	if input.EventName == "" {
		return fmt.Errorf("%w: event name is required", ErrValidationFailed)
	}
	if input.EventDate.IsZero() {
		return fmt.Errorf("%w: event date is required", ErrValidationFailed)
	}
	switch input.Status {
	case models.CompetitionStatusCompleted, models.CompetitionStatusDisqualified,
		models.CompetitionStatusInjured, models.CompetitionStatusWithdrew:
	default:
		return fmt.Errorf("%w: unknown competition status %q", ErrValidationFailed, input.Status)
	}
	switch input.MatchType {
	case models.MatchTypeSingle, models.MatchTypeSingleTeam,
		models.MatchTypeTournament, models.MatchTypeTournamentTeam:
	default:
		return fmt.Errorf("%w: unknown match type %q", ErrValidationFailed, input.MatchType)
	}
	if input.Placement != nil && *input.Placement < 1 {
		return fmt.Errorf("%w: placement must be a 1-based rank", ErrValidationFailed)
	}
	return nil
}

func (s *competitionService) CreateEntry(ctx context.Context, userID int, input CompetitionInput) (*models.Competition, error) {
	if err := validateCompetitionInput(input); err != nil {
		return nil, err
	}

	entry := &models.Competition{
		UserID:    userID,
		EventName: input.EventName,
		EventDate: input.EventDate,
		City:      input.City,
		State:     input.State,
		Country:   input.Country,
		Placement: input.Placement,
		Result:    input.Result,
		Status:    input.Status,
		MatchType: input.MatchType,
		Notes:     input.Notes,
	}

	if err := s.competitionRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrCompetitionUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create competition entry: %w", err)
	}
	return entry, nil
}

func (s *competitionService) ListUserEntries(ctx context.Context, userID int, limit, offset int) ([]*models.Competition, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.competitionRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list competition entries for user %d: %w", userID, err)
	}
	for _, entry := range entries {
		populateCompetitionPhotoURL(entry, s.uploader)
	}
	return entries, nil
}

func (s *competitionService) UpdateEntry(ctx context.Context, actorID, entryID int, input CompetitionInput) (*models.Competition, error) {
	entry, err := s.getOwnedEntry(ctx, actorID, entryID)
	if err != nil {
		return nil, err
	}
	if err := validateCompetitionInput(input); err != nil {
		return nil, err
	}

	entry.EventName = input.EventName
	entry.EventDate = input.EventDate
	entry.City = input.City
	entry.State = input.State
	entry.Country = input.Country
	entry.Placement = input.Placement
	entry.Result = input.Result
	entry.Status = input.Status
	entry.MatchType = input.MatchType
	entry.Notes = input.Notes

	if err := s.competitionRepo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update competition entry %d: %w", entryID, err)
	}
	populateCompetitionPhotoURL(entry, s.uploader)
	return entry, nil
}

func (s *competitionService) DeleteEntry(ctx context.Context, actorID, entryID int) error {
	if _, err := s.getOwnedEntry(ctx, actorID, entryID); err != nil {
		return err
	}
	if err := s.competitionRepo.Delete(ctx, entryID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return ErrCompetitionNotFound
		}
		return fmt.Errorf("failed to delete competition entry %d: %w", entryID, err)
	}
	return nil
}

func (s *competitionService) UploadPodiumPhoto(ctx context.Context, actorID, entryID int, contentType string, reader io.Reader) (*models.Competition, error) {
	entry, err := s.getOwnedEntry(ctx, actorID, entryID)
	if err != nil {
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported photo content type %q", ErrValidationFailed, contentType)
	}

	key := fmt.Sprintf("podium/competition_%d%s", entryID, ext)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPodiumPhotoUploadFailed, err)
	}

	oldKey := entry.PodiumPhotoKey
	if err := s.competitionRepo.UpdatePodiumPhotoKey(ctx, entryID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store podium photo key for entry %d: %w", entryID, err)
	}
	if oldKey != nil && *oldKey != "" && *oldKey != result.Key {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	entry.PodiumPhotoKey = &result.Key
	populateCompetitionPhotoURL(entry, s.uploader)
	return entry, nil
}

func (s *competitionService) getOwnedEntry(ctx context.Context, actorID, entryID int) (*models.Competition, error) {
	entry, err := s.competitionRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition entry %d: %w", entryID, err)
	}
	if entry.UserID != actorID {
		return nil, ErrForbiddenOperation
	}
	return entry, nil
}
