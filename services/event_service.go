package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grapplehub/grapplehub/models"
	"github.com/grapplehub/grapplehub/repositories"
)

var ErrEventNameRequired = errors.New("event name is required")

type EventService interface {
	CreateEvent(ctx context.Context, organizerID int, input CreateEventInput) (*models.Event, error)
	GetEvent(ctx context.Context, eventID int) (*models.Event, error)
	ListOrganizerEvents(ctx context.Context, organizerID int) ([]*models.Event, error)
}

type CreateEventInput struct {
	Name     string    `json:"name"`
	Location *string   `json:"location"`
	Date     time.Time `json:"date"`
}

type eventService struct {
	eventRepo repositories.EventRepository
}

func NewEventService(eventRepo repositories.EventRepository) EventService {
	return &eventService{eventRepo: eventRepo}
}

func (s *eventService) CreateEvent(ctx context.Context, organizerID int, input CreateEventInput) (*models.Event, error) {
	if input.Name == "" {
		return nil, ErrEventNameRequired
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: event date is required", ErrValidationFailed)
	}

	event := &models.Event{
		Name:        input.Name,
		OrganizerID: organizerID,
		Location:    input.Location,
		Date:        input.Date,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventOrganizerInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	return event, nil
}

func (s *eventService) ListOrganizerEvents(ctx context.Context, organizerID int) ([]*models.Event, error) {
	events, err := s.eventRepo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for organizer %d: %w", organizerID, err)
	}
	return events, nil
}
