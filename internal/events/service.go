package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"guestlist/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventDBLayer interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvents(ctx context.Context) ([]models.Event, error)
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	EventExists(ctx context.Context, id int64) (bool, error)
}

type EventService struct {
	DB EventDBLayer
}

func NewEventService(db EventDBLayer) *EventService {
	return &EventService{DB: db}
}

func (s *EventService) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.InvitationCount <= 0 {
		event.InvitationCount = 3
	}
	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetEvents returns all events for the super-admin and only the caller's own
// event for event-scoped admins.
func (s *EventService) GetEvents(ctx context.Context, caller models.Identity) ([]models.Event, error) {
	if caller.IsSuperAdmin() {
		return s.DB.GetEvents(ctx)
	}

	event, err := s.GetEvent(ctx, caller.EventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return []models.Event{}, nil
		}
		return nil, err
	}
	return []models.Event{*event}, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to fetch event %d: %w", id, err)
	}
	return event, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, id int64, updateData models.Event) (*models.Event, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if updateData.Name != "" {
		event.Name = updateData.Name
	}
	if updateData.Description != "" {
		event.Description = updateData.Description
	}
	if updateData.InvitationCount > 0 {
		event.InvitationCount = updateData.InvitationCount
	}
	event.WeaponForm = updateData.WeaponForm

	if err := s.DB.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event %d: %w", id, err)
	}
	return event, nil
}

// DeleteEvent cascades to the event's admins, users and guests. Deleting an
// already-deleted event is not an error.
func (s *EventService) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.DB.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event %d: %w", id, err)
	}
	return nil
}
