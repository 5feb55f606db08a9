package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/models"
	"github.com/isdelr/murmur/internal/store"
)

// Event types recorded by the services.
const (
	EventUserSignUp  = "user.signup"
	EventUserSignIn  = "user.signin"
	EventUserSignOut = "user.signout"
	EventPostCreate  = "post.create"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, userID *string) error
	GetRecentEventsForUser(ctx context.Context, userID string, limit int) ([]models.Event, error)
}

// EventService provides business logic for the audit trail.
type EventService struct {
	store store.EventStore
	now   func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(events store.EventStore) *EventService {
	return &EventService{store: events, now: time.Now}
}

// CreateEvent records a new event.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *string) error {
	event := models.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	return s.store.InsertEvent(ctx, event)
}

// GetRecentEventsForUser retrieves the most recent events of a user.
func (s *EventService) GetRecentEventsForUser(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	return s.store.ListEventsForUser(ctx, userID, limit)
}

// recordEvent stores an audit event; failures are logged, never surfaced.
func recordEvent(ctx context.Context, events EventServiceProvider, eventType, message, userID string) {
	if events == nil {
		return
	}
	if err := events.CreateEvent(ctx, eventType, "info", message, &userID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Str("user_id", userID).Msg("Failed to record event")
	}
}
