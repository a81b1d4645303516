package domain

import (
	"context"
	"time"
)

// EventRegistration records that a user holds a seat at an event.
// Rows are soft-deleted on deregistration and revived on re-registration,
// so (EventID, UserID) stays unique across the row's whole history.
// swagger:model EventRegistration
type EventRegistration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
	IsDeleted    bool      `json:"-"`
}

// NewEventRegistration creates a new active EventRegistration. ID is set by the service on create.
func NewEventRegistration(eventID, userID string, registeredAt time.Time) *EventRegistration {
	return &EventRegistration{
		EventID:      eventID,
		UserID:       userID,
		RegisteredAt: registeredAt,
	}
}

// EventRegistrationRepository defines storage operations for event registrations.
type EventRegistrationRepository interface {
	Create(ctx context.Context, reg *EventRegistration) error
	// GetByEventAndUser returns the row for the pair whether active or soft-deleted.
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*EventRegistration, error)
	Revive(ctx context.Context, id string, registeredAt time.Time) error
	// SoftDeleteActive flags the active row for the pair; ErrNotFound if none.
	SoftDeleteActive(ctx context.Context, eventID, userID string) error
	// Delete physically removes the row for the pair and returns it as it was.
	Delete(ctx context.Context, eventID, userID string) (*EventRegistration, error)
	ListActiveByEventID(ctx context.Context, eventID string) ([]*EventRegistration, error)
	ListActiveByUserID(ctx context.Context, userID string) ([]*EventRegistration, error)
	CountByEventIDs(ctx context.Context, eventIDs []string) (map[string]int, error)
}

// EventRegistrants is the registered-users view of an event.
type EventRegistrants struct {
	CurrentRegistration int     `json:"current_registration"`
	Users               []*User `json:"users"`
}

// AttendeeService is the registration ledger.
type AttendeeService interface {
	Register(ctx context.Context, userID, eventID string) (*EventRegistration, error)
	Deregister(ctx context.Context, userID, eventID string) error
	ListUsersForEvent(ctx context.Context, eventID string) (*EventRegistrants, error)
	ListEventsForUser(ctx context.Context, userID string) ([]*Event, error)
	RemoveRegistration(ctx context.Context, eventID, userID string) error
}
