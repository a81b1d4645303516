package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EventStatus is the approval/expiry state of an event.
type EventStatus string

const (
	EventStatusPending  EventStatus = "Pending"
	EventStatusApproved EventStatus = "Approved"
	EventStatusRejected EventStatus = "Rejected"
	EventStatusExpired  EventStatus = "Expired"
)

// ParseEventStatus parses a status name case-insensitively.
func ParseEventStatus(s string) (EventStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return EventStatusPending, nil
	case "approved":
		return EventStatusApproved, nil
	case "rejected":
		return EventStatusRejected, nil
	case "expired":
		return EventStatusExpired, nil
	}
	return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
}

// IsTerminal reports whether no automatic transition leaves s.
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusRejected || s == EventStatusExpired
}

// CanTransition reports whether an admin-triggered status update from -> to is legal.
// Only Pending may be approved or rejected; expiry is reserved for the sweeper.
func CanTransition(from, to EventStatus) bool {
	return from == EventStatusPending && (to == EventStatusApproved || to == EventStatusRejected)
}

// CanExpire reports whether the sweeper may move s to Expired.
func CanExpire(s EventStatus) bool {
	return s == EventStatusPending || s == EventStatusApproved
}

// Event is a schedulable activity bound to a venue and a time slot.
// swagger:model Event
type Event struct {
	ID                   string      `json:"id"`
	Title                string      `json:"title"`
	Description          string      `json:"description"`
	Date                 time.Time   `json:"date"`
	TimeSlot             string      `json:"time_slot"`
	Duration             int         `json:"duration"`
	VenueID              string      `json:"location_id"`
	Venue                *Venue      `json:"location,omitempty"`
	Category             string      `json:"category"`
	Price                float64     `json:"price"`
	MaxRegistrations     int         `json:"max_registrations"`
	CurrentRegistrations int         `json:"current_registrations"`
	CreatedByID          string      `json:"created_by_id"`
	Artist               string      `json:"artist,omitempty"`
	Organization         string      `json:"organization,omitempty"`
	Status               EventStatus `json:"status"`
	IsDeleted            bool        `json:"-"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// NewEvent returns a Pending event with an empty seat counter. ID is set by the service on create.
func NewEvent(f EventFields, createdByID string, createdAt, updatedAt time.Time) *Event {
	e := &Event{
		CreatedByID: createdByID,
		Status:      EventStatusPending,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	e.Apply(f)
	return e
}

// EventFields holds the mutable descriptive fields of an event.
type EventFields struct {
	Title            string
	Description      string
	Date             time.Time
	TimeSlot         string
	Duration         int
	VenueID          string
	Category         string
	Price            float64
	MaxRegistrations int
	Artist           string
	Organization     string
}

// Validate returns ErrValidation wrapped with every failed rule.
func (f EventFields) Validate() error {
	var errs []string
	if strings.TrimSpace(f.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(f.TimeSlot) == "" {
		errs = append(errs, "time slot is required")
	} else if _, err := ParseTimeSlot(f.TimeSlot, f.Duration); err != nil {
		errs = append(errs, err.Error())
	}
	if strings.TrimSpace(f.Category) == "" {
		errs = append(errs, "category is required")
	}
	if strings.TrimSpace(f.VenueID) == "" {
		errs = append(errs, "venue is required")
	}
	if f.Date.IsZero() {
		errs = append(errs, "date is required")
	}
	if f.Price < 0 {
		errs = append(errs, "price must not be negative")
	}
	if f.MaxRegistrations <= 0 {
		errs = append(errs, "max registrations must be positive")
	}
	if f.Duration < 0 {
		errs = append(errs, "duration must not be negative")
	}
	if f.Duration > MaxDurationMinutes {
		errs = append(errs, fmt.Sprintf("duration must be at most %d minutes", MaxDurationMinutes))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, "; "))
	}
	return nil
}

// Apply copies the descriptive fields onto e. Status, seat count and delete flag are untouched.
func (e *Event) Apply(f EventFields) {
	e.Title = strings.TrimSpace(f.Title)
	e.Description = f.Description
	e.Date = f.Date
	e.TimeSlot = strings.TrimSpace(f.TimeSlot)
	e.Duration = f.Duration
	e.VenueID = f.VenueID
	e.Category = strings.TrimSpace(f.Category)
	e.Price = f.Price
	e.MaxRegistrations = f.MaxRegistrations
	e.Artist = f.Artist
	e.Organization = f.Organization
}

// Fields returns the descriptive fields of e.
func (e *Event) Fields() EventFields {
	return EventFields{
		Title:            e.Title,
		Description:      e.Description,
		Date:             e.Date,
		TimeSlot:         e.TimeSlot,
		Duration:         e.Duration,
		VenueID:          e.VenueID,
		Category:         e.Category,
		Price:            e.Price,
		MaxRegistrations: e.MaxRegistrations,
		Artist:           e.Artist,
		Organization:     e.Organization,
	}
}

// IsPast reports whether the event date lies before now.
func (e *Event) IsPast(now time.Time) bool {
	return e.Date.Before(now)
}

// EffectiveStatus is the status a reader should see at now: a past-dated
// Pending or Approved event is Expired even before the sweeper has run.
func (e *Event) EffectiveStatus(now time.Time) EventStatus {
	if CanExpire(e.Status) && e.IsPast(now) {
		return EventStatusExpired
	}
	return e.Status
}

// SeatsLeft returns the remaining capacity, never negative.
func (e *Event) SeatsLeft() int {
	if n := e.MaxRegistrations - e.CurrentRegistrations; n > 0 {
		return n
	}
	return 0
}

// ScheduleChanged reports whether f moves the event to another venue, date or slot.
func (e *Event) ScheduleChanged(f EventFields) bool {
	return e.VenueID != f.VenueID ||
		!sameDay(e.Date, f.Date) ||
		e.TimeSlot != strings.TrimSpace(f.TimeSlot) ||
		e.Duration != f.Duration
}

// EventFilter narrows event list queries. Zero values mean "any".
type EventFilter struct {
	Status      EventStatus
	OrganizerID string
	// Now enables the virtual expiry view for Status; zero disables it.
	Now time.Time
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	// GetByID returns non-deleted events only.
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetForUpdate locks the non-deleted event row for the surrounding transaction.
	GetForUpdate(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	ListAll(ctx context.Context, organizerID string) ([]*Event, error)
	UpdateFields(ctx context.Context, id string, f EventFields, updatedAt time.Time) error
	// CompareAndSetStatus sets status to next only if it still equals current.
	CompareAndSetStatus(ctx context.Context, id string, current, next EventStatus, updatedAt time.Time) error
	SoftDelete(ctx context.Context, id string, updatedAt time.Time) error
	// MarkExpired expires every non-deleted Pending/Approved event dated before now and returns their ids.
	MarkExpired(ctx context.Context, now time.Time) ([]string, error)
	// IncrementRegistrations adds one seat unless the event is full.
	IncrementRegistrations(ctx context.Context, id string) error
	DecrementRegistrations(ctx context.Context, id string) error
	CountByVenue(ctx context.Context, venueID string) (int, error)
}

// EventService defines the business logic of the event lifecycle.
type EventService interface {
	CreateEvent(ctx context.Context, f EventFields, createdByID string) (*Event, error)
	GetEventByID(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, params PaginationParams) (*Page[*Event], error)
	ListEventsByStatus(ctx context.Context, status EventStatus, params PaginationParams) (*Page[*Event], error)
	ListEventsByOrganizer(ctx context.Context, organizerID string, params PaginationParams) (*Page[*Event], error)
	ListEventsByOrganizerAndStatus(ctx context.Context, organizerID string, status EventStatus, params PaginationParams) (*Page[*Event], error)
	UpdateStatus(ctx context.Context, id string, status EventStatus) error
	UpdateEvent(ctx context.Context, id string, f EventFields) error
	DeleteEvent(ctx context.Context, id string) error
}

// ExpirySweeper moves past-dated Pending and Approved events to Expired.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
