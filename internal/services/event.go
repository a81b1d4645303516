package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventbooking/internal/clock"
	"eventbooking/internal/domain"

	"github.com/google/uuid"
)

type eventService struct {
	eventRepo      domain.EventRepository
	venueRepo      domain.VenueRepository
	venues         domain.VenueService
	tx             domain.Transactor
	notifier       domain.Notifier
	clock          clock.Clock
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(
	eventRepo domain.EventRepository,
	venueRepo domain.VenueRepository,
	venues domain.VenueService,
	tx domain.Transactor,
	notifier domain.Notifier,
	clk clock.Clock,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		venueRepo:      venueRepo,
		venues:         venues,
		tx:             tx,
		notifier:       notifier,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, f domain.EventFields, createdByID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if createdByID == "" {
		return nil, fmt.Errorf("%w: event organizer is required", domain.ErrValidation)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	venue, err := s.requireVenue(ctx, f.VenueID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	event := domain.NewEvent(f, createdByID, now, now)
	event.ID = uuid.NewString()
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	event.Venue = venue
	return event, nil
}

func (s *eventService) GetEventByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := s.present(ctx, []*domain.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, params domain.PaginationParams) (*domain.Page[*domain.Event], error) {
	return s.list(ctx, domain.EventFilter{}, params)
}

func (s *eventService) ListEventsByStatus(ctx context.Context, status domain.EventStatus, params domain.PaginationParams) (*domain.Page[*domain.Event], error) {
	return s.list(ctx, domain.EventFilter{Status: status}, params)
}

func (s *eventService) ListEventsByOrganizer(ctx context.Context, organizerID string, params domain.PaginationParams) (*domain.Page[*domain.Event], error) {
	return s.list(ctx, domain.EventFilter{OrganizerID: organizerID}, params)
}

func (s *eventService) ListEventsByOrganizerAndStatus(ctx context.Context, organizerID string, status domain.EventStatus, params domain.PaginationParams) (*domain.Page[*domain.Event], error) {
	return s.list(ctx, domain.EventFilter{OrganizerID: organizerID, Status: status}, params)
}

func (s *eventService) list(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) (*domain.Page[*domain.Event], error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	params = domain.NewPaginationParams(params.Page, params.PageSize)
	filter.Now = s.clock.Now()
	events, total, err := s.eventRepo.List(ctx, filter, params)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if err := s.present(ctx, events); err != nil {
		return nil, err
	}
	return domain.NewPage(events, params, total), nil
}

// present fills in venues and reports each event's effective status.
func (s *eventService) present(ctx context.Context, events []*domain.Event) error {
	now := s.clock.Now()
	for _, e := range events {
		e.Status = e.EffectiveStatus(now)
	}
	return attachVenues(ctx, s.venueRepo, events)
}

func (s *eventService) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.clock.Now()
	var msg domain.EventStatusChanged
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.eventRepo.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotModified
			}
			return fmt.Errorf("get event: %w", err)
		}
		from := event.EffectiveStatus(now)
		if !domain.CanTransition(from, status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, status)
		}

		switch status {
		case domain.EventStatusApproved:
			if _, err := s.venues.Book(ctx, bookingRequest(event.ID, event.Fields())); err != nil {
				return fmt.Errorf("book venue: %w", err)
			}
		case domain.EventStatusRejected:
			if _, err := s.venueRepo.DeleteBookingsForEvent(ctx, event.ID); err != nil {
				return fmt.Errorf("release venue: %w", err)
			}
		}

		if err := s.eventRepo.CompareAndSetStatus(ctx, event.ID, event.Status, status, now); err != nil {
			return err
		}
		msg = domain.EventStatusChanged{
			EventID:     event.ID,
			From:        from,
			To:          status,
			CreatedByID: event.CreatedByID,
			ChangedAt:   now,
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, msg)
	return nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id string, f domain.EventFields) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := f.Validate(); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.eventRepo.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get event: %w", err)
		}
		if f.MaxRegistrations < event.CurrentRegistrations {
			return fmt.Errorf("%w: max registrations %d is below current registrations %d",
				domain.ErrValidation, f.MaxRegistrations, event.CurrentRegistrations)
		}
		if f.VenueID != event.VenueID {
			if _, err := s.requireVenue(ctx, f.VenueID); err != nil {
				return err
			}
		}

		if event.Status == domain.EventStatusApproved && event.ScheduleChanged(f) {
			if _, err := s.venueRepo.DeleteBookingsForEvent(ctx, event.ID); err != nil {
				return fmt.Errorf("release venue: %w", err)
			}
			if _, err := s.venues.Book(ctx, bookingRequest(event.ID, f)); err != nil {
				return fmt.Errorf("rebook venue: %w", err)
			}
		}

		if err := s.eventRepo.UpdateFields(ctx, event.ID, f, s.clock.Now()); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	})
}

// DeleteEvent soft-deletes the event and releases its venue bookings.
func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.eventRepo.SoftDelete(ctx, id, s.clock.Now()); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("delete event: %w", err)
		}
		if _, err := s.venueRepo.DeleteBookingsForEvent(ctx, id); err != nil {
			return fmt.Errorf("release venue: %w", err)
		}
		return nil
	})
}

func (s *eventService) requireVenue(ctx context.Context, venueID string) (*domain.Venue, error) {
	venue, err := s.venueRepo.GetByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: venue %s does not exist", domain.ErrValidation, venueID)
		}
		return nil, fmt.Errorf("get venue: %w", err)
	}
	return venue, nil
}

// publish delivers a lifecycle message; failures are logged, never returned.
func (s *eventService) publish(ctx context.Context, msg domain.EventStatusChanged) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishStatusChanged(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "publish status change failed", "event_id", msg.EventID, "to", msg.To, "err", err)
	}
}

func bookingRequest(eventID string, f domain.EventFields) domain.BookingRequest {
	return domain.BookingRequest{
		VenueID:  f.VenueID,
		EventID:  eventID,
		Date:     f.Date,
		TimeSlot: f.TimeSlot,
		Duration: f.Duration,
	}
}

// attachVenues sets Venue on every event with one venue lookup.
func attachVenues(ctx context.Context, venueRepo domain.VenueRepository, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	ids := make([]string, 0, len(events))
	for _, e := range events {
		if !seen[e.VenueID] {
			seen[e.VenueID] = true
			ids = append(ids, e.VenueID)
		}
	}
	venues, err := venueRepo.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("list venues: %w", err)
	}
	byID := make(map[string]*domain.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}
	for _, e := range events {
		e.Venue = byID[e.VenueID]
	}
	return nil
}
