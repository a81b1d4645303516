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

type attendeeService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.EventRegistrationRepository
	userRepo         domain.UserRepository
	venueRepo        domain.VenueRepository
	emailService     domain.EmailService
	tx               domain.Transactor
	clock            clock.Clock
	logger           *slog.Logger
	contextTimeout   time.Duration
}

// NewAttendeeService creates the registration ledger. It is the only writer of
// an event's seat counter.
func NewAttendeeService(
	eventRepo domain.EventRepository,
	registrationRepo domain.EventRegistrationRepository,
	userRepo domain.UserRepository,
	venueRepo domain.VenueRepository,
	emailService domain.EmailService,
	tx domain.Transactor,
	clk clock.Clock,
	logger *slog.Logger,
	timeout time.Duration,
) domain.AttendeeService {
	return &attendeeService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		venueRepo:        venueRepo,
		emailService:     emailService,
		tx:               tx,
		clock:            clk,
		logger:           logger,
		contextTimeout:   timeout,
	}
}

func (s *attendeeService) Register(ctx context.Context, userID, eventID string) (*domain.EventRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	now := s.clock.Now()
	var (
		reg   *domain.EventRegistration
		event *domain.Event
	)
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err = s.eventRepo.GetForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get event: %w", err)
		}
		if event.Status != domain.EventStatusApproved || event.IsPast(now) {
			return fmt.Errorf("%w: event is %s", domain.ErrEventNotOpen, event.EffectiveStatus(now))
		}
		if event.CurrentRegistrations >= event.MaxRegistrations {
			return domain.ErrCapacityExceeded
		}

		existing, err := s.registrationRepo.GetByEventAndUser(ctx, eventID, userID)
		switch {
		case err == nil && !existing.IsDeleted:
			return domain.ErrAlreadyRegistered
		case err == nil:
			if err := s.registrationRepo.Revive(ctx, existing.ID, now); err != nil {
				return fmt.Errorf("revive registration: %w", err)
			}
			existing.IsDeleted = false
			existing.RegisteredAt = now
			reg = existing
		case errors.Is(err, domain.ErrNotFound):
			reg = domain.NewEventRegistration(eventID, userID, now)
			reg.ID = uuid.NewString()
			if err := s.registrationRepo.Create(ctx, reg); err != nil {
				if errors.Is(err, domain.ErrAlreadyRegistered) {
					return err
				}
				return fmt.Errorf("create registration: %w", err)
			}
		default:
			return fmt.Errorf("get registration: %w", err)
		}

		if err := s.eventRepo.IncrementRegistrations(ctx, eventID); err != nil {
			if errors.Is(err, domain.ErrCapacityExceeded) {
				return err
			}
			return fmt.Errorf("increment registrations: %w", err)
		}
		event.CurrentRegistrations++
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendTicket(ctx, user, event, reg)
	return reg, nil
}

func (s *attendeeService) Deregister(ctx context.Context, userID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.eventRepo.GetForUpdate(ctx, eventID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get event: %w", err)
		}
		if err := s.registrationRepo.SoftDeleteActive(ctx, eventID, userID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: no active registration", domain.ErrNotFound)
			}
			return fmt.Errorf("delete registration: %w", err)
		}
		if err := s.eventRepo.DecrementRegistrations(ctx, eventID); err != nil {
			return fmt.Errorf("decrement registrations: %w", err)
		}
		return nil
	})
}

// RemoveRegistration physically deletes the pair's row. An active row also frees its seat.
func (s *attendeeService) RemoveRegistration(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.eventRepo.GetForUpdate(ctx, eventID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get event: %w", err)
		}
		reg, err := s.registrationRepo.Delete(ctx, eventID, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("delete registration: %w", err)
		}
		if reg.IsDeleted {
			return nil
		}
		if err := s.eventRepo.DecrementRegistrations(ctx, eventID); err != nil {
			return fmt.Errorf("decrement registrations: %w", err)
		}
		return nil
	})
}

func (s *attendeeService) ListUsersForEvent(ctx context.Context, eventID string) (*domain.EventRegistrants, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	regs, err := s.registrationRepo.ListActiveByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	ids := make([]string, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.UserID)
	}
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &domain.EventRegistrants{
		CurrentRegistration: event.CurrentRegistrations,
		Users:               users,
	}, nil
}

func (s *attendeeService) ListEventsForUser(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	regs, err := s.registrationRepo.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	now := s.clock.Now()
	events := make([]*domain.Event, 0, len(regs))
	for _, reg := range regs {
		ev, err := s.eventRepo.GetByID(ctx, reg.EventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// soft-deleted events drop out of the user's list
				continue
			}
			return nil, fmt.Errorf("get event for registration: %w", err)
		}
		ev.Status = ev.EffectiveStatus(now)
		events = append(events, ev)
	}
	if err := attachVenues(ctx, s.venueRepo, events); err != nil {
		return nil, err
	}
	return events, nil
}

// sendTicket mails the ticket; a failure is logged and does not undo the registration.
func (s *attendeeService) sendTicket(ctx context.Context, user *domain.User, event *domain.Event, reg *domain.EventRegistration) {
	if s.emailService == nil {
		return
	}
	data := &domain.TicketEmailData{
		Email:          user.Email,
		UserName:       user.Name,
		RegistrationID: reg.ID,
		EventTitle:     event.Title,
		EventDate:      event.Date.Format("Mon, 02 Jan 2006"),
		TimeSlot:       event.TimeSlot,
		Price:          event.Price,
	}
	if venue, err := s.venueRepo.GetByID(ctx, event.VenueID); err == nil {
		data.VenueName = venue.PlaceName
		data.VenueAddress = fmt.Sprintf("%s, %s, %s", venue.Address, venue.City, venue.State)
	}
	if err := s.emailService.SendTicket(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "send ticket failed", "registration_id", reg.ID, "user_id", user.ID, "err", err)
	}
}
