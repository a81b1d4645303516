package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventbooking/internal/clock"
	"eventbooking/internal/domain"

	"github.com/google/uuid"
)

type venueService struct {
	venueRepo      domain.VenueRepository
	eventRepo      domain.EventRepository
	tx             domain.Transactor
	clock          clock.Clock
	contextTimeout time.Duration
}

// NewVenueService returns the venue store and booking coordinator.
func NewVenueService(
	venueRepo domain.VenueRepository,
	eventRepo domain.EventRepository,
	tx domain.Transactor,
	clk clock.Clock,
	timeout time.Duration,
) domain.VenueService {
	return &venueService{
		venueRepo:      venueRepo,
		eventRepo:      eventRepo,
		tx:             tx,
		clock:          clk,
		contextTimeout: timeout,
	}
}

func (s *venueService) CreateVenue(ctx context.Context, venue *domain.Venue) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := venue.Validate(); err != nil {
		return err
	}
	venue.ID = uuid.NewString()
	venue.CreatedAt = s.clock.Now()
	if venue.Amenities == nil {
		venue.Amenities = []string{}
	}
	venue.Bookings = []*domain.Booking{}
	if err := s.venueRepo.Create(ctx, venue); err != nil {
		return fmt.Errorf("create venue: %w", err)
	}
	return nil
}

func (s *venueService) GetVenueByID(ctx context.Context, id string) (*domain.Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	v, err := s.venueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get venue: %w", err)
	}
	return v, nil
}

func (s *venueService) ListVenues(ctx context.Context, city string) ([]*domain.Venue, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	venues, err := s.venueRepo.List(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return venues, nil
}

// DeleteVenue removes a venue that no live event and no booking refers to.
func (s *venueService) DeleteVenue(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.venueRepo.LockByID(ctx, id); err != nil {
			return err
		}
		events, err := s.eventRepo.CountByVenue(ctx, id)
		if err != nil {
			return fmt.Errorf("count venue events: %w", err)
		}
		bookings, err := s.venueRepo.CountBookings(ctx, id)
		if err != nil {
			return fmt.Errorf("count venue bookings: %w", err)
		}
		if events > 0 || bookings > 0 {
			return fmt.Errorf("%w: venue has %d events and %d bookings", domain.ErrConflict, events, bookings)
		}
		return s.venueRepo.Delete(ctx, id)
	})
}

// Book reserves the slot for req.EventID. The venue row stays locked until the
// surrounding transaction ends, so concurrent bookings of one venue serialize.
func (s *venueService) Book(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slot, err := req.Slot()
	if err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrValidation)
	}

	var booking *domain.Booking
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.venueRepo.LockByID(ctx, req.VenueID); err != nil {
			return err
		}
		existing, err := s.venueRepo.ListBookings(ctx, req.VenueID, req.Date)
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		if c := domain.FindConflict(existing, req.Date, slot, ""); c != nil {
			return fmt.Errorf("%w: slot %s overlaps booking %s (%s)", domain.ErrConflict, req.TimeSlot, c.ID, c.TimeSlot)
		}
		booking = &domain.Booking{
			ID:        uuid.NewString(),
			VenueID:   req.VenueID,
			EventID:   req.EventID,
			Date:      domain.DateOnly(req.Date),
			TimeSlot:  req.TimeSlot,
			Slot:      slot,
			CreatedAt: s.clock.Now(),
		}
		return s.venueRepo.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *venueService) CancelBooking(ctx context.Context, venueID, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.venueRepo.DeleteBooking(ctx, venueID, bookingID)
}

// CheckConflict returns the booking that req would collide with, ignoring
// bookings held by req.EventID. A nil booking means the slot is free.
func (s *venueService) CheckConflict(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slot, err := req.Slot()
	if err != nil {
		return nil, err
	}
	if _, err := s.venueRepo.GetByID(ctx, req.VenueID); err != nil {
		return nil, err
	}
	existing, err := s.venueRepo.ListBookings(ctx, req.VenueID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return domain.FindConflict(existing, req.Date, slot, req.EventID), nil
}
