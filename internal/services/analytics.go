package services

import (
	"context"
	"fmt"
	"time"

	"eventbooking/internal/analytics"
	"eventbooking/internal/clock"
	"eventbooking/internal/domain"
)

type analyticsService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.EventRegistrationRepository
	clock            clock.Clock
	contextTimeout   time.Duration
}

func NewAnalyticsService(
	eventRepo domain.EventRepository,
	registrationRepo domain.EventRegistrationRepository,
	clk clock.Clock,
	timeout time.Duration,
) domain.AnalyticsService {
	return &analyticsService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		clock:            clk,
		contextTimeout:   timeout,
	}
}

func (s *analyticsService) ForOrganizer(ctx context.Context, organizerID string) (*domain.Analytics, error) {
	if organizerID == "" {
		return nil, fmt.Errorf("%w: organizer id is required", domain.ErrValidation)
	}
	return s.compute(ctx, organizerID)
}

func (s *analyticsService) ForAdmin(ctx context.Context) (*domain.Analytics, error) {
	return s.compute(ctx, "")
}

func (s *analyticsService) compute(ctx context.Context, organizerID string) (*domain.Analytics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListAll(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	counts, err := s.registrationRepo.CountByEventIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	return analytics.Compute(events, counts, s.clock.Now()), nil
}
