package domain

import "context"

// Analytics is a read-only rollup over non-deleted events and their active registrations.
// swagger:model Analytics
type Analytics struct {
	TotalEvents          int            `json:"total_events"`
	UpcomingEvents       int            `json:"upcoming_events"`
	ExpiredEvents        int            `json:"expired_events"`
	TotalRegistrations   int            `json:"total_registrations"`
	EventsByCategory     []LabelCount   `json:"events_by_category"`
	EventsByMonth        []LabelCount   `json:"events_by_month"`
	RegistrationsByEvent []EventCount   `json:"registrations_by_event"`
	RevenueByEvent       []EventRevenue `json:"revenue_by_event"`
}

// LabelCount is one bucket of a grouped count.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// EventCount is the number of active registrations of one event.
type EventCount struct {
	EventID       string `json:"event_id"`
	EventTitle    string `json:"event_title"`
	Registrations int    `json:"registrations"`
}

// EventRevenue is price times active registrations of one event.
type EventRevenue struct {
	EventID    string  `json:"event_id"`
	EventTitle string  `json:"event_title"`
	Revenue    float64 `json:"revenue"`
}

// AnalyticsService computes organizer and admin rollups.
type AnalyticsService interface {
	ForOrganizer(ctx context.Context, organizerID string) (*Analytics, error)
	ForAdmin(ctx context.Context) (*Analytics, error)
}
