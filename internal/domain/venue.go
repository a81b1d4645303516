package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Venue is a physical location with a seating capacity and a booking calendar.
// swagger:model Venue
type Venue struct {
	ID                 string     `json:"id"`
	State              string     `json:"state"`
	City               string     `json:"city"`
	PlaceName          string     `json:"place_name"`
	Address            string     `json:"address"`
	MaxSeatingCapacity int        `json:"max_seating_capacity"`
	Amenities          []string   `json:"amenities"`
	Bookings           []*Booking `json:"bookings"`
	CreatedAt          time.Time  `json:"created_at"`
}

// NewVenue returns a new Venue with no bookings. ID is set by the service on create.
func NewVenue(state, city, placeName, address string, capacity int, amenities []string, createdAt time.Time) *Venue {
	if amenities == nil {
		amenities = []string{}
	}
	return &Venue{
		State:              strings.TrimSpace(state),
		City:               strings.TrimSpace(city),
		PlaceName:          strings.TrimSpace(placeName),
		Address:            strings.TrimSpace(address),
		MaxSeatingCapacity: capacity,
		Amenities:          amenities,
		Bookings:           []*Booking{},
		CreatedAt:          createdAt,
	}
}

// Validate checks the required venue fields.
func (v *Venue) Validate() error {
	var errs []string
	if v.State == "" {
		errs = append(errs, "state is required")
	}
	if v.City == "" {
		errs = append(errs, "city is required")
	}
	if v.PlaceName == "" {
		errs = append(errs, "place name is required")
	}
	if v.Address == "" {
		errs = append(errs, "address is required")
	}
	if v.MaxSeatingCapacity <= 0 {
		errs = append(errs, "max seating capacity must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, "; "))
	}
	return nil
}

// Booking reserves a venue for one event on a date and time slot.
// swagger:model Booking
type Booking struct {
	ID        string    `json:"id"`
	VenueID   string    `json:"location_id"`
	EventID   string    `json:"event_id"`
	Date      time.Time `json:"date"`
	TimeSlot  string    `json:"time_slot"`
	Slot      Slot      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingRequest describes a slot to reserve or test for conflicts.
type BookingRequest struct {
	VenueID  string
	EventID  string
	Date     time.Time
	TimeSlot string
	Duration int
}

// Slot resolves the request's time range.
func (r BookingRequest) Slot() (Slot, error) {
	return ParseTimeSlot(r.TimeSlot, r.Duration)
}

// FindConflict returns the first booking on the same day whose slot overlaps s,
// skipping bookings that belong to excludeEventID.
func FindConflict(bookings []*Booking, date time.Time, s Slot, excludeEventID string) *Booking {
	for _, b := range bookings {
		if excludeEventID != "" && b.EventID == excludeEventID {
			continue
		}
		if !sameDay(b.Date, date) {
			continue
		}
		if b.Slot.Overlaps(s) {
			return b
		}
	}
	return nil
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// VenueRepository defines the interface for venue and booking storage.
type VenueRepository interface {
	Create(ctx context.Context, venue *Venue) error
	// GetByID returns the venue with its bookings.
	GetByID(ctx context.Context, id string) (*Venue, error)
	List(ctx context.Context, city string) ([]*Venue, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Venue, error)
	Delete(ctx context.Context, id string) error
	// LockByID locks the venue row so bookings on it serialize within the transaction.
	LockByID(ctx context.Context, id string) error
	ListBookings(ctx context.Context, venueID string, date time.Time) ([]*Booking, error)
	CreateBooking(ctx context.Context, b *Booking) error
	DeleteBooking(ctx context.Context, venueID, bookingID string) error
	DeleteBookingsForEvent(ctx context.Context, eventID string) (int, error)
	CountBookings(ctx context.Context, venueID string) (int, error)
}

// VenueService is the venue store plus booking coordinator.
type VenueService interface {
	CreateVenue(ctx context.Context, venue *Venue) error
	GetVenueByID(ctx context.Context, id string) (*Venue, error)
	ListVenues(ctx context.Context, city string) ([]*Venue, error)
	DeleteVenue(ctx context.Context, id string) error
	Book(ctx context.Context, req BookingRequest) (*Booking, error)
	CancelBooking(ctx context.Context, venueID, bookingID string) error
	CheckConflict(ctx context.Context, req BookingRequest) (*Booking, error)
}
