package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/domain"
)

// CreateVenueRequest is the request body for POST /locations.
type CreateVenueRequest struct {
	State              string   `json:"state" validate:"required"`
	City               string   `json:"city" validate:"required"`
	PlaceName          string   `json:"place_name" validate:"required"`
	Address            string   `json:"address" validate:"required"`
	MaxSeatingCapacity int      `json:"max_seating_capacity" validate:"gt=0"`
	Amenities          []string `json:"amenities"`
}

// BookRequest is the request body for POST /locations/book.
type BookRequest struct {
	LocationID string `json:"location_id" validate:"required"`
	EventID    string `json:"event_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
	TimeSlot   string `json:"time_slot" validate:"required"`
	Duration   int    `json:"duration" validate:"gte=0,lte=1440"`
}

// Validate implements Validator for the date format.
func (b BookRequest) Validate() []string {
	return dateMessages("date", b.Date)
}

// CancelBookingRequest is the request body for POST /locations/cancel.
type CancelBookingRequest struct {
	LocationID string `json:"location_id" validate:"required"`
	BookingID  string `json:"booking_id" validate:"required"`
}

// ConflictResponse is the data of GET /locations/{id}/conflicts.
type ConflictResponse struct {
	Conflict bool            `json:"conflict"`
	Booking  *domain.Booking `json:"booking"`
}

// VenueSuccessResponse is the success response envelope for a single venue.
type VenueSuccessResponse struct {
	Data  *domain.Venue     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// VenueListSuccessResponse is the success response envelope for GET /locations.
type VenueListSuccessResponse struct {
	Data  []*domain.Venue   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// BookingSuccessResponse is the success response envelope for POST /locations/book.
type BookingSuccessResponse struct {
	Data  *domain.Booking   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type VenueController struct {
	Logger  *slog.Logger
	Service domain.VenueService
}

func NewVenueController(logger *slog.Logger, svc domain.VenueService) *VenueController {
	return &VenueController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateVenue godoc
// @Summary Create a venue
// @Tags locations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param venue body CreateVenueRequest true "Venue data"
// @Success 201 {object} controllers.VenueSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /locations [post]
func (c *VenueController) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var req CreateVenueRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	venue := domain.NewVenue(req.State, req.City, req.PlaceName, req.Address, req.MaxSeatingCapacity, req.Amenities, time.Time{})
	if err := c.Service.CreateVenue(r.Context(), venue); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, venue)
}

// GetVenue godoc
// @Summary Get a venue with its bookings
// @Tags locations
// @Produce json
// @Param id path string true "Venue ID (UUID)"
// @Success 200 {object} controllers.VenueSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /locations/{id} [get]
func (c *VenueController) GetVenue(w http.ResponseWriter, r *http.Request) {
	venue, err := c.Service.GetVenueByID(r.Context(), r.PathValue("id"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, venue)
}

// ListVenues godoc
// @Summary List venues
// @Tags locations
// @Produce json
// @Param city query string false "Only venues in this city (case-insensitive)"
// @Success 200 {object} controllers.VenueListSuccessResponse
// @Router /locations [get]
func (c *VenueController) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := c.Service.ListVenues(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if venues == nil {
		venues = []*domain.Venue{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, venues)
}

// DeleteVenue godoc
// @Summary Delete a venue
// @Description Fails with 409 while an event or booking references the venue.
// @Tags locations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Venue ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data: {message}"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /locations/{id} [delete]
func (c *VenueController) DeleteVenue(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.DeleteVenue(r.Context(), r.PathValue("id")); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MessageResponse{Message: "location deleted"})
}

// Book godoc
// @Summary Book a venue slot for an event
// @Tags locations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BookRequest true "Booking"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /locations/book [post]
func (c *VenueController) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	date, _ := parseDate(req.Date)
	booking, err := c.Service.Book(r.Context(), domain.BookingRequest{
		VenueID:  req.LocationID,
		EventID:  req.EventID,
		Date:     date,
		TimeSlot: req.TimeSlot,
		Duration: req.Duration,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, booking)
}

// CancelBooking godoc
// @Summary Cancel a venue booking
// @Tags locations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CancelBookingRequest true "Booking to cancel"
// @Success 200 {object} helpers.APIResponse "data: {message}"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /locations/cancel [post]
func (c *VenueController) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req CancelBookingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.CancelBooking(r.Context(), req.LocationID, req.BookingID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MessageResponse{Message: "booking cancelled"})
}

// CheckConflict godoc
// @Summary Test a slot against a venue's bookings
// @Tags locations
// @Produce json
// @Param id path string true "Venue ID (UUID)"
// @Param date query string true "YYYY-MM-DD"
// @Param time_slot query string true "HH:MM or HH:MM-HH:MM"
// @Param duration query int false "Minutes (default 60)"
// @Param exclude_event_id query string false "Ignore this event's bookings"
// @Success 200 {object} helpers.APIResponse "data: {conflict, booking}"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /locations/{id}/conflicts [get]
func (c *VenueController) CheckConflict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := parseDate(q.Get("date"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	duration := 0
	if s := q.Get("duration"); s != "" {
		if duration, err = strconv.Atoi(s); err != nil || duration < 0 {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "duration must be a non-negative integer")
			return
		}
	}
	booking, err := c.Service.CheckConflict(r.Context(), domain.BookingRequest{
		VenueID:  r.PathValue("id"),
		EventID:  q.Get("exclude_event_id"),
		Date:     date,
		TimeSlot: q.Get("time_slot"),
		Duration: duration,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ConflictResponse{Conflict: booking != nil, Booking: booking})
}
