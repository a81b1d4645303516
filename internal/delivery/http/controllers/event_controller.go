package controllers

import (
	"log/slog"
	"net/http"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// EventRequest is the request body for POST /events and PUT /events/{id}.
type EventRequest struct {
	Title            string  `json:"title" validate:"required"`
	Description      string  `json:"description"`
	Date             string  `json:"date" validate:"required"`
	TimeSlot         string  `json:"time_slot" validate:"required"`
	Duration         int     `json:"duration" validate:"gte=0,lte=1440"`
	LocationID       string  `json:"location_id" validate:"required"`
	Category         string  `json:"category" validate:"required"`
	Price            float64 `json:"price" validate:"gte=0"`
	MaxRegistrations int     `json:"max_registrations" validate:"gt=0"`
	Artist           string  `json:"artist"`
	Organization     string  `json:"organization"`
}

// Validate implements Validator for the date format.
func (e EventRequest) Validate() []string {
	return dateMessages("date", e.Date)
}

// Fields converts the request to domain fields. Call only after validation.
func (e EventRequest) Fields() domain.EventFields {
	date, _ := parseDate(e.Date)
	return domain.EventFields{
		Title:            e.Title,
		Description:      e.Description,
		Date:             date,
		TimeSlot:         e.TimeSlot,
		Duration:         e.Duration,
		VenueID:          e.LocationID,
		Category:         e.Category,
		Price:            e.Price,
		MaxRegistrations: e.MaxRegistrations,
		Artist:           e.Artist,
		Organization:     e.Organization,
	}
}

// UpdateStatusRequest is the request body for PATCH /events/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// EventSuccessResponse is the success response envelope for a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventPageSuccessResponse is the success response envelope for paginated event lists.
type EventPageSuccessResponse struct {
	Data  *domain.Page[*domain.Event] `json:"data"`
	Error *helpers.APIError           `json:"error"`
}

// SweepResponse reports how many events a sweep expired.
type SweepResponse struct {
	Expired int `json:"expired"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
	Sweeper domain.ExpirySweeper
}

func NewEventController(logger *slog.Logger, svc domain.EventService, sweeper domain.ExpirySweeper) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
		Sweeper: sweeper,
	}
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Creates a Pending event owned by the caller. The venue must exist.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body EventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), req.Fields(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEventByID godoc
// @Summary Get an event by ID
// @Description Returns the event with its venue and effective status.
// @Tags events
// @Produce json
// @Param id path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/by-id/{id} [get]
func (c *EventController) GetEventByID(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetEventByID(r.Context(), r.PathValue("id"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListEvents godoc
// @Summary List events
// @Description Lists non-deleted events, newest first.
// @Tags events
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.EventPageSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	page, err := c.Service.ListEvents(r.Context(), helpers.ParsePagination(r))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, page)
}

// ListEventsByStatus returns a handler for one of the fixed status views
// (GET /events/pending, /events/approved, /events/rejected, /events/expired).
// Pending and Approved exclude past-dated events; Expired includes them.
func (c *EventController) ListEventsByStatus(status domain.EventStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := c.Service.ListEventsByStatus(r.Context(), status, helpers.ParsePagination(r))
		if err != nil {
			helpers.WriteServiceError(w, r, c.Logger, err)
			return
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, page)
	}
}

// ListEventsByOrganizer godoc
// @Summary List an organizer's events
// @Tags events
// @Produce json
// @Param organizerID path string true "Organizer user ID"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.EventPageSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/by-organizer/{organizerID} [get]
func (c *EventController) ListEventsByOrganizer(w http.ResponseWriter, r *http.Request) {
	page, err := c.Service.ListEventsByOrganizer(r.Context(), r.PathValue("organizerID"), helpers.ParsePagination(r))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, page)
}

// ListEventsByOrganizerAndStatus godoc
// @Summary List an organizer's events in one status
// @Tags events
// @Produce json
// @Param organizerID path string true "Organizer user ID"
// @Param status path string true "Pending, Approved, Rejected or Expired (case-insensitive)"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.EventPageSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/by-organizer/{organizerID}/status/{status} [get]
func (c *EventController) ListEventsByOrganizerAndStatus(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseEventStatus(r.PathValue("status"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	page, err := c.Service.ListEventsByOrganizerAndStatus(r.Context(), r.PathValue("organizerID"), status, helpers.ParsePagination(r))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, page)
}

// UpdateStatus godoc
// @Summary Approve or reject an event
// @Description Only Pending events move, to Approved (books the venue slot) or Rejected (releases it).
// @Tags events
// @Accept json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Param body body UpdateStatusRequest true "New status"
// @Success 204 "Status updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict or invalid_transition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id}/status [patch]
func (c *EventController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	status, err := domain.ParseEventStatus(req.Status)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	if err := c.Service.UpdateStatus(r.Context(), r.PathValue("id"), status); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateEvent godoc
// @Summary Replace an event's descriptive fields
// @Description Organizers may only update their own events. Rescheduling an Approved event moves its booking.
// @Tags events
// @Accept json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Param body body EventRequest true "Event data"
// @Success 204 "Event updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	id := r.PathValue("id")
	if !p.HasRole(domain.RoleAdmin) {
		event, err := c.Service.GetEventByID(r.Context(), id)
		if err != nil {
			helpers.WriteServiceError(w, r, c.Logger, err)
			return
		}
		if event.CreatedByID != p.UserID {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "only the organizer can update this event")
			return
		}
	}
	if err := c.Service.UpdateEvent(r.Context(), id, req.Fields()); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEvent godoc
// @Summary Soft-delete an event
// @Description Hides the event and releases its venue bookings.
// @Tags events
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Success 204 "Event deleted"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.DeleteEvent(r.Context(), r.PathValue("id")); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SweepExpired godoc
// @Summary Expire past-dated events now
// @Description Runs the expiry sweep outside its schedule and returns how many events it expired.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data: {expired}"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/sweep [post]
func (c *EventController) SweepExpired(w http.ResponseWriter, r *http.Request) {
	n, err := c.Sweeper.SweepExpired(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SweepResponse{Expired: n})
}
