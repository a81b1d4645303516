package controllers

import (
	"log/slog"
	"net/http"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// RegistrationRequest is the request body for POST /events/register and /events/deregister.
type RegistrationRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	EventID string `json:"event_id" validate:"required"`
}

// RegisteredEventsResponse is the data of GET /events/registered-events/{userID}.
type RegisteredEventsResponse struct {
	Events []*domain.Event `json:"events"`
}

// RegistrationSuccessResponse is the success response envelope for POST /events/register.
type RegistrationSuccessResponse struct {
	Data  *domain.EventRegistration `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

type AttendeeController struct {
	Logger  *slog.Logger
	Service domain.AttendeeService
}

func NewAttendeeController(logger *slog.Logger, svc domain.AttendeeService) *AttendeeController {
	return &AttendeeController{
		Logger:  logger,
		Service: svc,
	}
}

// decodeForCaller decodes a registration body and checks the caller may act for its user.
func (c *AttendeeController) decodeForCaller(w http.ResponseWriter, r *http.Request) (RegistrationRequest, bool) {
	var req RegistrationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return req, false
	}
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return req, false
	}
	if !canActFor(p, req.UserID) {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "cannot act for another user")
		return req, false
	}
	return req, true
}

// Register godoc
// @Summary Register a user for an event
// @Description The event must be Approved, upcoming and not full. Non-admins may only register themselves.
// @Tags attendee
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RegistrationRequest true "User and event"
// @Success 200 {object} controllers.RegistrationSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, already_registered, capacity_exceeded or event_not_open"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Router /events/register [post]
func (c *AttendeeController) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decodeForCaller(w, r)
	if !ok {
		return
	}
	reg, err := c.Service.Register(r.Context(), req.UserID, req.EventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// Deregister godoc
// @Summary Cancel a user's registration
// @Tags attendee
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RegistrationRequest true "User and event"
// @Success 200 {object} helpers.APIResponse "data: {message}"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/deregister [post]
func (c *AttendeeController) Deregister(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decodeForCaller(w, r)
	if !ok {
		return
	}
	if err := c.Service.Deregister(r.Context(), req.UserID, req.EventID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MessageResponse{Message: "registration cancelled"})
}

// ListRegisteredUsers godoc
// @Summary List the users registered for an event
// @Tags attendee
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data: {current_registration, users}"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/registered-users [get]
func (c *AttendeeController) ListRegisteredUsers(w http.ResponseWriter, r *http.Request) {
	out, err := c.Service.ListUsersForEvent(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if out.Users == nil {
		out.Users = []*domain.User{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, out)
}

// RemoveRegistration godoc
// @Summary Remove a user's registration permanently
// @Tags attendee
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param userID path string true "User ID"
// @Success 204 "Registration removed"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/users/{userID} [delete]
func (c *AttendeeController) RemoveRegistration(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.RemoveRegistration(r.Context(), r.PathValue("eventID"), r.PathValue("userID")); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRegisteredEvents godoc
// @Summary List the events a user is registered for
// @Description Non-admins may only list their own registrations.
// @Tags attendee
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID"
// @Success 200 {object} helpers.APIResponse "data: {events}"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events/registered-events/{userID} [get]
func (c *AttendeeController) ListRegisteredEvents(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if !canActFor(p, userID) {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "cannot list another user's registrations")
		return
	}
	events, err := c.Service.ListEventsForUser(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RegisteredEventsResponse{Events: events})
}
