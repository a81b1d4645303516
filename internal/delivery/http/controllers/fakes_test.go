package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var (
	admin     = domain.Principal{UserID: "admin-1", Roles: []domain.Role{domain.RoleAdmin}}
	organizer = domain.Principal{UserID: "org-1", Roles: []domain.Role{domain.RoleOrganizer}}
	attendee  = domain.Principal{UserID: "user-1", Roles: []domain.Role{domain.RoleUser}}
)

// newRequest builds a request with an optional JSON body, path values and principal.
func newRequest(t *testing.T, method, target string, body any, p *domain.Principal, pathValues map[string]string) *http.Request {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if p != nil {
		req = req.WithContext(middleware.SetPrincipal(req.Context(), *p))
	}
	return req
}

// decode reads the envelope and, when dataOut is non-nil, its data.
func decode(t *testing.T, rr *httptest.ResponseRecorder, dataOut any) helpers.APIResponse {
	t.Helper()
	var raw struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	if dataOut != nil {
		require.NoError(t, json.Unmarshal(raw.Data, dataOut))
	}
	return helpers.APIResponse{Data: raw.Data, Error: raw.Error}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, rr, nil)
	require.NotNil(t, env.Error)
	return env.Error.Code
}

var eventDate = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func sampleEvent(id, createdBy string) *domain.Event {
	return &domain.Event{
		ID:               id,
		Title:            "Go Meetup",
		Date:             eventDate,
		TimeSlot:         "10:00",
		Duration:         60,
		VenueID:          "venue-1",
		Category:         "Tech",
		Price:            10,
		MaxRegistrations: 50,
		CreatedByID:      createdBy,
		Status:           domain.EventStatusPending,
	}
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err          error
	event        *domain.Event
	page         *domain.Page[*domain.Event]
	lastFields   domain.EventFields
	lastCreator  string
	lastID       string
	lastStatus   domain.EventStatus
	lastOrg      string
	lastParams   domain.PaginationParams
	updateCalled bool
}

func (f *fakeEventService) CreateEvent(_ context.Context, fields domain.EventFields, createdByID string) (*domain.Event, error) {
	f.lastFields, f.lastCreator = fields, createdByID
	if f.err != nil {
		return nil, f.err
	}
	e := domain.NewEvent(fields, createdByID, eventDate, eventDate)
	e.ID = "event-1"
	return e, nil
}

func (f *fakeEventService) GetEventByID(_ context.Context, id string) (*domain.Event, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	if f.event == nil {
		return nil, domain.ErrNotFound
	}
	return f.event, nil
}

func (f *fakeEventService) listResult(params domain.PaginationParams) (*domain.Page[*domain.Event], error) {
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	if f.page != nil {
		return f.page, nil
	}
	return domain.NewPage[*domain.Event](nil, params, 0), nil
}

func (f *fakeEventService) ListEvents(_ context.Context, params domain.PaginationParams) (*domain.Page[*domain.Event], error) {
	return f.listResult(params)
}

func (f *fakeEventService) ListEventsByStatus(_ context.Context, status domain.EventStatus, params domain.PaginationParams) (*domain.Page[*domain.Event], error) {
	f.lastStatus = status
	return f.listResult(params)
}

func (f *fakeEventService) ListEventsByOrganizer(_ context.Context, organizerID string, params domain.PaginationParams) (*domain.Page[*domain.Event], error) {
	f.lastOrg = organizerID
	return f.listResult(params)
}

func (f *fakeEventService) ListEventsByOrganizerAndStatus(_ context.Context, organizerID string, status domain.EventStatus, params domain.PaginationParams) (*domain.Page[*domain.Event], error) {
	f.lastOrg, f.lastStatus = organizerID, status
	return f.listResult(params)
}

func (f *fakeEventService) UpdateStatus(_ context.Context, id string, status domain.EventStatus) error {
	f.lastID, f.lastStatus = id, status
	return f.err
}

func (f *fakeEventService) UpdateEvent(_ context.Context, id string, fields domain.EventFields) error {
	f.updateCalled = true
	f.lastID, f.lastFields = id, fields
	return f.err
}

func (f *fakeEventService) DeleteEvent(_ context.Context, id string) error {
	f.lastID = id
	return f.err
}

type fakeSweeper struct {
	n   int
	err error
}

func (f *fakeSweeper) SweepExpired(context.Context) (int, error) { return f.n, f.err }

// fakeVenueService implements domain.VenueService for handler tests.
type fakeVenueService struct {
	err         error
	venue       *domain.Venue
	venues      []*domain.Venue
	booking     *domain.Booking
	lastVenue   *domain.Venue
	lastReq     domain.BookingRequest
	lastID      string
	lastCity    string
	lastBooking string
}

func (f *fakeVenueService) CreateVenue(_ context.Context, v *domain.Venue) error {
	f.lastVenue = v
	if f.err != nil {
		return f.err
	}
	v.ID = "venue-1"
	return nil
}

func (f *fakeVenueService) GetVenueByID(_ context.Context, id string) (*domain.Venue, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.venue, nil
}

func (f *fakeVenueService) ListVenues(_ context.Context, city string) ([]*domain.Venue, error) {
	f.lastCity = city
	return f.venues, f.err
}

func (f *fakeVenueService) DeleteVenue(_ context.Context, id string) error {
	f.lastID = id
	return f.err
}

func (f *fakeVenueService) Book(_ context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.booking, nil
}

func (f *fakeVenueService) CancelBooking(_ context.Context, venueID, bookingID string) error {
	f.lastID, f.lastBooking = venueID, bookingID
	return f.err
}

func (f *fakeVenueService) CheckConflict(_ context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	f.lastReq = req
	return f.booking, f.err
}

// fakeAttendeeService implements domain.AttendeeService for handler tests.
type fakeAttendeeService struct {
	err         error
	registrants *domain.EventRegistrants
	events      []*domain.Event
	lastUser    string
	lastEvent   string
	calls       int
}

func (f *fakeAttendeeService) Register(_ context.Context, userID, eventID string) (*domain.EventRegistration, error) {
	f.calls++
	f.lastUser, f.lastEvent = userID, eventID
	if f.err != nil {
		return nil, f.err
	}
	reg := domain.NewEventRegistration(eventID, userID, eventDate)
	reg.ID = "reg-1"
	return reg, nil
}

func (f *fakeAttendeeService) Deregister(_ context.Context, userID, eventID string) error {
	f.calls++
	f.lastUser, f.lastEvent = userID, eventID
	return f.err
}

func (f *fakeAttendeeService) ListUsersForEvent(_ context.Context, eventID string) (*domain.EventRegistrants, error) {
	f.lastEvent = eventID
	if f.err != nil {
		return nil, f.err
	}
	return f.registrants, nil
}

func (f *fakeAttendeeService) ListEventsForUser(_ context.Context, userID string) ([]*domain.Event, error) {
	f.calls++
	f.lastUser = userID
	return f.events, f.err
}

func (f *fakeAttendeeService) RemoveRegistration(_ context.Context, eventID, userID string) error {
	f.lastUser, f.lastEvent = userID, eventID
	return f.err
}

// fakeAnalyticsService implements domain.AnalyticsService for handler tests.
type fakeAnalyticsService struct {
	err     error
	out     *domain.Analytics
	lastOrg string
	calls   int
}

func (f *fakeAnalyticsService) ForOrganizer(_ context.Context, organizerID string) (*domain.Analytics, error) {
	f.calls++
	f.lastOrg = organizerID
	return f.out, f.err
}

func (f *fakeAnalyticsService) ForAdmin(context.Context) (*domain.Analytics, error) {
	f.calls++
	return f.out, f.err
}
