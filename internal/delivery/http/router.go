package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventbooking/config"
	"eventbooking/internal/delivery/http/controllers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Event     *controllers.EventController
	Venue     *controllers.VenueController
	Attendee  *controllers.AttendeeController
	Analytics *controllers.AnalyticsController
	Health    *controllers.HealthController
}

// RouterDeps are the cross-cutting collaborators of the router.
type RouterDeps struct {
	Logger    *slog.Logger
	Verifier  domain.TokenVerifier
	Limiter   middleware.Limiter
	RateLimit config.RateLimitConfig
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, deps RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()

	authed := middleware.RequireAuth(deps.Verifier, deps.Logger)
	limited := middleware.RateLimit(deps.Limiter, deps.RateLimit, deps.Logger)
	role := func(h http.HandlerFunc, roles ...domain.Role) http.HandlerFunc {
		return authed(middleware.RequireRole(roles...)(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc { return role(h, domain.RoleAdmin) }
	staff := func(h http.HandlerFunc) http.HandlerFunc { return role(h, domain.RoleOrganizer, domain.RoleAdmin) }

	// Events
	mux.HandleFunc("POST /events", staff(c.Event.CreateEvent))
	mux.HandleFunc("GET /events", c.Event.ListEvents)
	mux.HandleFunc("GET /events/pending", c.Event.ListEventsByStatus(domain.EventStatusPending))
	mux.HandleFunc("GET /events/approved", c.Event.ListEventsByStatus(domain.EventStatusApproved))
	mux.HandleFunc("GET /events/rejected", c.Event.ListEventsByStatus(domain.EventStatusRejected))
	mux.HandleFunc("GET /events/expired", c.Event.ListEventsByStatus(domain.EventStatusExpired))
	mux.HandleFunc("GET /events/by-id/{id}", c.Event.GetEventByID)
	mux.HandleFunc("GET /events/by-organizer/{organizerID}", c.Event.ListEventsByOrganizer)
	mux.HandleFunc("GET /events/by-organizer/{organizerID}/status/{status}", c.Event.ListEventsByOrganizerAndStatus)
	mux.HandleFunc("PATCH /events/{id}/status", admin(c.Event.UpdateStatus))
	mux.HandleFunc("PUT /events/{id}", staff(c.Event.UpdateEvent))
	mux.HandleFunc("DELETE /events/{id}", admin(c.Event.DeleteEvent))
	mux.HandleFunc("POST /events/sweep", admin(c.Event.SweepExpired))

	// Registrations
	mux.HandleFunc("POST /events/register", authed(limited(c.Attendee.Register)))
	mux.HandleFunc("POST /events/deregister", authed(limited(c.Attendee.Deregister)))
	mux.HandleFunc("GET /events/registered-events/{userID}", authed(c.Attendee.ListRegisteredEvents))
	mux.HandleFunc("DELETE /events/{eventID}/users/{userID}", admin(c.Attendee.RemoveRegistration))
	// A literal "/events/{eventID}/registered-users" would overlap the by-id,
	// by-organizer and registered-events patterns, which ServeMux rejects.
	registeredUsers := staff(c.Attendee.ListRegisteredUsers)
	mux.HandleFunc("GET /events/{eventID}/{view}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("view") != "registered-users" {
			http.NotFound(w, r)
			return
		}
		registeredUsers(w, r)
	})

	// Locations
	mux.HandleFunc("POST /locations", admin(c.Venue.CreateVenue))
	mux.HandleFunc("GET /locations", c.Venue.ListVenues)
	mux.HandleFunc("GET /locations/{id}", c.Venue.GetVenue)
	mux.HandleFunc("DELETE /locations/{id}", admin(c.Venue.DeleteVenue))
	mux.HandleFunc("GET /locations/{id}/conflicts", c.Venue.CheckConflict)
	mux.HandleFunc("POST /locations/book", admin(c.Venue.Book))
	mux.HandleFunc("POST /locations/cancel", admin(c.Venue.CancelBooking))

	// Analytics
	mux.HandleFunc("GET /analytics/organizer/{id}", staff(c.Analytics.Organizer))
	mux.HandleFunc("GET /analytics/admin", admin(c.Analytics.Admin))

	mux.HandleFunc("GET /health", c.Health.Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps the router with request logging and CORS.
func NewHandler(mux http.Handler, logger *slog.Logger, corsOrigins []string) http.Handler {
	return middleware.LoggingMiddleware(logger, middleware.CORS(corsOrigins, mux))
}
