package controllers

import (
	"log/slog"
	"net/http"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// AnalyticsSuccessResponse is the success response envelope for analytics endpoints.
type AnalyticsSuccessResponse struct {
	Data  *domain.Analytics `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type AnalyticsController struct {
	Logger  *slog.Logger
	Service domain.AnalyticsService
}

func NewAnalyticsController(logger *slog.Logger, svc domain.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{Logger: logger, Service: svc}
}

// Organizer godoc
// @Summary Analytics over one organizer's events
// @Description Organizers may only read their own analytics.
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Organizer user ID"
// @Success 200 {object} controllers.AnalyticsSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /analytics/organizer/{id} [get]
func (c *AnalyticsController) Organizer(w http.ResponseWriter, r *http.Request) {
	organizerID := r.PathValue("id")
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if !canActFor(p, organizerID) {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "cannot read another organizer's analytics")
		return
	}
	out, err := c.Service.ForOrganizer(r.Context(), organizerID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, out)
}

// Admin godoc
// @Summary Analytics over every event
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.AnalyticsSuccessResponse
// @Router /analytics/admin [get]
func (c *AnalyticsController) Admin(w http.ResponseWriter, r *http.Request) {
	out, err := c.Service.ForAdmin(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, out)
}
