package controllers

import (
	"fmt"
	"strings"
	"time"

	"eventbooking/internal/domain"
)

// parseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD or RFC 3339, got %q", s)
	}
	return t.UTC(), nil
}

// dateMessages returns the validation message for a date field, if any.
func dateMessages(field, value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := parseDate(value); err != nil {
		return []string{field + ": " + err.Error()}
	}
	return nil
}

// canActFor reports whether the caller may act on behalf of userID.
func canActFor(p domain.Principal, userID string) bool {
	return p.UserID == userID || p.HasRole(domain.RoleAdmin)
}

// MessageResponse is the data of responses that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}
