// Package analytics derives read-only rollups from an event/registration snapshot.
package analytics

import (
	"math"
	"sort"
	"time"

	"eventbooking/internal/domain"
)

// MonthLabelLayout formats the events-by-month buckets, e.g. "2025 Jan".
const MonthLabelLayout = "2006 Jan"

// Months is the number of calendar months covered by EventsByMonth.
const Months = 12

// Compute aggregates events (deleted ones are skipped) with counts, the active
// registrations per event id. Upcoming/expired split on date vs now, ignoring stored status.
func Compute(events []*domain.Event, counts map[string]int, now time.Time) *domain.Analytics {
	out := &domain.Analytics{
		EventsByCategory:     []domain.LabelCount{},
		EventsByMonth:        make([]domain.LabelCount, 0, Months),
		RegistrationsByEvent: []domain.EventCount{},
		RevenueByEvent:       []domain.EventRevenue{},
	}

	byCategory := make(map[string]int)
	byMonth := make(map[string]int)
	for _, e := range events {
		if e.IsDeleted {
			continue
		}
		out.TotalEvents++
		if e.Date.Before(now) {
			out.ExpiredEvents++
		} else {
			out.UpcomingEvents++
		}
		byCategory[e.Category]++
		byMonth[e.Date.UTC().Format(MonthLabelLayout)]++

		n := counts[e.ID]
		out.TotalRegistrations += n
		out.RegistrationsByEvent = append(out.RegistrationsByEvent, domain.EventCount{
			EventID:       e.ID,
			EventTitle:    e.Title,
			Registrations: n,
		})
		out.RevenueByEvent = append(out.RevenueByEvent, domain.EventRevenue{
			EventID:    e.ID,
			EventTitle: e.Title,
			Revenue:    roundCents(e.Price * float64(n)),
		})
	}

	for label, n := range byCategory {
		out.EventsByCategory = append(out.EventsByCategory, domain.LabelCount{Label: label, Count: n})
	}
	sort.Slice(out.EventsByCategory, func(i, j int) bool {
		return out.EventsByCategory[i].Label < out.EventsByCategory[j].Label
	})

	for _, label := range MonthLabels(now) {
		out.EventsByMonth = append(out.EventsByMonth, domain.LabelCount{Label: label, Count: byMonth[label]})
	}
	return out
}

// MonthLabels returns the labels of the last Months calendar months ending with now's month, oldest first.
func MonthLabels(now time.Time) []string {
	first := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	labels := make([]string, Months)
	for i := 0; i < Months; i++ {
		labels[i] = first.AddDate(0, i-(Months-1), 0).Format(MonthLabelLayout)
	}
	return labels
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
