package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSlotMinutes is used when a single start label comes without a duration.
const DefaultSlotMinutes = 60

const minutesPerDay = 24 * 60

// MaxDurationMinutes bounds an event's duration to one day.
const MaxDurationMinutes = minutesPerDay

// Slot is a half-open minute range [Start, End) within a day.
type Slot struct {
	Start int
	End   int
}

// Overlaps reports whether s and o share at least one minute.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start < o.End && o.Start < s.End
}

// ParseTimeSlot accepts "HH:MM" (start label plus duration minutes) or "HH:MM-HH:MM".
// A zero duration with a start label means DefaultSlotMinutes. A start label
// must begin before 24:00 and the slot is cut at midnight.
// The returned slot always has Start < End.
func ParseTimeSlot(label string, duration int) (Slot, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Slot{}, fmt.Errorf("%w: time slot is required", ErrValidation)
	}
	if startLabel, endLabel, ok := strings.Cut(label, "-"); ok {
		start, err := parseClock(startLabel)
		if err != nil {
			return Slot{}, err
		}
		end, err := parseClock(endLabel)
		if err != nil {
			return Slot{}, err
		}
		if end <= start {
			return Slot{}, fmt.Errorf("%w: time slot %q ends before it starts", ErrValidation, label)
		}
		return Slot{Start: start, End: end}, nil
	}
	start, err := parseClock(label)
	if err != nil {
		return Slot{}, err
	}
	if start >= minutesPerDay {
		return Slot{}, fmt.Errorf("%w: time slot %q starts at midnight", ErrValidation, label)
	}
	if duration < 0 {
		return Slot{}, fmt.Errorf("%w: duration must not be negative", ErrValidation)
	}
	if duration > MaxDurationMinutes {
		return Slot{}, fmt.Errorf("%w: duration must be at most %d minutes", ErrValidation, MaxDurationMinutes)
	}
	if duration == 0 {
		duration = DefaultSlotMinutes
	}
	end := min(start+duration, minutesPerDay)
	if end <= start {
		return Slot{}, fmt.Errorf("%w: time slot %q is empty", ErrValidation, label)
	}
	return Slot{Start: start, End: end}, nil
}

func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: invalid time %q", ErrValidation, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("%w: invalid hour in %q", ErrValidation, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: invalid minute in %q", ErrValidation, s)
	}
	return h*60 + m, nil
}
