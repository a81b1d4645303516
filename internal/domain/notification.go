package domain

import (
	"context"
	"time"
)

// EventStatusChanged is published whenever an event changes status.
type EventStatusChanged struct {
	EventID     string      `json:"event_id"`
	From        EventStatus `json:"from,omitempty"`
	To          EventStatus `json:"to"`
	CreatedByID string      `json:"created_by_id,omitempty"`
	ChangedAt   time.Time   `json:"changed_at"`
}

// Notifier publishes lifecycle messages to downstream consumers (infrastructure port).
type Notifier interface {
	PublishStatusChanged(ctx context.Context, msg EventStatusChanged) error
}

// Transactor runs fn inside one storage transaction. Nested calls join the outer one.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
