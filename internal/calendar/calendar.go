package calendar

import (
	"context"
	"time"
)

// Event is a calendar entry as the booking flow sees it
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	// TaxID is the structured customer tag, empty for events created without one
	TaxID string
}

// Calendar is the shared time-ordered event store bookings live in
type Calendar interface {
	// ListEvents returns events starting in [from, to), ascending by start.
	// A zero to means no upper bound.
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	InsertEvent(ctx context.Context, ev Event) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}
