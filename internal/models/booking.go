package models

import "time"

// BookingStatus represents the lifecycle state of a durable booking record
type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
)

// BookingRecord mirrors a calendar booking in the durable store
type BookingRecord struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	TaxID    string        `json:"tax_id"`
	Service  string        `json:"service"`
	Date     string        `json:"date"` // YYYY-MM-DD
	Time     string        `json:"time"` // HH:mm
	EventRef string        `json:"event_ref"`
	Status   BookingStatus `json:"status"`
}

// Booking is an existing future booking found on the calendar
type Booking struct {
	EventRef string
	Start    time.Time
	Service  string
}

// Services is the fixed catalog, keyed by the menu option the customer types
var Services = map[string]string{
	"1": "Haircut",
	"2": "Haircut + beard",
	"3": "Hydration",
}

// ServiceOptions lists the catalog keys in menu order
var ServiceOptions = []string{"1", "2", "3"}
