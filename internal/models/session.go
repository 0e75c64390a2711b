package models

import "time"

// Stage is the position of a session in the conversation
type Stage int

const (
	StageAwaitingName Stage = iota
	StageAwaitingTaxID
	StageMainMenu
	StageChooseService
	StageChooseDate
	StageChooseTime
	StageConfirmBooking
	StageListBookings
	StageConfirmCancellation
)

var stageNames = map[Stage]string{
	StageAwaitingName:        "awaiting_name",
	StageAwaitingTaxID:       "awaiting_tax_id",
	StageMainMenu:            "main_menu",
	StageChooseService:       "choose_service",
	StageChooseDate:          "choose_date",
	StageChooseTime:          "choose_time",
	StageConfirmBooking:      "confirm_booking",
	StageListBookings:        "list_bookings",
	StageConfirmCancellation: "confirm_cancellation",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Session holds one customer's in-progress conversation
type Session struct {
	Stage              Stage
	Name               string
	TaxID              string
	Service            string
	Date               time.Time // midnight in the business time zone
	Time               string    // HH:mm
	AvailableSlots     []string
	BookingsFound      []Booking
	SelectedBookingRef string
	UpdatedAt          time.Time
}
