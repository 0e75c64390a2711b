// Package booking creates and cancels appointments on the shared calendar
// and mirrors them into the durable booking store.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"barbershop-whatsapp/internal/availability"
	"barbershop-whatsapp/internal/calendar"
	"barbershop-whatsapp/internal/models"
	"barbershop-whatsapp/internal/storage"
)

var (
	ErrSlotTaken  = errors.New("slot is no longer available")
	ErrSlotPassed = errors.New("slot start is not in the future")
	ErrCalendar   = errors.New("calendar operation failed")
	ErrRecord     = errors.New("booking record operation failed")
)

const (
	DateLayout      = "02/01/2006"
	StoreDateLayout = "2006-01-02"
	fallbackService = "Appointment"
	summaryPrefix   = "Booking - "
	servicePrefix   = "Service: "
	defaultTimeout  = 10 * time.Second
)

// Records is the durable store bookings are mirrored into
type Records interface {
	InsertBooking(ctx context.Context, rec models.BookingRecord) (int64, error)
	UpdateBookingStatus(ctx context.Context, eventRef string, status models.BookingStatus) error
}

// Request describes a confirmed booking
type Request struct {
	Name    string
	TaxID   string
	Service string
	Date    time.Time
	Time    string
}

type Config struct {
	Location *time.Location
	Timeout  time.Duration
}

type Service struct {
	calendar calendar.Calendar
	records  Records
	loc      *time.Location
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewService(cal calendar.Calendar, records Records, cfg Config, logger zerolog.Logger) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		calendar: cal,
		records:  records,
		loc:      loc,
		timeout:  timeout,
		now:      time.Now,
		log:      logger.With().Str("component", "Booking").Logger(),
	}
}

// Now returns the current moment in the business time zone
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Location returns the business time zone
func (s *Service) Location() *time.Location {
	return s.loc
}

// AvailableSlots returns the free start times on date. Calendar failures
// are logged and reported as no availability.
func (s *Service) AvailableSlots(ctx context.Context, date time.Time) []string {
	occupied, err := s.occupied(ctx, date)
	if err != nil {
		s.log.Error().Err(err).Str("date", date.Format(StoreDateLayout)).Msg("Failed to load occupied slots")
		return nil
	}
	return availability.AvailableSlots(date, occupied, s.Now())
}

func (s *Service) occupied(ctx context.Context, date time.Time) ([]string, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	events, err := s.calendar.ListEvents(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	occupied := make([]string, 0, len(events))
	for _, ev := range events {
		start := ev.Start.In(s.loc)
		if start.Before(day) || !start.Before(day.AddDate(0, 0, 1)) {
			continue
		}
		occupied = append(occupied, availability.GridTime(start))
	}
	return occupied, nil
}

// Book inserts the calendar event and its durable record and returns the
// event reference. If the record cannot be written the event is removed again.
func (s *Service) Book(ctx context.Context, req Request) (string, error) {
	day := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, s.loc)
	start, err := availability.SlotStart(day, req.Time)
	if err != nil {
		return "", err
	}
	if !onGrid(req.Time) {
		return "", fmt.Errorf("%w: %s is not a bookable start time", ErrSlotTaken, req.Time)
	}
	if !start.After(s.Now()) {
		return "", ErrSlotPassed
	}

	occupied, err := s.occupied(ctx, day)
	if err != nil {
		return "", fmt.Errorf("%w: checking slot: %v", ErrCalendar, err)
	}
	for _, t := range occupied {
		if t == availability.GridTime(start) {
			return "", ErrSlotTaken
		}
	}

	insertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	eventRef, err := s.calendar.InsertEvent(insertCtx, calendar.Event{
		Summary:     summaryPrefix + req.Name,
		Description: Describe(req.Name, req.TaxID, req.Service),
		Start:       start,
		End:         start.Add(availability.SlotDuration),
		TaxID:       req.TaxID,
	})
	cancel()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCalendar, err)
	}

	recordCtx, cancel := context.WithTimeout(ctx, s.timeout)
	id, err := s.records.InsertBooking(recordCtx, models.BookingRecord{
		Name:     req.Name,
		TaxID:    req.TaxID,
		Service:  req.Service,
		Date:     day.Format(StoreDateLayout),
		Time:     req.Time,
		EventRef: eventRef,
		Status:   models.BookingActive,
	})
	cancel()
	if err != nil {
		s.log.Error().Err(err).Str("event_id", eventRef).Msg("Failed to save booking record, removing calendar event")
		undoCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if delErr := s.calendar.DeleteEvent(undoCtx, eventRef); delErr != nil {
			s.log.Error().Err(delErr).Str("event_id", eventRef).Msg("Failed to remove orphaned calendar event")
		}
		return "", fmt.Errorf("%w: %v", ErrRecord, err)
	}

	s.log.Info().Int64("record_id", id).Str("event_id", eventRef).Msg("Booking saved")
	return eventRef, nil
}

// FindBookings lists the customer's future bookings ordered by start time.
// Lookup failures are logged and reported as no bookings.
func (s *Service) FindBookings(ctx context.Context, taxID string) []models.Booking {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	events, err := s.calendar.ListEvents(ctx, s.Now(), time.Time{})
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to search bookings")
		return nil
	}

	now := s.Now()
	var found []models.Booking
	for _, ev := range events {
		if ev.Start.Before(now) || !matchesCustomer(ev, taxID) {
			continue
		}
		found = append(found, models.Booking{
			EventRef: ev.ID,
			Start:    ev.Start.In(s.loc),
			Service:  ServiceFromDescription(ev.Description),
		})
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Start.Before(found[j].Start)
	})
	return found
}

// Cancel marks the durable record cancelled and deletes the calendar event.
// If the event cannot be deleted the record is restored to active.
func (s *Service) Cancel(ctx context.Context, eventRef string) error {
	updateCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.records.UpdateBookingStatus(updateCtx, eventRef, models.BookingCancelled)
	cancel()

	recordUpdated := true
	switch {
	case errors.Is(err, storage.ErrNotFound):
		recordUpdated = false
		s.log.Warn().Str("event_id", eventRef).Msg("No booking record for event, cancelling calendar only")
	case err != nil:
		return fmt.Errorf("%w: %v", ErrRecord, err)
	}

	deleteCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err = s.calendar.DeleteEvent(deleteCtx, eventRef)
	cancel()
	if err != nil {
		if recordUpdated {
			undoCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			if undoErr := s.records.UpdateBookingStatus(undoCtx, eventRef, models.BookingActive); undoErr != nil {
				s.log.Error().Err(undoErr).Str("event_id", eventRef).Msg("Failed to restore booking record")
			}
		}
		return fmt.Errorf("%w: %v", ErrCalendar, err)
	}

	s.log.Info().Str("event_id", eventRef).Msg("Booking cancelled")
	return nil
}

// Describe renders the event description that tags the booking with its customer
func Describe(name, taxID, service string) string {
	return fmt.Sprintf("Client: %s\nTaxID: %s\n%s%s", name, taxID, servicePrefix, service)
}

// serviceLabels are the description prefixes that carry the service, including
// the Portuguese label used by events created before the English description
var serviceLabels = []string{servicePrefix, "Serviço: ", "Servico: "}

// ServiceFromDescription recovers the service label from an event description
func ServiceFromDescription(description string) string {
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		for _, prefix := range serviceLabels {
			if label, ok := strings.CutPrefix(line, prefix); ok && label != "" {
				return label
			}
		}
	}
	return fallbackService
}

func onGrid(hhmm string) bool {
	for _, slot := range availability.Grid() {
		if slot == hhmm {
			return true
		}
	}
	return false
}

func matchesCustomer(ev calendar.Event, taxID string) bool {
	if ev.TaxID != "" {
		return ev.TaxID == taxID
	}
	return ev.Description != "" && strings.Contains(ev.Description, taxID)
}
