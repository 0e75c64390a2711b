package handler

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"barbershop-whatsapp/internal/availability"
	"barbershop-whatsapp/internal/booking"
	"barbershop-whatsapp/internal/models"
	"barbershop-whatsapp/internal/session"
	"barbershop-whatsapp/internal/worker"
)

var taxIDPattern = regexp.MustCompile(`^[0-9]{11}$`)

// Bookings is what the conversation needs from the booking layer
type Bookings interface {
	Now() time.Time
	Location() *time.Location
	AvailableSlots(ctx context.Context, date time.Time) []string
	Book(ctx context.Context, req booking.Request) (string, error)
	FindBookings(ctx context.Context, taxID string) []models.Booking
	Cancel(ctx context.Context, eventRef string) error
}

// Replier sends a text reply into a chat
type Replier interface {
	Reply(ctx context.Context, chat types.JID, text string) error
}

type BookingHandler struct {
	replier  Replier
	sessions *session.Store
	bookings Bookings
	queue    *worker.Keyed
	log      zerolog.Logger
}

// NewBookingHandler creates a new booking conversation handler
func NewBookingHandler(replier Replier, sessions *session.Store, bookings Bookings, logger zerolog.Logger) *BookingHandler {
	return &BookingHandler{
		replier:  replier,
		sessions: sessions,
		bookings: bookings,
		queue:    worker.NewKeyed(),
		log:      logger.With().Str("component", "Conversation").Logger(),
	}
}

// HandleMessage queues an incoming WhatsApp message for its customer.
// Messages from one customer are processed one at a time in arrival order.
func (h *BookingHandler) HandleMessage(msg *events.Message) error {
	if msg.Message == nil || msg.Info.IsFromMe || msg.Info.IsGroup {
		return nil
	}

	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if text == "" {
		return nil
	}

	chat := msg.Info.Chat.ToNonAD()
	customerID := chat.String()

	h.queue.Submit(customerID, func() {
		ctx := context.Background()
		reply := h.Respond(ctx, customerID, text)
		if err := h.replier.Reply(ctx, chat, reply); err != nil {
			h.log.Error().Err(err).Str("customer", customerID).Msg("Failed to send reply")
		}
	})
	return nil
}

// Wait blocks until every queued message has been handled
func (h *BookingHandler) Wait() {
	h.queue.Wait()
}

// ActiveSessions returns the number of conversations in progress
func (h *BookingHandler) ActiveSessions() int {
	h.sessions.Evict()
	return h.sessions.Len()
}

// Respond advances the customer's conversation by one message and returns
// the reply. Calls for the same customer must not run concurrently.
func (h *BookingHandler) Respond(ctx context.Context, customerID, text string) string {
	text = strings.TrimSpace(text)

	sess, ok := h.sessions.Get(customerID)
	if !ok {
		h.sessions.Put(customerID, models.Session{Stage: models.StageAwaitingName})
		h.log.Debug().Str("customer", customerID).Msg("Session started")
		return msgAskName
	}

	from := sess.Stage
	reply, keep := h.step(ctx, &sess, text)
	if keep {
		h.sessions.Put(customerID, sess)
		if sess.Stage != from {
			h.log.Debug().Str("customer", customerID).Stringer("from", from).Stringer("to", sess.Stage).Msg("Stage changed")
		}
	} else {
		h.sessions.Delete(customerID)
		h.log.Debug().Str("customer", customerID).Stringer("stage", from).Msg("Session ended")
	}
	return reply
}

// step applies one message to sess. It returns the reply and whether the
// session continues; false means the conversation reached a terminal outcome.
func (h *BookingHandler) step(ctx context.Context, sess *models.Session, text string) (string, bool) {
	switch sess.Stage {
	case models.StageAwaitingName:
		if text == "" {
			return msgAskNameAgain, true
		}
		sess.Name = text
		sess.Stage = models.StageAwaitingTaxID
		return msgAskTaxID, true

	case models.StageAwaitingTaxID:
		if !taxIDPattern.MatchString(text) {
			return msgInvalidTaxID, true
		}
		sess.TaxID = text
		sess.Stage = models.StageMainMenu
		return mainMenu(sess.Name), true

	case models.StageMainMenu:
		switch text {
		case "1":
			sess.Stage = models.StageChooseService
			return serviceMenu(), true
		case "2":
			found := h.bookings.FindBookings(ctx, sess.TaxID)
			if len(found) == 0 {
				return msgNoBookings, false
			}
			sess.BookingsFound = found
			sess.Stage = models.StageListBookings
			return bookingList(found), true
		}
		return mainMenuRetry(sess.Name), true

	case models.StageChooseService:
		service, ok := models.Services[text]
		if !ok {
			return msgInvalidService, true
		}
		sess.Service = service
		sess.Stage = models.StageChooseDate
		return msgAskDate, true

	case models.StageChooseDate:
		return h.chooseDate(ctx, sess, text)

	case models.StageChooseTime:
		parsed, err := time.Parse(availability.TimeLayout, text)
		if err != nil {
			return msgInvalidTime, true
		}
		hhmm := parsed.Format(availability.TimeLayout)
		if !contains(sess.AvailableSlots, hhmm) {
			return msgTimeTaken, true
		}
		sess.Time = hhmm
		sess.Stage = models.StageConfirmBooking
		return bookingSummary(sess, formatDate(sess.Date)), true

	case models.StageConfirmBooking:
		if !isYes(text) {
			return msgBookingAborted, false
		}
		return h.confirmBooking(ctx, sess), false

	case models.StageListBookings:
		index, err := strconv.Atoi(text)
		if err != nil || index < 1 || index > len(sess.BookingsFound) {
			return msgInvalidIndex, true
		}
		selected := sess.BookingsFound[index-1]
		sess.SelectedBookingRef = selected.EventRef
		sess.Stage = models.StageConfirmCancellation
		return cancellationPrompt(selected), true

	case models.StageConfirmCancellation:
		if !isYes(text) {
			return msgCancelAborted, false
		}
		if err := h.bookings.Cancel(ctx, sess.SelectedBookingRef); err != nil {
			h.log.Error().Err(err).Str("event_id", sess.SelectedBookingRef).Msg("Cancellation failed")
			return msgCancelFailed, false
		}
		return msgCancelled, false
	}

	h.log.Error().Int("stage", int(sess.Stage)).Msg("Unknown stage, restarting conversation")
	return msgAskName, false
}

func (h *BookingHandler) chooseDate(ctx context.Context, sess *models.Session, text string) (string, bool) {
	loc := h.bookings.Location()
	date, err := time.ParseInLocation(booking.DateLayout, text, loc)
	if err != nil {
		return msgInvalidDate, true
	}

	now := h.bookings.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if date.Before(today) {
		return msgPastDate, true
	}

	slots := h.bookings.AvailableSlots(ctx, date)
	if len(slots) == 0 {
		return msgNoSlots, true
	}

	sess.Date = date
	sess.AvailableSlots = slots
	sess.Stage = models.StageChooseTime
	return slotList(formatDate(date), slots), true
}

func (h *BookingHandler) confirmBooking(ctx context.Context, sess *models.Session) string {
	ref, err := h.bookings.Book(ctx, booking.Request{
		Name:    sess.Name,
		TaxID:   sess.TaxID,
		Service: sess.Service,
		Date:    sess.Date,
		Time:    sess.Time,
	})
	switch {
	case errors.Is(err, booking.ErrSlotTaken):
		return msgSlotLost
	case errors.Is(err, booking.ErrSlotPassed):
		return msgSlotPassed
	case err != nil:
		h.log.Error().Err(err).Str("date", formatDate(sess.Date)).Str("time", sess.Time).Msg("Booking failed")
		return msgBookingFailed
	}
	h.log.Info().Str("event_id", ref).Str("date", formatDate(sess.Date)).Str("time", sess.Time).Msg("Booking confirmed")
	return bookingConfirmed(sess, formatDate(sess.Date))
}

func isYes(text string) bool {
	switch strings.ToLower(text) {
	case "yes", "sim":
		return true
	}
	return false
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
