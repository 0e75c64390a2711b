package handler

import (
	"fmt"
	"strings"
	"time"

	"barbershop-whatsapp/internal/models"
)

const (
	msgAskName        = "👋 Hello! What is your name?"
	msgAskNameAgain   = "✍️ Please type your name."
	msgAskTaxID       = "🔢 Please enter your tax ID (numbers only):"
	msgInvalidTaxID   = "❌ Invalid tax ID! Type exactly the 11 digits."
	msgInvalidService = "❌ Invalid option! Type 1, 2 or 3 to choose the service."
	msgAskDate        = "📅 Enter the desired date (DD/MM/YYYY):"
	msgInvalidDate    = "❌ Invalid date! Use the format DD/MM/YYYY."
	msgPastDate       = "❌ Invalid date! You cannot book a day in the past. Enter another date in the format DD/MM/YYYY."
	msgNoSlots        = "❌ There are no available times for this date. Please enter another date (DD/MM/YYYY):"
	msgInvalidTime    = "❌ Invalid time! Use the format HH:mm."
	msgTimeTaken      = "❌ That time is not available. Choose one of the times from the list."
	msgBookingAborted = "❌ Booking cancelled."
	msgBookingFailed  = "❌ Sorry, something went wrong while making your booking. Please try again later."
	msgSlotLost       = "❌ Sorry, that time was just taken by someone else. Send a message to start again."
	msgSlotPassed     = "❌ Sorry, that time has already passed. Send a message to start again."
	msgNoBookings     = "❌ No bookings found for this tax ID."
	msgInvalidIndex   = "❌ Invalid number. Try again."
	msgCancelled      = "✅ Booking cancelled successfully!"
	msgCancelFailed   = "❌ Sorry, we could not cancel your booking. Please try again later."
	msgCancelAborted  = "❌ Cancellation aborted."
)

const displayLayout = "02/01/2006 15:04"

func mainMenu(name string) string {
	return fmt.Sprintf("🎉 Hello, *%s*! How can I help you?\n"+
		"1️⃣ *Book an appointment*\n"+
		"2️⃣ *Cancel a booking*", name)
}

func serviceMenu() string {
	var b strings.Builder
	b.WriteString("✂️ Choose the service:\n")
	for _, key := range models.ServiceOptions {
		fmt.Fprintf(&b, "%s) %s\n", key, models.Services[key])
	}
	b.WriteString("\nType the number of the service:")
	return b.String()
}

func slotList(date string, slots []string) string {
	return fmt.Sprintf("⏰ Available times on %s:\n%s\n\nChoose the desired time (HH:mm):",
		date, strings.Join(slots, "\n"))
}

func bookingSummary(sess *models.Session, date string) string {
	return fmt.Sprintf("✅ Confirm your booking:\n"+
		"👤 Client: %s\n"+
		"💈 Service: %s\n"+
		"📅 Date: %s\n"+
		"⏰ Time: %s\n\n"+
		"Type *YES* to confirm or *NO* to cancel.",
		sess.Name, sess.Service, date, sess.Time)
}

func bookingConfirmed(sess *models.Session, date string) string {
	return fmt.Sprintf("✅ Booking confirmed!\n"+
		"👤 Client: %s\n"+
		"💈 Service: %s\n"+
		"📅 Date: %s\n"+
		"🕒 Time: %s",
		sess.Name, sess.Service, date, sess.Time)
}

func bookingList(bookings []models.Booking) string {
	var b strings.Builder
	b.WriteString("📋 Your bookings:\n")
	for i, booking := range bookings {
		fmt.Fprintf(&b, "%d) %s - %s\n", i+1, booking.Start.Format(displayLayout), booking.Service)
	}
	b.WriteString("\nType the number of the booking you want to cancel.")
	return b.String()
}

func cancellationPrompt(booking models.Booking) string {
	return fmt.Sprintf("❗ Are you sure you want to cancel this booking?\n"+
		"📅 %s\n"+
		"💈 %s\n"+
		"Type *YES* to confirm or *NO* to go back.",
		booking.Start.Format(displayLayout), booking.Service)
}

func mainMenuRetry(name string) string {
	return "❌ Invalid option! Type 1 or 2.\n\n" + mainMenu(name)
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
