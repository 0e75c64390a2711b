// Package availability computes bookable start times on the fixed hourly grid.
package availability

import (
	"fmt"
	"time"
)

const (
	FirstHour = 8
	LastHour  = 18

	// SlotDuration is the length of every service
	SlotDuration = time.Hour

	TimeLayout = "15:04"
)

// Grid returns every candidate start time in ascending order
func Grid() []string {
	grid := make([]string, 0, LastHour-FirstHour+1)
	for hour := FirstHour; hour <= LastHour; hour++ {
		grid = append(grid, fmt.Sprintf("%02d:00", hour))
	}
	return grid
}

// GridTime truncates t, in its own location, to the grid slot it falls into
func GridTime(t time.Time) string {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location()).Format(TimeLayout)
}

// SlotStart combines a date and an HH:mm time in the date's location
func SlotStart(date time.Time, hhmm string) (time.Time, error) {
	parsed, err := time.Parse(TimeLayout, hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), nil
}

// AvailableSlots returns the grid times on date that are not in occupied.
// When date is the same calendar day as now, only slots starting strictly
// after now are returned. The result is ascending and may be empty.
func AvailableSlots(date time.Time, occupied []string, now time.Time) []string {
	taken := make(map[string]struct{}, len(occupied))
	for _, t := range occupied {
		taken[t] = struct{}{}
	}

	now = now.In(date.Location())
	today := sameDay(date, now)

	slots := make([]string, 0, LastHour-FirstHour+1)
	for _, candidate := range Grid() {
		if _, ok := taken[candidate]; ok {
			continue
		}
		if today {
			start, _ := SlotStart(date, candidate)
			if !start.After(now) {
				continue
			}
		}
		slots = append(slots, candidate)
	}
	return slots
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
