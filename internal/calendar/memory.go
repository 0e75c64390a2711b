package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is a process-local calendar for running the bot without Google
type Memory struct {
	mu     sync.Mutex
	events map[string]Event
	nextID int
}

func NewMemory() *Memory {
	return &Memory{events: make(map[string]Event)}
}

func (m *Memory) ListEvents(_ context.Context, from, to time.Time) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for _, ev := range m.events {
		if ev.Start.Before(from) {
			continue
		}
		if !to.IsZero() && !ev.Start.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func (m *Memory) InsertEvent(_ context.Context, ev Event) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	ev.ID = fmt.Sprintf("evt-%d", m.nextID)
	m.events[ev.ID] = ev
	return ev.ID, nil
}

func (m *Memory) DeleteEvent(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[eventID]; !ok {
		return fmt.Errorf("event %s not found", eventID)
	}
	delete(m.events, eventID)
	return nil
}

// Len returns the number of stored events
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
