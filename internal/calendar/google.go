package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const taxIDProperty = "taxId"

// GoogleConfig configures the Google Calendar adapter
type GoogleConfig struct {
	CalendarID      string
	CredentialsFile string
	Location        *time.Location
}

// Google stores bookings on one shared Google calendar
type Google struct {
	events     *gcal.EventsService
	calendarID string
	loc        *time.Location
	log        zerolog.Logger
}

// NewGoogle creates a calendar client authenticated with a service account key file
func NewGoogle(ctx context.Context, cfg GoogleConfig, logger zerolog.Logger) (*Google, error) {
	return newGoogle(ctx, cfg, logger,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
}

func newGoogle(ctx context.Context, cfg GoogleConfig, logger zerolog.Logger, opts ...option.ClientOption) (*Google, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Google{
		events:     svc.Events,
		calendarID: cfg.CalendarID,
		loc:        loc,
		log:        logger.With().Str("component", "Calendar").Logger(),
	}, nil
}

// ListEvents lists single (expanded) events ordered by start time
func (g *Google) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	call := g.events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	if !to.IsZero() {
		call = call.TimeMax(to.Format(time.RFC3339))
	}

	var out []Event
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			ev, ok := g.fromAPI(item)
			if !ok {
				g.log.Debug().Str("event_id", item.Id).Msg("Skipping all-day or malformed event")
				continue
			}
			// timeMin bounds the event end, so events already under way come back too
			if ev.Start.Before(from) {
				continue
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

// InsertEvent creates the event and returns its id
func (g *Google) InsertEvent(ctx context.Context, ev Event) (string, error) {
	item := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.In(g.loc).Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.In(g.loc).Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
	}
	if ev.TaxID != "" {
		item.ExtendedProperties = &gcal.EventExtendedProperties{
			Private: map[string]string{taxIDProperty: ev.TaxID},
		}
	}

	created, err := g.events.Insert(g.calendarID, item).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}
	if created.Id == "" {
		return "", fmt.Errorf("calendar returned an event without id")
	}
	g.log.Info().Str("event_id", created.Id).Time("start", ev.Start).Msg("Event created")
	return created.Id, nil
}

// DeleteEvent removes the event by id
func (g *Google) DeleteEvent(ctx context.Context, eventID string) error {
	if err := g.events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	g.log.Info().Str("event_id", eventID).Msg("Event deleted")
	return nil
}

func (g *Google) fromAPI(item *gcal.Event) (Event, bool) {
	if item.Start == nil || item.Start.DateTime == "" {
		return Event{}, false
	}
	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return Event{}, false
	}
	ev := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Start:       start.In(g.loc),
		End:         start.In(g.loc).Add(time.Hour),
	}
	if item.End != nil && item.End.DateTime != "" {
		if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
			ev.End = end.In(g.loc)
		}
	}
	if item.ExtendedProperties != nil {
		ev.TaxID = item.ExtendedProperties.Private[taxIDProperty]
	}
	return ev, true
}
