// Package scheduling turns calendar availability into a short list of
// bookable suggestions and confirms the one a visitor picks.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/leadbridge/internal/apperrors"
	"github.com/wolfman30/leadbridge/internal/calendly"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

var tracer = otel.Tracer("leadbridge.internal.scheduling")

const (
	// MaxSuggestions caps how many slots are offered per request.
	MaxSuggestions = 3

	lookahead       = 7 * 24 * time.Hour
	defaultDuration = 30 * time.Minute
)

// ErrNoEventTypes means the calendar account has nothing bookable.
var ErrNoEventTypes = errors.New("scheduling: calendar has no active event types")

// Calendar is the subset of the calendar provider the broker and confirmer
// need. *calendly.Client satisfies it.
type Calendar interface {
	CurrentUser(ctx context.Context) (calendly.User, error)
	ListEventTypes(ctx context.Context, userURI string) ([]calendly.EventType, error)
	AvailableTimes(ctx context.Context, eventTypeURI string, start, end time.Time) ([]calendly.AvailableTime, error)
	EventTypeLocations(ctx context.Context, eventTypeURI string) ([]calendly.Location, error)
	CreateInvitee(ctx context.Context, req calendly.InviteeRequest) (calendly.Invitee, error)
}

// SlotQuery is one availability request.
type SlotQuery struct {
	Name       string
	Times      string
	Timezone   string
	StartAfter time.Time
}

// AvailabilitySlot is one offered start time.
type AvailabilitySlot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Label     string `json:"label"`
}

// SlotResult is returned by FindSlots. An empty Suggestions list is a
// successful answer, not an error.
type SlotResult struct {
	Suggestions  []AvailabilitySlot `json:"suggestions"`
	EventTypeURI string             `json:"eventTypeUri"`
	Summary      string             `json:"summary"`
}

// Broker finds open slots on the owner's calendar.
type Broker struct {
	calendar Calendar
	logger   *logging.Logger
	now      func() time.Time
}

// NewBroker creates a broker over calendar.
func NewBroker(calendar Calendar, logger *logging.Logger) *Broker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Broker{calendar: calendar, logger: logger, now: time.Now}
}

// FindSlots resolves the calendar identity, picks the intro event type and
// returns up to MaxSuggestions slots inside the visitor's preferred hours
// over the next seven days. Every calendar failure is an upstream error.
func (b *Broker) FindSlots(ctx context.Context, q SlotQuery) (*SlotResult, error) {
	const op = "scheduling.FindSlots"
	ctx, span := tracer.Start(ctx, "scheduling.find_slots", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	tz := NormalizeTimezone(q.Timezone)
	var window *Window
	if w, ok := ParseWindow(q.Times); ok {
		window = &w
	}

	user, err := b.calendar.CurrentUser(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Upstream(op, "Unable to reach the scheduling calendar.", err)
	}

	eventTypes, err := b.calendar.ListEventTypes(ctx, user.URI)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Upstream(op, "Unable to load meeting types from the calendar.", err)
	}
	if len(eventTypes) == 0 {
		span.RecordError(ErrNoEventTypes)
		return nil, apperrors.Upstream(op, "No bookable meeting types are set up on the calendar.", ErrNoEventTypes)
	}
	eventType := pickEventType(eventTypes)

	start := b.now()
	if q.StartAfter.After(start) {
		start = q.StartAfter
	}
	times, err := b.calendar.AvailableTimes(ctx, eventType.URI, start, start.Add(lookahead))
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Upstream(op, "Unable to load availability from the calendar.", err)
	}

	duration := defaultDuration
	if eventType.Duration > 0 {
		duration = time.Duration(eventType.Duration) * time.Minute
	}

	suggestions := make([]AvailabilitySlot, 0, MaxSuggestions)
	for _, slot := range times {
		if len(suggestions) == MaxSuggestions {
			break
		}
		if !SlotMatchesWindow(slot.StartTime, tz, window) {
			continue
		}
		suggestions = append(suggestions, AvailabilitySlot{
			StartTime: slot.StartTime,
			EndTime:   slotEnd(slot.StartTime, duration),
			Label:     FormatSlotLabel(slot.StartTime, tz),
		})
	}

	span.SetAttributes(
		attribute.String("leadbridge.slots.timezone", tz),
		attribute.Bool("leadbridge.slots.window", window != nil),
		attribute.Int("leadbridge.slots.available", len(times)),
		attribute.Int("leadbridge.slots.count", len(suggestions)),
	)
	b.logger.Info("availability lookup complete",
		"event_type", eventType.Name,
		"available", len(times),
		"suggested", len(suggestions),
		"timezone", tz,
	)

	return &SlotResult{
		Suggestions:  suggestions,
		EventTypeURI: eventType.URI,
		Summary:      slotSummary(q.Name, suggestions, tz),
	}, nil
}

// pickEventType prefers an event type whose name mentions "intro".
func pickEventType(types []calendly.EventType) calendly.EventType {
	for _, et := range types {
		if strings.Contains(strings.ToLower(et.Name), "intro") {
			return et
		}
	}
	return types[0]
}

func slotEnd(raw string, duration time.Duration) string {
	t, err := parseInstant(raw)
	if err != nil {
		return ""
	}
	return t.Add(duration).Format(time.RFC3339)
}

func slotSummary(name string, suggestions []AvailabilitySlot, tz string) string {
	greeting := "Thanks"
	if name = strings.TrimSpace(name); name != "" {
		greeting = "Thanks, " + name
	}
	if len(suggestions) == 0 {
		return fmt.Sprintf("%s. No open times in the next 7 days matched your preferred hours. Try widening your time window and we'll check again.", greeting)
	}
	noun := "times"
	if len(suggestions) == 1 {
		noun = "time"
	}
	return fmt.Sprintf("%s. Here are %d open %s that fit your preferred hours (%s). Pick one to confirm your call.", greeting, len(suggestions), noun, tz)
}
