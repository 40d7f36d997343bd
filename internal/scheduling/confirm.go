package scheduling

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/leadbridge/internal/apperrors"
	"github.com/wolfman30/leadbridge/internal/calendly"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

// BookingRequest confirms a slot previously returned by FindSlots. The pair
// (EventTypeURI, StartTime) is not checked against what was offered.
type BookingRequest struct {
	Name         string
	Email        string
	Timezone     string
	EventTypeURI string
	StartTime    string
}

// Confirmation is returned once the calendar accepted the invitee.
type Confirmation struct {
	Summary       string `json:"summary"`
	RescheduleURL string `json:"rescheduleUrl"`
	CancelURL     string `json:"cancelUrl"`
}

// Confirmer books invitees on the calendar.
type Confirmer struct {
	calendar Calendar
	logger   *logging.Logger
}

// NewConfirmer creates a confirmer over calendar.
func NewConfirmer(calendar Calendar, logger *logging.Logger) *Confirmer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Confirmer{calendar: calendar, logger: logger}
}

// Confirm creates the invitee in a single attempt. No idempotency key is
// sent, so a caller retry can double-book.
func (c *Confirmer) Confirm(ctx context.Context, req BookingRequest) (*Confirmation, error) {
	const op = "scheduling.Confirm"
	ctx, span := tracer.Start(ctx, "scheduling.confirm", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	tz := NormalizeTimezone(req.Timezone)

	location, err := c.resolveLocation(ctx, req.EventTypeURI)
	if err != nil {
		// Location is optional; the booking goes ahead without one.
		c.logger.Warn("event type location lookup failed", "error", err, "event_type", req.EventTypeURI)
	}

	invitee, err := c.calendar.CreateInvitee(ctx, calendly.InviteeRequest{
		EventType: req.EventTypeURI,
		StartTime: req.StartTime,
		Invitee: calendly.InviteeInfo{
			Name:     req.Name,
			Email:    req.Email,
			Timezone: tz,
		},
		Location: location,
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.BookingFailed(op, "We couldn't book that time. It may have just been taken, so please pick another slot.", err)
	}

	span.SetAttributes(
		attribute.Bool("leadbridge.booking.location", location != nil),
		attribute.String("leadbridge.booking.timezone", tz),
	)
	c.logger.Info("booking confirmed", "event_type", req.EventTypeURI, "start_time", req.StartTime)

	return &Confirmation{
		Summary:       fmt.Sprintf("You're booked for %s. A calendar invite is on its way to %s.", FormatSlotLabel(req.StartTime, tz), req.Email),
		RescheduleURL: invitee.RescheduleURL,
		CancelURL:     invitee.CancelURL,
	}, nil
}

// resolveLocation returns the first location configured on the event type,
// or nil when it has none.
func (c *Confirmer) resolveLocation(ctx context.Context, eventTypeURI string) (*calendly.Location, error) {
	locations, err := c.calendar.EventTypeLocations(ctx, eventTypeURI)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 || locations[0].Kind == "" {
		return nil, nil
	}
	loc := locations[0]
	return &loc, nil
}
