package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadbridge/internal/apperrors"
	"github.com/wolfman30/leadbridge/internal/calendly"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

type fakeCalendar struct {
	user       calendly.User
	userErr    error
	eventTypes []calendly.EventType
	typesErr   error
	times      []calendly.AvailableTime
	timesErr   error
	locations  []calendly.Location
	locErr     error
	invitee    calendly.Invitee
	inviteeErr error

	gotTypesUser string
	gotTimesURI  string
	gotStart     time.Time
	gotEnd       time.Time
	gotInvitee   calendly.InviteeRequest
	inviteeCalls int
}

func (f *fakeCalendar) CurrentUser(context.Context) (calendly.User, error) {
	return f.user, f.userErr
}

func (f *fakeCalendar) ListEventTypes(_ context.Context, userURI string) ([]calendly.EventType, error) {
	f.gotTypesUser = userURI
	return f.eventTypes, f.typesErr
}

func (f *fakeCalendar) AvailableTimes(_ context.Context, uri string, start, end time.Time) ([]calendly.AvailableTime, error) {
	f.gotTimesURI = uri
	f.gotStart = start
	f.gotEnd = end
	return f.times, f.timesErr
}

func (f *fakeCalendar) EventTypeLocations(context.Context, string) ([]calendly.Location, error) {
	return f.locations, f.locErr
}

func (f *fakeCalendar) CreateInvitee(_ context.Context, req calendly.InviteeRequest) (calendly.Invitee, error) {
	f.inviteeCalls++
	f.gotInvitee = req
	return f.invitee, f.inviteeErr
}

var brokerNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newTestBroker(cal Calendar) *Broker {
	b := NewBroker(cal, logging.New("error"))
	b.now = func() time.Time { return brokerNow }
	return b
}

func availability(starts ...string) []calendly.AvailableTime {
	out := make([]calendly.AvailableTime, 0, len(starts))
	for _, s := range starts {
		out = append(out, calendly.AvailableTime{Status: "available", StartTime: s})
	}
	return out
}

func TestBroker_FindSlots_FiltersCapsAndKeepsOrder(t *testing.T) {
	cal := &fakeCalendar{
		user: calendly.User{URI: "user-1"},
		eventTypes: []calendly.EventType{
			{URI: "et-deep", Name: "Deep Dive", Duration: 60},
			{URI: "et-intro", Name: "Free INTRO call", Duration: 30},
		},
		// Chicago is UTC-6 in early March.
		times: availability(
			"2026-03-03T20:00:00Z", // 14:00
			"2026-03-03T13:00:00Z", // 07:00, outside
			"2026-03-03T15:00:00Z", // 09:00
			"2026-03-04T23:30:00Z", // 17:30, outside
			"2026-03-04T16:00:00Z", // 10:00
			"2026-03-05T16:00:00Z", // 10:00, over the cap
		),
	}

	result, err := newTestBroker(cal).FindSlots(context.Background(), SlotQuery{Name: "Ana", Times: "9-5", Timezone: "CST"})
	require.NoError(t, err)

	assert.Equal(t, "user-1", cal.gotTypesUser)
	assert.Equal(t, "et-intro", cal.gotTimesURI)
	assert.Equal(t, "et-intro", result.EventTypeURI)
	require.Len(t, result.Suggestions, 3)
	assert.Equal(t, "2026-03-03T20:00:00Z", result.Suggestions[0].StartTime)
	assert.Equal(t, "2026-03-03T15:00:00Z", result.Suggestions[1].StartTime)
	assert.Equal(t, "2026-03-04T16:00:00Z", result.Suggestions[2].StartTime)
	assert.Equal(t, "2026-03-03T20:30:00Z", result.Suggestions[0].EndTime)
	assert.Equal(t, "Tuesday Mar 3, 2:00 PM (America/Chicago)", result.Suggestions[0].Label)
	assert.Contains(t, result.Summary, "Ana")
}

func TestBroker_FindSlots_DefaultsToFirstEventType(t *testing.T) {
	cal := &fakeCalendar{
		user:       calendly.User{URI: "user-1"},
		eventTypes: []calendly.EventType{{URI: "et-a", Name: "Consult"}, {URI: "et-b", Name: "Review"}},
		times:      availability("2026-03-03T15:00:00Z"),
	}

	result, err := newTestBroker(cal).FindSlots(context.Background(), SlotQuery{Times: "anytime"})
	require.NoError(t, err)
	assert.Equal(t, "et-a", result.EventTypeURI)
	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "2026-03-03T15:30:00Z", result.Suggestions[0].EndTime)
}

func TestBroker_FindSlots_LookaheadWindow(t *testing.T) {
	cal := &fakeCalendar{
		user:       calendly.User{URI: "user-1"},
		eventTypes: []calendly.EventType{{URI: "et-a", Name: "Intro"}},
	}
	b := newTestBroker(cal)

	_, err := b.FindSlots(context.Background(), SlotQuery{Times: "9-5"})
	require.NoError(t, err)
	assert.Equal(t, brokerNow, cal.gotStart)
	assert.Equal(t, brokerNow.Add(7*24*time.Hour), cal.gotEnd)

	later := brokerNow.Add(48 * time.Hour)
	_, err = b.FindSlots(context.Background(), SlotQuery{Times: "9-5", StartAfter: later})
	require.NoError(t, err)
	assert.Equal(t, later, cal.gotStart)
	assert.Equal(t, later.Add(7*24*time.Hour), cal.gotEnd)

	_, err = b.FindSlots(context.Background(), SlotQuery{Times: "9-5", StartAfter: brokerNow.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, brokerNow, cal.gotStart)
}

func TestBroker_FindSlots_EmptyIsNotAnError(t *testing.T) {
	cal := &fakeCalendar{
		user:       calendly.User{URI: "user-1"},
		eventTypes: []calendly.EventType{{URI: "et-a", Name: "Intro"}},
		times:      availability("2026-03-03T04:00:00Z"),
	}

	result, err := newTestBroker(cal).FindSlots(context.Background(), SlotQuery{Times: "9-5"})
	require.NoError(t, err)
	assert.Empty(t, result.Suggestions)
	assert.NotNil(t, result.Suggestions)
	assert.Contains(t, result.Summary, "widening")
}

func TestBroker_FindSlots_NoEventTypes(t *testing.T) {
	cal := &fakeCalendar{user: calendly.User{URI: "user-1"}}

	_, err := newTestBroker(cal).FindSlots(context.Background(), SlotQuery{Times: "9-5"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEventTypes)
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
	assert.NotContains(t, apperrors.PublicMessage(err), "widening")
}

func TestBroker_FindSlots_UpstreamFailures(t *testing.T) {
	boom := errors.New("boom")
	cases := map[string]*fakeCalendar{
		"identity":    {userErr: boom},
		"event types": {user: calendly.User{URI: "u"}, typesErr: boom},
		"times": {
			user:       calendly.User{URI: "u"},
			eventTypes: []calendly.EventType{{URI: "et"}},
			timesErr:   boom,
		},
	}
	for name, cal := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTestBroker(cal).FindSlots(context.Background(), SlotQuery{Times: "9-5"})
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
			assert.NotContains(t, apperrors.PublicMessage(err), "boom")
		})
	}
}
