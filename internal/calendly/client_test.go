package calendly

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client := NewClient(Config{Token: "tok-123", BaseURL: ts.URL}, nil, logging.New("error"))
	require.NotNil(t, client)
	return client, ts
}

func TestNewClient_NilWithoutToken(t *testing.T) {
	assert.Nil(t, NewClient(Config{Token: "  "}, nil, nil))
}

func TestClient_CurrentUser(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"resource":{"uri":"https://api.calendly.com/users/U1","name":"Owner","timezone":"America/Chicago"}}`))
	})

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://api.calendly.com/users/U1", user.URI)
}

func TestClient_CurrentUser_MissingURI(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resource":{}}`))
	})
	_, err := client.CurrentUser(context.Background())
	assert.Error(t, err)
}

func TestClient_ListEventTypes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/event_types", r.URL.Path)
		assert.Equal(t, "https://api.calendly.com/users/U1", r.URL.Query().Get("user"))
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		_, _ = w.Write([]byte(`{"collection":[{"uri":"et-1","name":"Intro Call","duration":30}]}`))
	})

	types, err := client.ListEventTypes(context.Background(), "https://api.calendly.com/users/U1")
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Intro Call", types[0].Name)
	assert.Equal(t, 30, types[0].Duration)
}

func TestClient_AvailableTimes(t *testing.T) {
	start := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/event_type_available_times", r.URL.Path)
		assert.Equal(t, "et-1", q.Get("event_type"))
		assert.Equal(t, "2026-03-02T15:00:00Z", q.Get("start_time"))
		assert.Equal(t, "2026-03-09T15:00:00Z", q.Get("end_time"))
		_, _ = w.Write([]byte(`{"collection":[{"status":"available","start_time":"2026-03-03T15:00:00Z","invitees_remaining":1}]}`))
	})

	times, err := client.AvailableTimes(context.Background(), "et-1", start, start.Add(7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, times, 1)
	assert.Equal(t, "2026-03-03T15:00:00Z", times[0].StartTime)
}

func TestClient_EventTypeLocations(t *testing.T) {
	client, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/event_types/ET1", r.URL.Path)
		_, _ = w.Write([]byte(`{"resource":{"uri":"x","locations":[{"kind":"physical","location":"100 Main St"}]}}`))
	})

	locations, err := client.EventTypeLocations(context.Background(), ts.URL+"/event_types/ET1")
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, Location{Kind: "physical", Location: "100 Main St"}, locations[0])
}

func TestClient_EventTypeLocations_RejectsForeignHost(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.EventTypeLocations(context.Background(), "https://attacker.example/event_types/ET1")
	assert.ErrorIs(t, err, ErrForeignURI)
	assert.False(t, called)
}

func TestClient_CreateInvitee(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/invitees", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Idempotency-Key"))

		var req InviteeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "et-1", req.EventType)
		assert.Equal(t, "ana@example.com", req.Invitee.Email)
		assert.Nil(t, req.Location)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"resource":{"uri":"inv-1","cancel_url":"https://c/cancel","reschedule_url":"https://c/reschedule"}}`))
	})

	invitee, err := client.CreateInvitee(context.Background(), InviteeRequest{
		EventType: "et-1",
		StartTime: "2026-03-03T15:00:00Z",
		Invitee:   InviteeInfo{Name: "Ana", Email: "ana@example.com", Timezone: "America/Chicago"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://c/cancel", invitee.CancelURL)
	assert.Equal(t, "https://c/reschedule", invitee.RescheduleURL)
}

func TestClient_HTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream failed", http.StatusBadGateway)
	})

	_, err := client.CurrentUser(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "/users/me", apiErr.Path)
}

func TestClient_InvalidJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"collection":[`))
	})

	_, err := client.ListEventTypes(context.Background(), "u")
	assert.Error(t, err)
}
