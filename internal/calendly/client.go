// Package calendly is a minimal REST client for the scheduling calls the
// booking flow needs: identity, event types, availability, locations and
// invitee creation.
package calendly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/leadbridge/internal/observability/metrics"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

const (
	defaultBaseURL = "https://api.calendly.com"
	defaultTimeout = 20 * time.Second
)

// ErrForeignURI is returned when asked to dereference a URI outside the
// configured API host.
var ErrForeignURI = errors.New("calendly: uri is not on the configured api host")

// APIError is a non-2xx response from the calendar API.
type APIError struct {
	Status int
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendly API returned %d for %s: %s", e.Status, e.Path, e.Body)
}

// Config configures a Client.
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Client wraps the calendar REST API with bearer-token auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logging.Logger
	metrics    *metrics.LeadMetrics
}

// NewClient constructs a client. It returns nil when no token is configured
// so callers can treat scheduling as disabled.
func NewClient(cfg Config, m *metrics.LeadMetrics, logger *logging.Logger) *Client {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		logger:     logger,
		metrics:    m,
	}
}

// CurrentUser resolves the identity behind the token.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var wrapped struct {
		Resource User `json:"resource"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, &wrapped); err != nil {
		return User{}, fmt.Errorf("get current user: %w", err)
	}
	if wrapped.Resource.URI == "" {
		return User{}, errors.New("get current user: response had no user uri")
	}
	return wrapped.Resource, nil
}

// ListEventTypes returns the active event types owned by userURI.
func (c *Client) ListEventTypes(ctx context.Context, userURI string) ([]EventType, error) {
	q := url.Values{}
	q.Set("user", userURI)
	q.Set("active", "true")

	var wrapped struct {
		Collection []EventType `json:"collection"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/event_types?"+q.Encode(), nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	return wrapped.Collection, nil
}

// AvailableTimes lists open start times for eventTypeURI in [start, end).
func (c *Client) AvailableTimes(ctx context.Context, eventTypeURI string, start, end time.Time) ([]AvailableTime, error) {
	q := url.Values{}
	q.Set("event_type", eventTypeURI)
	q.Set("start_time", start.UTC().Format(time.RFC3339))
	q.Set("end_time", end.UTC().Format(time.RFC3339))

	var wrapped struct {
		Collection []AvailableTime `json:"collection"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/event_type_available_times?"+q.Encode(), nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list available times: %w", err)
	}
	return wrapped.Collection, nil
}

// EventTypeLocations fetches the location settings of an event type. The URI
// must live under the configured API host; the bearer token is never sent
// anywhere else.
func (c *Client) EventTypeLocations(ctx context.Context, eventTypeURI string) ([]Location, error) {
	path, err := c.relativePath(eventTypeURI)
	if err != nil {
		return nil, err
	}
	var wrapped struct {
		Resource EventType `json:"resource"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &wrapped); err != nil {
		return nil, fmt.Errorf("get event type: %w", err)
	}
	return wrapped.Resource.Locations, nil
}

// CreateInvitee books the invitee. No idempotency key is sent, so a caller
// retry can double-book.
func (c *Client) CreateInvitee(ctx context.Context, req InviteeRequest) (Invitee, error) {
	var wrapped struct {
		Resource Invitee `json:"resource"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/invitees", req, &wrapped); err != nil {
		return Invitee{}, fmt.Errorf("create invitee: %w", err)
	}
	return wrapped.Resource, nil
}

func (c *Client) relativePath(uri string) (string, error) {
	if !strings.HasPrefix(uri, c.baseURL+"/") {
		return "", ErrForeignURI
	}
	return strings.TrimPrefix(uri, c.baseURL), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveUpstream("calendly", err, time.Since(start).Seconds())
	}()

	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		logPath, _, _ := strings.Cut(path, "?")
		c.logger.Warn("calendly API non-2xx response", "status", resp.StatusCode, "path", logPath, "body", msg)
		return &APIError{Status: resp.StatusCode, Path: logPath, Body: msg}
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
