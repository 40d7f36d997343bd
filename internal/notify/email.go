package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/leadbridge/internal/observability/metrics"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

// ErrEmailNotConfigured is reported when no email provider has credentials.
var ErrEmailNotConfigured = errors.New("notify: email provider not configured")

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (SendGrid, SES) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent. IdempotencyKey lets the
// provider drop duplicate deliveries of the same logical send.
type EmailMessage struct {
	To             string
	ToName         string
	Subject        string
	Body           string // Plain text body
	HTML           string // Optional HTML body
	IdempotencyKey string
}

const sendGridMailPath = "/v3/mail/send"

// SendGridSender sends emails via the SendGrid v3 mail API.
type SendGridSender struct {
	apiKey    string
	host      string
	fromEmail string
	fromName  string
	logger    *logging.Logger
	metrics   *metrics.LeadMetrics
}

// SendGridConfig holds configuration for SendGrid. Host defaults to the
// public API.
type SendGridConfig struct {
	APIKey    string
	Host      string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a new SendGrid email sender. It returns nil when
// no API key is set.
func NewSendGridSender(cfg SendGridConfig, m *metrics.LeadMetrics, logger *logging.Logger) *SendGridSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Leadbridge"
	}
	if cfg.Host == "" {
		cfg.Host = "https://api.sendgrid.com"
	}
	return &SendGridSender{
		apiKey:    cfg.APIKey,
		host:      strings.TrimRight(cfg.Host, "/"),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
		metrics:   m,
	}
}

// Send posts msg to SendGrid, passing IdempotencyKey as the Idempotency-Key
// header.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) (err error) {
	if s == nil || s.apiKey == "" {
		return ErrEmailNotConfigured
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)

	request := sendgrid.GetRequest(s.apiKey, sendGridMailPath, s.host)
	request.Method = http.MethodPost
	request.Body = mail.GetRequestBody(message)
	if msg.IdempotencyKey != "" {
		request.Headers["Idempotency-Key"] = msg.IdempotencyKey
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveUpstream("sendgrid", err, time.Since(start).Seconds())
	}()

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Warn("sendgrid returned error status", "status", response.StatusCode, "body", sendGridErrorSummary(response.Body), "to", msg.To)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject, "status", response.StatusCode)
	return nil
}

// sendGridErrorSummary pulls the first error message out of a SendGrid
// error body, or a truncated body when it is not the usual shape.
func sendGridErrorSummary(body string) string {
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err == nil && len(parsed.Errors) > 0 {
		return parsed.Errors[0].Message
	}
	if len(body) > 300 {
		return body[:300]
	}
	return body
}

// StubEmailSender is a no-op sender for local runs where delivery is off.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender creates a stub email sender that logs but doesn't send.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the email but doesn't actually send it.
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject, "idempotency_key", msg.IdempotencyKey)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
