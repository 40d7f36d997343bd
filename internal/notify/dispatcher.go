// Package notify delivers lead notifications by email.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/leadbridge/internal/observability/metrics"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

const (
	recipientOwner = "owner"
	recipientUser  = "user"

	notConfiguredMessage = "Email delivery is not configured."
)

var errOwnerAddressMissing = errors.New("notify: owner notification address not configured")

// Field is one labelled value of the lead report.
type Field struct {
	Label string
	Value string
}

// AnswerLine is one walkthrough answer, in submission order.
type AnswerLine struct {
	Question string
	Answer   string
}

// LeadNotification is everything the emails are rendered from.
type LeadNotification struct {
	Summary   string
	Fields    []Field
	Services  []string
	NextStep  string
	Answers   []AnswerLine
	UserEmail string
}

// DispatchResult reports each recipient independently.
type DispatchResult struct {
	OwnerNotified bool
	OwnerError    string
	UserEmailed   string
	UserError     string
}

// DispatcherConfig configures a LeadDispatcher.
type DispatcherConfig struct {
	OwnerEmail string
	// SendTimeout bounds each send. Zero means no extra bound.
	SendTimeout time.Duration
}

// LeadDispatcher sends the internal lead alert and the visitor's summary.
type LeadDispatcher struct {
	sender      EmailSender
	ownerEmail  string
	sendTimeout time.Duration
	newKey      func() string
	logger      *logging.Logger
	metrics     *metrics.LeadMetrics
}

// NewLeadDispatcher creates a dispatcher. A nil sender means no email
// provider is configured; Notify then reports that in both result fields.
func NewLeadDispatcher(sender EmailSender, cfg DispatcherConfig, m *metrics.LeadMetrics, logger *logging.Logger) *LeadDispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadDispatcher{
		sender:      sender,
		ownerEmail:  strings.TrimSpace(cfg.OwnerEmail),
		sendTimeout: cfg.SendTimeout,
		newKey:      uuid.NewString,
		logger:      logger,
		metrics:     m,
	}
}

// Notify sends the owner alert (always attempted) and the visitor summary
// (only when n.UserEmail is set). The two sends are independent: one failing
// never stops or undoes the other. Errors are returned as messages in the
// result, never as an error.
func (d *LeadDispatcher) Notify(ctx context.Context, n LeadNotification) DispatchResult {
	var result DispatchResult
	userEmail := strings.TrimSpace(n.UserEmail)

	if d.sender == nil {
		d.logger.Warn("lead notification skipped", "error", ErrEmailNotConfigured)
		d.metrics.ObserveNotification(recipientOwner, nil, true)
		d.metrics.ObserveNotification(recipientUser, nil, true)
		result.OwnerError = notConfiguredMessage
		result.UserError = notConfiguredMessage
		return result
	}

	if err := d.sendOwner(ctx, n); err != nil {
		result.OwnerError = "Failed to notify the team: " + err.Error()
	} else {
		result.OwnerNotified = true
	}

	if userEmail != "" {
		if err := d.sendUser(ctx, n, userEmail); err != nil {
			result.UserError = "Failed to email your summary: " + err.Error()
		} else {
			result.UserEmailed = userEmail
		}
	}
	return result
}

func (d *LeadDispatcher) sendOwner(ctx context.Context, n LeadNotification) error {
	if d.ownerEmail == "" {
		err := errOwnerAddressMissing
		d.logger.Warn("owner notification skipped", "error", err)
		d.metrics.ObserveNotification(recipientOwner, nil, true)
		return err
	}
	text, html, err := render(ownerText, ownerHTML, n)
	if err != nil {
		d.logger.Error("owner notification render failed", "error", err)
		d.metrics.ObserveNotification(recipientOwner, err, false)
		return err
	}
	return d.send(ctx, recipientOwner, EmailMessage{
		To:      d.ownerEmail,
		Subject: ownerSubject(n),
		Body:    text,
		HTML:    html,
	})
}

func (d *LeadDispatcher) sendUser(ctx context.Context, n LeadNotification, to string) error {
	text, html, err := render(userText, userHTML, n)
	if err != nil {
		d.logger.Error("user summary render failed", "error", err)
		d.metrics.ObserveNotification(recipientUser, err, false)
		return err
	}
	return d.send(ctx, recipientUser, EmailMessage{
		To:      to,
		Subject: "Your AI opportunity summary from Leadbridge",
		Body:    text,
		HTML:    html,
	})
}

// send makes exactly one attempt with a fresh idempotency key.
func (d *LeadDispatcher) send(ctx context.Context, recipient string, msg EmailMessage) error {
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}
	msg.IdempotencyKey = d.newKey()

	err := d.sender.Send(ctx, msg)
	d.metrics.ObserveNotification(recipient, err, false)
	if err != nil {
		d.logger.Warn("lead notification failed", "recipient", recipient, "error", err, "idempotency_key", msg.IdempotencyKey)
		return err
	}
	return nil
}

func ownerSubject(n LeadNotification) string {
	for _, f := range n.Fields {
		if f.Label == "Industry" && f.Value != "" && f.Value != "unknown" {
			return "New walkthrough lead: " + f.Value
		}
	}
	return "New walkthrough lead"
}
