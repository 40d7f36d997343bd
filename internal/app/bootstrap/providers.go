package bootstrap

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/wolfman30/leadbridge/internal/calendly"
	appconfig "github.com/wolfman30/leadbridge/internal/config"
	"github.com/wolfman30/leadbridge/internal/conversation"
	"github.com/wolfman30/leadbridge/internal/notify"
	"github.com/wolfman30/leadbridge/internal/observability/metrics"
	"github.com/wolfman30/leadbridge/internal/scheduling"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

// BuildLLMClient returns the completion client, or nil when no provider is
// configured. Other construction errors are returned.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, m *metrics.LeadMetrics, logger *logging.Logger) (conversation.LLMClient, error) {
	backend := cfg.LLMBackend()
	switch {
	case backend == "":
		logger.Warn("no llm provider configured: chat disabled, walkthrough uses fallback reports")
		return nil, nil
	case backend == conversation.ProviderBedrock && awsCfg == nil:
		logger.Warn("aws config unavailable: bedrock disabled, walkthrough uses fallback reports")
		return nil, nil
	}

	client, err := conversation.NewLLMClient(ctx, conversation.ProviderConfig{
		Provider:       backend,
		GeminiAPIKey:   cfg.GeminiAPIKey,
		GeminiModelID:  cfg.GeminiModelID,
		BedrockModelID: cfg.BedrockModelID,
		AWS:            awsCfg,
		Timeout:        cfg.UpstreamTimeout,
		Metrics:        m,
	})
	if errors.Is(err, conversation.ErrLLMNotConfigured) {
		logger.Warn("no llm provider configured: chat disabled, walkthrough uses fallback reports")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// BuildEmailSender returns the configured email sender, or nil when the
// selected provider lacks credentials or a from address.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, m *metrics.LeadMetrics, logger *logging.Logger) notify.EmailSender {
	if strings.TrimSpace(cfg.EmailFromAddress) == "" {
		logger.Warn("EMAIL_FROM_ADDRESS not set: lead emails disabled")
		return nil
	}

	switch cfg.EmailProvider {
	case "ses":
		if awsCfg == nil {
			logger.Warn("aws config unavailable: SES email disabled")
			return nil
		}
		return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, m, logger)
	case "stub":
		return notify.NewStubEmailSender(logger)
	default:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, m, logger)
		if sender == nil {
			logger.Warn("SENDGRID_API_KEY not set: lead emails disabled")
			return nil
		}
		return sender
	}
}

// BuildScheduling returns the broker and confirmer, or nils when no calendar
// token is configured.
func BuildScheduling(cfg *appconfig.Config, m *metrics.LeadMetrics, logger *logging.Logger) (*scheduling.Broker, *scheduling.Confirmer) {
	client := calendly.NewClient(calendly.Config{
		Token:   cfg.CalendlyAPIToken,
		BaseURL: cfg.CalendlyBaseURL,
		Timeout: cfg.UpstreamTimeout,
	}, m, logger)
	if client == nil {
		logger.Warn("CALENDLY_API_TOKEN not set: scheduling endpoints disabled")
		return nil, nil
	}
	return scheduling.NewBroker(client, logger), scheduling.NewConfirmer(client, logger)
}
