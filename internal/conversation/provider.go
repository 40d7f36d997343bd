package conversation

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/wolfman30/leadbridge/internal/observability/metrics"
)

const (
	ProviderAuto    = "auto"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
)

// ProviderConfig selects and configures the completion provider.
type ProviderConfig struct {
	// Provider is auto, gemini or bedrock. Auto prefers Gemini when a key is
	// set and falls back to Bedrock when a model id is set.
	Provider       string
	GeminiAPIKey   string
	GeminiModelID  string
	BedrockModelID string
	// AWS is required for Bedrock.
	AWS     *aws.Config
	Timeout time.Duration
	Metrics *metrics.LeadMetrics
}

// NewLLMClient builds the configured provider wrapped with per-call timeouts
// and metrics. It returns ErrLLMNotConfigured when the selected provider has
// no credentials.
func NewLLMClient(ctx context.Context, cfg ProviderConfig) (LLMClient, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderAuto
	}
	hasGemini := strings.TrimSpace(cfg.GeminiAPIKey) != ""
	hasBedrock := strings.TrimSpace(cfg.BedrockModelID) != "" && cfg.AWS != nil

	if provider == ProviderAuto {
		switch {
		case hasGemini:
			provider = ProviderGemini
		case hasBedrock:
			provider = ProviderBedrock
		default:
			return nil, ErrLLMNotConfigured
		}
	}

	switch provider {
	case ProviderGemini:
		if !hasGemini {
			return nil, ErrLLMNotConfigured
		}
		client, err := NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, err
		}
		return Instrument(client, ProviderGemini, cfg.Timeout, cfg.Metrics), nil
	case ProviderBedrock:
		if !hasBedrock {
			return nil, ErrLLMNotConfigured
		}
		client, err := NewBedrockLLMClient(bedrockruntime.NewFromConfig(*cfg.AWS), cfg.BedrockModelID)
		if err != nil {
			return nil, err
		}
		return Instrument(client, ProviderBedrock, cfg.Timeout, cfg.Metrics), nil
	default:
		return nil, fmt.Errorf("conversation: unknown llm provider %q", cfg.Provider)
	}
}

type instrumentedClient struct {
	next     LLMClient
	provider string
	timeout  time.Duration
	metrics  *metrics.LeadMetrics
}

// Instrument bounds each call by timeout (when positive) and records it as
// an upstream call to provider.
func Instrument(next LLMClient, provider string, timeout time.Duration, m *metrics.LeadMetrics) LLMClient {
	return &instrumentedClient{next: next, provider: provider, timeout: timeout, metrics: m}
}

func (c *instrumentedClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := c.next.Complete(ctx, req)
	c.metrics.ObserveUpstream(c.provider, err, time.Since(start).Seconds())
	return resp, err
}

// Close releases the wrapped client when it holds resources.
func (c *instrumentedClient) Close() error {
	if closer, ok := c.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
