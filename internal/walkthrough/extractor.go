package walkthrough

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/leadbridge/internal/conversation"
	"github.com/wolfman30/leadbridge/internal/observability/metrics"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

var tracer = otel.Tracer("leadbridge.internal.walkthrough")

var (
	// ErrEmptyResponse means the model returned no text.
	ErrEmptyResponse = errors.New("walkthrough: empty model response")
	// ErrUnparseable means neither the full text nor its outermost braces
	// decoded as a report.
	ErrUnparseable = errors.New("walkthrough: model response is not a report")
	// ErrIncompleteReport means the JSON decoded but had no summary.
	ErrIncompleteReport = errors.New("walkthrough: model report has no summary")
)

// Extractor produces lead reports, preferring the model and falling back to
// BuildFallbackReport on any failure.
type Extractor struct {
	llm     conversation.LLMClient
	logger  *logging.Logger
	metrics *metrics.LeadMetrics
}

// NewExtractor creates an extractor. A nil llm always uses the fallback.
func NewExtractor(llm conversation.LLMClient, m *metrics.LeadMetrics, logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{llm: llm, logger: logger, metrics: m}
}

// Extract never fails: model errors and unparseable output are logged and
// replaced by the deterministic fallback report.
func (e *Extractor) Extract(ctx context.Context, answers []Answer) (LeadReport, Source) {
	ctx, span := tracer.Start(ctx, "walkthrough.extract")
	defer span.End()

	report, err := e.extractWithModel(ctx, answers)
	source := SourceAI
	if err != nil {
		if e.llm != nil {
			span.RecordError(err)
			e.logger.Warn("ai extraction failed, using fallback report", "error", err, "answers", len(answers))
		}
		report = BuildFallbackReport(answers)
		source = SourceFallback
	}

	span.SetAttributes(
		attribute.String("leadbridge.extraction.source", string(source)),
		attribute.Int("leadbridge.extraction.answers", len(answers)),
		attribute.Int("leadbridge.extraction.services", len(report.RecommendedServices)),
	)
	e.metrics.ObserveExtraction(string(source))
	return report, source
}

func (e *Extractor) extractWithModel(ctx context.Context, answers []Answer) (LeadReport, error) {
	if e.llm == nil {
		return LeadReport{}, conversation.ErrLLMNotConfigured
	}
	req := conversation.SingleTurn(extractionPrompt(), formatAnswers(answers), 1024, 0.2)
	req.JSONOutput = true

	resp, err := e.llm.Complete(ctx, req)
	if err != nil {
		return LeadReport{}, fmt.Errorf("walkthrough: model call: %w", err)
	}
	return ParseReport(resp.Text)
}

// rawReport tolerates loose model output: extracted values may be numbers or
// lists, services may be any JSON values.
type rawReport struct {
	Summary             string         `json:"summary"`
	Extracted           map[string]any `json:"extracted"`
	RecommendedServices []any          `json:"recommended_services"`
	SuggestedNextStep   string         `json:"suggested_next_step"`
}

// ParseReport decodes model output. It tries the whole text first, then the
// span from the first '{' to the last '}'. The result is normalized: every
// field is present, services are restricted to the catalog, and an empty
// service list becomes the strategy assessment.
func ParseReport(text string) (LeadReport, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return LeadReport{}, ErrEmptyResponse
	}

	var raw rawReport
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return LeadReport{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
		raw = rawReport{}
		if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
			return LeadReport{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
	}

	if strings.TrimSpace(raw.Summary) == "" {
		return LeadReport{}, ErrIncompleteReport
	}

	var fields ExtractedFields
	for _, spec := range fieldSpecs {
		*spec.get(&fields) = stringify(raw.Extracted[spec.key])
	}
	fields.normalize()

	var services orderedSet
	for _, v := range raw.RecommendedServices {
		if name, ok := v.(string); ok {
			if canonical, ok := canonicalService(name); ok {
				services.add(canonical)
			}
		}
	}
	if len(services.items) == 0 {
		services.add(ServiceStrategy)
	}

	nextStep := strings.TrimSpace(raw.SuggestedNextStep)
	if nextStep == "" {
		nextStep = defaultNextStep
	}

	return LeadReport{
		Summary:             strings.TrimSpace(raw.Summary),
		Extracted:           fields,
		RecommendedServices: services.items,
		SuggestedNextStep:   nextStep,
	}, nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func extractionPrompt() string {
	var b strings.Builder
	b.WriteString("You analyse answers from a business intake questionnaire for an AI consultancy.\n")
	b.WriteString("Respond with ONLY a JSON object, no prose and no code fences, with exactly these keys:\n")
	b.WriteString(`{"summary": string (2-3 sentences about the business and where AI helps), `)
	b.WriteString(`"extracted": {"industry": string, "team_size": string, "pain_points": string, "tools": string, "goals": string, "timeline": string, "budget": string}, `)
	b.WriteString(`"recommended_services": array of service names, "suggested_next_step": string}` + "\n")
	b.WriteString("Use \"unknown\" for any extracted value the answers do not state.\n")
	b.WriteString("Recommend one to four services, using these names exactly:\n")
	for _, svc := range ServiceCatalog {
		fmt.Fprintf(&b, "- %s: %s\n", svc.Name, svc.Description)
	}
	return b.String()
}

func formatAnswers(answers []Answer) string {
	var b strings.Builder
	for i, a := range answers {
		question := strings.TrimSpace(a.Question)
		if question == "" {
			question = strings.TrimSpace(a.Key)
		}
		if question == "" {
			question = "(no question)"
		}
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n\n", i+1, question, i+1, strings.TrimSpace(a.Answer))
	}
	return b.String()
}
