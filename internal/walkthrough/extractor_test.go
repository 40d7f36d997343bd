package walkthrough

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadbridge/internal/conversation"
	"github.com/wolfman30/leadbridge/internal/observability/metrics"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

type stubLLM struct {
	text string
	err  error
	req  conversation.LLMRequest
}

func (s *stubLLM) Complete(_ context.Context, req conversation.LLMRequest) (conversation.LLMResponse, error) {
	s.req = req
	return conversation.LLMResponse{Text: s.text}, s.err
}

const modelReport = `{
  "summary": "A plumbing company losing hours to hand-built quotes.",
  "extracted": {"industry": "Plumbing", "team_size": 14, "pain_points": ["manual quotes", "scheduling"], "tools": "Jobber", "goals": "faster quotes", "timeline": "Q3", "budget": ""},
  "recommended_services": ["AI Integration", "ai integration", "Blockchain Consulting", "Custom AI Development"],
  "suggested_next_step": "Book an intro call."
}`

func TestParseReport_Direct(t *testing.T) {
	report, err := ParseReport(modelReport)
	require.NoError(t, err)

	assert.Equal(t, "A plumbing company losing hours to hand-built quotes.", report.Summary)
	assert.Equal(t, "14", report.Extracted.TeamSize)
	assert.Equal(t, "manual quotes, scheduling", report.Extracted.PainPoints)
	assert.Equal(t, Unknown, report.Extracted.Budget)
	assert.Equal(t, []string{ServiceIntegration, ServiceCustom}, report.RecommendedServices)
	assert.Equal(t, "Book an intro call.", report.SuggestedNextStep)
}

func TestParseReport_BraceRecovery(t *testing.T) {
	wrapped := "Sure! Here is the report:\n```json\n" + modelReport + "\n```\nLet me know {if} you need more."
	_, err := ParseReport(wrapped)
	assert.Error(t, err, "greedy span runs to the last brace")

	fenced := "```json\n" + modelReport + "\n```"
	report, err := ParseReport(fenced)
	require.NoError(t, err)
	assert.Equal(t, "Plumbing", report.Extracted.Industry)
}

func TestParseReport_Failures(t *testing.T) {
	_, err := ParseReport("   ")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = ParseReport("I cannot help with that.")
	assert.ErrorIs(t, err, ErrUnparseable)

	_, err = ParseReport(`{"summary": "cut off`)
	assert.ErrorIs(t, err, ErrUnparseable)

	_, err = ParseReport(`{"extracted": {}}`)
	assert.ErrorIs(t, err, ErrIncompleteReport)
}

func TestParseReport_DefaultsWhenSparse(t *testing.T) {
	report, err := ParseReport(`{"summary": "Small team."}`)
	require.NoError(t, err)
	assert.Equal(t, []string{ServiceStrategy}, report.RecommendedServices)
	assert.Equal(t, Unknown, report.Extracted.Industry)
	assert.Equal(t, defaultNextStep, report.SuggestedNextStep)
}

func TestExtractor_UsesModel(t *testing.T) {
	reg := prometheus.NewRegistry()
	llm := &stubLLM{text: modelReport}
	e := NewExtractor(llm, metrics.NewLeadMetrics(reg), logging.New("error"))

	report, source := e.Extract(context.Background(), sampleAnswers())
	assert.Equal(t, SourceAI, source)
	assert.Equal(t, "Plumbing", report.Extracted.Industry)

	assert.True(t, llm.req.JSONOutput)
	require.Len(t, llm.req.Messages, 1)
	assert.Contains(t, llm.req.Messages[0].Content, "Q3: What's your biggest bottleneck?")
	assert.Contains(t, llm.req.System[0], ServiceWorkflow)
}

func TestExtractor_FallsBack(t *testing.T) {
	cases := map[string]conversation.LLMClient{
		"unconfigured": nil,
		"upstream":     &stubLLM{err: errors.New("503")},
		"garbage":      &stubLLM{text: "not json"},
		"empty":        &stubLLM{text: ""},
	}
	want := BuildFallbackReport(sampleAnswers())
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			e := NewExtractor(llm, nil, logging.New("error"))
			report, source := e.Extract(context.Background(), sampleAnswers())
			assert.Equal(t, SourceFallback, source)
			assert.Equal(t, want, report)
		})
	}
}
