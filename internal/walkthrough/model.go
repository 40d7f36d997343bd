// Package walkthrough turns free-text intake answers into a structured lead
// report and hands it to notification delivery.
package walkthrough

import "strings"

// Unknown marks an extracted field with no usable value.
const Unknown = "unknown"

// Answer is one question/answer pair from the guided walkthrough.
type Answer struct {
	Key      string `json:"key,omitempty"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
}

// ExtractedFields always carries every key; missing values are Unknown.
type ExtractedFields struct {
	Industry   string `json:"industry"`
	TeamSize   string `json:"team_size"`
	PainPoints string `json:"pain_points"`
	Tools      string `json:"tools"`
	Goals      string `json:"goals"`
	Timeline   string `json:"timeline"`
	Budget     string `json:"budget"`
}

// LeadReport is the structured result of a walkthrough.
type LeadReport struct {
	Summary             string          `json:"summary"`
	Extracted           ExtractedFields `json:"extracted"`
	RecommendedServices []string        `json:"recommended_services"`
	SuggestedNextStep   string          `json:"suggested_next_step"`
}

// Source says which path produced a report.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

type fieldSpec struct {
	key     string
	label   string
	keyword string
	get     func(*ExtractedFields) *string
}

// fieldSpecs lists the extracted fields in display order with the question
// keyword the fallback path looks for.
var fieldSpecs = []fieldSpec{
	{"industry", "Industry", "business", func(f *ExtractedFields) *string { return &f.Industry }},
	{"team_size", "Team size", "team", func(f *ExtractedFields) *string { return &f.TeamSize }},
	{"pain_points", "Pain points", "bottleneck", func(f *ExtractedFields) *string { return &f.PainPoints }},
	{"tools", "Tools", "tools", func(f *ExtractedFields) *string { return &f.Tools }},
	{"goals", "Goals", "outcome", func(f *ExtractedFields) *string { return &f.Goals }},
	{"timeline", "Timeline", "timeline", func(f *ExtractedFields) *string { return &f.Timeline }},
	{"budget", "Budget", "budget", func(f *ExtractedFields) *string { return &f.Budget }},
}

// normalize replaces blank values with Unknown. Other values are kept as
// given, surrounding whitespace included.
func (f *ExtractedFields) normalize() {
	for _, spec := range fieldSpecs {
		if v := spec.get(f); strings.TrimSpace(*v) == "" {
			*v = Unknown
		}
	}
}
