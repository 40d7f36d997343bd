package walkthrough

import (
	"fmt"
	"strings"
)

const defaultNextStep = "Book a free intro call so we can walk through these recommendations together."

var serviceKeywords = []struct {
	service  string
	keywords []string
}{
	{ServiceIntegration, []string{"manual", "spreadsheet", "crm"}},
	{ServiceCustom, []string{"automate", "repetitive", "admin"}},
	{ServiceTraining, []string{"training", "adoption"}},
	{ServiceSupport, []string{"support", "maintenance"}},
}

// BuildFallbackReport derives a report from keyword matches alone. It makes
// no network calls and returns identical output for identical answers.
func BuildFallbackReport(answers []Answer) LeadReport {
	var fields ExtractedFields
	for _, spec := range fieldSpecs {
		*spec.get(&fields) = answerForKeyword(answers, spec.keyword)
	}
	fields.normalize()

	haystack := strings.ToLower(strings.Join([]string{fields.PainPoints, fields.Goals, fields.Tools}, " "))
	var services orderedSet
	services.add(ServiceStrategy)
	for _, rule := range serviceKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				services.add(rule.service)
				break
			}
		}
	}

	return LeadReport{
		Summary: fmt.Sprintf(
			"A %s business exploring where AI can remove friction, working to a %s timeline. Start with a strategy assessment to size the quickest wins.",
			fields.Industry, fields.Timeline,
		),
		Extracted:           fields,
		RecommendedServices: services.items,
		SuggestedNextStep:   defaultNextStep,
	}
}

// answerForKeyword returns the answer to the first question mentioning kw.
func answerForKeyword(answers []Answer, kw string) string {
	for _, a := range answers {
		if strings.Contains(strings.ToLower(a.Question), kw) {
			return a.Answer
		}
	}
	return ""
}
