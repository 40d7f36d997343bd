package walkthrough

import "strings"

// Service is one offering that can be recommended.
type Service struct {
	Name        string
	Description string
}

const (
	ServiceStrategy    = "AI Strategy Assessment"
	ServiceIntegration = "AI Integration"
	ServiceCustom      = "Custom AI Development"
	ServiceTraining    = "AI Training & Enablement"
	ServiceSupport     = "Ongoing AI Support"
	ServiceWorkflow    = "AI Workflow Automation"
)

// ServiceCatalog is the fixed set of services a report may recommend.
var ServiceCatalog = []Service{
	{ServiceStrategy, "Map where AI fits the business and prioritise quick wins."},
	{ServiceIntegration, "Connect AI to existing tools such as CRMs, spreadsheets and inboxes."},
	{ServiceCustom, "Build bespoke assistants and automations for repetitive or admin-heavy work."},
	{ServiceTraining, "Hands-on training so the team adopts AI tools with confidence."},
	{ServiceSupport, "Monitoring, maintenance and iteration after launch."},
	{ServiceWorkflow, "Redesign multi-step processes end to end around AI agents."},
}

// canonicalService maps a free-form service name to its catalog spelling.
func canonicalService(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, svc := range ServiceCatalog {
		if strings.EqualFold(svc.Name, name) {
			return svc.Name, true
		}
	}
	return "", false
}

// orderedSet appends names not already present, keeping first-seen order.
type orderedSet struct {
	items []string
	seen  map[string]bool
}

func (s *orderedSet) add(name string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[name] {
		return
	}
	s.seen[name] = true
	s.items = append(s.items, name)
}
