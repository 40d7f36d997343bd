// Package main runs black-box scenarios against a running leadbridge API.
//
// Scenarios cover:
//   - Health and request validation on every endpoint
//   - Walkthrough extraction and delivery status reporting
//   - Chat replies when an LLM provider is configured
//   - Slot offers and booking when the calendar is configured
//   - Chat rate limiting
//
// Usage:
//
//	API_BASE_URL=http://localhost:8080 go run scripts/e2e/run_e2e.go              # runs all
//	API_BASE_URL=http://localhost:8080 go run scripts/e2e/run_e2e.go walkthrough  # runs one
//
// E2E_BOOK=1 lets the schedule scenario book the first offered slot.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var (
	apiBase string
	client  = &http.Client{Timeout: 60 * time.Second}
)

// ---------------------------------------------------------------------------
// Scenario definition
// ---------------------------------------------------------------------------

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed  int
	failed  int
	skipped bool
	name    string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...interface{}) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

func (t *T) skipf(format string, args ...interface{}) {
	fmt.Printf("    SKIP: "+format+"\n", args...)
	t.skipped = true
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type response struct {
	status int
	body   map[string]interface{}
	raw    string
}

func postJSON(path string, payload interface{}) (response, error) {
	var body io.Reader
	switch p := payload.(type) {
	case string:
		body = strings.NewReader(p)
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return response{}, err
		}
		body = bytes.NewReader(b)
	}
	resp, err := client.Post(apiBase+path, "application/json", body)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()
	return readResponse(resp)
}

func get(path string) (response, error) {
	resp, err := client.Get(apiBase + path)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()
	return readResponse(resp)
}

func readResponse(resp *http.Response) (response, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, err
	}
	out := response{status: resp.StatusCode, raw: string(raw)}
	_ = json.Unmarshal(raw, &out.body)
	return out, nil
}

func (r response) str(key string) string {
	s, _ := r.body[key].(string)
	return s
}

// notConfigured reports whether the API answered with a configuration error.
func notConfigured(r response) bool {
	return r.status == http.StatusInternalServerError && strings.Contains(r.str("error"), "not configured")
}

var walkthroughAnswers = []map[string]string{
	{"question": "What does your business do?", "answer": "Regional HVAC contractor"},
	{"question": "How big is your team?", "answer": "40 technicians"},
	{"question": "What's your biggest bottleneck right now?", "answer": "Dispatch runs on whiteboards and phone calls"},
	{"question": "What tools do you use today?", "answer": "ServiceTitan and Excel"},
	{"question": "What outcome would make this a win?", "answer": "Same-day scheduling for every call"},
	{"question": "What's your timeline?", "answer": "ASAP"},
	{"question": "Do you have a budget in mind?", "answer": "Not sure yet"},
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func scenarioHealth(t *T) {
	resp, err := get("/health")
	if err != nil {
		t.fatalf("health: %v", err)
		return
	}
	t.check("health returns 200", resp.status == http.StatusOK)
	t.check("health reports ok", resp.str("status") == "ok")
}

func scenarioValidation(t *T) {
	cases := []struct {
		name    string
		path    string
		payload interface{}
		want    string
	}{
		{"chat empty message", "/api/chat", map[string]string{"message": "  "}, ""},
		{"chat message too long", "/api/chat", map[string]string{"message": strings.Repeat("a", 801)}, ""},
		{"walkthrough without answers", "/api/walkthrough", map[string]interface{}{"answers": []interface{}{}}, "Please answer at least one question."},
		{"walkthrough malformed body", "/api/walkthrough", "{not json", "Invalid request body."},
		{"schedule missing fields", "/api/schedule", map[string]string{"name": "Ada"}, "Missing required fields: email, goals, times."},
		{"confirm missing fields", "/api/schedule/confirm", map[string]string{"email": "ada@example.com"}, "Missing required fields: name, eventTypeUri, startTime."},
	}
	for _, c := range cases {
		resp, err := postJSON(c.path, c.payload)
		if err != nil {
			t.fatalf("%s: %v", c.name, err)
			continue
		}
		t.check(c.name+" returns 400", resp.status == http.StatusBadRequest)
		if c.want != "" {
			t.check(c.name+" error message", resp.str("error") == c.want)
		}
	}
}

func scenarioWalkthrough(t *T) {
	resp, err := postJSON("/api/walkthrough", map[string]interface{}{"answers": walkthroughAnswers})
	if err != nil {
		t.fatalf("walkthrough: %v", err)
		return
	}
	t.check("walkthrough returns 200", resp.status == http.StatusOK)
	t.check("summary is present", resp.str("summary") != "")
	t.check("next step is present", resp.str("suggested_next_step") != "")

	extracted, _ := resp.body["extracted"].(map[string]interface{})
	for _, key := range []string{"industry", "team_size", "pain_points", "tools", "goals", "timeline", "budget"} {
		_, ok := extracted[key]
		t.check("extracted carries "+key, ok)
	}
	services, _ := resp.body["recommended_services"].([]interface{})
	t.check("at least one recommended service", len(services) > 0)

	_, hasEmailedTo := resp.body["emailed_to"]
	_, hasOwnerError := resp.body["owner_email_error"]
	t.check("delivery status keys are present", hasEmailedTo && hasOwnerError)
	t.check("no user email without an address", resp.body["emailed_to"] == nil)
}

func scenarioChat(t *T) {
	resp, err := postJSON("/api/chat", map[string]string{"message": "What kinds of automation do you build?"})
	if err != nil {
		t.fatalf("chat: %v", err)
		return
	}
	if notConfigured(resp) {
		t.skipf("chat is not configured")
		return
	}
	t.check("chat returns 200", resp.status == http.StatusOK)
	t.check("reply is non-empty", strings.TrimSpace(resp.str("reply")) != "")
}

func scenarioSchedule(t *T) {
	resp, err := postJSON("/api/schedule", map[string]string{
		"name":     "E2E Tester",
		"email":    "e2e@example.com",
		"goals":    "Automate intake",
		"times":    "weekday afternoons 1-5",
		"timezone": "EST",
	})
	if err != nil {
		t.fatalf("schedule: %v", err)
		return
	}
	if notConfigured(resp) {
		t.skipf("scheduling is not configured")
		return
	}
	t.check("schedule returns 200", resp.status == http.StatusOK)
	t.check("summary is present", resp.str("summary") != "")
	t.check("event type uri is present", resp.str("eventTypeUri") != "")

	suggestions, _ := resp.body["suggestions"].([]interface{})
	t.check("at most three suggestions", len(suggestions) <= 3)
	if len(suggestions) == 0 || os.Getenv("E2E_BOOK") != "1" {
		return
	}

	first, _ := suggestions[0].(map[string]interface{})
	start, _ := first["start_time"].(string)
	booked, err := postJSON("/api/schedule/confirm", map[string]string{
		"name":         "E2E Tester",
		"email":        "e2e@example.com",
		"eventTypeUri": resp.str("eventTypeUri"),
		"startTime":    start,
		"timezone":     "EST",
	})
	if err != nil {
		t.fatalf("confirm: %v", err)
		return
	}
	t.check("confirm returns 200", booked.status == http.StatusOK)
	t.check("confirmation summary is present", booked.str("summary") != "")
}

func scenarioRateLimit(t *T) {
	// Validation failures still count against the window.
	for i := 0; i < 50; i++ {
		resp, err := postJSON("/api/chat", map[string]string{"message": ""})
		if err != nil {
			t.fatalf("chat burst: %v", err)
			return
		}
		if resp.status == http.StatusTooManyRequests {
			t.check("burst is eventually rejected with 429", true)
			t.check("429 carries an error message", resp.str("error") != "")
			return
		}
	}
	t.check("burst is eventually rejected with 429", false)
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	apiBase = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if apiBase == "" {
		fmt.Fprintln(os.Stderr, "ERROR: API_BASE_URL required")
		os.Exit(1)
	}

	// rate-limit runs last so it does not starve the chat scenario.
	scenarios := []scenario{
		{"health", scenarioHealth},
		{"validation", scenarioValidation},
		{"walkthrough", scenarioWalkthrough},
		{"chat", scenarioChat},
		{"schedule", scenarioSchedule},
		{"rate-limit", scenarioRateLimit},
	}

	filter := ""
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	totalPassed := 0
	totalFailed := 0
	scenarioResults := make([]string, 0)

	for _, s := range scenarios {
		if filter != "" && s.Name != filter {
			continue
		}

		fmt.Printf("\n========================================\n")
		fmt.Printf("SCENARIO: %s\n", s.Name)
		fmt.Printf("========================================\n")

		t := &T{name: s.Name}
		s.Fn(t)

		totalPassed += t.passed
		totalFailed += t.failed

		status := "PASS"
		switch {
		case t.failed > 0:
			status = "FAIL"
		case t.skipped:
			status = "SKIP"
		}
		scenarioResults = append(scenarioResults, fmt.Sprintf("  %s %s (%d passed, %d failed)", status, s.Name, t.passed, t.failed))
	}

	fmt.Printf("\n========================================\n")
	fmt.Println("SUMMARY")
	fmt.Printf("========================================\n")
	for _, r := range scenarioResults {
		fmt.Println(r)
	}
	fmt.Printf("\nTotal: %d passed, %d failed\n", totalPassed, totalFailed)

	if totalFailed > 0 {
		fmt.Println("\nSOME SCENARIOS FAILED")
		os.Exit(1)
	}
	fmt.Println("\nALL SCENARIOS PASSED")
}
