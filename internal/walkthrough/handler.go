package walkthrough

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wolfman30/leadbridge/internal/apperrors"
	"github.com/wolfman30/leadbridge/internal/notify"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

const maxBodyBytes = 256 << 10

// Notifier delivers the lead emails. *notify.LeadDispatcher satisfies it.
type Notifier interface {
	Notify(ctx context.Context, n notify.LeadNotification) notify.DispatchResult
}

// SubmitRequest is the body of POST /api/walkthrough.
type SubmitRequest struct {
	Answers []Answer `json:"answers"`
}

// SubmitResponse spreads the report fields alongside delivery status. Empty
// statuses are encoded as null.
type SubmitResponse struct {
	LeadReport
	EmailedTo       *string `json:"emailed_to"`
	EmailError      *string `json:"email_error"`
	OwnerNotified   bool    `json:"owner_notified"`
	OwnerEmailError *string `json:"owner_email_error"`
}

// Handler serves the walkthrough endpoint.
type Handler struct {
	extractor *Extractor
	notifier  Notifier
	logger    *logging.Logger
}

// NewHandler creates a walkthrough handler.
func NewHandler(extractor *Extractor, notifier Notifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{extractor: extractor, notifier: notifier, logger: logger}
}

// Submit handles POST /api/walkthrough. Once answers are present it always
// answers 200; extraction and email failures are reported in the body.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "walkthrough.Submit"
	var req SubmitRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode walkthrough request", "error", err)
		apperrors.WriteJSON(w, apperrors.Validation(op, "Invalid request body."))
		return
	}
	if len(req.Answers) == 0 {
		apperrors.WriteJSON(w, apperrors.Validation(op, "Please answer at least one question."))
		return
	}

	ctx := r.Context()
	report, source := h.extractor.Extract(ctx, req.Answers)
	userEmail := DiscoverEmail(req.Answers)

	var result notify.DispatchResult
	if h.notifier != nil {
		result = h.notifier.Notify(ctx, toNotification(report, req.Answers, userEmail))
	}

	h.logger.Info("walkthrough processed",
		"source", string(source),
		"answers", len(req.Answers),
		"services", len(report.RecommendedServices),
		"owner_notified", result.OwnerNotified,
		"user_emailed", result.UserEmailed != "",
	)

	h.writeJSON(w, http.StatusOK, SubmitResponse{
		LeadReport:      report,
		EmailedTo:       optional(result.UserEmailed),
		EmailError:      optional(result.UserError),
		OwnerNotified:   result.OwnerNotified,
		OwnerEmailError: optional(result.OwnerError),
	})
}

func toNotification(report LeadReport, answers []Answer, userEmail string) notify.LeadNotification {
	fields := make([]notify.Field, 0, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		fields = append(fields, notify.Field{Label: spec.label, Value: *spec.get(&report.Extracted)})
	}
	lines := make([]notify.AnswerLine, 0, len(answers))
	for _, a := range answers {
		question := a.Question
		if question == "" {
			question = a.Key
		}
		lines = append(lines, notify.AnswerLine{Question: question, Answer: a.Answer})
	}
	return notify.LeadNotification{
		Summary:   report.Summary,
		Fields:    fields,
		Services:  report.RecommendedServices,
		NextStep:  report.SuggestedNextStep,
		Answers:   lines,
		UserEmail: userEmail,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
