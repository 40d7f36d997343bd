package scheduling

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/leadbridge/internal/apperrors"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

const maxBodyBytes = 64 << 10

// ScheduleRequest is the body of POST /api/schedule.
type ScheduleRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Goals      string `json:"goals"`
	Times      string `json:"times"`
	Company    string `json:"company,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
	StartAfter string `json:"startAfter,omitempty"`
}

// ConfirmRequest is the body of POST /api/schedule/confirm.
type ConfirmRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	EventTypeURI string `json:"eventTypeUri"`
	StartTime    string `json:"startTime"`
	Timezone     string `json:"timezone,omitempty"`
}

// Handler serves the scheduling endpoints. A nil broker or confirmer means
// the calendar is not configured.
type Handler struct {
	broker    *Broker
	confirmer *Confirmer
	logger    *logging.Logger
}

// NewHandler creates a scheduling handler.
func NewHandler(broker *Broker, confirmer *Confirmer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{broker: broker, confirmer: confirmer, logger: logger}
}

// Schedule handles POST /api/schedule.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	const op = "scheduling.Schedule"
	var req ScheduleRequest
	if err := decodeBody(w, r, &req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation(op, "Invalid request body."))
		return
	}

	if missing := missingFields(map[string]string{
		"name": req.Name, "email": req.Email, "goals": req.Goals, "times": req.Times,
	}, "name", "email", "goals", "times"); missing != "" {
		apperrors.WriteJSON(w, apperrors.Validation(op, "Missing required fields: "+missing+"."))
		return
	}

	var startAfter time.Time
	if raw := strings.TrimSpace(req.StartAfter); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperrors.WriteJSON(w, apperrors.Validation(op, "startAfter must be an RFC 3339 timestamp."))
			return
		}
		startAfter = t
	}

	if h.broker == nil {
		h.fail(w, apperrors.Configuration(op, "Scheduling is not configured."))
		return
	}

	result, err := h.broker.FindSlots(r.Context(), SlotQuery{
		Name:       strings.TrimSpace(req.Name),
		Times:      req.Times,
		Timezone:   req.Timezone,
		StartAfter: startAfter,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Confirm handles POST /api/schedule/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	const op = "scheduling.Confirm"
	var req ConfirmRequest
	if err := decodeBody(w, r, &req); err != nil {
		apperrors.WriteJSON(w, apperrors.Validation(op, "Invalid request body."))
		return
	}

	if missing := missingFields(map[string]string{
		"name": req.Name, "email": req.Email, "eventTypeUri": req.EventTypeURI, "startTime": req.StartTime,
	}, "name", "email", "eventTypeUri", "startTime"); missing != "" {
		apperrors.WriteJSON(w, apperrors.Validation(op, "Missing required fields: "+missing+"."))
		return
	}

	if h.confirmer == nil {
		h.fail(w, apperrors.Configuration(op, "Scheduling is not configured."))
		return
	}

	confirmation, err := h.confirmer.Confirm(r.Context(), BookingRequest{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Timezone:     req.Timezone,
		EventTypeURI: strings.TrimSpace(req.EventTypeURI),
		StartTime:    strings.TrimSpace(req.StartTime),
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, confirmation)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("scheduling request failed", "error", err, "kind", string(apperrors.KindOf(err)))
	apperrors.WriteJSON(w, err)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// missingFields lists, in order, the names whose values are blank.
func missingFields(values map[string]string, order ...string) string {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	return strings.Join(missing, ", ")
}
