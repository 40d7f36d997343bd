package walkthrough

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadbridge/internal/notify"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

type recordingNotifier struct {
	got    *notify.LeadNotification
	result notify.DispatchResult
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.LeadNotification) notify.DispatchResult {
	r.got = &n
	return r.result
}

func postWalkthrough(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/walkthrough", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func TestSubmit_EmptyAnswers(t *testing.T) {
	logger := logging.New("error")
	notifier := &recordingNotifier{}
	h := NewHandler(NewExtractor(nil, nil, logger), notifier, logger)

	for _, body := range []string{`{"answers":[]}`, `{}`, `not json`} {
		rec := postWalkthrough(h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Nil(t, notifier.got)
}

func TestSubmit_FallbackWithoutProviders(t *testing.T) {
	logger := logging.New("error")
	dispatcher := notify.NewLeadDispatcher(nil, notify.DispatcherConfig{OwnerEmail: "owner@leadbridge.test"}, nil, logger)
	h := NewHandler(NewExtractor(nil, nil, logger), dispatcher, logger)

	body, err := json.Marshal(SubmitRequest{Answers: sampleAnswers()})
	require.NoError(t, err)
	rec := postWalkthrough(h, string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp["summary"])
	extracted, ok := resp["extracted"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Residential plumbing", extracted["industry"])
	assert.Equal(t, "unknown", extracted["budget"])
	assert.Contains(t, resp["recommended_services"], ServiceStrategy)
	assert.NotEmpty(t, resp["suggested_next_step"])

	assert.Nil(t, resp["emailed_to"])
	assert.Equal(t, false, resp["owner_notified"])
	assert.Equal(t, "Email delivery is not configured.", resp["email_error"])
	assert.Equal(t, "Email delivery is not configured.", resp["owner_email_error"])
}

func TestSubmit_PassesReportAndEmailToNotifier(t *testing.T) {
	logger := logging.New("error")
	notifier := &recordingNotifier{result: notify.DispatchResult{OwnerNotified: true, UserEmailed: "owner@plumbco.com"}}
	h := NewHandler(NewExtractor(nil, nil, logger), notifier, logger)

	body, err := json.Marshal(SubmitRequest{Answers: sampleAnswers()})
	require.NoError(t, err)
	rec := postWalkthrough(h, string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, notifier.got)
	assert.Equal(t, "owner@plumbco.com", notifier.got.UserEmail)
	require.Len(t, notifier.got.Answers, len(sampleAnswers()))
	assert.Equal(t, "What does your business do?", notifier.got.Answers[0].Question)
	assert.Equal(t, "owner@plumbco.com", notifier.got.Answers[6].Answer)
	require.Len(t, notifier.got.Fields, 7)
	assert.Equal(t, notify.Field{Label: "Industry", Value: "Residential plumbing"}, notifier.got.Fields[0])

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.EmailedTo)
	assert.Equal(t, "owner@plumbco.com", *resp.EmailedTo)
	assert.True(t, resp.OwnerNotified)
	assert.Nil(t, resp.EmailError)
	assert.Nil(t, resp.OwnerEmailError)
}
