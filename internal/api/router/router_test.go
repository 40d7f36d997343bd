package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadbridge/internal/conversation"
	"github.com/wolfman30/leadbridge/internal/notify"
	"github.com/wolfman30/leadbridge/internal/ratelimit"
	"github.com/wolfman30/leadbridge/internal/scheduling"
	"github.com/wolfman30/leadbridge/internal/walkthrough"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

type echoLLM struct{}

func (echoLLM) Complete(_ context.Context, req conversation.LLMRequest) (conversation.LLMResponse, error) {
	return conversation.LLMResponse{Text: "echo: " + req.Messages[0].Content}, nil
}

func newTestRouter(t *testing.T, staticDir string) http.Handler {
	t.Helper()
	logger := logging.New("error")

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewLimiter(nil, ratelimit.Config{Now: func() time.Time { return now }}, logger)

	return New(&Config{
		Logger:      logger,
		ChatHandler: conversation.NewHandler(conversation.NewChatService(echoLLM{}, logger), logger),
		WalkthroughHandler: walkthrough.NewHandler(
			walkthrough.NewExtractor(nil, nil, logger),
			notify.NewLeadDispatcher(nil, notify.DispatcherConfig{}, nil, logger),
			logger,
		),
		SchedulingHandler: scheduling.NewHandler(nil, nil, logger),
		ChatLimiter:       limiter,
		StaticDir:         staticDir,
	})
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthEndpoint(t *testing.T) {
	rr := do(newTestRouter(t, ""), http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterChatIsRateLimited(t *testing.T) {
	router := newTestRouter(t, "")
	headers := map[string]string{"X-Forwarded-For": "203.0.113.7"}

	for i := 0; i < ratelimit.DefaultMax; i++ {
		rr := do(router, http.MethodPost, "/api/chat", `{"message":"hi"}`, headers)
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i+1)
	}

	rr := do(router, http.MethodPost, "/api/chat", `{"message":"hi"}`, headers)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])

	other := do(router, http.MethodPost, "/api/chat", `{"message":"hi"}`, map[string]string{"X-Forwarded-For": "198.51.100.1"})
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRouterRateLimitCountsInvalidMessages(t *testing.T) {
	router := newTestRouter(t, "")
	headers := map[string]string{"X-Forwarded-For": "203.0.113.9"}

	for i := 0; i < ratelimit.DefaultMax; i++ {
		rr := do(router, http.MethodPost, "/api/chat", `{"message":""}`, headers)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}
	rr := do(router, http.MethodPost, "/api/chat", `{"message":"hi"}`, headers)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRouterRateLimitIgnoresRealIPHeaders(t *testing.T) {
	router := newTestRouter(t, "")

	// Without X-Forwarded-For every request comes from the same peer, no
	// matter what X-Real-IP or True-Client-IP claim.
	for i := 0; i < ratelimit.DefaultMax; i++ {
		rr := do(router, http.MethodPost, "/api/chat", `{"message":"hi"}`, map[string]string{
			"X-Real-IP":      fmt.Sprintf("10.0.0.%d", i),
			"True-Client-IP": fmt.Sprintf("10.0.1.%d", i),
		})
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i+1)
	}
	rr := do(router, http.MethodPost, "/api/chat", `{"message":"hi"}`, map[string]string{"X-Real-IP": "10.0.0.250"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRouterCORSPreflightOnAPIRoutes(t *testing.T) {
	logger := logging.New("error")
	router := New(&Config{
		Logger:             logger,
		SchedulingHandler:  scheduling.NewHandler(nil, nil, logger),
		CORSAllowedOrigins: []string{"https://site.example"},
	})

	rr := do(router, http.MethodOptions, "/api/schedule/confirm", "", map[string]string{
		"Origin":                        "https://site.example",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "https://site.example", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = do(router, http.MethodOptions, "/api/chat", "", map[string]string{
		"Origin":                        "https://site.example",
		"Access-Control-Request-Method": "POST",
	})
	assert.NotEqual(t, http.StatusNoContent, rr.Code, "chat is not mounted without a handler")
}

func TestRouterWalkthroughAndSchedule(t *testing.T) {
	router := newTestRouter(t, "")

	rr := do(router, http.MethodPost, "/api/walkthrough", `{"answers":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(router, http.MethodPost, "/api/walkthrough", `{"answers":[{"question":"What does your business do?","answer":"Bakery"}]}`, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(router, http.MethodPost, "/api/schedule", `{"name":"Ana","email":"a@b.co","goals":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(router, http.MethodPost, "/api/schedule/confirm", `{"name":"Ana","email":"a@b.co","eventTypeUri":"et","startTime":"2026-03-03T15:00:00Z"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRouterServesStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>home</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('hi')"), 0o644))
	router := newTestRouter(t, dir)

	rr := do(router, http.MethodGet, "/app.js", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "console.log")

	rr = do(router, http.MethodGet, "/pricing", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "home")

	rr = do(router, http.MethodGet, "/health", "", nil)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestRouterNoStaticDir(t *testing.T) {
	rr := do(newTestRouter(t, ""), http.MethodGet, "/index.html", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
