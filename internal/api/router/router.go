package router

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/leadbridge/internal/conversation"
	httpmiddleware "github.com/wolfman30/leadbridge/internal/http/middleware"
	"github.com/wolfman30/leadbridge/internal/observability/metrics"
	"github.com/wolfman30/leadbridge/internal/ratelimit"
	"github.com/wolfman30/leadbridge/internal/scheduling"
	"github.com/wolfman30/leadbridge/internal/walkthrough"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *conversation.Handler
	WalkthroughHandler *walkthrough.Handler
	SchedulingHandler  *scheduling.Handler
	ChatLimiter        *ratelimit.Limiter
	Metrics            *metrics.LeadMetrics
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// StaticDir, when set, is served at / for the marketing front end.
	StaticDir string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()
	// No RealIP: client identity is the first forwarded address, then the
	// peer address (see middleware.ClientIdentifier).
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(logger))

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if len(cfg.CORSAllowedOrigins) > 0 {
			api.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins, r))
		}
		if cfg.ChatHandler != nil {
			limiter := cfg.ChatLimiter
			if limiter == nil {
				limiter = ratelimit.NewLimiter(nil, ratelimit.Config{}, logger)
			}
			api.With(httpmiddleware.RateLimit(limiter, "chat", cfg.Metrics, logger)).Post("/chat", cfg.ChatHandler.Chat)
		}
		if cfg.WalkthroughHandler != nil {
			api.Post("/walkthrough", cfg.WalkthroughHandler.Submit)
		}
		if cfg.SchedulingHandler != nil {
			api.Post("/schedule", cfg.SchedulingHandler.Schedule)
			api.Post("/schedule/confirm", cfg.SchedulingHandler.Confirm)
		}
	})

	if dir := strings.TrimSpace(cfg.StaticDir); dir != "" {
		r.Handle("/*", staticFiles(dir))
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// staticFiles serves dir, falling back to index.html for unknown paths so
// client-side routes resolve.
func staticFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := filepath.Clean("/" + r.URL.Path)
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err != nil {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	})
}
