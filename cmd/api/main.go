package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/leadbridge/cmd/mainconfig"
	"github.com/wolfman30/leadbridge/internal/api/router"
	"github.com/wolfman30/leadbridge/internal/app/bootstrap"
	appconfig "github.com/wolfman30/leadbridge/internal/config"
	"github.com/wolfman30/leadbridge/internal/conversation"
	"github.com/wolfman30/leadbridge/internal/notify"
	"github.com/wolfman30/leadbridge/internal/observability/metrics"
	"github.com/wolfman30/leadbridge/internal/scheduling"
	"github.com/wolfman30/leadbridge/internal/walkthrough"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

func main() {
	// A local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadbridge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	metricsHandler, leadMetrics := setupMetrics()

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
		} else {
			awsCfg = &loaded
		}
	}

	llm, err := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, leadMetrics, logger)
	if err != nil {
		logger.Error("failed to build llm client", "error", err)
		os.Exit(1)
	}
	if closer, ok := llm.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Warn("failed to close llm client", "error", err)
			}
		}()
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	chatLimiter := bootstrap.BuildChatLimiter(ctx, cfg, redisClient, logger)

	dispatcher := notify.NewLeadDispatcher(
		bootstrap.BuildEmailSender(cfg, awsCfg, leadMetrics, logger),
		notify.DispatcherConfig{OwnerEmail: cfg.OwnerNotifyEmail, SendTimeout: cfg.UpstreamTimeout},
		leadMetrics,
		logger,
	)
	broker, confirmer := bootstrap.BuildScheduling(cfg, leadMetrics, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        conversation.NewHandler(conversation.NewChatService(llm, logger), logger),
		WalkthroughHandler: walkthrough.NewHandler(walkthrough.NewExtractor(llm, leadMetrics, logger), dispatcher, logger),
		SchedulingHandler:  scheduling.NewHandler(broker, confirmer, logger),
		ChatLimiter:        chatLimiter,
		Metrics:            leadMetrics,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		StaticDir:          cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: serverWriteTimeout(cfg.UpstreamTimeout),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// maxSequentialUpstreamCalls is the longest chain of bounded upstream calls
// one request makes: extraction plus owner and user emails on
// /api/walkthrough, and identity, event types and availability on
// /api/schedule.
const maxSequentialUpstreamCalls = 3

// serverWriteTimeout leaves room for the longest upstream chain so a slow
// provider still gets its response written.
func serverWriteTimeout(upstream time.Duration) time.Duration {
	if upstream <= 0 {
		upstream = 20 * time.Second
	}
	return maxSequentialUpstreamCalls*upstream + 15*time.Second
}

// setupMetrics creates a private registry with the lead metrics and the Go
// runtime collectors, and the handler that exposes it.
func setupMetrics() (http.Handler, *metrics.LeadMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	leadMetrics := metrics.NewLeadMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), leadMetrics
}
