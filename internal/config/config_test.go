package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "LLM_PROVIDER", "GEMINI_API_KEY", "BEDROCK_MODEL_ID", "CHAT_RATE_LIMIT", "CHAT_RATE_WINDOW", "UPSTREAM_TIMEOUT", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_STORE"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.LLMProvider != "auto" {
		t.Fatalf("expected auto llm provider, got %s", cfg.LLMProvider)
	}
	if cfg.ChatRateLimit != 20 {
		t.Fatalf("expected chat rate limit 20, got %d", cfg.ChatRateLimit)
	}
	if cfg.ChatRateWindow != time.Minute {
		t.Fatalf("expected chat window 1m, got %s", cfg.ChatRateWindow)
	}
	if cfg.UpstreamTimeout != 20*time.Second {
		t.Fatalf("expected upstream timeout 20s, got %s", cfg.UpstreamTimeout)
	}
	if cfg.RateLimitStore != "memory" {
		t.Fatalf("expected memory store, got %s", cfg.RateLimitStore)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if got := cfg.LLMBackend(); got != "" {
		t.Fatalf("expected no LLM backend by default, got %q", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LLM_PROVIDER", " Bedrock ")
	t.Setenv("BEDROCK_MODEL_ID", "anthropic.claude")
	t.Setenv("CHAT_RATE_LIMIT", "5")
	t.Setenv("CHAT_RATE_WINDOW", "30s")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.LLMProvider != "bedrock" {
		t.Fatalf("expected normalized provider, got %q", cfg.LLMProvider)
	}
	if got := cfg.LLMBackend(); got != "bedrock" {
		t.Fatalf("expected bedrock backend, got %q", got)
	}
	if cfg.ChatRateLimit != 5 || cfg.ChatRateWindow != 30*time.Second {
		t.Fatalf("unexpected chat limits: %d/%s", cfg.ChatRateLimit, cfg.ChatRateWindow)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis TLS enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CHAT_RATE_LIMIT", "lots")
	t.Setenv("UPSTREAM_TIMEOUT", "soon")
	cfg := Load()
	if cfg.ChatRateLimit != 20 {
		t.Fatalf("expected default limit on bad input, got %d", cfg.ChatRateLimit)
	}
	if cfg.UpstreamTimeout != 20*time.Second {
		t.Fatalf("expected default timeout on bad input, got %s", cfg.UpstreamTimeout)
	}
}

func TestLLMBackend(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"auto without credentials", Config{LLMProvider: "auto"}, ""},
		{"auto prefers gemini", Config{LLMProvider: "auto", GeminiAPIKey: "key", BedrockModelID: "model"}, "gemini"},
		{"auto falls back to bedrock", Config{LLMProvider: "auto", BedrockModelID: "model"}, "bedrock"},
		{"empty provider is auto", Config{GeminiAPIKey: "key"}, "gemini"},
		{"gemini without key", Config{LLMProvider: "gemini", BedrockModelID: "model"}, ""},
		{"gemini with key", Config{LLMProvider: "gemini", GeminiAPIKey: "key"}, "gemini"},
		{"bedrock without model", Config{LLMProvider: "bedrock", GeminiAPIKey: "key"}, ""},
		{"bedrock with model", Config{LLMProvider: "bedrock", BedrockModelID: "model"}, "bedrock"},
		{"unknown provider passes through", Config{LLMProvider: "openai"}, "openai"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.LLMBackend(); got != tt.want {
				t.Fatalf("LLMBackend() = %q, want %q", got, tt.want)
			}
		})
	}
}
