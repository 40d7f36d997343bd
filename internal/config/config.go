package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	StaticDir          string
	CORSAllowedOrigins []string
	UpstreamTimeout    time.Duration

	// AI completion provider
	LLMProvider   string
	GeminiAPIKey  string
	GeminiModelID string

	// AWS (Bedrock completions, SES email)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	BedrockModelID      string

	// Calendly
	CalendlyAPIToken string
	CalendlyBaseURL  string

	// Email
	EmailProvider    string
	SendGridAPIKey   string
	EmailFromAddress string
	EmailFromName    string
	OwnerNotifyEmail string

	// Chat throttling
	ChatRateLimit          int
	ChatRateWindow         time.Duration
	RateLimitStore         string
	RateLimitSweepInterval time.Duration
	RedisAddr              string
	RedisPassword          string
	RedisTLS               bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		StaticDir:          getEnv("STATIC_DIR", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		UpstreamTimeout:    getEnvAsDuration("UPSTREAM_TIMEOUT", 20*time.Second),

		LLMProvider:   strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "auto"))),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),

		CalendlyAPIToken: getEnv("CALENDLY_API_TOKEN", ""),
		CalendlyBaseURL:  getEnv("CALENDLY_BASE_URL", "https://api.calendly.com"),

		EmailProvider:    strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Leadbridge"),
		OwnerNotifyEmail: getEnv("OWNER_NOTIFY_EMAIL", ""),

		ChatRateLimit:          getEnvAsInt("CHAT_RATE_LIMIT", 20),
		ChatRateWindow:         getEnvAsDuration("CHAT_RATE_WINDOW", time.Minute),
		RateLimitStore:         strings.ToLower(strings.TrimSpace(getEnv("RATE_LIMIT_STORE", "memory"))),
		RateLimitSweepInterval: getEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisTLS:               getEnvAsBool("REDIS_TLS", false),
	}
}

// LLMBackend resolves LLM_PROVIDER against the configured credentials and
// returns "gemini" or "bedrock", or "" when no provider can run. In auto mode
// Gemini wins when both are set. Unknown provider names are returned as is.
func (c *Config) LLMBackend() string {
	hasGemini := strings.TrimSpace(c.GeminiAPIKey) != ""
	hasBedrock := strings.TrimSpace(c.BedrockModelID) != ""
	switch c.LLMProvider {
	case "", "auto":
		switch {
		case hasGemini:
			return "gemini"
		case hasBedrock:
			return "bedrock"
		}
		return ""
	case "gemini":
		if hasGemini {
			return "gemini"
		}
		return ""
	case "bedrock":
		if hasBedrock {
			return "bedrock"
		}
		return ""
	default:
		return c.LLMProvider
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
