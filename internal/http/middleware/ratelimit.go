package middleware

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/leadbridge/internal/apperrors"
	"github.com/wolfman30/leadbridge/internal/observability/metrics"
	"github.com/wolfman30/leadbridge/internal/ratelimit"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

// ClientIdentifier picks the rate-limit bucket for r: the first
// X-Forwarded-For hop, then the peer host, then "unknown". The header is
// client-controlled, so this only mitigates abuse.
func ClientIdentifier(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	return "unknown"
}

// RateLimit rejects requests over the limiter's budget with 429 and an
// {"error": ...} body.
func RateLimit(limiter *ratelimit.Limiter, route string, m *metrics.LeadMetrics, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ClientIdentifier(r)
			decision, err := limiter.Check(r.Context(), id)
			m.ObserveRateLimit(route, err == nil)
			if err != nil {
				if errors.Is(err, ratelimit.ErrLimitExceeded) {
					logger.Warn("rate limit exceeded", "route", route, "identifier", id, "count", decision.Count)
					if !decision.ResetAt.IsZero() {
						w.Header().Set("Retry-After", retryAfter(decision.ResetAt))
					}
				}
				apperrors.WriteJSON(w, apperrors.RateLimited(route, err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(resetAt time.Time) string {
	secs := int(time.Until(resetAt).Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
