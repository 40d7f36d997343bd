package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the walkthrough, scheduling
// and chat flows.
type LeadMetrics struct {
	extractionsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	upstreamTotal      *prometheus.CounterVec
	upstreamLatency    *prometheus.HistogramVec
	rateLimitTotal     *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		extractionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbridge",
			Subsystem: "walkthrough",
			Name:      "extractions_total",
			Help:      "Lead reports produced, by extraction source",
		}, []string{"source"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbridge",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Lead notification email attempts",
		}, []string{"recipient", "status"}),
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbridge",
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Outbound calls to external providers",
		}, []string{"dependency", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadbridge",
			Subsystem: "upstream",
			Name:      "call_latency_seconds",
			Help:      "Latency of outbound calls to external providers",
			Buckets:   prometheus.DefBuckets,
		}, []string{"dependency"}),
		rateLimitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbridge",
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Rate limiter decisions",
		}, []string{"route", "decision"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.extractionsTotal, m.notificationsTotal, m.upstreamTotal, m.upstreamLatency, m.rateLimitTotal)
	return m
}

func (m *LeadMetrics) ObserveExtraction(source string) {
	if m == nil {
		return
	}
	m.extractionsTotal.WithLabelValues(source).Inc()
}

func (m *LeadMetrics) ObserveNotification(recipient string, err error, skipped bool) {
	if m == nil {
		return
	}
	status := "sent"
	switch {
	case skipped:
		status = "skipped"
	case err != nil:
		status = "failed"
	}
	m.notificationsTotal.WithLabelValues(recipient, status).Inc()
}

func (m *LeadMetrics) ObserveUpstream(dependency string, err error, seconds float64) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamTotal.WithLabelValues(dependency, outcome).Inc()
	m.upstreamLatency.WithLabelValues(dependency).Observe(seconds)
}

func (m *LeadMetrics) ObserveRateLimit(route string, allowed bool) {
	if m == nil {
		return
	}
	decision := "allowed"
	if !allowed {
		decision = "denied"
	}
	m.rateLimitTotal.WithLabelValues(route, decision).Inc()
}
