package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formgate"

// Store modes reported by the counter store gauge.
const (
	StoreModeDistributed = "distributed"
	StoreModeLocal       = "local"
)

// Recorder holds the Prometheus collectors for rate limiting, quotas and webhooks.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	rateLimitChecks   *prometheus.CounterVec
	rateLimitFailOpen *prometheus.CounterVec
	rateLimitDuration *prometheus.HistogramVec
	storeMode         *prometheus.GaugeVec

	quotaDenials *prometheus.CounterVec

	webhookEvents *prometheus.CounterVec
}

// New registers collectors on a fresh registry that also carries the Go runtime and
// process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		rateLimitChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_checks_total",
				Help:      "Total number of rate limit checks performed",
			},
			[]string{"resource", "tier", "result"},
		),
		rateLimitFailOpen: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_fail_open_total",
				Help:      "Rate limit checks allowed because the counter store failed",
			},
			[]string{"resource"},
		),
		rateLimitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ratelimit_check_duration_seconds",
				Help:      "Counter store round trip latency",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"resource"},
		),
		storeMode: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ratelimit_store_mode",
				Help:      "1 for the counter store mode currently in use",
			},
			[]string{"mode"},
		),
		quotaDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_denials_total",
				Help:      "Writes rejected by quota checks",
			},
			[]string{"resource", "tier"},
		),
		webhookEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Webhook deliveries by event kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
	}
}

func (r *Recorder) RateLimitCheck(resource, tier string, allowed bool, took time.Duration) {
	if r == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	r.rateLimitChecks.WithLabelValues(resource, tier, result).Inc()
	r.rateLimitDuration.WithLabelValues(resource).Observe(took.Seconds())
}

func (r *Recorder) RateLimitFailOpen(resource string) {
	if r == nil {
		return
	}
	r.rateLimitFailOpen.WithLabelValues(resource).Inc()
}

// StoreMode flags mode as active and clears the other one.
func (r *Recorder) StoreMode(mode string) {
	if r == nil {
		return
	}
	for _, m := range []string{StoreModeDistributed, StoreModeLocal} {
		v := 0.0
		if m == mode {
			v = 1
		}
		r.storeMode.WithLabelValues(m).Set(v)
	}
}

func (r *Recorder) QuotaDenied(resource, tier string) {
	if r == nil {
		return
	}
	r.quotaDenials.WithLabelValues(resource, tier).Inc()
}

// WebhookEvent counts a delivery. Outcomes: processed, duplicate, ignored, failed, rejected.
func (r *Recorder) WebhookEvent(kind, outcome string) {
	if r == nil {
		return
	}
	r.webhookEvents.WithLabelValues(kind, outcome).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
