// Package metrics exposes Prometheus collectors for cache lookups, model
// calls and ask requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	Namespace string
	Registry  *prometheus.Registry
}

type Recorder struct {
	registry      *prometheus.Registry
	cacheLookups  *prometheus.CounterVec
	modelCalls    *prometheus.CounterVec
	modelLatency  *prometheus.HistogramVec
	askRequests   *prometheus.CounterVec
	askLatency    prometheus.Histogram
	uploads       *prometheus.CounterVec
	ingestResults *prometheus.CounterVec
}

func NewRecorder(cfg Config) *Recorder {
	if cfg.Namespace == "" {
		cfg.Namespace = "docqa"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	f := promauto.With(cfg.Registry)
	return &Recorder{
		registry: cfg.Registry,
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by table and result.",
		}, []string{"table", "result"}),
		modelCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "model_calls_total",
			Help:      "Model calls by provider and status.",
		}, []string{"provider", "status"}),
		modelLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Model call latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),
		askRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "ask_requests_total",
			Help:      "Ask requests by outcome.",
		}, []string{"status"}),
		askLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "ask_duration_seconds",
			Help:      "End to end ask latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "uploads_total",
			Help:      "Uploads by result.",
		}, []string{"result"}),
		ingestResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "ingest_total",
			Help:      "Document ingest runs by status.",
		}, []string{"status"}),
	}
}

func (r *Recorder) CacheLookup(table string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(table, result).Inc()
}

func (r *Recorder) ModelCall(provider, status string, d time.Duration) {
	if provider == "" {
		provider = "unknown"
	}
	r.modelCalls.WithLabelValues(provider, status).Inc()
	r.modelLatency.WithLabelValues(provider).Observe(d.Seconds())
}

func (r *Recorder) Ask(status string, d time.Duration) {
	r.askRequests.WithLabelValues(status).Inc()
	r.askLatency.Observe(d.Seconds())
}

func (r *Recorder) Upload(ok bool) {
	r.uploads.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

func (r *Recorder) Ingest(status string) {
	r.ingestResults.WithLabelValues(status).Inc()
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
