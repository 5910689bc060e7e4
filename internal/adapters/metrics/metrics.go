// Package metrics exports crawl outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements usecases.Recorder on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	CrawlsTotal       *prometheus.CounterVec
	CrawlDuration     prometheus.Histogram
	PostsCollected    prometheus.Counter
	CommentsCollected prometheus.Counter
	ThreadFailures    prometheus.Counter
	RateLimited       prometheus.Counter
}

// New registers the crawler metrics plus the Go and process collectors on
// a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CrawlsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forumintel_crawls_total",
			Help: "Crawls finished, by outcome code (OK or an error code)",
		}, []string{"code"}),
		CrawlDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "forumintel_crawl_duration_seconds",
			Help:    "Wall time of a crawl from session open to close",
			Buckets: []float64{5, 10, 30, 60, 120, 300, 600},
		}),
		PostsCollected: factory.NewCounter(prometheus.CounterOpts{
			Name: "forumintel_posts_collected_total",
			Help: "Posts returned by successful crawls",
		}),
		CommentsCollected: factory.NewCounter(prometheus.CounterOpts{
			Name: "forumintel_comments_collected_total",
			Help: "Comments returned by successful crawls",
		}),
		ThreadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "forumintel_thread_failures_total",
			Help: "Threads whose comment collection stopped early",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "forumintel_rate_limited_total",
			Help: "Requests rejected by the per-client rate limit",
		}),
	}
}

// CrawlFinished records one crawl outcome.
func (m *Metrics) CrawlFinished(code string, elapsed time.Duration, posts, comments int) {
	m.CrawlsTotal.WithLabelValues(code).Inc()
	m.CrawlDuration.Observe(elapsed.Seconds())
	m.PostsCollected.Add(float64(posts))
	m.CommentsCollected.Add(float64(comments))
}

// ThreadFailed records a thread whose comments were only partly collected.
func (m *Metrics) ThreadFailed() {
	m.ThreadFailures.Inc()
}

// Throttled records a request rejected by the rate limiter.
func (m *Metrics) Throttled() {
	m.RateLimited.Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
