package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records the health of the quoting pipeline: cache
// effectiveness, remote latency, and token churn.
type PipelineMetrics struct {
	quoteCacheHits   prometheus.Counter
	quoteCacheMisses prometheus.Counter
	remoteDuration   *prometheus.HistogramVec
	tokenRefreshes   prometheus.Counter
	rateLines        prometheus.Counter
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_cache_hits_total",
		Help: "Quote responses served from the package-hash cache.",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_cache_misses_total",
		Help: "Quote requests that required a remote call.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_request_duration_seconds",
		Help:    "Duration of calls to the remote quoting service.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	refreshes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "access_token_refreshes_total",
		Help: "Credential exchanges performed to mint a bearer token.",
	})
	rateLines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_lines_total",
		Help: "Rate lines handed back to the host checkout.",
	})
	reg.MustRegister(hits, misses, duration, refreshes, rateLines)
	return &PipelineMetrics{
		quoteCacheHits:   hits,
		quoteCacheMisses: misses,
		remoteDuration:   duration,
		tokenRefreshes:   refreshes,
		rateLines:        rateLines,
	}
}

// IncQuoteCacheHit increments the cache hit counter.
func (p *PipelineMetrics) IncQuoteCacheHit() {
	if p == nil || p.quoteCacheHits == nil {
		return
	}
	p.quoteCacheHits.Inc()
}

// IncQuoteCacheMiss increments the cache miss counter.
func (p *PipelineMetrics) IncQuoteCacheMiss() {
	if p == nil || p.quoteCacheMisses == nil {
		return
	}
	p.quoteCacheMisses.Inc()
}

// ObserveRemoteDuration records the latency of a remote operation.
func (p *PipelineMetrics) ObserveRemoteDuration(operation string, duration time.Duration) {
	if p == nil || p.remoteDuration == nil {
		return
	}
	p.remoteDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncTokenRefresh increments the credential-exchange counter.
func (p *PipelineMetrics) IncTokenRefresh() {
	if p == nil || p.tokenRefreshes == nil {
		return
	}
	p.tokenRefreshes.Inc()
}

// AddRateLines counts rate lines returned to the checkout.
func (p *PipelineMetrics) AddRateLines(n int) {
	if p == nil || p.rateLines == nil || n <= 0 {
		return
	}
	p.rateLines.Add(float64(n))
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
