package recompute

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRecomputeTotal      = "rank_recompute_total"
	MetricRecomputeErrors     = "rank_recompute_errors_total"
	MetricRecomputeRetries    = "rank_recompute_retries_total"
	MetricRecomputeDuration   = "rank_recompute_duration_seconds"
	MetricDirtyCandidates     = "rank_dirty_candidates"
	MetricDirtyLag            = "rank_dirty_lag_seconds"
	MetricStaleScores         = "rank_stale_scores_total"
	MetricActiveWeightVersion = "rank_active_weight_version"
	MetricSweepEnqueued       = "rank_sweep_enqueued_total"
	MetricPoolSize            = "rank_pool_size"
	MetricPoolLastRefresh     = "rank_pool_last_refresh_timestamp"
)

// Metrics contains Prometheus metrics for score recomputation.
// All operations are thread-safe.
type Metrics struct {
	recomputeTotal      prometheus.Counter
	recomputeErrors     prometheus.Counter
	recomputeRetries    prometheus.Counter
	recomputeDuration   prometheus.Histogram
	dirtyCandidates     prometheus.Gauge
	dirtyLag            prometheus.Gauge
	staleScores         prometheus.Counter
	activeWeightVersion prometheus.Gauge
	sweepEnqueued       prometheus.Counter
	poolSize            prometheus.Gauge
	poolLastRefresh     prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		recomputeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecomputeTotal,
			Help: "Total number of successful candidate score recomputations",
		}),
		recomputeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecomputeErrors,
			Help: "Total number of failed candidate score recomputations",
		}),
		recomputeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecomputeRetries,
			Help: "Total number of recompute retries scheduled",
		}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRecomputeDuration,
			Help:    "Histogram of single-candidate recompute duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		dirtyCandidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricDirtyCandidates,
			Help: "Number of candidates awaiting recompute in this process",
		}),
		dirtyLag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricDirtyLag,
			Help: "Age in seconds of the oldest change still awaiting recompute in this process",
		}),
		staleScores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricStaleScores,
			Help: "Total number of recomputes that finished after the staleness SLA",
		}),
		activeWeightVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricActiveWeightVersion,
			Help: "Version of the active weight set",
		}),
		sweepEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSweepEnqueued,
			Help: "Total number of candidates enqueued by sweeps",
		}),
		poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricPoolSize,
			Help: "Number of scored candidates in the last pool snapshot",
		}),
		poolLastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricPoolLastRefresh,
			Help: "Unix timestamp of the last pool position refresh",
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRecomputeTotal increments the recompute total counter.
func (m *Metrics) IncRecomputeTotal() {
	m.recomputeTotal.Inc()
}

// IncRecomputeErrors increments the recompute errors counter.
func (m *Metrics) IncRecomputeErrors() {
	m.recomputeErrors.Inc()
}

// IncRecomputeRetries increments the retry counter.
func (m *Metrics) IncRecomputeRetries() {
	m.recomputeRetries.Inc()
}

// ObserveRecomputeDuration records a recompute duration sample.
func (m *Metrics) ObserveRecomputeDuration(seconds float64) {
	m.recomputeDuration.Observe(seconds)
}

// SetDirtyCandidates sets the dirty candidate gauge.
func (m *Metrics) SetDirtyCandidates(n int) {
	m.dirtyCandidates.Set(float64(n))
}

// SetDirtyLag sets the oldest pending change age gauge.
func (m *Metrics) SetDirtyLag(seconds float64) {
	m.dirtyLag.Set(seconds)
}

// IncStaleScores increments the stale score counter.
func (m *Metrics) IncStaleScores() {
	m.staleScores.Inc()
}

// SetActiveWeightVersion sets the active weight version gauge.
func (m *Metrics) SetActiveWeightVersion(version int64) {
	m.activeWeightVersion.Set(float64(version))
}

// AddSweepEnqueued adds to the sweep enqueue counter.
func (m *Metrics) AddSweepEnqueued(n int) {
	m.sweepEnqueued.Add(float64(n))
}

// SetPoolSize sets the pool size gauge.
func (m *Metrics) SetPoolSize(n int) {
	m.poolSize.Set(float64(n))
}

// SetPoolLastRefresh sets the last pool refresh timestamp gauge.
func (m *Metrics) SetPoolLastRefresh(timestamp float64) {
	m.poolLastRefresh.Set(timestamp)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.recomputeTotal,
		m.recomputeErrors,
		m.recomputeRetries,
		m.recomputeDuration,
		m.dirtyCandidates,
		m.dirtyLag,
		m.staleScores,
		m.activeWeightVersion,
		m.sweepEnqueued,
		m.poolSize,
		m.poolLastRefresh,
	}
}
