package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "subtrackr"

// PrometheusRecorder exposes Recorder events as Prometheus collectors.
type PrometheusRecorder struct {
	scanRuns     *prometheus.CounterVec
	scanOutcomes *prometheus.CounterVec
	scanDuration prometheus.Histogram
	emailSends   *prometheus.CounterVec
	summaryCache *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	recordWrites *prometheus.CounterVec
}

// MustNewPrometheus registers the collectors with reg and panics on any
// registration error other than a matching collector already being present.
// Tests should pass a fresh prometheus.NewRegistry().
func MustNewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &PrometheusRecorder{
		scanRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Notification scans by result.",
		}, []string{"result"}),
		scanOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "user_outcomes_total",
			Help:      "Per-user notification scan outcomes.",
		}, []string{"status"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Wall time of a notification scan.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		emailSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "sends_total",
			Help:      "Reminder email send attempts.",
		}, []string{"status"}),
		summaryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "summary_cache_total",
			Help:      "Dashboard summary cache lookups.",
		}, []string{"result"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "skipped_records_total",
			Help:      "Subscriptions left out of a computation because they could not be scheduled.",
		}, []string{"reason"}),
		recordWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_writes_total",
			Help:      "Create, update and delete operations by record kind.",
		}, []string{"kind", "op"}),
	}

	r.scanRuns = mustRegister(reg, r.scanRuns)
	r.scanOutcomes = mustRegister(reg, r.scanOutcomes)
	r.scanDuration = mustRegister(reg, r.scanDuration)
	r.emailSends = mustRegister(reg, r.emailSends)
	r.summaryCache = mustRegister(reg, r.summaryCache)
	r.skipped = mustRegister(reg, r.skipped)
	r.recordWrites = mustRegister(reg, r.recordWrites)

	return r
}

// mustRegister registers c, reusing an identical collector that is already
// registered.
func mustRegister[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (p *PrometheusRecorder) IncScanRun(result string) {
	p.scanRuns.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncScanOutcome(status string) {
	p.scanOutcomes.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) ObserveScanDuration(duration time.Duration) {
	p.scanDuration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncEmailSend(status string) {
	p.emailSends.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncSummaryCacheHit() {
	p.summaryCache.WithLabelValues("hit").Inc()
}

func (p *PrometheusRecorder) IncSummaryCacheMiss() {
	p.summaryCache.WithLabelValues("miss").Inc()
}

func (p *PrometheusRecorder) IncSkippedRecord(reason string) {
	p.skipped.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) IncRecordWrite(kind, op string) {
	p.recordWrites.WithLabelValues(kind, op).Inc()
}
