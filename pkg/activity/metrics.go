package activity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for activity recording.
type Metrics struct {
	Recorded        *prometheus.CounterVec
	Vetoed          *prometheus.CounterVec
	Skipped         *prometheus.CounterVec
	ComposeFailures prometheus.Counter
	StorageFailures prometheus.Counter
	RecordDuration  prometheus.Histogram
}

// NewMetrics registers the recorder metrics on reg. A nil reg leaves them
// unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Recorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keeptrack_activity_recorded_total",
			Help: "Total number of activities persisted, by action",
		}, []string{"action"}),
		Vetoed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keeptrack_activity_vetoed_total",
			Help: "Total number of activities rejected by a hook, by action",
		}, []string{"action"}),
		Skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keeptrack_activity_skipped_total",
			Help: "Total number of record calls skipped because tracking was disabled, by type",
		}, []string{"type"}),
		ComposeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "keeptrack_activity_compose_failures_total",
			Help: "Total number of record calls that failed while composing settings",
		}),
		StorageFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "keeptrack_activity_storage_failures_total",
			Help: "Total number of activities the storage adapter failed to persist",
		}),
		RecordDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "keeptrack_activity_record_duration_seconds",
			Help:    "Time spent composing and persisting an activity",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) incRecorded(action string) {
	if m != nil {
		m.Recorded.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) incVetoed(action string) {
	if m != nil {
		m.Vetoed.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) incSkipped(typeName string) {
	if m != nil {
		m.Skipped.WithLabelValues(typeName).Inc()
	}
}

func (m *Metrics) incComposeFailures() {
	if m != nil {
		m.ComposeFailures.Inc()
	}
}

func (m *Metrics) incStorageFailures() {
	if m != nil {
		m.StorageFailures.Inc()
	}
}

func (m *Metrics) observeDuration(seconds float64) {
	if m != nil {
		m.RecordDuration.Observe(seconds)
	}
}
