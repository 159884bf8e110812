package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure operation labels.
const (
	OpDelete  = "delete_note"
	OpComment = "create_comment"
	OpContent = "fetch_content"
	OpAnalyze = "analyze"
)

// Dropped finding reasons.
const (
	DropIneligible   = "ineligible_line"
	DropEmptyMessage = "empty_message"
	DropMalformed    = "malformed_output"
)

// Metrics collects per-pass counters on a private registry.
//
// Exposed (namespace "mreview"):
//
//	files_reviewed_total            counter
//	comments_published_total        counter
//	comments_deleted_total          counter
//	failures_total{op}              counter
//	findings_dropped_total{reason}  counter
//	advisory_seconds{status}        histogram
//
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	filesReviewed     prometheus.Counter
	commentsPublished prometheus.Counter
	commentsDeleted   prometheus.Counter
	failures          *prometheus.CounterVec
	findingsDropped   *prometheus.CounterVec
	advisory          *prometheus.HistogramVec
}

// New registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		filesReviewed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mreview",
			Name:      "files_reviewed_total",
			Help:      "Changed files that passed selection and were considered for review",
		}),
		commentsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mreview",
			Name:      "comments_published_total",
			Help:      "Positioned comments created successfully",
		}),
		commentsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mreview",
			Name:      "comments_deleted_total",
			Help:      "Stale automated comments deleted successfully",
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mreview",
			Name:      "failures_total",
			Help:      "Best-effort store operations that failed",
		}, []string{"op"}),
		findingsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mreview",
			Name:      "findings_dropped_total",
			Help:      "Advisory findings discarded before publication",
		}, []string{"reason"}),
		advisory: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mreview",
			Name:      "advisory_seconds",
			Help:      "Duration of advisory analyze calls",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"status"}), // status: ok, malformed, error
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) FileReviewed() {
	if m == nil {
		return
	}
	m.filesReviewed.Inc()
}

func (m *Metrics) CommentPublished() {
	if m == nil {
		return
	}
	m.commentsPublished.Inc()
}

func (m *Metrics) CommentDeleted() {
	if m == nil {
		return
	}
	m.commentsDeleted.Inc()
}

// Failure counts a failed operation; op is one of the Op constants.
func (m *Metrics) Failure(op string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op).Inc()
}

// FindingsDropped adds n dropped findings for reason.
func (m *Metrics) FindingsDropped(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.findingsDropped.WithLabelValues(reason).Add(float64(n))
}

// ObserveAdvisory records how long one analyze call took.
func (m *Metrics) ObserveAdvisory(d time.Duration, status string) {
	if m == nil {
		return
	}
	m.advisory.WithLabelValues(status).Observe(d.Seconds())
}

// WriteTextfile writes the current values in the text exposition format,
// suitable for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
