package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for NOTAM extraction.
type Metrics struct {
	TextsParsed     prometheus.Counter
	EmptyResults    prometheus.Counter
	ShapesExtracted *prometheus.CounterVec // labels: kind={circle,polygon}
	Diagnostics     *prometheus.CounterVec // labels: class={malformed_coordinate,unsupported_unit,invalid_radius,other}
	ParseDuration   prometheus.Histogram

	// Outer shells.
	ArchiveWrites *prometheus.CounterVec // labels: backend, outcome={success,error}
	BusMessages   *prometheus.CounterVec // labels: direction={in,out}, outcome={success,error}
}

// NewMetrics creates and registers all extraction metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.TextsParsed,
		m.EmptyResults,
		m.ShapesExtracted,
		m.Diagnostics,
		m.ParseDuration,
		m.ArchiveWrites,
		m.BusMessages,
	)

	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TextsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notam_mapper",
			Name:      "texts_parsed_total",
			Help:      "Total NOTAM texts run through the extractor.",
		}),
		EmptyResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notam_mapper",
			Name:      "empty_results_total",
			Help:      "Texts in which no shape was found.",
		}),
		ShapesExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notam_mapper",
			Name:      "shapes_extracted_total",
			Help:      "Shapes extracted by kind.",
		}, []string{"kind"}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notam_mapper",
			Name:      "diagnostics_total",
			Help:      "Shape occurrences skipped, by error class.",
		}, []string{"class"}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "notam_mapper",
			Name:      "parse_duration_seconds",
			Help:      "Duration of one extraction.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		ArchiveWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notam_mapper",
			Name:      "archive_writes_total",
			Help:      "Archive writes by backend and outcome.",
		}, []string{"backend", "outcome"}),
		BusMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notam_mapper",
			Name:      "bus_messages_total",
			Help:      "NATS messages by direction and outcome.",
		}, []string{"direction", "outcome"}),
	}
}
