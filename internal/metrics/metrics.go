// Package metrics records enrichment run statistics as Prometheus metrics.
// Runs are short-lived, so metrics are exported to a node_exporter textfile
// rather than served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vibe_enrich"

// Recorder holds the metrics of one CLI run.
type Recorder struct {
	registry *prometheus.Registry

	propagation      prometheus.Histogram
	populationSize   prometheus.Gauge
	annotatedTerms   prometheus.Gauge
	queries          *prometheus.CounterVec
	testedTerms      prometheus.Counter
	significantTerms prometheus.Counter
	analysisDuration prometheus.Histogram
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		propagation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "propagation_seconds",
			Help:      "Time spent propagating background sets through the ontology.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		populationSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "background_population_size",
			Help:      "Distinct entries in the current background table.",
		}),
		annotatedTerms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "background_annotated_terms",
			Help:      "Ontology terms with a non-empty propagated background.",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries analyzed, by outcome.",
		}, []string{"outcome"}),
		testedTerms: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tested_terms_total",
			Help:      "Terms that passed the size and hit filters.",
		}),
		significantTerms: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "significant_terms_total",
			Help:      "Terms significant after multiple testing correction.",
		}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_seconds",
			Help:      "Time spent testing and correcting one query.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}

	r.registry.MustRegister(
		r.propagation,
		r.populationSize,
		r.annotatedTerms,
		r.queries,
		r.testedTerms,
		r.significantTerms,
		r.analysisDuration,
	)
	return r
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveBackground records a completed propagation.
func (r *Recorder) ObserveBackground(elapsed time.Duration, population, annotatedTerms int) {
	r.propagation.Observe(elapsed.Seconds())
	r.populationSize.Set(float64(population))
	r.annotatedTerms.Set(float64(annotatedTerms))
}

// ObserveAnalysis records a successful query analysis.
func (r *Recorder) ObserveAnalysis(elapsed time.Duration, tested, significant int) {
	r.queries.WithLabelValues("ok").Inc()
	r.testedTerms.Add(float64(tested))
	r.significantTerms.Add(float64(significant))
	r.analysisDuration.Observe(elapsed.Seconds())
}

// ObserveFailure records a query whose analysis failed.
func (r *Recorder) ObserveFailure() {
	r.queries.WithLabelValues("error").Inc()
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// atomically replacing any existing file.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
