// Package metrics exposes Prometheus counters for engine computations.
package metrics

import (
	"net/http"
	"time"

	"abkit/domain/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation labels.
const (
	OpSampleSizeMeans       = "sample_size_means"
	OpSampleSizeProportions = "sample_size_proportions"
	OpCompareMeans          = "compare_means"
	OpCompareProportions    = "compare_proportions"
	OpEvaluate              = "evaluate"
)

// Result labels.
const (
	ResultOK            = "ok"
	ResultInvalidInput  = "invalid_input"
	ResultNumericDomain = "numeric_domain"
	ResultError         = "error"
)

var (
	// computationsTotal counts computations by operation and result
	computationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abkit_computations_total",
		Help: "Total statistical computations by operation and result",
	}, []string{"operation", "result"})

	// computationDuration tracks computation latency
	computationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "abkit_computation_duration_seconds",
		Help:    "Statistical computation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"operation"})

	// batchSize tracks experiments per batch request
	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "abkit_batch_experiments",
		Help:    "Number of experiments per batch evaluation",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
	})
)

// ResultLabel classifies err for the result label.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case core.IsInvalidInput(err):
		return ResultInvalidInput
	case core.IsNumericDomain(err):
		return ResultNumericDomain
	default:
		return ResultError
	}
}

// Observe records one computation that began at start.
func Observe(operation string, start time.Time, err error) {
	computationsTotal.WithLabelValues(operation, ResultLabel(err)).Inc()
	computationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveBatch records the size of a batch.
func ObserveBatch(n int) {
	batchSize.Observe(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
