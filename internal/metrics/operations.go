package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edvin/valet/internal/phpfpm"
)

// Result label values.
const (
	ResultSuccess           = "success"
	ResultError             = "error"
	ResultConfigDirNotFound = "config_dir_not_found"
	ResultServiceNotFound   = "service_not_found"
)

// Operations records the outcome and duration of configurator operations in
// a private registry, so a one-shot CLI run can dump them to a textfile for
// node_exporter.
type Operations struct {
	registry *prometheus.Registry
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	last     *prometheus.GaugeVec
}

// NewOperations creates a recorder with its own registry.
func NewOperations() *Operations {
	o := &Operations{
		registry: prometheus.NewRegistry(),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valet_fpm_operations_total",
			Help: "PHP-FPM configurator operations by outcome",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "valet_fpm_operation_duration_seconds",
			Help:    "Wall time of PHP-FPM configurator operations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
		last: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "valet_fpm_last_run_timestamp_seconds",
			Help: "Unix time the operation last finished",
		}, []string{"operation"}),
	}
	o.registry.MustRegister(o.total, o.duration, o.last)
	return o
}

// Observe records one finished operation.
func (o *Operations) Observe(operation string, started time.Time, err error) {
	o.total.WithLabelValues(operation, Classify(err)).Inc()
	o.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	o.last.WithLabelValues(operation).SetToCurrentTime()
}

// Gatherer exposes the registry.
func (o *Operations) Gatherer() prometheus.Gatherer {
	return o.registry
}

// WriteTextfile atomically writes all metrics to path in the Prometheus text
// exposition format.
func (o *Operations) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, o.registry)
}

// Classify maps an operation error onto a result label.
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, phpfpm.ErrConfigDirectoryNotFound):
		return ResultConfigDirNotFound
	case errors.Is(err, phpfpm.ErrServiceNotFound):
		return ResultServiceNotFound
	default:
		return ResultError
	}
}
