// Package instrument records driver operations as Prometheus metrics.
package instrument

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by every instrumented driver of a registry.
type Metrics struct {
	Operations *prometheus.CounterVec
	Errors     *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Bytes      *prometheus.CounterVec
}

// NewMetrics registers the driver collectors with r. Registering twice with the
// same registry returns the collectors that are already registered.
func NewMetrics(r prometheus.Registerer) (*Metrics, error) {
	var err error
	m := &Metrics{}

	m.Operations, err = register(r, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvfs_backend_operations_total",
			Help: "Total number of backend driver operations",
		},
		[]string{"backend", "operation"},
	))
	if err != nil {
		return nil, err
	}

	m.Errors, err = register(r, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvfs_backend_errors_total",
			Help: "Total number of failed backend driver operations",
		},
		[]string{"backend", "operation"},
	))
	if err != nil {
		return nil, err
	}

	m.Duration, err = register(r, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uvfs_backend_operation_duration_seconds",
			Help:    "Backend driver operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"backend", "operation"},
	))
	if err != nil {
		return nil, err
	}

	m.Bytes, err = register(r, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvfs_backend_bytes_total",
			Help: "Total number of bytes read from or written to backends",
		},
		[]string{"backend", "direction"},
	))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func register[T prometheus.Collector](r prometheus.Registerer, c T) (T, error) {
	if err := r.Register(c); err != nil {
		var registered prometheus.AlreadyRegisteredError
		if errors.As(err, &registered) {
			if existing, ok := registered.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}

	return c, nil
}
