// Package metrics records orchestrator calls for Prometheus.
package metrics

import (
	"time"

	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "console"
	subsystem = "auth"
)

// Recorder counts calls, errors and durations per operation. A nil Recorder
// records nothing.
type Recorder struct {
	reqs *prometheus.CounterVec
	errs *prometheus.CounterVec
	durs *prometheus.HistogramVec
}

// New builds a recorder and registers it with reg.
func New(reg prometheus.Registerer) *Recorder {
	reqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "call_total",
		Help:      "Number of auth orchestrator calls",
	}, []string{"method"})

	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "error_total",
		Help:      "Number of failed auth orchestrator calls",
	}, []string{"method", "kind"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "duration_seconds",
		Help:      "Duration of auth orchestrator calls",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	reg.MustRegister(reqs, errs, durs)
	return &Recorder{reqs: reqs, errs: errs, durs: durs}
}

// Start begins timing method; the returned func records the outcome.
func (r *Recorder) Start(method string) func(error) {
	if r == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		r.reqs.With(prometheus.Labels{"method": method}).Inc()
		if err != nil {
			r.errs.With(prometheus.Labels{"method": method, "kind": Kind(err)}).Inc()
		}
		r.durs.With(prometheus.Labels{"method": method}).Observe(time.Since(start).Seconds())
	}
}

// Kind classifies err for the error counter.
func Kind(err error) string {
	var cf *apperrors.CompensationFailure
	switch {
	case apperrors.As(err, &cf):
		return "compensation"
	case apperrors.IsConfigurationError(err):
		return "configuration"
	case apperrors.IsTransportError(err):
		return "transport"
	case apperrors.IsAuthError(err):
		return "auth"
	}
	return "unknown"
}
