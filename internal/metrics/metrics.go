// Package metrics exposes Prometheus collectors for profile resolution.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/espalier/internal/resolve"
	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// Metrics groups the resolver collectors. A nil *Metrics records nothing.
type Metrics struct {
	resolutions      *prometheus.CounterVec
	duration         prometheus.Histogram
	promotedControls prometheus.Counter
	promotedParams   prometheus.Counter
	cacheLookups     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_resolutions_total",
				Help: "Total number of profile resolutions by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "espalier_resolution_duration_seconds",
			Help:    "Duration of profile resolutions",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		promotedControls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "espalier_promoted_controls_total",
			Help: "Controls re-parented because their parent was not selected",
		}),
		promotedParams: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "espalier_promoted_params_total",
			Help: "Required parameters moved out of dropped controls and groups",
		}),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_cache_lookups_total",
				Help: "Resolved catalog cache lookups by result",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{m.resolutions, m.duration, m.promotedControls, m.promotedParams, m.cacheLookups} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveResolution records one resolution. Stats are only counted on success.
func (m *Metrics) ObserveResolution(d time.Duration, stats resolve.Stats, err error) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
	switch {
	case err == nil:
		m.resolutions.WithLabelValues(OutcomeSuccess).Inc()
		m.promotedControls.Add(float64(stats.PromotedControls))
		m.promotedParams.Add(float64(stats.PromotedParams))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		m.resolutions.WithLabelValues(OutcomeCanceled).Inc()
	default:
		m.resolutions.WithLabelValues(OutcomeError).Inc()
	}
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
