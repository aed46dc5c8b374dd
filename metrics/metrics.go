// Package metrics exports specdoc analyze outcomes as Prometheus metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	specdoc "github.com/reoring/specdoc"
)

const namespace = "specdoc"

// Collector implements specdoc.Observer. Register it with a Registry through
// specdoc.WithObserver.
type Collector struct {
	analyses   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	violations *prometheus.CounterVec
}

var _ specdoc.Observer = (*Collector)(nil)

// NewCollector creates the metrics and registers them with reg. A metric that
// is already registered with an identical descriptor is reused.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyze_total",
			Help:      "Analyze calls by specification, version, final state and last stage.",
		}, []string{"spec", "version", "state", "stage"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyze_duration_seconds",
			Help:      "Analyze call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"spec"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_violations_total",
			Help:      "Rule violations by specification, version and rule.",
		}, []string{"spec", "version", "rule"}),
	}
	var err error
	if c.analyses, err = register(reg, c.analyses); err != nil {
		return nil, err
	}
	if c.duration, err = register(reg, c.duration); err != nil {
		return nil, err
	}
	if c.violations, err = register(reg, c.violations); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewCollector is NewCollector that panics on error.
func MustNewCollector(reg prometheus.Registerer) *Collector {
	c, err := NewCollector(reg)
	if err != nil {
		panic(err)
	}
	return c
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveAnalyze implements specdoc.Observer.
func (c *Collector) ObserveAnalyze(ev specdoc.AnalyzeEvent) {
	c.analyses.WithLabelValues(ev.Spec, ev.Version, ev.State.String(), ev.Stage.String()).Inc()
	c.duration.WithLabelValues(ev.Spec).Observe(ev.Duration.Seconds())
	for _, v := range ev.Violations {
		c.violations.WithLabelValues(ev.Spec, ev.Version, v.Rule).Inc()
	}
}
