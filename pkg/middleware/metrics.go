package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/vtree/pkg/vtree"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vtree").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vtree",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors shared by every middleware created for the
// same registry.
type Metrics struct {
	passesTotal  *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	passErrors   *prometheus.CounterVec
	viewsTotal   *prometheus.CounterVec
	liveViews    prometheus.Gauge
}

// Collectors are created once per registry; registering twice would panic.
var (
	registered   = make(map[prometheus.Registerer]*Metrics)
	registeredMu sync.Mutex
)

func metricsFor(config MetricsConfig) *Metrics {
	registeredMu.Lock()
	defer registeredMu.Unlock()
	if m, ok := registered[config.Registry]; ok {
		return m
	}
	m := newMetrics(config)
	registered[config.Registry] = m
	return m
}

func newMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of hierarchy passes",
			ConstLabels: config.ConstLabels,
		}, []string{"pass", "status"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"pass"}),

		passErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_errors_total",
			Help:        "Total number of failed passes",
			ConstLabels: config.ConstLabels,
		}, []string{"pass", "error_type"}),

		viewsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "views_total",
			Help:        "Total view operations by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		liveViews: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_views",
			Help:        "Views constructed and not yet dismantled",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Prometheus creates middleware that collects Prometheus metrics for passes.
//
// Example:
//
//	h := vtree.NewHierarchy(ctx,
//	    vtree.WithMiddleware(middleware.Prometheus(middleware.WithNamespace("app"))),
//	)
func Prometheus(opts ...MetricsOption) vtree.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	m := metricsFor(config)

	return func(p *vtree.Pass, next func() error) error {
		pass := p.Kind.String()
		start := time.Now()

		err := next()

		m.passDuration.WithLabelValues(pass).Observe(time.Since(start).Seconds())
		status := "success"
		if err != nil {
			status = "error"
			m.passErrors.WithLabelValues(pass, categorizeError(err)).Inc()
		}
		m.passesTotal.WithLabelValues(pass, status).Inc()
		m.record(p.Stats)

		return err
	}
}

func (m *Metrics) record(s vtree.Stats) {
	m.viewsTotal.WithLabelValues("constructed").Add(float64(s.Constructed))
	m.viewsTotal.WithLabelValues("reused").Add(float64(s.Reused))
	m.viewsTotal.WithLabelValues("dismantled").Add(float64(s.Dismantled))
	m.viewsTotal.WithLabelValues("configured").Add(float64(s.Configured))
	m.liveViews.Add(float64(s.Constructed - s.Dismantled))
}

// categorizeError maps pass errors onto a small label set.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, vtree.ErrNoBuilder):
		return "no_builder"
	case errors.Is(err, vtree.ErrNotMounted):
		return "not_mounted"
	case errors.Is(err, vtree.ErrForeignNode):
		return "foreign_node"
	case errors.Is(err, vtree.ErrNilRoot):
		return "nil_root"
	case errors.Is(err, vtree.ErrNoPlatform), errors.Is(err, vtree.ErrNoContext):
		return "no_platform"
	default:
		return "internal"
	}
}
