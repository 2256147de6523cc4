package loader

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/semenums/enum"
)

const metricsNamespace = "semenums"

// Metrics records catalog load outcomes.
type Metrics struct {
	loads    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	enums    prometheus.Gauge
	values   prometheus.Gauge
}

// NewMetrics creates the loader metrics and registers them with reg.
// Collectors already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "catalog_loads_total",
		Help:      "Catalog loads by source and result.",
	}, []string{"source", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "catalog_load_duration_seconds",
		Help:      "Time spent loading a catalog.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
	enums := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "catalog_enums",
		Help:      "Number of enums in the installed catalog.",
	})
	values := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "catalog_values",
		Help:      "Number of values across all enums in the installed catalog.",
	})

	m := &Metrics{}
	var err error
	if m.loads, err = register(reg, loads); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if m.enums, err = register(reg, enums); err != nil {
		return nil, err
	}
	if m.values, err = register(reg, values); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// observe records one load attempt. The gauges only move on success.
func (m *Metrics) observe(source string, elapsed time.Duration, catalog enum.Catalog, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err != nil {
		m.loads.WithLabelValues(source, "error").Inc()
		return
	}
	m.loads.WithLabelValues(source, "success").Inc()

	total := 0
	for _, values := range catalog {
		total += len(values)
	}
	m.enums.Set(float64(len(catalog)))
	m.values.Set(float64(total))
}
