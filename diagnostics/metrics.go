package diagnostics

import (
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/junioryono/inject"
)

const namespace = "inject"

// MetricsCallback records provider activity as Prometheus metrics:
//
//	inject_callsites_created_total{kind}
//	inject_resolutions_total{service, result}
//	inject_resolution_duration_seconds{service}
//	inject_promotions_total{result}
type MetricsCallback struct {
	created     *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	promotions  *prometheus.CounterVec
}

var _ inject.Callback = (*MetricsCallback)(nil)

// NewMetricsCallback creates the collectors and registers them with reg.
func NewMetricsCallback(reg prometheus.Registerer) (*MetricsCallback, error) {
	c := &MetricsCallback{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callsites_created_total",
			Help:      "Number of call sites built, by call site kind.",
		}, []string{"kind"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Number of service resolutions, by service and result.",
		}, []string{"service", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Time spent resolving services.",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		}, []string{"service"}),
		promotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_total",
			Help:      "Number of background compilations, by result.",
		}, []string{"result"}),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	for _, collector := range []prometheus.Collector{c.created, c.resolutions, c.duration, c.promotions} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *MetricsCallback) OnCreate(_ reflect.Type, cs inject.CallSite) {
	c.created.WithLabelValues(cs.Kind().String()).Inc()
}

func (c *MetricsCallback) OnResolve(serviceType reflect.Type, elapsed time.Duration, err error) {
	service := typeName(serviceType)
	c.resolutions.WithLabelValues(service, result(err)).Inc()
	c.duration.WithLabelValues(service).Observe(elapsed.Seconds())
}

func (c *MetricsCallback) OnPromote(_ reflect.Type, err error) {
	c.promotions.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
