package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver counts binding events.
//
// Metrics (namespace configurable, default "bind"):
//
//	<ns>_events_total{type, direction}  counter of every event received
//	<ns>_active_bindings                 gauge of bound bindings
type PrometheusObserver struct {
	events *prometheus.CounterVec
	active prometheus.Gauge
}

// NewPrometheusObserver creates the collectors and registers them with reg,
// or prometheus.DefaultRegisterer when reg is nil. Collectors already
// registered under the same names are reused.
func NewPrometheusObserver(reg prometheus.Registerer, namespace string) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "bind"
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Binding events by type and update direction.",
	}, []string{"type", "direction"})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_bindings",
		Help:      "Number of bindings currently bound.",
	})

	if err := register(reg, events, func(existing prometheus.Collector) { events = existing.(*prometheus.CounterVec) }); err != nil {
		return nil, err
	}
	if err := register(reg, active, func(existing prometheus.Collector) { active = existing.(prometheus.Gauge) }); err != nil {
		return nil, err
	}
	return &PrometheusObserver{events: events, active: active}, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector, reuse func(prometheus.Collector)) error {
	err := reg.Register(c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		reuse(are.ExistingCollector)
		return nil
	}
	return fmt.Errorf("observability: register collector: %w", err)
}

func (o *PrometheusObserver) OnEvent(ctx context.Context, event Event) {
	direction, _ := event.Data[KeyDirection].(string)
	o.events.WithLabelValues(string(event.Type), direction).Inc()

	switch event.Type {
	case EventBind:
		o.active.Inc()
	case EventUnbind:
		o.active.Dec()
	}
}
