package config

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-drift/bind/pkg/binding"
	"github.com/go-drift/bind/pkg/dispatch"
	"github.com/go-drift/bind/pkg/observability"
)

// Runtime holds the objects built from a Resolved configuration. Close
// releases them.
type Runtime struct {
	Dispatcher dispatch.Dispatcher
	Observer   observability.Observer
	Options    []binding.ManagerOption

	serial *dispatch.Serial
}

// Flush waits for posted updates when the runtime owns a serial
// dispatcher.
func (rt *Runtime) Flush() {
	if rt.serial != nil {
		rt.serial.Flush()
	}
}

// Panics returns the number of posted updates that panicked on the
// runtime's serial dispatcher.
func (rt *Runtime) Panics() int64 {
	if rt.serial == nil {
		return 0
	}
	return rt.serial.Panics()
}

// Close stops the runtime's dispatcher, if it started one.
func (rt *Runtime) Close() {
	if rt.serial != nil {
		rt.serial.Close()
	}
}

// Runtime builds the dispatcher, observer and manager options described by
// r. Observer names other than the built-in ones are looked up in the
// observability registry. Prometheus collectors are registered with reg, or
// the default registerer when reg is nil.
func (r *Resolved) Runtime(reg prometheus.Registerer, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{}

	switch r.Dispatch {
	case DispatchNone, "":
	case DispatchInline:
		rt.Dispatcher = dispatch.Inline{}
	case DispatchSerial:
		rt.serial = dispatch.NewSerial()
		rt.Dispatcher = rt.serial
	default:
		return nil, fmt.Errorf("unknown dispatch kind %q", r.Dispatch)
	}

	switch r.Observer {
	case ObserverNoop, "":
		rt.Observer = observability.NoOpObserver{}
	case ObserverSlog:
		rt.Observer = observability.NewSlogObserver(logger)
	case ObserverPrometheus:
		prom, err := observability.NewPrometheusObserver(reg, r.Namespace)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.Observer = observability.NewMultiObserver(prom, observability.NewSlogObserver(logger))
	default:
		obs, err := observability.GetObserver(r.Observer)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.Observer = obs
	}

	rt.Options = []binding.ManagerOption{
		binding.WithLocale(r.Locale),
		binding.WithObserver(rt.Observer),
	}
	if rt.Dispatcher != nil {
		rt.Options = append(rt.Options, binding.WithDispatcher(rt.Dispatcher))
	}
	return rt, nil
}

// ManagerOptions returns the manager options described by r together with
// the runtime that owns their resources.
func (r *Resolved) ManagerOptions() ([]binding.ManagerOption, *Runtime, error) {
	rt, err := r.Runtime(nil, nil)
	if err != nil {
		return nil, nil, err
	}
	return rt.Options, rt, nil
}
