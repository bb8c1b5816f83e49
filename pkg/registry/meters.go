package registry

import (
	"github.com/idudko/promreg/pkg/distribution"
	"github.com/idudko/promreg/pkg/meter"
)

// Counter registers a counter, or returns the one already registered under
// the same name and tags.
func (r *Registry) Counter(name string, opts ...meter.Option) (*meter.Counter, error) {
	o := meter.NewOptions(distribution.Config{}, opts...)
	id := r.newID(name, meter.TypeCounter, o)

	m, err := r.register(id, kindCounter, meter.NewCounter(id))
	if err != nil {
		return nil, err
	}
	return m.(*meter.Counter), nil
}

// FunctionCounter registers a counter whose value is read from fn.
func (r *Registry) FunctionCounter(name string, fn meter.ValueFunc, opts ...meter.Option) (*meter.FunctionCounter, error) {
	o := meter.NewOptions(distribution.Config{}, opts...)
	id := r.newID(name, meter.TypeCounter, o)

	m, err := r.register(id, kindFunctionCounter, meter.NewFunctionCounter(id, fn))
	if err != nil {
		return nil, err
	}
	return m.(*meter.FunctionCounter), nil
}

// Gauge registers a gauge whose value is read from fn at scrape time.
func (r *Registry) Gauge(name string, fn meter.ValueFunc, opts ...meter.Option) (*meter.Gauge, error) {
	o := meter.NewOptions(distribution.Config{}, opts...)
	id := r.newID(name, meter.TypeGauge, o)

	m, err := r.register(id, kindGauge, meter.NewGauge(id, fn))
	if err != nil {
		return nil, err
	}
	return m.(*meter.Gauge), nil
}

// Timer registers a timer. Invalid distribution options fail with
// distribution.ErrInvalidConfig regardless of strict mode.
func (r *Registry) Timer(name string, opts ...meter.Option) (*meter.Timer, error) {
	o := meter.NewOptions(distribution.TimerDefaults(r.step), opts...)
	id := r.newID(name, meter.TypeTimer, o)

	t, err := meter.NewTimer(id, o.Distribution, r.clock)
	if err != nil {
		return nil, err
	}
	m, err := r.register(id, kindTimer, t)
	if err != nil {
		return nil, err
	}
	return m.(*meter.Timer), nil
}

// Summary registers a distribution summary.
func (r *Registry) Summary(name string, opts ...meter.Option) (*meter.DistributionSummary, error) {
	o := meter.NewOptions(distribution.SummaryDefaults(r.step), opts...)
	id := r.newID(name, meter.TypeDistributionSummary, o)

	s, err := meter.NewDistributionSummary(id, o.Distribution, r.clock)
	if err != nil {
		return nil, err
	}
	m, err := r.register(id, kindSummary, s)
	if err != nil {
		return nil, err
	}
	return m.(*meter.DistributionSummary), nil
}

// LongTaskTimer registers a long task timer.
func (r *Registry) LongTaskTimer(name string, opts ...meter.Option) (*meter.LongTaskTimer, error) {
	o := meter.NewOptions(distribution.LongTaskTimerDefaults(r.step), opts...)
	id := r.newID(name, meter.TypeLongTaskTimer, o)

	l, err := meter.NewLongTaskTimer(id, o.Distribution, r.clock)
	if err != nil {
		return nil, err
	}
	m, err := r.register(id, kindLongTaskTimer, l)
	if err != nil {
		return nil, err
	}
	return m.(*meter.LongTaskTimer), nil
}

// Custom registers a meter reporting arbitrary measurements. typ decides
// both the naming suffixes and the TYPE of the family.
func (r *Registry) Custom(name string, typ meter.Type, measurements []meter.Measurement, opts ...meter.Option) (*meter.Custom, error) {
	o := meter.NewOptions(distribution.Config{}, opts...)
	id := r.newID(name, typ, o)

	m, err := r.register(id, kindCustom, meter.NewCustom(id, measurements))
	if err != nil {
		return nil, err
	}
	return m.(*meter.Custom), nil
}

func (r *Registry) newID(name string, typ meter.Type, o meter.Options) meter.ID {
	return r.prepare(meter.NewID(name, typ, o.Tags, o.BaseUnit, o.Description))
}
