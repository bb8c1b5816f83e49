package meter

import (
	"math"
	"sync/atomic"
)

// Counter is a monotonically increasing sum.
type Counter struct {
	base
	bits atomic.Uint64
}

func NewCounter(id ID) *Counter {
	return &Counter{base: base{id: id}}
}

// Increment adds one.
func (c *Counter) Increment() {
	c.Add(1)
}

// Add adds v. Non-positive and NaN amounts are ignored.
func (c *Counter) Add(v float64) {
	if !(v > 0) {
		return
	}
	for {
		old := c.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + v)
		if c.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Count returns the cumulative sum.
func (c *Counter) Count() float64 {
	return math.Float64frombits(c.bits.Load())
}

func (c *Counter) Measure() ([]Reading, error) {
	return []Reading{{Statistic: StatisticCount, Value: c.Count()}}, nil
}

// FunctionCounter reports a monotonically increasing value owned by someone
// else, read through a function at scrape time.
type FunctionCounter struct {
	base
	fn ValueFunc
}

func NewFunctionCounter(id ID, fn ValueFunc) *FunctionCounter {
	return &FunctionCounter{base: base{id: id}, fn: fn}
}

// Count evaluates the function.
func (c *FunctionCounter) Count() (float64, error) {
	return eval(c.fn)
}

func (c *FunctionCounter) Measure() ([]Reading, error) {
	v, err := c.Count()
	if err != nil {
		return nil, err
	}
	return []Reading{{Statistic: StatisticCount, Value: v}}, nil
}

// Gauge reports a current value read through a function at scrape time.
type Gauge struct {
	base
	fn ValueFunc
}

func NewGauge(id ID, fn ValueFunc) *Gauge {
	return &Gauge{base: base{id: id}, fn: fn}
}

// Value evaluates the function. A panic is returned as ErrValueFunction.
func (g *Gauge) Value() (float64, error) {
	return eval(g.fn)
}

func (g *Gauge) Measure() ([]Reading, error) {
	v, err := g.Value()
	if err != nil {
		return nil, err
	}
	return []Reading{{Statistic: StatisticValue, Value: v}}, nil
}

// Custom reports a caller-defined set of measurements.
type Custom struct {
	base
	measurements []Measurement
}

func NewCustom(id ID, measurements []Measurement) *Custom {
	return &Custom{base: base{id: id}, measurements: append([]Measurement(nil), measurements...)}
}

// Measure evaluates every measurement; the first failure aborts the meter.
func (c *Custom) Measure() ([]Reading, error) {
	readings := make([]Reading, 0, len(c.measurements))
	for _, m := range c.measurements {
		v, err := eval(m.Value)
		if err != nil {
			return nil, err
		}
		readings = append(readings, Reading{Statistic: m.Statistic, Value: v})
	}
	return readings, nil
}

// Const returns a ValueFunc that always reports v.
func Const(v float64) ValueFunc {
	return func() (float64, error) { return v, nil }
}

// Float returns a ValueFunc reading fn, which cannot fail.
func Float(fn func() float64) ValueFunc {
	return func() (float64, error) { return fn(), nil }
}
