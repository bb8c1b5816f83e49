// Package meter defines the meter kinds a registry can hold and the identity
// that names them.
//
// The set of kinds is closed: Counter, FunctionCounter, Gauge, Timer,
// DistributionSummary, LongTaskTimer and Custom. Meters are safe for
// concurrent use; recording never blocks.
package meter

import (
	"errors"
	"fmt"
)

// ErrValueFunction is returned when a gauge or custom value function fails.
var ErrValueFunction = errors.New("meter: value function failed")

// Type is the declared type of a meter.
type Type int

const (
	TypeCounter Type = iota
	TypeGauge
	TypeLongTaskTimer
	TypeTimer
	TypeDistributionSummary
	TypeOther
)

func (t Type) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeLongTaskTimer:
		return "long_task_timer"
	case TypeTimer:
		return "timer"
	case TypeDistributionSummary:
		return "distribution_summary"
	default:
		return "other"
	}
}

// Statistic names what a measurement reports.
type Statistic string

const (
	StatisticTotal       Statistic = "TOTAL"
	StatisticTotalTime   Statistic = "TOTAL_TIME"
	StatisticCount       Statistic = "COUNT"
	StatisticMax         Statistic = "MAX"
	StatisticValue       Statistic = "VALUE"
	StatisticUnknown     Statistic = "UNKNOWN"
	StatisticActiveTasks Statistic = "ACTIVE_TASKS"
	StatisticDuration    Statistic = "DURATION"
)

// ValueFunc produces a value at read time.
type ValueFunc func() (float64, error)

// Measurement pairs a statistic with the function producing its value.
type Measurement struct {
	Statistic Statistic
	Value     ValueFunc
}

// Reading is an evaluated Measurement.
type Reading struct {
	Statistic Statistic
	Value     float64
}

// Meter is implemented by every meter kind in this package.
type Meter interface {
	ID() ID
	// Measure evaluates the meter's statistics. It fails only for meters
	// backed by user value functions.
	Measure() ([]Reading, error)

	sealed()
}

type base struct {
	id ID
}

func (b base) ID() ID { return b.id }

func (base) sealed() {}

// eval runs fn, converting a returned error or a panic into ErrValueFunction.
func eval(fn ValueFunc) (v float64, err error) {
	if fn == nil {
		return 0, fmt.Errorf("%w: nil function", ErrValueFunction)
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = 0, fmt.Errorf("%w: panic: %v", ErrValueFunction, r)
		}
	}()

	v, err = fn()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrValueFunction, err)
	}
	return v, nil
}
