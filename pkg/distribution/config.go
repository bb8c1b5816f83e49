// Package distribution implements the statistics engine behind timers and
// distribution summaries: a ring of time-sliced percentile sketches with a
// rolling maximum, plus an all-time accumulator feeding cumulative histogram
// buckets that never reset.
package distribution

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

// ErrInvalidConfig is returned when a Config cannot produce a working histogram.
var ErrInvalidConfig = errors.New("distribution: invalid config")

const (
	// DefaultBufferLength is the number of windows kept in the ring.
	DefaultBufferLength = 3
	// DefaultExpiry is how long a sample stays eligible for percentiles and max.
	DefaultExpiry = time.Minute
)

// Config describes which statistics a histogram publishes and how they decay.
//
// Expected values and service level objectives are expressed in the base unit
// of the meter: seconds for timers, the summary's own unit otherwise.
type Config struct {
	// Percentiles to publish, each in [0, 1].
	Percentiles []float64
	// PercentileHistogram enables the generated bucket scale.
	PercentileHistogram bool
	// ServiceLevelObjectives are explicit bucket boundaries merged into the scale.
	ServiceLevelObjectives []float64
	// MinimumExpectedValue and MaximumExpectedValue clamp the generated scale.
	MinimumExpectedValue float64
	MaximumExpectedValue float64
	// Expiry is the length of the decay window.
	Expiry time.Duration
	// BufferLength is the number of ring slots the window is split into.
	BufferLength int
	// DurationScale generates the bucket scale in nanoseconds and reports it in seconds.
	DurationScale bool
}

// SummaryDefaults returns the configuration used for distribution summaries.
func SummaryDefaults(expiry time.Duration) Config {
	return Config{
		MinimumExpectedValue: 1,
		MaximumExpectedValue: math.Inf(1),
		Expiry:               expiry,
		BufferLength:         DefaultBufferLength,
	}
}

// TimerDefaults returns the configuration used for timers: one millisecond to
// thirty seconds, in seconds.
func TimerDefaults(expiry time.Duration) Config {
	return Config{
		MinimumExpectedValue: 0.001,
		MaximumExpectedValue: 30,
		Expiry:               expiry,
		BufferLength:         DefaultBufferLength,
		DurationScale:        true,
	}
}

// LongTaskTimerDefaults returns the configuration used for long task timers:
// two minutes to two hours, in seconds.
func LongTaskTimerDefaults(expiry time.Duration) Config {
	return Config{
		MinimumExpectedValue: 120,
		MaximumExpectedValue: 7200,
		Expiry:               expiry,
		BufferLength:         DefaultBufferLength,
		DurationScale:        true,
	}
}

// Validate reports the first problem that would make the config unusable.
func (c Config) Validate() error {
	if c.BufferLength <= 0 {
		return fmt.Errorf("%w: buffer length must be positive, got %d", ErrInvalidConfig, c.BufferLength)
	}
	if c.Expiry <= 0 {
		return fmt.Errorf("%w: expiry must be positive, got %s", ErrInvalidConfig, c.Expiry)
	}
	if !(c.MinimumExpectedValue > 0) {
		return fmt.Errorf("%w: minimum expected value must be positive, got %v", ErrInvalidConfig, c.MinimumExpectedValue)
	}
	if !(c.MaximumExpectedValue > 0) {
		return fmt.Errorf("%w: maximum expected value must be positive, got %v", ErrInvalidConfig, c.MaximumExpectedValue)
	}
	if c.MinimumExpectedValue > c.MaximumExpectedValue {
		return fmt.Errorf("%w: minimum expected value %v exceeds maximum %v",
			ErrInvalidConfig, c.MinimumExpectedValue, c.MaximumExpectedValue)
	}
	for _, p := range c.Percentiles {
		if !(p >= 0 && p <= 1) {
			return fmt.Errorf("%w: percentile %v is outside [0, 1]", ErrInvalidConfig, p)
		}
	}
	for _, slo := range c.ServiceLevelObjectives {
		if !(slo > 0) {
			return fmt.Errorf("%w: service level objective must be positive, got %v", ErrInvalidConfig, slo)
		}
	}
	if c.Step() <= 0 {
		return fmt.Errorf("%w: expiry %s is too short for %d buffers", ErrInvalidConfig, c.Expiry, c.BufferLength)
	}
	return nil
}

// Step is the rotation period of the ring.
func (c Config) Step() time.Duration {
	if c.BufferLength <= 0 {
		return 0
	}
	return c.Expiry / time.Duration(c.BufferLength)
}

// Boundaries returns the sorted finite bucket boundaries the config publishes.
// The implicit +Inf bucket is never part of the result.
func (c Config) Boundaries() []float64 {
	var bounds []float64

	if c.PercentileHistogram {
		for _, v := range scale {
			b := float64(v)
			if c.DurationScale {
				b = float64(v) / float64(time.Second)
			}
			if b >= c.MinimumExpectedValue && b <= c.MaximumExpectedValue {
				bounds = append(bounds, b)
			}
		}
		if !math.IsInf(c.MinimumExpectedValue, 0) {
			bounds = append(bounds, c.MinimumExpectedValue)
		}
		if !math.IsInf(c.MaximumExpectedValue, 0) {
			bounds = append(bounds, c.MaximumExpectedValue)
		}
	}

	bounds = append(bounds, c.ServiceLevelObjectives...)
	bounds = slices.DeleteFunc(bounds, func(b float64) bool {
		return math.IsInf(b, 1) || math.IsNaN(b)
	})
	slices.Sort(bounds)
	return slices.Compact(bounds)
}
