package meter

import (
	"time"

	"github.com/idudko/promreg/pkg/distribution"
)

// Options collects what a registration call may configure. Registries start
// from the defaults of the meter kind and apply Option values in order.
type Options struct {
	Tags         Tags
	Description  string
	BaseUnit     string
	Distribution distribution.Config
}

// Option configures a meter at registration.
type Option func(*Options)

// NewOptions applies opts on top of defaults.
func NewOptions(defaults distribution.Config, opts ...Option) Options {
	o := Options{Distribution: defaults}
	for _, opt := range opts {
		opt(&o)
	}
	o.Tags = o.Tags.normalize()
	return o
}

// WithTags adds tags from alternating keys and values.
func WithTags(kv ...string) Option {
	return func(o *Options) {
		o.Tags = o.Tags.And(TagsOf(kv...)...)
	}
}

// WithTagSet adds tags.
func WithTagSet(tags Tags) Option {
	return func(o *Options) {
		o.Tags = o.Tags.And(tags...)
	}
}

func WithDescription(description string) Option {
	return func(o *Options) {
		o.Description = description
	}
}

// WithBaseUnit sets the unit appended to counter, gauge and summary names.
// Timers always report seconds.
func WithBaseUnit(unit string) Option {
	return func(o *Options) {
		o.BaseUnit = unit
	}
}

// WithPercentiles publishes the given percentiles, each in [0, 1].
func WithPercentiles(percentiles ...float64) Option {
	return func(o *Options) {
		o.Distribution.Percentiles = append(o.Distribution.Percentiles, percentiles...)
	}
}

// WithPercentileHistogram publishes the generated bucket scale.
func WithPercentileHistogram(enabled bool) Option {
	return func(o *Options) {
		o.Distribution.PercentileHistogram = enabled
	}
}

// WithServiceLevelObjectives adds bucket boundaries in the meter's base unit.
func WithServiceLevelObjectives(boundaries ...float64) Option {
	return func(o *Options) {
		o.Distribution.ServiceLevelObjectives = append(o.Distribution.ServiceLevelObjectives, boundaries...)
	}
}

// WithDurationSLOs adds bucket boundaries for timers.
func WithDurationSLOs(boundaries ...time.Duration) Option {
	return func(o *Options) {
		for _, d := range boundaries {
			o.Distribution.ServiceLevelObjectives = append(o.Distribution.ServiceLevelObjectives, d.Seconds())
		}
	}
}

func WithMinimumExpectedValue(v float64) Option {
	return func(o *Options) {
		o.Distribution.MinimumExpectedValue = v
	}
}

func WithMaximumExpectedValue(v float64) Option {
	return func(o *Options) {
		o.Distribution.MaximumExpectedValue = v
	}
}

func WithMinimumExpectedDuration(d time.Duration) Option {
	return WithMinimumExpectedValue(d.Seconds())
}

func WithMaximumExpectedDuration(d time.Duration) Option {
	return WithMaximumExpectedValue(d.Seconds())
}

// WithExpiry sets how long samples count towards percentiles and max.
func WithExpiry(d time.Duration) Option {
	return func(o *Options) {
		o.Distribution.Expiry = d
	}
}

// WithBufferLength sets how many slots the expiry window is split into.
func WithBufferLength(n int) Option {
	return func(o *Options) {
		o.Distribution.BufferLength = n
	}
}
