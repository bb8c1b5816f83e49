package registry

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/idudko/promreg/pkg/distribution"
	"github.com/idudko/promreg/pkg/exposition"
	"github.com/idudko/promreg/pkg/meter"
)

// collect turns the current series of c into families. A series whose value
// function fails is left out; the rest of the family is still reported.
func (c *collector) collect(logger zerolog.Logger) []exposition.Family {
	children := c.load()
	if len(children) == 0 {
		return nil
	}

	switch c.kind {
	case kindCounter, kindFunctionCounter, kindGauge:
		return c.collectSingle(children, logger)
	case kindTimer, kindSummary:
		return c.collectDistribution(children)
	case kindLongTaskTimer:
		return c.collectLongTask(children)
	default:
		return c.collectCustom(children, logger)
	}
}

func (c *collector) collectSingle(children []*child, logger zerolog.Logger) []exposition.Family {
	f := exposition.Family{Name: c.name, Type: exposition.Gauge, Help: c.description}
	if c.kind != kindGauge {
		f.Type = exposition.Counter
	}

	for _, ch := range children {
		var (
			v   float64
			err error
		)
		switch m := ch.meter.(type) {
		case *meter.Counter:
			v = m.Count()
		case *meter.FunctionCounter:
			v, err = m.Count()
		case *meter.Gauge:
			v, err = m.Value()
		}
		if err != nil {
			logger.Debug().Err(err).Str("meter", ch.meter.ID().String()).Msg("skipping series")
			continue
		}
		f.Samples = append(f.Samples, c.sample(c.name, ch, v))
	}

	return []exposition.Family{f}
}

func (c *collector) collectDistribution(children []*child) []exposition.Family {
	f := exposition.Family{Name: c.name, Type: exposition.Summary, Help: c.description}
	maxFamily := exposition.Family{Name: c.name + "_max", Type: exposition.Gauge, Help: c.description}

	for _, ch := range children {
		var snap distribution.Snapshot
		switch m := ch.meter.(type) {
		case *meter.Timer:
			snap = m.Snapshot()
		case *meter.DistributionSummary:
			snap = m.Snapshot()
		}

		for _, p := range snap.Percentiles {
			f.Samples = append(f.Samples, c.sample(c.name, ch, p.Value, "quantile", exposition.FormatFloat(p.Percentile)))
		}
		if len(snap.Buckets) > 0 {
			f.Type = exposition.Histogram
			f.Samples = c.appendBuckets(f.Samples, ch, snap)
		}
		f.Samples = append(f.Samples,
			c.sample(c.name+"_count", ch, float64(snap.Count)),
			c.sample(c.name+"_sum", ch, snap.Total),
		)
		maxFamily.Samples = append(maxFamily.Samples, c.sample(maxFamily.Name, ch, snap.Max))
	}

	return []exposition.Family{f, maxFamily}
}

func (c *collector) collectLongTask(children []*child) []exposition.Family {
	f := exposition.Family{Name: c.name, Type: exposition.Untyped, Help: c.description}
	maxFamily := exposition.Family{Name: c.name + "_max", Type: exposition.Gauge, Help: c.description}

	for _, ch := range children {
		m, ok := ch.meter.(*meter.LongTaskTimer)
		if !ok {
			continue
		}
		snap := m.Snapshot()

		for _, p := range snap.Percentiles {
			f.Samples = append(f.Samples, c.sample(c.name, ch, p.Value, "quantile", exposition.FormatFloat(p.Percentile)))
		}
		if len(snap.Buckets) > 0 {
			f.Type = exposition.Histogram
			f.Samples = c.appendBuckets(f.Samples, ch, snap)
		}
		f.Samples = append(f.Samples,
			c.sample(c.name+"_active_count", ch, float64(snap.Count)),
			c.sample(c.name+"_duration_sum", ch, snap.Total),
		)
		maxFamily.Samples = append(maxFamily.Samples, c.sample(maxFamily.Name, ch, snap.Max))
	}

	return []exposition.Family{f, maxFamily}
}

func (c *collector) collectCustom(children []*child, logger zerolog.Logger) []exposition.Family {
	f := exposition.Family{Name: c.name, Type: customType(c.typ), Help: c.description}

	for _, ch := range children {
		readings, err := ch.meter.Measure()
		if err != nil {
			logger.Debug().Err(err).Str("meter", ch.meter.ID().String()).Msg("skipping series")
			continue
		}
		for _, r := range readings {
			name := c.name
			switch r.Statistic {
			case meter.StatisticTotal, meter.StatisticTotalTime:
				name += "_sum"
			case meter.StatisticMax:
				name += "_max"
			}
			f.Samples = append(f.Samples, c.sample(name, ch, r.Value, "statistic", string(r.Statistic)))
		}
	}

	return []exposition.Family{f}
}

func customType(t meter.Type) exposition.Type {
	switch t {
	case meter.TypeCounter:
		return exposition.Counter
	case meter.TypeGauge:
		return exposition.Gauge
	case meter.TypeTimer, meter.TypeDistributionSummary:
		return exposition.Summary
	default:
		return exposition.Untyped
	}
}

// appendBuckets adds cumulative buckets and the closing +Inf bucket, which
// always equals the count.
func (c *collector) appendBuckets(samples []exposition.Sample, ch *child, snap distribution.Snapshot) []exposition.Sample {
	name := c.name + "_bucket"
	for _, b := range snap.Buckets {
		samples = append(samples, c.sample(name, ch, b.Count, "le", exposition.FormatFloat(b.UpperBound)))
	}
	return append(samples, c.sample(name, ch, float64(snap.Count), "le", "+Inf"))
}

// sample builds a sample carrying the series labels plus one optional extra
// label, which always comes last.
func (c *collector) sample(name string, ch *child, v float64, extra ...string) exposition.Sample {
	s := exposition.Sample{
		Name:        name,
		LabelNames:  c.labelNames,
		LabelValues: ch.labelValues,
		Value:       v,
	}
	if len(extra) == 2 {
		s.LabelNames = append(slices.Clip(c.labelNames), extra[0])
		s.LabelValues = append(slices.Clip(ch.labelValues), extra[1])
	}
	return s
}
