// Package bridge exposes a meter registry through client_golang, so the same
// meters can be served by promhttp or pushed with the client_golang tooling.
package bridge

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/idudko/promreg/pkg/exposition"
	"github.com/idudko/promreg/pkg/registry"
)

// Collector is an unchecked prometheus.Collector: the registry changes
// shape at runtime, so Describe sends nothing.
type Collector struct {
	registry *registry.Registry
}

func New(r *registry.Registry) *Collector {
	return &Collector{registry: r}
}

func (c *Collector) Describe(chan<- *prometheus.Desc) {}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, f := range c.registry.Families(nil) {
		switch f.Type {
		case exposition.Summary, exposition.Histogram:
			if collectDistribution(ch, f) {
				continue
			}
			collectSamples(ch, f, prometheus.UntypedValue)
		case exposition.Counter:
			collectSamples(ch, f, prometheus.CounterValue)
		case exposition.Gauge:
			collectSamples(ch, f, prometheus.GaugeValue)
		default:
			collectSamples(ch, f, prometheus.UntypedValue)
		}
	}
}

func collectSamples(ch chan<- prometheus.Metric, f exposition.Family, vt prometheus.ValueType) {
	descs := make(map[string]*prometheus.Desc)
	for _, s := range f.Samples {
		key := s.Name + "\xff" + strings.Join(s.LabelNames, "\xff")
		desc, ok := descs[key]
		if !ok {
			desc = prometheus.NewDesc(s.Name, f.Help, s.LabelNames, nil)
			descs[key] = desc
		}
		m, err := prometheus.NewConstMetric(desc, vt, s.Value, s.LabelValues...)
		if err != nil {
			m = prometheus.NewInvalidMetric(desc, err)
		}
		ch <- m
	}
}

type series struct {
	labelValues []string
	count       uint64
	sum         float64
	quantiles   map[float64]float64
	buckets     map[float64]uint64
}

// collectDistribution reports a summary or histogram family as one const
// metric per series. It returns false when the family has no count sample to
// build on, as with custom meters declared as summaries.
func collectDistribution(ch chan<- prometheus.Metric, f exposition.Family) bool {
	if !hasCount(f) {
		return false
	}

	var (
		labelNames []string
		order      []string
		bySeries   = make(map[string]*series)
	)

	get := func(values []string) *series {
		key := strings.Join(values, "\xff")
		s, ok := bySeries[key]
		if !ok {
			s = &series{
				labelValues: values,
				quantiles:   make(map[float64]float64),
				buckets:     make(map[float64]uint64),
			}
			bySeries[key] = s
			order = append(order, key)
		}
		return s
	}

	for _, smp := range f.Samples {
		switch strings.TrimPrefix(smp.Name, f.Name) {
		case "_count", "_active_count":
			labelNames = smp.LabelNames
			get(smp.LabelValues).count = uint64(smp.Value)
		case "_sum", "_duration_sum":
			get(smp.LabelValues).sum = smp.Value
		case "":
			values, extra, ok := split(smp, "quantile")
			if !ok {
				continue
			}
			q, err := strconv.ParseFloat(extra, 64)
			if err != nil {
				continue
			}
			get(values).quantiles[q] = smp.Value
		case "_bucket":
			values, extra, ok := split(smp, "le")
			if !ok || extra == "+Inf" {
				continue
			}
			le, err := strconv.ParseFloat(extra, 64)
			if err != nil {
				continue
			}
			get(values).buckets[le] = uint64(smp.Value)
		}
	}

	desc := prometheus.NewDesc(f.Name, f.Help, labelNames, nil)
	for _, key := range order {
		s := bySeries[key]
		var (
			m   prometheus.Metric
			err error
		)
		if f.Type == exposition.Histogram {
			m, err = prometheus.NewConstHistogram(desc, s.count, s.sum, s.buckets, s.labelValues...)
		} else {
			m, err = prometheus.NewConstSummary(desc, s.count, s.sum, s.quantiles, s.labelValues...)
		}
		if err != nil {
			m = prometheus.NewInvalidMetric(desc, err)
		}
		ch <- m
	}
	return true
}

func hasCount(f exposition.Family) bool {
	for _, s := range f.Samples {
		if s.Name == f.Name+"_count" || s.Name == f.Name+"_active_count" {
			return true
		}
	}
	return false
}

// split detaches the trailing label named extra from a sample.
func split(s exposition.Sample, extra string) (values []string, value string, ok bool) {
	n := len(s.LabelNames)
	if n == 0 || s.LabelNames[n-1] != extra {
		return nil, "", false
	}
	return s.LabelValues[:n-1], s.LabelValues[n-1], true
}
