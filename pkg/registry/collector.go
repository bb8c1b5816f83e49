package registry

import (
	"slices"
	"sync/atomic"

	"github.com/idudko/promreg/pkg/meter"
)

// kind is the Go meter kind. Two kinds may share a declared meter.Type, as
// Counter and FunctionCounter do, and still not share a family.
type kind int

const (
	kindCounter kind = iota
	kindFunctionCounter
	kindGauge
	kindTimer
	kindSummary
	kindLongTaskTimer
	kindCustom
)

func (k kind) String() string {
	switch k {
	case kindCounter:
		return "counter"
	case kindFunctionCounter:
		return "function counter"
	case kindGauge:
		return "gauge"
	case kindTimer:
		return "timer"
	case kindSummary:
		return "distribution summary"
	case kindLongTaskTimer:
		return "long task timer"
	default:
		return "custom meter"
	}
}

// suffixes lists, per kind, the sample names a family may emit besides its
// own name. They are reserved when the family is created.
func (k kind) suffixes() []string {
	switch k {
	case kindTimer, kindSummary:
		return []string{"_count", "_sum", "_max", "_bucket"}
	case kindLongTaskTimer:
		return []string{"_active_count", "_duration_sum", "_max", "_bucket"}
	case kindCustom:
		return []string{"_sum", "_max"}
	default:
		return nil
	}
}

// labels lists the label names a kind's samples carry besides the meter tags.
func (k kind) labels() []string {
	switch k {
	case kindTimer, kindSummary, kindLongTaskTimer:
		return []string{"quantile", "le"}
	case kindCustom:
		return []string{"statistic"}
	default:
		return nil
	}
}

// collector owns every series of one family. Children are published as an
// immutable slice so a scrape never sees a half-applied change.
type collector struct {
	name        string
	kind        kind
	typ         meter.Type
	description string
	labelNames  []string
	reserved    []string

	children atomic.Pointer[[]*child]
}

type child struct {
	meter       meter.Meter
	labelValues []string
}

func newCollector(name string, k kind, id meter.ID, labelNames []string) *collector {
	c := &collector{
		name:        name,
		kind:        k,
		typ:         id.Type(),
		description: id.Description(),
		labelNames:  labelNames,
		reserved:    []string{name},
	}
	for _, s := range k.suffixes() {
		c.reserved = append(c.reserved, name+s)
	}
	c.children.Store(&[]*child{})
	return c
}

func (c *collector) load() []*child {
	return *c.children.Load()
}

func (c *collector) hasSeries(labelValues []string) bool {
	return slices.ContainsFunc(c.load(), func(ch *child) bool {
		return slices.Equal(ch.labelValues, labelValues)
	})
}

// add and remove must be called with the registry lock held.
func (c *collector) add(ch *child) {
	next := append(slices.Clone(c.load()), ch)
	c.children.Store(&next)
}

func (c *collector) remove(m meter.Meter) (left int) {
	next := slices.DeleteFunc(slices.Clone(c.load()), func(ch *child) bool {
		return ch.meter == m
	})
	c.children.Store(&next)
	return len(next)
}
