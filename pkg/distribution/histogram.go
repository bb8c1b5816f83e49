package distribution

import (
	"math"
	"slices"
	"sync/atomic"

	"github.com/benbjohnson/clock"
)

// Histogram accumulates observations for one meter.
//
// Every observation is written into all ring slots and into the all-time
// totals. Queries read the oldest slot, which has seen at most Expiry worth of
// observations. Every Step the oldest slot is replaced by an empty one and the
// next slot becomes current. Recording never takes a lock.
type Histogram struct {
	clock clock.Clock
	step  int64

	ring       []atomic.Pointer[window]
	current    atomic.Int64
	lastRotate atomic.Int64
	rotating   atomic.Bool

	count       atomic.Uint64
	sum         atomic.Uint64
	bounds      []float64
	boundCounts []atomic.Uint64
	percentiles []float64
}

// New validates cfg and returns an empty histogram driven by clk.
func New(cfg Config, clk clock.Clock) (*Histogram, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	bounds := cfg.Boundaries()
	h := &Histogram{
		clock:       clk,
		step:        int64(cfg.Step()),
		ring:        make([]atomic.Pointer[window], cfg.BufferLength),
		bounds:      bounds,
		boundCounts: make([]atomic.Uint64, len(bounds)),
		percentiles: slices.Clone(cfg.Percentiles),
	}
	for i := range h.ring {
		h.ring[i].Store(newWindow())
	}
	h.lastRotate.Store(clk.Now().UnixNano())

	return h, nil
}

// Record adds one observation. Negative and NaN values are ignored.
func (h *Histogram) Record(v float64) {
	if v < 0 || math.IsNaN(v) {
		return
	}
	h.rotate()

	// count goes first so that a concurrent snapshot, which reads buckets
	// before count, never sees a bucket larger than count.
	h.count.Add(1)
	addFloat(&h.sum, v)
	if i, _ := slices.BinarySearch(h.bounds, v); i < len(h.bounds) {
		h.boundCounts[i].Add(1)
	}

	for i := range h.ring {
		h.ring[i].Load().record(v)
	}
}

// Count is the all-time number of observations.
func (h *Histogram) Count() uint64 {
	return h.count.Load()
}

// Total is the all-time sum of observations.
func (h *Histogram) Total() float64 {
	return math.Float64frombits(h.sum.Load())
}

// Max is the largest observation within the decay window.
func (h *Histogram) Max() float64 {
	h.rotate()
	return h.active().maxValue()
}

// Percentile estimates the value at q within the decay window.
func (h *Histogram) Percentile(q float64) float64 {
	h.rotate()
	return h.active().quantile(q)
}

// Boundaries returns the finite bucket upper bounds.
func (h *Histogram) Boundaries() []float64 {
	return slices.Clone(h.bounds)
}

// Snapshot captures the histogram at the current clock time.
func (h *Histogram) Snapshot() Snapshot {
	h.rotate()
	w := h.active()

	var buckets []CountAtBucket
	if len(h.bounds) > 0 {
		buckets = make([]CountAtBucket, len(h.bounds))
		var cum uint64
		for i, b := range h.bounds {
			cum += h.boundCounts[i].Load()
			buckets[i] = CountAtBucket{UpperBound: b, Count: float64(cum)}
		}
	}

	var percentiles []ValueAtPercentile
	if len(h.percentiles) > 0 {
		percentiles = make([]ValueAtPercentile, len(h.percentiles))
		for i, q := range h.percentiles {
			percentiles[i] = ValueAtPercentile{Percentile: q, Value: w.quantile(q)}
		}
	}

	return Snapshot{
		Count:       h.count.Load(),
		Total:       h.Total(),
		Max:         w.maxValue(),
		Buckets:     buckets,
		Percentiles: percentiles,
	}
}

// active returns the oldest slot. A slot read while current moved may already
// be retired, so the read is repeated until current holds still.
func (h *Histogram) active() *window {
	for {
		cur := h.current.Load()
		w := h.ring[cur].Load()
		if h.current.Load() == cur {
			return w
		}
	}
}

// rotate retires one slot per elapsed step, at most the whole ring.
func (h *Histogram) rotate() {
	now := h.clock.Now().UnixNano()
	if now-h.lastRotate.Load() < h.step {
		return
	}
	if !h.rotating.CompareAndSwap(false, true) {
		return
	}
	defer h.rotating.Store(false)

	elapsed := now - h.lastRotate.Load()
	if elapsed < h.step {
		return
	}

	n := int64(len(h.ring))
	steps := min(elapsed/h.step, n)
	// Readers follow current, so it moves before the retired slots are
	// emptied. A full-ring rotation empties the new current slot as well.
	cur := h.current.Load()
	h.current.Store((cur + steps) % n)
	for i := range steps {
		h.ring[(cur+i)%n].Store(newWindow())
	}
	h.lastRotate.Store(now - elapsed%h.step)
}
