package distribution

import (
	"math"
	"sync/atomic"
)

const (
	// subBuckets is the number of linear slices per power of two, bounding the
	// relative error of a percentile estimate to about 3%.
	subBuckets = 32
	minExp     = -29
	maxExp     = 64
	binades    = maxExp - minExp + 1
)

type binade [subBuckets]atomic.Uint64

// window is a lock-free log-linear sketch with its observed extremes.
// Chunks of buckets are allocated on first use, so an idle window stays small.
type window struct {
	count atomic.Uint64
	zero  atomic.Uint64
	bins  [binades]atomic.Pointer[binade]
	min   atomic.Uint64
	max   atomic.Uint64
}

func newWindow() *window {
	w := &window{}
	w.min.Store(math.Float64bits(math.Inf(1)))
	return w
}

func (w *window) record(v float64) {
	storeMax(&w.max, v)
	storeMin(&w.min, v)
	defer w.count.Add(1)

	exp, sub, ok := locate(v)
	if !ok {
		w.zero.Add(1)
		return
	}

	b := w.bins[exp-minExp].Load()
	if b == nil {
		fresh := new(binade)
		if w.bins[exp-minExp].CompareAndSwap(nil, fresh) {
			b = fresh
		} else {
			b = w.bins[exp-minExp].Load()
		}
	}
	b[sub].Add(1)
}

// locate maps v onto the binade holding [2^(exp-1), 2^exp) and a linear
// slice within it. Values too small to track land in the zero bucket.
func locate(v float64) (exp, sub int, ok bool) {
	if v <= 0 {
		return 0, 0, false
	}
	frac, exp := math.Frexp(v)
	if exp < minExp {
		return 0, 0, false
	}
	if exp > maxExp {
		return maxExp, subBuckets - 1, true
	}
	sub = int((frac*2 - 1) * subBuckets)
	if sub >= subBuckets {
		sub = subBuckets - 1
	}
	return exp, sub, true
}

func (w *window) maxValue() float64 {
	if w.count.Load() == 0 {
		return 0
	}
	return math.Float64frombits(w.max.Load())
}

func (w *window) minValue() float64 {
	if w.count.Load() == 0 {
		return 0
	}
	return math.Float64frombits(w.min.Load())
}

// quantile estimates the value below which a q fraction of the window's
// observations fall, interpolating inside the bucket that holds the rank.
func (w *window) quantile(q float64) float64 {
	n := w.count.Load()
	if n == 0 {
		return 0
	}
	lo, hi := w.minValue(), w.maxValue()

	rank := uint64(math.Ceil(q * float64(n)))
	if rank < 1 {
		rank = 1
	}

	cum := w.zero.Load()
	if cum >= rank {
		return lo
	}

	for i := range w.bins {
		b := w.bins[i].Load()
		if b == nil {
			continue
		}
		base := math.Ldexp(1, i+minExp-1)
		width := base / subBuckets
		for s := range b {
			c := b[s].Load()
			if c == 0 {
				continue
			}
			if cum+c >= rank {
				lower := base + width*float64(s)
				v := lower + width*float64(rank-cum)/float64(c)
				return clamp(v, lo, hi)
			}
			cum += c
		}
	}

	return hi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func addFloat(dst *atomic.Uint64, delta float64) {
	for {
		old := dst.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if dst.CompareAndSwap(old, next) {
			return
		}
	}
}

func storeMax(dst *atomic.Uint64, v float64) {
	for {
		old := dst.Load()
		if math.Float64frombits(old) >= v {
			return
		}
		if dst.CompareAndSwap(old, math.Float64bits(v)) {
			return
		}
	}
}

func storeMin(dst *atomic.Uint64, v float64) {
	for {
		old := dst.Load()
		if math.Float64frombits(old) <= v {
			return
		}
		if dst.CompareAndSwap(old, math.Float64bits(v)) {
			return
		}
	}
}
