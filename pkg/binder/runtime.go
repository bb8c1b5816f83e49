// Package binder registers ready-made meters describing the Go runtime, the
// current process and the host it runs on.
package binder

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/idudko/promreg/pkg/meter"
	"github.com/idudko/promreg/pkg/registry"
)

// Binder adds a group of meters to a registry.
type Binder interface {
	Bind(r *registry.Registry) error
}

// BindAll binds every binder and joins their errors.
func BindAll(r *registry.Registry, binders ...Binder) error {
	var errs []error
	for _, b := range binders {
		if err := b.Bind(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Runtime exposes runtime.MemStats. ReadMemStats stops the world, so the
// stats are read at most once per interval and shared by all its gauges.
type Runtime struct {
	interval time.Duration
	read     func(*runtime.MemStats)

	mu    sync.Mutex
	last  time.Time
	stats runtime.MemStats
}

type memStat struct {
	name  string
	unit  string
	desc  string
	value func(*runtime.MemStats) float64
}

func NewRuntime(interval time.Duration) *Runtime {
	return &Runtime{interval: interval, read: runtime.ReadMemStats}
}

func (b *Runtime) Bind(r *registry.Registry) error {
	clk := r.Clock()
	stat := func(pick func(*runtime.MemStats) float64) meter.ValueFunc {
		return func() (float64, error) {
			b.mu.Lock()
			defer b.mu.Unlock()

			if now := clk.Now(); b.last.IsZero() || now.Sub(b.last) >= b.interval {
				b.read(&b.stats)
				b.last = now
			}
			return pick(&b.stats), nil
		}
	}

	gauges := []memStat{
		{"go.memstats.alloc", "bytes", "Bytes of allocated heap objects", func(s *runtime.MemStats) float64 { return float64(s.Alloc) }},
		{"go.memstats.sys", "bytes", "Bytes of memory obtained from the OS", func(s *runtime.MemStats) float64 { return float64(s.Sys) }},
		{"go.memstats.heap.idle", "bytes", "Bytes in idle heap spans", func(s *runtime.MemStats) float64 { return float64(s.HeapIdle) }},
		{"go.memstats.heap.inuse", "bytes", "Bytes in in-use heap spans", func(s *runtime.MemStats) float64 { return float64(s.HeapInuse) }},
		{"go.memstats.heap.released", "bytes", "Bytes of physical memory returned to the OS", func(s *runtime.MemStats) float64 { return float64(s.HeapReleased) }},
		{"go.memstats.heap.sys", "bytes", "Bytes of heap memory obtained from the OS", func(s *runtime.MemStats) float64 { return float64(s.HeapSys) }},
		{"go.memstats.heap.objects", "", "Number of allocated heap objects", func(s *runtime.MemStats) float64 { return float64(s.HeapObjects) }},
		{"go.memstats.stack.inuse", "bytes", "Bytes in stack spans", func(s *runtime.MemStats) float64 { return float64(s.StackInuse) }},
		{"go.memstats.next.gc", "bytes", "Target heap size of the next GC cycle", func(s *runtime.MemStats) float64 { return float64(s.NextGC) }},
		{"go.memstats.gc.cpu.fraction", "", "Fraction of CPU time used by the GC", func(s *runtime.MemStats) float64 { return s.GCCPUFraction }},
	}
	counters := []memStat{
		{"go.memstats.mallocs", "", "Cumulative count of heap objects allocated", func(s *runtime.MemStats) float64 { return float64(s.Mallocs) }},
		{"go.memstats.frees", "", "Cumulative count of heap objects freed", func(s *runtime.MemStats) float64 { return float64(s.Frees) }},
		{"go.memstats.allocated", "bytes", "Cumulative bytes allocated for heap objects", func(s *runtime.MemStats) float64 { return float64(s.TotalAlloc) }},
		{"go.gc", "", "Number of completed GC cycles", func(s *runtime.MemStats) float64 { return float64(s.NumGC) }},
		{"go.gc.pause", "seconds", "Cumulative GC stop-the-world pause time", func(s *runtime.MemStats) float64 { return float64(s.PauseTotalNs) / float64(time.Second) }},
	}

	var errs []error
	for _, g := range gauges {
		if _, err := r.Gauge(g.name, stat(g.value), meter.WithBaseUnit(g.unit), meter.WithDescription(g.desc)); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range counters {
		if _, err := r.FunctionCounter(c.name, stat(c.value), meter.WithBaseUnit(c.unit), meter.WithDescription(c.desc)); err != nil {
			errs = append(errs, err)
		}
	}
	_, err := r.Gauge("go.goroutines", meter.Float(func() float64 { return float64(runtime.NumGoroutine()) }),
		meter.WithDescription("Number of goroutines that currently exist"))
	errs = append(errs, err)

	return errors.Join(errs...)
}
