package meter

import (
	"math"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/idudko/promreg/pkg/distribution"
)

// LongTaskTimer tracks tasks that are still running. Statistics describe
// the active set at read time; finished tasks leave no trace.
type LongTaskTimer struct {
	base
	clock       clock.Clock
	bounds      []float64
	percentiles []float64

	tasks sync.Map
	seq   atomic.Uint64
}

// Task is a running task started by a LongTaskTimer.
type Task struct {
	timer   *LongTaskTimer
	key     uint64
	started time.Time
	stopped atomic.Bool
}

// NewLongTaskTimer validates cfg and returns a timer with no active tasks.
func NewLongTaskTimer(id ID, cfg distribution.Config, clk clock.Clock) (*LongTaskTimer, error) {
	cfg.DurationScale = true
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	return &LongTaskTimer{
		base:        base{id: id},
		clock:       clk,
		bounds:      cfg.Boundaries(),
		percentiles: slices.Clone(cfg.Percentiles),
	}, nil
}

// Start begins timing a task.
func (l *LongTaskTimer) Start() *Task {
	t := &Task{timer: l, key: l.seq.Add(1), started: l.clock.Now()}
	l.tasks.Store(t.key, t)
	return t
}

// Record runs fn as a task.
func (l *LongTaskTimer) Record(fn func()) {
	t := l.Start()
	defer t.Stop()
	fn()
}

// Stop ends the task and returns its duration. Stopping twice is a no-op
// returning zero.
func (t *Task) Stop() time.Duration {
	if !t.stopped.CompareAndSwap(false, true) {
		return 0
	}
	t.timer.tasks.Delete(t.key)
	return t.timer.clock.Since(t.started)
}

// Duration is how long the task has been running.
func (t *Task) Duration() time.Duration {
	if t.stopped.Load() {
		return 0
	}
	return t.timer.clock.Since(t.started)
}

// ActiveTasks is the number of running tasks.
func (l *LongTaskTimer) ActiveTasks() int {
	n := 0
	l.tasks.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Duration is the combined running time of all active tasks.
func (l *LongTaskTimer) Duration() time.Duration {
	var total time.Duration
	for _, d := range l.durations() {
		total += d
	}
	return total
}

// Max is the running time of the oldest active task.
func (l *LongTaskTimer) Max() time.Duration {
	var longest time.Duration
	for _, d := range l.durations() {
		longest = max(longest, d)
	}
	return longest
}

// Snapshot describes the active tasks in seconds: Count is the number of
// active tasks and Total their combined duration.
func (l *LongTaskTimer) Snapshot() distribution.Snapshot {
	ds := l.durations()
	secs := make([]float64, len(ds))
	snap := distribution.Snapshot{Count: uint64(len(ds))}
	for i, d := range ds {
		secs[i] = d.Seconds()
		snap.Total += secs[i]
		snap.Max = max(snap.Max, secs[i])
	}
	slices.Sort(secs)

	if len(l.bounds) > 0 {
		snap.Buckets = make([]distribution.CountAtBucket, len(l.bounds))
		for i, b := range l.bounds {
			n := sort.Search(len(secs), func(j int) bool { return secs[j] > b })
			snap.Buckets[i] = distribution.CountAtBucket{UpperBound: b, Count: float64(n)}
		}
	}

	for _, q := range l.percentiles {
		snap.Percentiles = append(snap.Percentiles, distribution.ValueAtPercentile{
			Percentile: q,
			Value:      exactPercentile(secs, q),
		})
	}

	return snap
}

func (l *LongTaskTimer) Measure() ([]Reading, error) {
	s := l.Snapshot()
	return []Reading{
		{Statistic: StatisticActiveTasks, Value: float64(s.Count)},
		{Statistic: StatisticDuration, Value: s.Total},
	}, nil
}

func (l *LongTaskTimer) durations() []time.Duration {
	now := l.clock.Now()
	var ds []time.Duration
	l.tasks.Range(func(_, v any) bool {
		ds = append(ds, now.Sub(v.(*Task).started))
		return true
	})
	return ds
}

// exactPercentile uses the nearest-rank method over sorted values.
func exactPercentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(q * float64(len(sorted))))
	rank = min(max(rank, 1), len(sorted))
	return sorted[rank-1]
}
