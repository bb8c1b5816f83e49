package meter

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/idudko/promreg/pkg/distribution"
)

// Timer records durations. Statistics are reported in seconds.
type Timer struct {
	base
	clock clock.Clock
	hist  *distribution.Histogram
	// total is kept in nanoseconds so sums of durations stay exact.
	total atomic.Int64
}

// NewTimer returns a timer over a histogram configured in seconds.
func NewTimer(id ID, cfg distribution.Config, clk clock.Clock) (*Timer, error) {
	cfg.DurationScale = true
	h, err := distribution.New(cfg, clk)
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Timer{base: base{id: id}, clock: clk, hist: h}, nil
}

// Record adds one duration. Negative durations are ignored.
func (t *Timer) Record(d time.Duration) {
	if d < 0 {
		return
	}
	t.total.Add(int64(d))
	t.hist.Record(d.Seconds())
}

// Time runs fn and records how long it took.
func (t *Timer) Time(fn func()) {
	start := t.clock.Now()
	defer func() { t.Record(t.clock.Since(start)) }()
	fn()
}

func (t *Timer) Count() uint64 {
	return t.hist.Count()
}

func (t *Timer) TotalTime() time.Duration {
	return time.Duration(t.total.Load())
}

// Max is the longest duration within the decay window.
func (t *Timer) Max() time.Duration {
	return seconds(t.hist.Max())
}

// Snapshot returns the statistics in seconds.
func (t *Timer) Snapshot() distribution.Snapshot {
	s := t.hist.Snapshot()
	s.Total = float64(t.total.Load()) / float64(time.Second)
	return s
}

func (t *Timer) Measure() ([]Reading, error) {
	s := t.Snapshot()
	return []Reading{
		{Statistic: StatisticCount, Value: float64(s.Count)},
		{Statistic: StatisticTotalTime, Value: s.Total},
		{Statistic: StatisticMax, Value: s.Max},
	}, nil
}

// DistributionSummary records sizes or other non-negative amounts.
type DistributionSummary struct {
	base
	hist *distribution.Histogram
}

func NewDistributionSummary(id ID, cfg distribution.Config, clk clock.Clock) (*DistributionSummary, error) {
	h, err := distribution.New(cfg, clk)
	if err != nil {
		return nil, err
	}
	return &DistributionSummary{base: base{id: id}, hist: h}, nil
}

// Record adds one amount. Negative amounts are ignored.
func (s *DistributionSummary) Record(v float64) {
	s.hist.Record(v)
}

func (s *DistributionSummary) Count() uint64 {
	return s.hist.Count()
}

func (s *DistributionSummary) Total() float64 {
	return s.hist.Total()
}

func (s *DistributionSummary) Max() float64 {
	return s.hist.Max()
}

func (s *DistributionSummary) Snapshot() distribution.Snapshot {
	return s.hist.Snapshot()
}

func (s *DistributionSummary) Measure() ([]Reading, error) {
	snap := s.hist.Snapshot()
	return []Reading{
		{Statistic: StatisticCount, Value: float64(snap.Count)},
		{Statistic: StatisticTotal, Value: snap.Total},
		{Statistic: StatisticMax, Value: snap.Max},
	}, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
