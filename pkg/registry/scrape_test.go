package registry

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idudko/promreg/pkg/exposition"
	"github.com/idudko/promreg/pkg/meter"
)

func TestScrape_BaseUnit(t *testing.T) {
	r, _ := newRegistry(t)

	_, err := r.Gauge("gauge", meter.Const(0), meter.WithTags("a", "b"), meter.WithBaseUnit("bytes"))
	require.NoError(t, err)

	assert.Contains(t, r.Scrape(), `gauge_bytes{a="b",} 0.0`)
}

func TestScrape_Quantiles(t *testing.T) {
	r, _ := newRegistry(t)

	_, err := r.Timer("timer", meter.WithPercentiles(0.5))
	require.NoError(t, err)
	_, err = r.Summary("ds", meter.WithPercentiles(0.5))
	require.NoError(t, err)

	families := r.Families(nil)
	assert.True(t, hasQuantile(families, "timer_duration_seconds"))
	assert.True(t, hasQuantile(families, "ds"))
}

func TestScrape_TypedCustomMeter(t *testing.T) {
	r, _ := newRegistry(t)

	_, err := r.Custom("name", meter.TypeCounter, []meter.Measurement{
		{Statistic: meter.StatisticCount, Value: meter.Const(1)},
	})
	require.NoError(t, err)

	families := r.Families(nil)
	require.Len(t, families, 1)
	assert.Equal(t, exposition.Counter, families[0].Type)
	require.Len(t, families[0].Samples, 1)
	assert.Equal(t, []string{"statistic"}, families[0].Samples[0].LabelNames)
	assert.Equal(t, []string{"COUNT"}, families[0].Samples[0].LabelValues)
}

func TestScrape_HelpText(t *testing.T) {
	r, _ := newRegistry(t)

	_, err := r.Timer("timer", meter.WithDescription("my timer"))
	require.NoError(t, err)
	_, err = r.Counter("counter", meter.WithDescription("my counter"))
	require.NoError(t, err)
	_, err = r.Summary("summary", meter.WithDescription("my summary"))
	require.NoError(t, err)
	_, err = r.Gauge("gauge", meter.Const(1), meter.WithDescription("my gauge"))
	require.NoError(t, err)
	_, err = r.LongTaskTimer("long.task.timer", meter.WithDescription("my long task timer"))
	require.NoError(t, err)

	scraped := r.Scrape()
	for _, want := range []string{
		"# HELP timer_duration_seconds my timer\n",
		"# HELP summary my summary\n",
		"# HELP gauge my gauge\n",
		"# HELP counter_total my counter\n",
		"# HELP long_task_timer_duration_seconds my long task timer\n",
	} {
		assert.Contains(t, scraped, want)
	}
}

func TestScrape_WithoutDescriptions(t *testing.T) {
	r, _ := newRegistry(t, WithoutDescriptions())

	_, err := r.Counter("counter", meter.WithDescription("my counter"))
	require.NoError(t, err)

	assert.NotContains(t, r.Scrape(), "# HELP")
}

func TestScrape_Type(t *testing.T) {
	r, _ := newRegistry(t)

	_, err := r.Timer("t1")
	require.NoError(t, err)
	_, err = r.Timer("t2", meter.WithPercentileHistogram(true))
	require.NoError(t, err)

	scraped := r.Scrape()
	assert.Contains(t, scraped, "# TYPE t1_duration_seconds summary\n")
	assert.Contains(t, scraped, "# TYPE t2_duration_seconds histogram\n")
}

func TestScrape_FunctionCounterNaming(t *testing.T) {
	r, _ := newRegistry(t)

	_, err := r.FunctionCounter("api.requests", meter.Const(1))
	require.NoError(t, err)
	_, err = r.FunctionCounter("my.custom", meter.Const(0))
	require.NoError(t, err)

	scraped := r.Scrape()
	assert.Contains(t, scraped, "# TYPE api_requests_total counter\n")
	assert.Contains(t, scraped, "api_requests_total 1.0\n")
	assert.Contains(t, scraped, "my_custom_total 0.0\n")
}

func TestScrape_PercentileTimersContainPositiveInfinity(t *testing.T) {
	r, _ := newRegistry(t)

	tm, err := r.Timer("my.timer", meter.WithPercentileHistogram(true))
	require.NoError(t, err)
	tm.Record(time.Millisecond)

	scraped := r.Scrape()
	assert.Contains(t, scraped, `le="+Inf"`)

	lines := slices.DeleteFunc(strings.Split(scraped, "\n"), func(l string) bool {
		return !strings.Contains(l, "le=")
	})
	assert.Len(t, lines, 69, "timer buckets are clamped to the expected range by default")
}

func TestScrape_HistogramsAccumulateToInfinityEvenWhenClamped(t *testing.T) {
	r, _ := newRegistry(t)

	tm, err := r.Timer("t1", meter.WithPercentileHistogram(true))
	require.NoError(t, err)
	tm.Record(106 * time.Second)

	assert.Contains(t, r.Scrape(), `t1_duration_seconds_bucket{le="+Inf",} 1.0`)
}

func TestScrape_HistogramsNeverReset(t *testing.T) {
	r, clk := newRegistry(t)

	tm, err := r.Timer("t1",
		meter.WithPercentileHistogram(true),
		meter.WithExpiry(60*time.Second),
		meter.WithDurationSLOs(100*time.Millisecond),
	)
	require.NoError(t, err)
	s, err := r.Summary("s1",
		meter.WithPercentileHistogram(true),
		meter.WithExpiry(60*time.Second),
		meter.WithServiceLevelObjectives(100),
	)
	require.NoError(t, err)

	tm.Record(100 * time.Millisecond)
	s.Record(100)
	clk.Add(60 * time.Second)

	scraped := r.Scrape()
	assert.Contains(t, scraped, `t1_duration_seconds_bucket{le="0.1",} 1.0`)
	assert.Contains(t, scraped, `s1_bucket{le="100.0",} 1.0`)
}

func TestScrape_DistributionPercentileBuckets(t *testing.T) {
	r, _ := newRegistry(t)

	ds, err := r.Summary("ds",
		meter.WithPercentileHistogram(true),
		meter.WithMinimumExpectedValue(1),
		meter.WithMaximumExpectedValue(2100),
	)
	require.NoError(t, err)
	for _, v := range []float64{30, 9, 62} {
		ds.Record(v)
	}

	scraped := r.Scrape()
	assert.Contains(t, scraped, `ds_bucket{le="1.0",}`)
	assert.Contains(t, scraped, `ds_bucket{le="2100.0",} 3.0`)
	assert.Contains(t, scraped, `ds_bucket{le="+Inf",} 3.0`)
}

func TestScrape_ValueLessThanTheSmallestBucket(t *testing.T) {
	r, _ := newRegistry(t)

	s, err := r.Summary("speed.index",
		meter.WithTags("page", "home"),
		meter.WithDescription("Distribution of 'speed index' ratings"),
		meter.WithPercentileHistogram(true),
	)
	require.NoError(t, err)
	s.Record(0)

	assert.Contains(t, r.Scrape(), `speed_index_bucket{page="home",le="+Inf",} 1.0`)
}

func TestScrape_ServiceLevelObjectivesOnly(t *testing.T) {
	r, _ := newRegistry(t)

	s, err := r.Summary("my.summary", meter.WithServiceLevelObjectives(1))
	require.NoError(t, err)
	s.Record(1)
	assert.Contains(t, r.Scrape(), `my_summary_bucket{le="1.0",} 1.0`)

	tm, err := r.Timer("my.timer", meter.WithDurationSLOs(time.Millisecond))
	require.NoError(t, err)
	tm.Record(time.Millisecond)
	assert.Contains(t, r.Scrape(), `my_timer_duration_seconds_bucket{le="0.001",} 1.0`)
}

func TestScrape_TimersRecordMax(t *testing.T) {
	r, clk := newRegistry(t)

	tm, err := r.Timer("my.timer")
	require.NoError(t, err)
	tm.Record(10 * time.Millisecond)
	tm.Record(time.Second)

	assert.Equal(t, time.Second, tm.Max())
	assert.Contains(t, r.Scrape(), "my_timer_duration_seconds_max 1.0\n")

	clk.Add(time.Minute)
	assert.Equal(t, time.Duration(0), tm.Max())
	assert.Contains(t, r.Scrape(), "my_timer_duration_seconds_max 0.0\n")
}

func TestScrape_SummariesRecordMax(t *testing.T) {
	r, clk := newRegistry(t)

	s, err := r.Summary("my.summary")
	require.NoError(t, err)
	s.Record(10)
	s.Record(1)

	assert.Equal(t, 10.0, s.Max())
	assert.Contains(t, r.Scrape(), "my_summary_max 10.0\n")

	clk.Add(time.Minute)
	assert.Equal(t, 0.0, s.Max())
	scraped := r.Scrape()
	assert.Contains(t, scraped, "my_summary_max 0.0\n")
	assert.Contains(t, scraped, "my_summary_count 2.0\n", "count survives the decay")
}

func TestScrape_TimerMultipleMetrics(t *testing.T) {
	r, _ := newRegistry(t)

	tm, err := r.Timer("my.timer")
	require.NoError(t, err)
	tm.Record(10 * time.Millisecond)
	tm.Record(20 * time.Second)

	scraped := r.Scrape()
	assert.Contains(t, scraped, "# TYPE my_timer_duration_seconds_max gauge\n")
	assert.Contains(t, scraped, "my_timer_duration_seconds_max 20.0\n")
	assert.Contains(t, scraped, "# TYPE my_timer_duration_seconds summary\n")
	assert.Contains(t, scraped, "my_timer_duration_seconds_count 2.0\n")
	assert.Contains(t, scraped, "my_timer_duration_seconds_sum 20.01\n")
}

func TestScrape_SummaryMultipleMetrics(t *testing.T) {
	r, _ := newRegistry(t)

	s, err := r.Summary("my.summary")
	require.NoError(t, err)
	s.Record(20)
	s.Record(1)

	scraped := r.Scrape()
	assert.Contains(t, scraped, "# TYPE my_summary_max gauge\n")
	assert.Contains(t, scraped, "my_summary_max 20.0\n")
	assert.Contains(t, scraped, "# TYPE my_summary summary\n")
	assert.Contains(t, scraped, "my_summary_count 2.0\n")
	assert.Contains(t, scraped, "my_summary_sum 21.0\n")
}

func TestScrape_OneTypeAndHelpPerFamily(t *testing.T) {
	r, _ := newRegistry(t)

	t1, err := r.Timer("my.timer", meter.WithTags("tag", "value1"), meter.WithDescription("latency"))
	require.NoError(t, err)
	t2, err := r.Timer("my.timer", meter.WithTags("tag", "value2"), meter.WithDescription("latency"))
	require.NoError(t, err)
	t1.Record(10 * time.Millisecond)
	t2.Record(time.Second)

	scraped := r.Scrape()
	assert.Equal(t, 1, strings.Count(scraped, "# TYPE my_timer_duration_seconds_max gauge\n"))
	assert.Equal(t, 1, strings.Count(scraped, "# HELP my_timer_duration_seconds_max "))
	assert.Equal(t, 1, strings.Count(scraped, "# TYPE my_timer_duration_seconds summary\n"))
	assert.Equal(t, 1, strings.Count(scraped, "# HELP my_timer_duration_seconds "))
	assert.Contains(t, scraped, `my_timer_duration_seconds_count{tag="value1",} 1.0`)
	assert.Contains(t, scraped, `my_timer_duration_seconds_count{tag="value2",} 1.0`)
}

func TestScrape_QuantilesFromRecentSamples(t *testing.T) {
	r, clk := newRegistry(t)

	tm, err := r.Timer("my.timer",
		meter.WithPercentiles(1),
		meter.WithBufferLength(2),
		meter.WithExpiry(time.Minute),
	)
	require.NoError(t, err)
	s, err := r.Summary("my.summary",
		meter.WithPercentiles(1),
		meter.WithBufferLength(2),
		meter.WithExpiry(time.Minute),
	)
	require.NoError(t, err)

	tm.Record(time.Second)
	s.Record(1)
	assert.InDelta(t, 1.0, tm.Snapshot().Percentiles[0].Value, 0.1)
	assert.InDelta(t, 1.0, s.Snapshot().Percentiles[0].Value, 0.2)

	tm.Record(5 * time.Second)
	s.Record(5)
	assert.InDelta(t, 5.0, tm.Snapshot().Percentiles[0].Value, 0.1)
	assert.InDelta(t, 5.0, s.Snapshot().Percentiles[0].Value, 0.2)

	clk.Add(60 * time.Second)
	tm.Record(2 * time.Second)
	s.Record(2)
	assert.InDelta(t, 2.0, tm.Snapshot().Percentiles[0].Value, 0.1)
	assert.InDelta(t, 2.0, s.Snapshot().Percentiles[0].Value, 0.2)
}

func TestScrape_TimerSumInSeconds(t *testing.T) {
	r, _ := newRegistry(t)

	tm, err := r.Timer("my.timer", meter.WithPercentileHistogram(true))
	require.NoError(t, err)
	tm.Record(time.Second)

	assert.Equal(t, 1.0, tm.Snapshot().Total)
}

func TestScrape_LongTaskTimer(t *testing.T) {
	r, clk := newRegistry(t)

	ltt, err := r.LongTaskTimer("my.long.task.timer")
	require.NoError(t, err)
	task := ltt.Start()
	clk.Add(90 * time.Second)

	scraped := r.Scrape()
	assert.Contains(t, scraped, "# TYPE my_long_task_timer_duration_seconds untyped\n")
	assert.Contains(t, scraped, "my_long_task_timer_duration_seconds_active_count 1.0\n")
	assert.Contains(t, scraped, "my_long_task_timer_duration_seconds_duration_sum 90.0\n")
	assert.Contains(t, scraped, "# TYPE my_long_task_timer_duration_seconds_max gauge\n")
	assert.Contains(t, scraped, "my_long_task_timer_duration_seconds_max 90.0\n")

	task.Stop()
	assert.Contains(t, r.Scrape(), "my_long_task_timer_duration_seconds_active_count 0.0\n")
}

func TestScrape_LongTaskTimerHistogram(t *testing.T) {
	r, clk := newRegistry(t)

	ltt, err := r.LongTaskTimer("batch", meter.WithDurationSLOs(time.Minute, 5*time.Minute))
	require.NoError(t, err)
	ltt.Start()
	clk.Add(2 * time.Minute)

	scraped := r.Scrape()
	assert.Contains(t, scraped, "# TYPE batch_duration_seconds histogram\n")
	assert.Contains(t, scraped, `batch_duration_seconds_bucket{le="60.0",} 0.0`)
	assert.Contains(t, scraped, `batch_duration_seconds_bucket{le="300.0",} 1.0`)
	assert.Contains(t, scraped, `batch_duration_seconds_bucket{le="+Inf",} 1.0`)
}

func TestScrape_CustomMeterStatistics(t *testing.T) {
	r, _ := newRegistry(t)

	_, err := r.Custom("my.custom.meter", meter.TypeOther, []meter.Measurement{
		{Statistic: meter.StatisticTotal, Value: meter.Const(1)},
		{Statistic: meter.StatisticMax, Value: meter.Const(2)},
		{Statistic: meter.StatisticValue, Value: meter.Const(3)},
	}, meter.WithTags("k", "v"))
	require.NoError(t, err)

	scraped := r.Scrape()
	assert.Contains(t, scraped, "# TYPE my_custom_meter untyped\n")
	assert.Contains(t, scraped, `my_custom_meter_sum{k="v",statistic="TOTAL",} 1.0`)
	assert.Contains(t, scraped, `my_custom_meter_max{k="v",statistic="MAX",} 2.0`)
	assert.Contains(t, scraped, `my_custom_meter{k="v",statistic="VALUE",} 3.0`)
}

func TestScrape_SampleOrder(t *testing.T) {
	r, _ := newRegistry(t)

	s, err := r.Summary("order", meter.WithPercentiles(0.5), meter.WithServiceLevelObjectives(10))
	require.NoError(t, err)
	s.Record(4)

	want := "# TYPE order histogram\n" +
		"order{quantile=\"0.5\",} 4.0\n" +
		"order_bucket{le=\"10.0\",} 1.0\n" +
		"order_bucket{le=\"+Inf\",} 1.0\n" +
		"order_count 1.0\n" +
		"order_sum 4.0\n" +
		"# TYPE order_max gauge\n" +
		"order_max 4.0\n"
	assert.Equal(t, want, r.Scrape())
}

func TestScrapeNames(t *testing.T) {
	tests := []struct {
		name     string
		register func(r *Registry)
		included []string
		expected []string
	}{
		{
			name:     "counter",
			register: func(r *Registry) { _, _ = r.Counter("my.count") },
			included: []string{"my_count_total"},
			expected: []string{"my_count_total"},
		},
		{
			name:     "gauge",
			register: func(r *Registry) { _, _ = r.Gauge("my.gauge", meter.Const(1)) },
			included: []string{"my_gauge"},
			expected: []string{"my_gauge"},
		},
		{
			name:     "timer",
			register: func(r *Registry) { _, _ = r.Timer("my.timer") },
			included: []string{"my_timer_duration_seconds_count", "my_timer_duration_seconds_sum", "my_timer_duration_seconds_max"},
			expected: []string{"my_timer_duration_seconds_count", "my_timer_duration_seconds_sum", "my_timer_duration_seconds_max"},
		},
		{
			name:     "long task timer",
			register: func(r *Registry) { _, _ = r.LongTaskTimer("my.long.task.timer") },
			included: []string{
				"my_long_task_timer_duration_seconds",
				"my_long_task_timer_duration_seconds_max",
				"my_long_task_timer_duration_seconds_active_count",
				"my_long_task_timer_duration_seconds_duration_sum",
			},
			expected: []string{
				"my_long_task_timer_duration_seconds_max",
				"my_long_task_timer_duration_seconds_active_count",
				"my_long_task_timer_duration_seconds_duration_sum",
			},
		},
		{
			name:     "distribution summary",
			register: func(r *Registry) { _, _ = r.Summary("my.distribution.summary") },
			included: []string{"my_distribution_summary_count", "my_distribution_summary_sum", "my_distribution_summary_max"},
			expected: []string{"my_distribution_summary_count", "my_distribution_summary_sum", "my_distribution_summary_max"},
		},
		{
			name: "custom meter",
			register: func(r *Registry) {
				_, _ = r.Custom("my.custom.meter", meter.TypeOther, []meter.Measurement{
					{Statistic: meter.StatisticTotal, Value: meter.Const(1)},
					{Statistic: meter.StatisticMax, Value: meter.Const(1)},
				})
			},
			included: []string{"my_custom_meter", "my_custom_meter_sum", "my_custom_meter_max"},
			expected: []string{"my_custom_meter_sum", "my_custom_meter_max"},
		},
		{
			name:     "empty set",
			register: func(r *Registry) { _, _ = r.Counter("my.count") },
			included: []string{},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRegistry(t)
			tt.register(r)

			included := make(map[string]struct{})
			for _, n := range tt.included {
				included[n] = struct{}{}
			}
			var names []string
			for _, f := range r.Families(included) {
				require.NotEmpty(t, f.Samples, "empty families are dropped")
				for _, s := range f.Samples {
					names = append(names, s.Name)
				}
			}
			assert.ElementsMatch(t, tt.expected, names)

			scraped := r.ScrapeNames(tt.included...)
			if len(tt.expected) == 0 {
				assert.Empty(t, scraped)
			}
		})
	}
}

func TestScrapeNames_NoOrphanHeaders(t *testing.T) {
	r, _ := newRegistry(t)

	_, err := r.Gauge("kept", meter.Const(1), meter.WithDescription("kept gauge"))
	require.NoError(t, err)
	_, err = r.Gauge("dropped", meter.Const(1), meter.WithDescription("dropped gauge"))
	require.NoError(t, err)

	assert.Equal(t, "# HELP kept kept gauge\n# TYPE kept gauge\nkept 1.0\n", r.ScrapeNames("kept"))
}

func hasQuantile(families []exposition.Family, name string) bool {
	for _, f := range families {
		for _, s := range f.Samples {
			if s.Name == name && slices.Contains(s.LabelNames, "quantile") {
				return true
			}
		}
	}
	return false
}

func BenchmarkScrape(b *testing.B) {
	r := New()
	defer r.Close()
	for i := 0; i < 20; i++ {
		tm, _ := r.Timer("bench.timer", meter.WithTags("i", strings.Repeat("x", i+1)), meter.WithPercentileHistogram(true))
		tm.Record(time.Duration(i) * time.Millisecond)
	}

	b.ReportAllocs()
	for b.Loop() {
		_ = r.Scrape()
	}
}
