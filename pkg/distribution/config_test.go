package distribution

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScale(t *testing.T) {
	assert.Len(t, scale, 276)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, scale[:5])
	assert.Equal(t, int64(math.MaxInt64), scale[len(scale)-1])
	for i := 1; i < len(scale); i++ {
		if scale[i] <= scale[i-1] {
			t.Fatalf("scale is not increasing at %d: %d <= %d", i, scale[i], scale[i-1])
		}
	}
}

func TestConfig_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		cfg      func() Config
		wantLen  int
		wantHead []float64
		wantTail float64
	}{
		{
			name: "no histogram no slo",
			cfg: func() Config {
				return SummaryDefaults(time.Minute)
			},
			wantLen: 0,
		},
		{
			name: "timer clamped to defaults",
			cfg: func() Config {
				c := TimerDefaults(time.Minute)
				c.PercentileHistogram = true
				return c
			},
			wantLen:  68,
			wantHead: []float64{0.001, 0.001048576},
			wantTail: 30,
		},
		{
			name: "summary clamped",
			cfg: func() Config {
				c := SummaryDefaults(time.Minute)
				c.PercentileHistogram = true
				c.MaximumExpectedValue = 2100
				return c
			},
			wantLen:  46,
			wantHead: []float64{1, 2, 3},
			wantTail: 2100,
		},
		{
			name: "unbounded summary keeps the top of the scale",
			cfg: func() Config {
				c := SummaryDefaults(time.Minute)
				c.PercentileHistogram = true
				return c
			},
			wantLen:  276,
			wantHead: []float64{1, 2, 3},
			wantTail: float64(math.MaxInt64),
		},
		{
			name: "slo merged sorted and deduplicated",
			cfg: func() Config {
				c := SummaryDefaults(time.Minute)
				c.ServiceLevelObjectives = []float64{100, 1, 10, 10, math.Inf(1)}
				return c
			},
			wantLen:  3,
			wantHead: []float64{1, 10, 100},
			wantTail: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg().Boundaries()
			assert.Len(t, got, tt.wantLen)
			if tt.wantLen == 0 {
				return
			}
			for i, v := range tt.wantHead {
				assert.InDelta(t, v, got[i], 1e-12)
			}
			assert.InDelta(t, tt.wantTail, got[len(got)-1], 1e-12)
		})
	}
}

func TestConfig_Step(t *testing.T) {
	cfg := TimerDefaults(time.Minute)
	assert.Equal(t, 20*time.Second, cfg.Step())

	cfg.BufferLength = 0
	assert.Equal(t, time.Duration(0), cfg.Step())
}
