package model

import (
	"errors"
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idudko/promreg/pkg/meter"
)

func TestFromMeter(t *testing.T) {
	id := meter.NewID("queue.size", meter.TypeGauge, meter.TagsOf("queue", "jobs"), "items", "Jobs waiting")
	m := FromMeter(meter.NewGauge(id, meter.Const(3)))

	assert.Equal(t, "queue.size", m.Name)
	assert.Equal(t, "gauge", m.Type)
	assert.Equal(t, map[string]string{"queue": "jobs"}, m.Tags)
	assert.Equal(t, "items", m.BaseUnit)
	require.Len(t, m.Measurements, 1)
	assert.Equal(t, "VALUE", m.Measurements[0].Statistic)
	require.NotNil(t, m.Measurements[0].Value)
	assert.Equal(t, 3.0, *m.Measurements[0].Value)
}

func TestFromMeter_NonFiniteAndFailing(t *testing.T) {
	inf := FromMeter(meter.NewGauge(meter.NewID("inf", meter.TypeGauge, nil, "", ""), meter.Const(math.Inf(1))))
	require.Len(t, inf.Measurements, 1)
	assert.Nil(t, inf.Measurements[0].Value)

	failing := FromMeter(meter.NewGauge(meter.NewID("broken", meter.TypeGauge, nil, "", ""), func() (float64, error) {
		return 0, errors.New("source gone")
	}))
	assert.Empty(t, failing.Measurements)
	assert.Contains(t, failing.Error, "source gone")

	data, err := json.Marshal([]Meter{inf, failing})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"name":"inf","type":"gauge","measurements":[{"statistic":"VALUE","value":null}]},
		{"name":"broken","type":"gauge","measurements":[],"error":"`+failing.Error+`"}
	]`, string(data))
}
