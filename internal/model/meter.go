// Package model holds the JSON shapes served by the HTTP endpoints.
package model

import (
	"math"

	"github.com/idudko/promreg/pkg/meter"
)

// Meter describes one registered meter for the /meters listing.
//
// Example:
//
//	{
//	  "name": "http.server.requests",
//	  "type": "timer",
//	  "tags": {"method": "GET", "status": "200", "uri": "/metrics"},
//	  "measurements": [
//	    {"statistic": "COUNT", "value": 12},
//	    {"statistic": "TOTAL_TIME", "value": 0.034},
//	    {"statistic": "MAX", "value": 0.008}
//	  ]
//	}
type Meter struct {
	// Name is the dotted meter name as registered, before any naming
	// convention is applied.
	Name string `json:"name"`

	// Type is the declared meter type: "counter", "gauge", "timer",
	// "distribution_summary", "long_task_timer" or "other".
	Type string `json:"type"`

	Tags        map[string]string `json:"tags,omitempty"`
	BaseUnit    string            `json:"base_unit,omitempty"`
	Description string            `json:"description,omitempty"`

	// Measurements is empty when the meter failed to report; Error then
	// holds the reason.
	Measurements []Measurement `json:"measurements"`
	Error        string        `json:"error,omitempty"`
}

// Measurement is one statistic of a meter.
//
// Value is nil for NaN and infinities, which JSON cannot carry.
type Measurement struct {
	Statistic string   `json:"statistic"`
	Value     *float64 `json:"value"`
}

// FromMeter reads m's current measurements.
func FromMeter(m meter.Meter) Meter {
	id := m.ID()
	out := Meter{
		Name:         id.Name(),
		Type:         id.Type().String(),
		BaseUnit:     id.BaseUnit(),
		Description:  id.Description(),
		Measurements: []Measurement{},
	}

	if tags := id.Tags(); len(tags) > 0 {
		out.Tags = make(map[string]string, len(tags))
		for _, t := range tags {
			out.Tags[t.Key] = t.Value
		}
	}

	readings, err := m.Measure()
	if err != nil {
		out.Error = err.Error()
		return out
	}
	for _, r := range readings {
		ms := Measurement{Statistic: string(r.Statistic)}
		if !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0) {
			v := r.Value
			ms.Value = &v
		}
		out.Measurements = append(out.Measurements, ms)
	}
	return out
}
