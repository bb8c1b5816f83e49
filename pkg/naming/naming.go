// Package naming translates dotted meter names and tag keys into tokens
// that are safe for the Prometheus text format.
package naming

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/idudko/promreg/pkg/meter"
)

// Convention maps meter identities to exposition names.
type Convention interface {
	Name(name string, typ meter.Type, baseUnit string) string
	TagKey(key string) string
	TagValue(value string) string
}

var (
	nameChars   = regexp.MustCompile(`[^a-zA-Z0-9_:]`)
	tagKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

// Prometheus is the default convention: timers report `_duration_seconds`.
var Prometheus Convention = prometheus{timerSuffix: "_duration"}

// PrometheusSeconds is like Prometheus but timers only get `_seconds`.
var PrometheusSeconds Convention = prometheus{}

type prometheus struct {
	timerSuffix string
}

func (c prometheus) Name(name string, typ meter.Type, baseUnit string) string {
	n := snakeCase(name)

	switch typ {
	case meter.TypeCounter, meter.TypeDistributionSummary, meter.TypeGauge:
		if baseUnit != "" && !strings.HasSuffix(n, "_"+baseUnit) {
			n += "_" + baseUnit
		}
	}

	switch typ {
	case meter.TypeCounter:
		if !strings.HasSuffix(n, "_total") {
			n += "_total"
		}
	case meter.TypeTimer, meter.TypeLongTaskTimer:
		switch {
		case c.timerSuffix != "" && strings.HasSuffix(n, c.timerSuffix):
			n += "_seconds"
		case !strings.HasSuffix(n, "_seconds"):
			n += c.timerSuffix + "_seconds"
		}
	}

	return prefixed(nameChars.ReplaceAllString(n, "_"))
}

func (prometheus) TagKey(key string) string {
	return prefixed(tagKeyChars.ReplaceAllString(snakeCase(key), "_"))
}

func (prometheus) TagValue(value string) string {
	return value
}

func snakeCase(s string) string {
	return strings.ReplaceAll(s, ".", "_")
}

func prefixed(s string) string {
	if s == "" {
		return "m_"
	}
	if r := []rune(s)[0]; !unicode.IsLetter(r) {
		return "m_" + s
	}
	return s
}

// Func adapts a plain name function to a Convention. Tag keys and values
// are passed through the Prometheus rules.
type Func func(name string, typ meter.Type, baseUnit string) string

func (f Func) Name(name string, typ meter.Type, baseUnit string) string {
	return f(name, typ, baseUnit)
}

func (Func) TagKey(key string) string {
	return Prometheus.TagKey(key)
}

func (Func) TagValue(value string) string {
	return value
}
