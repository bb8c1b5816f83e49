// Package exposition writes metric families in the Prometheus text format,
// version 0.0.4.
package exposition

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

// ContentType is the media type of the text format.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Type is the TYPE of a family.
type Type string

const (
	Counter   Type = "counter"
	Gauge     Type = "gauge"
	Summary   Type = "summary"
	Histogram Type = "histogram"
	Untyped   Type = "untyped"
)

// Sample is one line of output.
type Sample struct {
	Name        string
	LabelNames  []string
	LabelValues []string
	Value       float64
}

// Family groups samples sharing HELP and TYPE.
type Family struct {
	Name    string
	Type    Type
	Help    string
	Samples []Sample
}

// Write renders families in order. HELP is written only for families with
// help text.
func Write(w io.Writer, families []Family) error {
	bw := bufio.NewWriter(w)
	for _, f := range families {
		if f.Help != "" {
			bw.WriteString("# HELP ")
			bw.WriteString(f.Name)
			bw.WriteByte(' ')
			writeEscaped(bw, f.Help, false)
			bw.WriteByte('\n')
		}
		bw.WriteString("# TYPE ")
		bw.WriteString(f.Name)
		bw.WriteByte(' ')
		bw.WriteString(string(f.Type))
		bw.WriteByte('\n')

		for _, s := range f.Samples {
			bw.WriteString(s.Name)
			if len(s.LabelNames) > 0 {
				bw.WriteByte('{')
				for i, name := range s.LabelNames {
					bw.WriteString(name)
					bw.WriteString(`="`)
					writeEscaped(bw, s.LabelValues[i], true)
					bw.WriteString(`",`)
				}
				bw.WriteByte('}')
			}
			bw.WriteByte(' ')
			bw.WriteString(FormatFloat(s.Value))
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

func writeEscaped(w *bufio.Writer, s string, quote bool) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			w.WriteString(`\\`)
		case c == '\n':
			w.WriteString(`\n`)
		case c == '"' && quote:
			w.WriteString(`\"`)
		default:
			w.WriteByte(c)
		}
	}
}

// FormatFloat renders v the way the text format expects: `+Inf`, `-Inf`,
// `NaN`, decimal notation with at least one fractional digit in
// [1e-3, 1e7), scientific notation such as `1.0E7` outside it.
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}

	if abs := math.Abs(v); abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(v, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(n)
}
