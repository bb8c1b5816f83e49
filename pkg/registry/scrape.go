package registry

import (
	"bytes"
	"io"

	"github.com/idudko/promreg/pkg/exposition"
	"github.com/idudko/promreg/pkg/pool"
)

const maxPooledBuffer = 1 << 20

var buffers = pool.New(func() *bytes.Buffer {
	return new(bytes.Buffer)
}, pool.WithKeep(func(b *bytes.Buffer) bool {
	return b.Cap() <= maxPooledBuffer
}))

// Scrape renders every family.
func (r *Registry) Scrape() string {
	return r.scrape(nil)
}

// ScrapeNames renders only samples whose name is one of names.
func (r *Registry) ScrapeNames(names ...string) string {
	included := make(map[string]struct{}, len(names))
	for _, n := range names {
		included[n] = struct{}{}
	}
	return r.scrape(included)
}

func (r *Registry) scrape(included map[string]struct{}) string {
	buf := buffers.Get()
	defer buffers.Put(buf)

	// Writing into a bytes.Buffer cannot fail.
	_ = r.WriteTo(buf, included)
	return buf.String()
}

// WriteTo renders families into w. A nil included set selects every sample.
func (r *Registry) WriteTo(w io.Writer, included map[string]struct{}) error {
	return exposition.Write(w, r.Families(included))
}

// Families collects the current families. With a non-nil included set only
// samples named in it are kept, and families left empty are dropped.
func (r *Registry) Families(included map[string]struct{}) []exposition.Family {
	var out []exposition.Family
	for _, c := range *r.collectors.Load() {
		for _, f := range c.collect(r.logger) {
			if included != nil {
				kept := f.Samples[:0]
				for _, s := range f.Samples {
					if _, ok := included[s.Name]; ok {
						kept = append(kept, s)
					}
				}
				f.Samples = kept
			}
			if len(f.Samples) == 0 {
				continue
			}
			out = append(out, f)
		}
	}
	return out
}
