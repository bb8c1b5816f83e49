// Package registry holds application meters and renders them in the
// Prometheus text format.
//
// Locking: a single mutex serializes registration and removal. Scrapes never
// take it; they read immutable snapshots of the family list and of each
// family's series, published with atomic pointers. Value functions may
// therefore register or remove meters, on any goroutine, while a scrape is
// running. No user code runs while the mutex is held.
package registry

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/idudko/promreg/internal/workerpool"
	"github.com/idudko/promreg/pkg/meter"
	"github.com/idudko/promreg/pkg/naming"
)

// FailureListener is told about every failed registration.
type FailureListener func(id meter.ID, err error)

// Registry is safe for concurrent use.
type Registry struct {
	clock        clock.Clock
	convention   naming.Convention
	step         time.Duration
	logger       zerolog.Logger
	commonTags   meter.Tags
	descriptions bool
	strict       atomic.Bool
	notifier     *workerpool.WorkerPool
	notifyOnce   sync.Once

	mu         sync.Mutex
	entries    map[uint64][]*entry
	names      map[string]*collector
	collectors atomic.Pointer[[]*collector]

	listenersMu sync.RWMutex
	listeners   []FailureListener
}

type entry struct {
	meter     meter.Meter
	kind      kind
	collector *collector
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock driving decay windows and timers.
func WithClock(clk clock.Clock) Option {
	return func(r *Registry) {
		r.clock = clk
	}
}

// WithConvention sets the naming convention.
func WithConvention(c naming.Convention) Option {
	return func(r *Registry) {
		r.convention = c
	}
}

// WithStep sets the default decay window of timers and summaries.
func WithStep(step time.Duration) Option {
	return func(r *Registry) {
		r.step = step
	}
}

// WithStrictRegistration makes conflicting registrations return an error
// instead of a detached meter.
func WithStrictRegistration() Option {
	return func(r *Registry) {
		r.strict.Store(true)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithCommonTags adds tags to every meter. Tags given at registration win.
func WithCommonTags(kv ...string) Option {
	return func(r *Registry) {
		r.commonTags = r.commonTags.And(meter.TagsOf(kv...)...)
	}
}

// WithoutDescriptions drops descriptions, and so HELP lines, from the output.
func WithoutDescriptions() Option {
	return func(r *Registry) {
		r.descriptions = false
	}
}

// WithRegistrationFailedListener is OnRegistrationFailed as an option.
func WithRegistrationFailedListener(l FailureListener) Option {
	return func(r *Registry) {
		r.listeners = append(r.listeners, l)
	}
}

// New returns an empty registry. The worker delivering failure notifications
// starts with the first failed registration; Close releases it.
func New(opts ...Option) *Registry {
	r := &Registry{
		clock:        clock.New(),
		convention:   naming.Prometheus,
		step:         time.Minute,
		logger:       zerolog.Nop(),
		descriptions: true,
		entries:      make(map[uint64][]*entry),
		names:        make(map[string]*collector),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.collectors.Store(&[]*collector{})

	r.notifier = workerpool.New(1, 64, r.logger)

	return r
}

// Close stops delivering failure notifications.
func (r *Registry) Close() {
	r.notifier.Stop()
}

// SetStrict switches strict registration on or off.
func (r *Registry) SetStrict(strict bool) {
	r.strict.Store(strict)
}

// OnRegistrationFailed adds a listener. Listeners run asynchronously, once
// per failure, and must not assume any particular goroutine.
func (r *Registry) OnRegistrationFailed(l FailureListener) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Clock returns the registry clock.
func (r *Registry) Clock() clock.Clock {
	return r.clock
}

// register adds m under id, unless an equal identity of the same kind is
// already registered, in which case that meter is returned instead.
func (r *Registry) register(id meter.ID, k kind, m meter.Meter) (meter.Meter, error) {
	r.mu.Lock()
	existing, err := r.add(id, k, m)
	r.mu.Unlock()

	if err != nil {
		r.failed(id, err)
		if r.strict.Load() {
			return nil, err
		}
		// Detached: it works but is never exported.
		return m, nil
	}
	return existing, nil
}

func (r *Registry) add(id meter.ID, k kind, m meter.Meter) (meter.Meter, error) {
	h := hashID(id)
	for _, e := range r.entries[h] {
		if !e.meter.ID().Equal(id) {
			continue
		}
		if e.kind != k {
			return nil, conflict(id, "already registered as a %s", e.kind)
		}
		return e.meter, nil
	}

	name := r.convention.Name(id.Name(), id.Type(), id.BaseUnit())
	labelNames, labelValues, err := r.labels(id, k)
	if err != nil {
		return nil, err
	}

	c, ok := r.names[name]
	switch {
	case ok && c.name != name:
		return nil, conflict(id, "name %q is reserved by family %q", name, c.name)
	case ok && c.kind != k:
		return nil, conflict(id, "family %q is a %s, not a %s", name, c.kind, k)
	case ok && c.typ != id.Type():
		return nil, conflict(id, "family %q is declared %s, not %s", name, c.typ, id.Type())
	case ok && !slices.Equal(c.labelNames, labelNames):
		return nil, conflict(id, "family %q has tag keys [%s], not [%s]",
			name, strings.Join(c.labelNames, ","), strings.Join(labelNames, ","))
	case ok && c.hasSeries(labelValues):
		return nil, conflict(id, "family %q already has a series with the same tags", name)
	case !ok:
		c = newCollector(name, k, id, labelNames)
		for _, n := range c.reserved {
			if owner, taken := r.names[n]; taken {
				return nil, conflict(id, "sample name %q collides with family %q", n, owner.name)
			}
		}
		for _, n := range c.reserved {
			r.names[n] = c
		}
		next := append(slices.Clone(*r.collectors.Load()), c)
		r.collectors.Store(&next)
	}

	c.add(&child{meter: m, labelValues: labelValues})
	r.entries[h] = append(r.entries[h], &entry{meter: m, kind: k, collector: c})

	return m, nil
}

// Remove detaches m. Scrapes started after Remove returns never see it.
func (r *Registry) Remove(m meter.Meter) bool {
	if m == nil {
		return false
	}
	h := hashID(m.ID())

	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.entries[h]
	i := slices.IndexFunc(list, func(e *entry) bool { return e.meter == m })
	if i < 0 {
		return false
	}
	e := list[i]
	if list = slices.Delete(list, i, i+1); len(list) == 0 {
		delete(r.entries, h)
	} else {
		r.entries[h] = list
	}

	if e.collector.remove(m) == 0 {
		for _, n := range e.collector.reserved {
			delete(r.names, n)
		}
		next := slices.DeleteFunc(slices.Clone(*r.collectors.Load()), func(c *collector) bool {
			return c == e.collector
		})
		r.collectors.Store(&next)
	}

	return true
}

// Get finds a registered meter by name and tags. Common tags are applied
// before the lookup.
func (r *Registry) Get(name string, kv ...string) (meter.Meter, bool) {
	id := r.prepare(meter.NewID(name, meter.TypeOther, meter.TagsOf(kv...), "", ""))
	h := hashID(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries[h] {
		if e.meter.ID().Equal(id) {
			return e.meter, true
		}
	}
	return nil, false
}

// Meters returns every exported meter, family by family.
func (r *Registry) Meters() []meter.Meter {
	var out []meter.Meter
	for _, c := range *r.collectors.Load() {
		for _, ch := range c.load() {
			out = append(out, ch.meter)
		}
	}
	return out
}

func (r *Registry) prepare(id meter.ID) meter.ID {
	id = id.WithTags(r.commonTags)
	if !r.descriptions {
		id = id.WithDescription("")
	}
	return id
}

// labels translates tags into label names and values sorted by name. Labels
// the kind's samples add themselves may not come from tags.
func (r *Registry) labels(id meter.ID, k kind) (names, values []string, err error) {
	tags := id.Tags()
	type pair struct{ name, value string }
	pairs := make([]pair, len(tags))
	for i, t := range tags {
		pairs[i] = pair{r.convention.TagKey(t.Key), r.convention.TagValue(t.Value)}
	}
	slices.SortFunc(pairs, func(a, b pair) int { return strings.Compare(a.name, b.name) })

	names = make([]string, len(pairs))
	values = make([]string, len(pairs))
	for i, p := range pairs {
		if slices.Contains(k.labels(), p.name) {
			return nil, nil, conflict(id, "tag key %q is a label the %s adds", p.name, k)
		}
		if i > 0 && p.name == names[i-1] {
			return nil, nil, conflict(id, "tag keys collide on label %q", p.name)
		}
		names[i], values[i] = p.name, p.value
	}
	return names, values, nil
}

func (r *Registry) failed(id meter.ID, err error) {
	r.logger.Warn().Err(err).Str("meter", id.String()).Msg("meter registration failed")

	r.listenersMu.RLock()
	listeners := slices.Clone(r.listeners)
	r.listenersMu.RUnlock()

	if len(listeners) == 0 {
		return
	}
	r.notifyOnce.Do(func() { r.notifier.Start(context.Background()) })

	for _, l := range listeners {
		task := func(context.Context) error {
			l(id, err)
			return nil
		}
		if !r.notifier.Submit(task) {
			go func() { _ = task(context.Background()) }()
		}
	}
}

func hashID(id meter.ID) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(id.Name())
	for _, t := range id.Tags() {
		_, _ = d.WriteString("\xff")
		_, _ = d.WriteString(t.Key)
		_, _ = d.WriteString("\xfe")
		_, _ = d.WriteString(t.Value)
	}
	return d.Sum64()
}
