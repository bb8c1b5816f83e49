package registry

type Registry struct{}

func (r *Registry) Counter(name string, opts ...any) (any, error) { return nil, nil }
func (r *Registry) Gauge(name string, fn any, opts ...any) (any, error) { return nil, nil }
func (r *Registry) Timer(name string, opts ...any) (any, error) { return nil, nil }
func (r *Registry) Summary(name string, opts ...any) (any, error) { return nil, nil }
func (r *Registry) Get(name string, kv ...string) (any, bool) { return nil, false }
func (r *Registry) ScrapeNames(names ...string) string { return "" }
