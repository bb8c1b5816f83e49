package other

type Registry struct{}

func (r *Registry) Counter(name string) {}

func use(r *Registry) {
	r.Counter("Not_Checked")
}
