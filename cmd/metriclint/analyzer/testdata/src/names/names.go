package names

import "github.com/idudko/promreg/pkg/registry"

const queueSize = "queue.size"

func register(r *registry.Registry, dynamic string) {
	r.Counter("http.requests")
	r.Gauge(queueSize, nil)
	r.Timer("db.query")
	r.Summary("payload.size.v2")
	r.Counter(dynamic)

	r.Counter("")                    // want "meter name must not be empty"
	r.Counter("HTTP.Requests")       // want `meter name "HTTP.Requests" should be lower-case and dot-separated`
	r.Gauge("queue_size", nil)       // want `meter name "queue_size" should be lower-case and dot-separated`
	r.Timer("db..query")             // want `meter name "db..query" should be lower-case and dot-separated`
	r.Counter("http.requests.total") // want `meter name "http.requests.total" ends with "total", which the naming convention adds`
	r.Timer("db.query.seconds")      // want `meter name "db.query.seconds" ends with "seconds", which the naming convention adds`
	r.Get("Queue.Size")              // want `meter name "Queue.Size" should be lower-case and dot-separated`

	r.ScrapeNames("queue_size")
}
