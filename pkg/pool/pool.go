// Package pool provides a typed wrapper over sync.Pool for values that know
// how to reset themselves, such as *bytes.Buffer.
package pool

import (
	"sync"
)

// Resetter is an interface that types must implement to be used with Pool.
type Resetter interface {
	Reset()
}

// Pool is a generic pool that stores objects of type T.
//
// Objects are reset before they go back into the pool. A pool built with
// WithKeep drops objects the predicate rejects, so an unusually large scrape
// buffer is not retained forever.
type Pool[T Resetter] struct {
	pool sync.Pool
	keep func(T) bool
}

// Option configures a Pool.
type Option[T Resetter] func(*Pool[T])

// WithKeep sets a predicate deciding whether a returned object is pooled.
func WithKeep[T Resetter](keep func(T) bool) Option[T] {
	return func(p *Pool[T]) {
		p.keep = keep
	}
}

// New creates a new Pool[T] with the provided function to create new objects.
// The newFunc is called when the pool is empty and Get is called.
//
// Example:
//
//	buffers := pool.New(func() *bytes.Buffer {
//	    return new(bytes.Buffer)
//	})
func New[T Resetter](newFunc func() T, opts ...Option[T]) *Pool[T] {
	p := &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return newFunc()
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get retrieves an object from the pool.
// If the pool is empty, a new object is created using the newFunc provided to New.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put resets x and returns it to the pool unless the keep predicate rejects it.
//
// Example:
//
//	buf := buffers.Get()
//	defer buffers.Put(buf)
func (p *Pool[T]) Put(x T) {
	if p.keep != nil && !p.keep(x) {
		return
	}
	x.Reset()
	p.pool.Put(x)
}
