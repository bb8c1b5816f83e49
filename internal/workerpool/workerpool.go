// Package workerpool runs fire-and-forget tasks on a fixed set of goroutines.
package workerpool

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

type Task func(ctx context.Context) error

type WorkerPool struct {
	workerCount int
	tasks       chan Task
	wg          sync.WaitGroup
	logger      zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	cancel  context.CancelFunc
}

// New returns a pool with workerCount workers and a queue of queueSize tasks.
func New(workerCount, queueSize int, logger zerolog.Logger) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
		tasks:       make(chan Task, queueSize),
		logger:      logger,
	}
}

func (p *WorkerPool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Stop drains queued tasks and waits for the workers to exit.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
}

// Submit queues task without blocking. It reports false when the queue is
// full or the pool is stopped; the task is then dropped.
func (p *WorkerPool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}

	select {
	case p.tasks <- task:
		return true
	default:
		p.logger.Warn().Int("queue", cap(p.tasks)).Msg("worker pool queue is full, dropping task")
		return false
	}
}

func (p *WorkerPool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(ctx, task)
		case <-ctx.Done():
			return
		}
	}
}

func (p *WorkerPool) run(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Msg("task panicked")
		}
	}()

	if err := task(ctx); err != nil {
		p.logger.Error().Err(err).Msg("error executing task")
	}
}
