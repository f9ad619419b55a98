// ABOUTME: Worker pool for running batches of independent replays in parallel
// ABOUTME: Wraps alitto/pond with a submit-and-wait API and an error-aware batch runner

package pool

import (
	"context"
	"runtime"

	"github.com/alitto/pond"
)

// WorkerPool manages a bounded set of worker goroutines
type WorkerPool struct {
	workers int
	pool    *pond.WorkerPool
	group   *pond.TaskGroup
}

// NewWorkerPool creates a pool with the given number of workers
// workers <= 0 sizes the pool to the available CPUs; bufferSize is the task queue capacity
func NewWorkerPool(workers, bufferSize int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if bufferSize < 0 {
		bufferSize = 0
	}

	p := pond.New(workers, bufferSize)
	return &WorkerPool{
		workers: workers,
		pool:    p,
		group:   p.Group(),
	}
}

// Workers returns the maximum number of concurrent tasks
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Submit adds a task to the pool
// Blocks if the task queue is full
func (p *WorkerPool) Submit(task func()) {
	p.group.Submit(task)
}

// Wait blocks until all submitted tasks have completed
func (p *WorkerPool) Wait() {
	p.group.Wait()
}

// Completed returns the number of tasks that have finished
func (p *WorkerPool) Completed() uint64 {
	return p.pool.CompletedTasks()
}

// Close waits for queued tasks and stops the workers
func (p *WorkerPool) Close() {
	p.pool.StopAndWait()
}

// Run calls fn for every item on the pool and waits for all of them
// The first error cancels the context passed to the remaining calls and is returned.
func Run[T any](ctx context.Context, p *WorkerPool, items []T, fn func(ctx context.Context, i int, item T) error) error {
	group, gctx := p.pool.GroupContext(ctx)
	for i, item := range items {
		group.Submit(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i, item)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
