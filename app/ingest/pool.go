package ingest

import (
	"sync"
)

// WorkerPool is a fixed-size goroutine pool fed by an unbuffered channel.
// Submit blocks while all workers are busy, which is the backpressure
// mechanism against the embedding provider and the store.
type WorkerPool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// NewWorkerPool starts a pool with the given number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}

	pool := &WorkerPool{tasks: make(chan func())}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go func() {
			defer pool.wg.Done()
			for task := range pool.tasks {
				task()
			}
		}()
	}

	return pool
}

// Submit dispatches a task, blocking until a worker is free
func (p *WorkerPool) Submit(task func()) {
	p.tasks <- task
}

// Close stops accepting tasks and waits for in-flight ones to finish
func (p *WorkerPool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
