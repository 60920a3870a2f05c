package workers

import (
	"context"
	"sync"
)

// Workers runs a set of background workers concurrently and waits for
// all of them to stop.
type Workers struct {
	workers []Worker
}

func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Run launches every worker in its own goroutine and blocks until all
// of them return. Workers stop when ctx is cancelled.
func (w *Workers) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for _, worker := range w.workers {
		wg.Add(1)
		go func(worker Worker) {
			defer wg.Done()
			worker.Run(ctx)
		}(worker)
	}

	wg.Wait()
}
