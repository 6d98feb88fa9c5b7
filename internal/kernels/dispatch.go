package kernels

import (
	"runtime"
	"sync"
)

// serialCutoff is the work-item count below which parallel dispatch costs
// more than it saves.
const serialCutoff = 1024

// Dispatcher fans per-element work out over a fixed set of workers. Each
// worker owns a contiguous index range, so kernels that only write to
// their own range need no locking.
type Dispatcher struct {
	workers int
}

// NewDispatcher returns a dispatcher with the given worker count, or one
// per CPU when workers <= 0.
func NewDispatcher(workers int) *Dispatcher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Dispatcher{workers: workers}
}

// Workers returns the worker count.
func (d *Dispatcher) Workers() int { return d.workers }

// ParallelFor runs fn over [0, n) split into one contiguous chunk per
// worker. fn receives the worker index and its half-open range. The call
// returns once every chunk has completed, which is the barrier between
// dependent kernel launches.
func (d *Dispatcher) ParallelFor(n int, fn func(worker, start, end int)) {
	if n <= 0 {
		return
	}
	if n < serialCutoff || d.workers == 1 {
		fn(0, 0, n)
		return
	}

	chunk := (n + d.workers - 1) / d.workers
	var wg sync.WaitGroup
	for w := 0; w < d.workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			fn(worker, start, end)
		}(w, start, end)
	}
	wg.Wait()
}

var defaultDispatcher = NewDispatcher(0)

// Default returns the process-wide dispatcher.
func Default() *Dispatcher { return defaultDispatcher }
