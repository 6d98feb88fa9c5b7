// Package kernels provides the data-parallel building blocks the collision
// and solver pipelines are written in terms of.
//
// Work is dispatched the way a GPU launch would be: a Dispatcher splits an
// index space into one contiguous chunk per worker and runs them
// concurrently, returning only when every chunk is done. That return is the
// barrier between dependent launches. Kernels that write only to their own
// chunk need no synchronization at all; reductions combine per-worker
// partial results in worker order so results are reproducible across runs.
package kernels
