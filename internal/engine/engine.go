// Package engine orchestrates the per-step kernel sequence: bounds
// computation, broad-phase build and query, narrow-phase dispatch,
// contact aggregation, and the constraint solve. Each phase completes
// fully before the next begins; there is no mid-step cancellation.
package engine

import (
	"fmt"
	"time"

	"github.com/Style3D/block/internal/broadphase"
	"github.com/Style3D/block/internal/config"
	"github.com/Style3D/block/internal/contact"
	"github.com/Style3D/block/internal/geom"
	"github.com/Style3D/block/internal/kernels"
	"github.com/Style3D/block/internal/narrowphase"
	"github.com/Style3D/block/internal/solver"
)

// Engine owns the per-step scratch state. It never owns scene geometry;
// callers pass an immutable primitive slice each step and receive
// results referencing primitives by index only. An Engine serves one
// goroutine at a time.
type Engine struct {
	cfg    config.Config
	d      *kernels.Dispatcher
	index  broadphase.Index
	buffer *contact.Buffer
	solver *solver.Solver
	pool   *manifoldPool

	bounds   []geom.Aabb
	pairs    []broadphase.Pair
	contacts []contact.Contact
	skips    []int

	step int
}

// Report summarizes one completed step. Contacts aliases engine scratch
// and is valid until the next Step call.
type Report struct {
	Step       int
	Primitives int
	Skipped    int // primitives dropped for degenerate geometry
	Pairs      int
	Contacts   []contact.Contact
	Elapsed    time.Duration
}

// New validates cfg and builds an engine around it. A nil cfg uses the
// defaults.
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	d := kernels.NewDispatcher(cfg.Workers)
	var index broadphase.Index
	switch cfg.BroadPhase {
	case "grid":
		index = broadphase.NewGrid(d, cfg.CellSize, 1<<14)
	default:
		index = broadphase.NewBvh(d)
	}

	return &Engine{
		cfg:    *cfg,
		d:      d,
		index:  index,
		buffer: contact.NewBuffer(cfg.ContactCapacity),
		solver: solver.New(d),
		pool:   newManifoldPool(),
		pairs:  make([]broadphase.Pair, 0, cfg.PairCapacity),
		skips:  make([]int, d.Workers()),
	}, nil
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() config.Config { return e.cfg }

// Step runs the full collision pipeline over prims. Primitives with
// degenerate geometry or non-finite transforms are skipped, counted in
// the report, and never abort the step. A capacity overflow aborts the
// step with ErrCapacityExceeded; the engine's buffers are intact and the
// caller may enlarge capacities and retry.
func (e *Engine) Step(prims []geom.Primitive) (*Report, error) {
	started := time.Now()
	e.step++

	e.computeBounds(prims)
	skipped := 0
	for _, s := range e.skips {
		skipped += s
	}

	e.index.Build(e.bounds)
	pairs, ok := e.index.QueryPairs(e.bounds, e.pairs[:0])
	if !ok {
		return nil, &StepError{Step: e.step, Wrapped: fmt.Errorf(
			"candidate pairs overflow capacity %d: %w", cap(e.pairs), ErrCapacityExceeded)}
	}
	e.pairs = pairs

	e.buffer.Reset()
	e.d.ParallelFor(len(pairs), func(_, start, end int) {
		scratch := e.pool.Get()
		for i := start; i < end; i++ {
			m := narrowphase.TestPair(prims, pairs[i].A, pairs[i].B, (*scratch)[:0])
			if len(m) > 0 {
				e.buffer.Append(m)
			}
			*scratch = m
		}
		e.pool.Put(scratch)
	})

	contacts, ok := e.buffer.Compact(e.contacts[:0])
	if !ok {
		return nil, &StepError{Step: e.step, Wrapped: fmt.Errorf(
			"contacts overflow capacity %d: %w", e.buffer.Capacity(), ErrCapacityExceeded)}
	}
	e.contacts = contacts

	return &Report{
		Step:       e.step,
		Primitives: len(prims),
		Skipped:    skipped,
		Pairs:      len(pairs),
		Contacts:   contacts,
		Elapsed:    time.Since(started),
	}, nil
}

// GrowCapacities enlarges the pair and contact buffers, the retry path
// after ErrCapacityExceeded. Zero leaves a capacity unchanged.
func (e *Engine) GrowCapacities(pairCap, contactCap int) {
	if pairCap > cap(e.pairs) {
		e.pairs = make([]broadphase.Pair, 0, pairCap)
	}
	if contactCap > e.buffer.Capacity() {
		e.buffer.Grow(contactCap)
	}
}

// SolveContacts assembles the constraint system for the given contacts
// over n primitives and solves it with the configured tolerance and
// iteration budget. Exhausting the budget reports Converged = false on
// the result, not an error.
func (e *Engine) SolveContacts(n int, contacts []contact.Contact) solver.Result {
	sys, rhs := AssembleContacts(n, contacts)
	return e.solver.Solve(sys, rhs, nil, e.cfg.SolverTolerance, e.cfg.SolverMaxIterations)
}

// computeBounds fills e.bounds with world-space boxes. Invalid
// primitives get a point box at the origin; any candidate pair they
// land in is discarded by the narrow phase, which re-checks validity.
func (e *Engine) computeBounds(prims []geom.Primitive) {
	if cap(e.bounds) < len(prims) {
		e.bounds = make([]geom.Aabb, len(prims))
	}
	e.bounds = e.bounds[:len(prims)]
	for w := range e.skips {
		e.skips[w] = 0
	}

	e.d.ParallelFor(len(prims), func(worker, start, end int) {
		for i := start; i < end; i++ {
			p := &prims[i]
			if !p.IsValid() {
				e.bounds[i] = geom.Aabb{}
				e.skips[worker]++
				continue
			}
			e.bounds[i] = p.Bounds()
		}
	})
}
