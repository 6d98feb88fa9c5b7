package contact

import (
	"sort"
	"sync/atomic"
)

// Buffer collects variable-length manifolds from concurrently running
// pair tests into one compact, deterministically ordered array.
//
// Writers reserve a disjoint slot range with a single atomic add and then
// write without further synchronization; no slot is ever written twice.
// Because reservation order depends on scheduling, Compact sorts by
// (pair key, emission ordinal) so the final array is identical across
// runs on identical input.
//
// The buffer never grows during the parallel phase. When a reservation
// does not fit, the whole step reports capacity exhaustion and the caller
// retries with a larger buffer.
type Buffer struct {
	slots      []Contact
	cursor     atomic.Int64
	overflowed atomic.Bool
}

// NewBuffer returns a buffer with the given slot capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{slots: make([]Contact, capacity)}
}

// Capacity returns the slot count.
func (b *Buffer) Capacity() int { return len(b.slots) }

// Grow discards the contents and enlarges the buffer to at least capacity.
func (b *Buffer) Grow(capacity int) {
	if capacity > len(b.slots) {
		b.slots = make([]Contact, capacity)
	}
	b.Reset()
}

// Reset prepares the buffer for a new step, retaining the allocation.
func (b *Buffer) Reset() {
	b.cursor.Store(0)
	b.overflowed.Store(false)
}

// Append writes one pair's manifold into a freshly reserved range. Safe
// for concurrent use. On overflow the manifold is dropped and the buffer
// is marked overflowed; nothing is partially written.
func (b *Buffer) Append(manifold []Contact) {
	n := int64(len(manifold))
	if n == 0 {
		return
	}
	start := b.cursor.Add(n) - n
	if start+n > int64(len(b.slots)) {
		b.overflowed.Store(true)
		return
	}
	for i, c := range manifold {
		c.ordinal = int32(i)
		b.slots[start+int64(i)] = c
	}
}

// Overflowed reports whether any reservation failed since the last Reset.
func (b *Buffer) Overflowed() bool { return b.overflowed.Load() }

// Len returns the number of contacts written so far.
func (b *Buffer) Len() int {
	n := b.cursor.Load()
	if n > int64(len(b.slots)) {
		n = int64(len(b.slots))
	}
	return int(n)
}

// Compact sorts the written contacts into canonical order and returns
// them, appended to dst. The result is ordered by pair key, then by
// emission order within each pair. Returns ok = false if the buffer
// overflowed, in which case the partial contents are not returned.
func (b *Buffer) Compact(dst []Contact) ([]Contact, bool) {
	if b.Overflowed() {
		return dst, false
	}
	used := b.slots[:b.cursor.Load()]
	sort.Slice(used, func(i, j int) bool {
		ki, kj := used[i].PairKey(), used[j].PairKey()
		if ki != kj {
			return ki < kj
		}
		return used[i].ordinal < used[j].ordinal
	})
	return append(dst, used...), true
}
