package engine

import (
	"sync"

	"github.com/Style3D/block/internal/contact"
)

// manifoldPool recycles the small per-worker contact slices the narrow
// phase fills before handing each manifold to the aggregation buffer.
type manifoldPool struct {
	pool sync.Pool
}

func newManifoldPool() *manifoldPool {
	return &manifoldPool{
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]contact.Contact, 0, 16)
				return &s
			},
		},
	}
}

func (p *manifoldPool) Get() *[]contact.Contact {
	return p.pool.Get().(*[]contact.Contact)
}

func (p *manifoldPool) Put(s *[]contact.Contact) {
	*s = (*s)[:0]
	p.pool.Put(s)
}
