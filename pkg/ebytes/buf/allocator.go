package buf

import (
	"sync"
	"sync/atomic"
)

// Predefined pool tier sizes.
// The largest tier (8MB) keeps 4K video frames pooled; anything bigger is
// allocated directly and left to the GC.
const (
	Size32   = 1 << 5  // 32 bytes
	Size512  = 1 << 9  // 512 bytes
	Size4K   = 1 << 12 // 4 KB
	Size16K  = 1 << 14 // 16 KB
	Size64K  = 1 << 16 // 64 KB
	Size256K = 1 << 18 // 256 KB
	Size1M   = 1 << 20 // 1 MB
	Size4M   = 1 << 22 // 4 MB
	Size8M   = 1 << 23 // 8 MB
)

var tierSizes = [...]int{Size32, Size512, Size4K, Size16K, Size64K, Size256K, Size1M, Size4M, Size8M}

// Allocator hands out backing arrays for byte handles.
//
// Alloc returns a slice with len == size and cap >= size. Free receives the
// full-capacity slice previously returned by Alloc and must not be called
// twice for the same allocation.
type Allocator interface {
	Alloc(size int) []byte
	Free(b []byte)
}

// Pool is a size-tiered allocator backed by one sync.Pool per tier.
type Pool struct {
	tiers [len(tierSizes)]sync.Pool
}

// Default is the process-wide pool.
var Default = NewPool()

// NewPool creates an empty tiered pool
func NewPool() *Pool {
	p := &Pool{}
	for i, size := range tierSizes {
		p.tiers[i].New = func() any { return make([]byte, size) }
	}
	return p
}

// tierFor returns the index of the smallest tier holding size, or -1
func tierFor(size int) int {
	for i, s := range tierSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// Alloc returns a buffer from the matching tier.
// Sizes beyond the largest tier are allocated directly.
func (p *Pool) Alloc(size int) []byte {
	i := tierFor(size)
	if i < 0 {
		return make([]byte, size)
	}
	return p.tiers[i].Get().([]byte)[:size]
}

// Free returns a buffer to the tier matching its capacity.
// Buffers whose capacity is not an exact tier size are left to the GC.
func (p *Pool) Free(b []byte) {
	if b == nil {
		return
	}
	c := cap(b)
	i := tierFor(c)
	if i < 0 || tierSizes[i] != c {
		return
	}
	p.tiers[i].Put(b[:c])
}

// Stats is a snapshot of a Counting allocator.
type Stats struct {
	Allocs      int64
	Frees       int64
	DoubleFrees int64
	Live        int64
}

// Counting wraps an Allocator and tracks every allocation it hands out.
// A Free of a buffer that is not live is counted as a double free and is not
// forwarded to the wrapped allocator.
type Counting struct {
	next Allocator

	allocs      atomic.Int64
	frees       atomic.Int64
	doubleFrees atomic.Int64

	mu   sync.Mutex
	live map[*byte]struct{}
}

// NewCounting wraps next; a nil next wraps Default
func NewCounting(next Allocator) *Counting {
	if next == nil {
		next = Default
	}
	return &Counting{next: next, live: make(map[*byte]struct{})}
}

func (c *Counting) Alloc(size int) []byte {
	b := c.next.Alloc(size)
	c.allocs.Add(1)
	if cap(b) > 0 {
		c.mu.Lock()
		c.live[&b[:1][0]] = struct{}{}
		c.mu.Unlock()
	}
	return b
}

func (c *Counting) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	key := &b[:1][0]
	c.mu.Lock()
	_, ok := c.live[key]
	delete(c.live, key)
	c.mu.Unlock()
	if !ok {
		c.doubleFrees.Add(1)
		return
	}
	c.frees.Add(1)
	c.next.Free(b)
}

// Stats returns the current counters
func (c *Counting) Stats() Stats {
	c.mu.Lock()
	live := int64(len(c.live))
	c.mu.Unlock()
	return Stats{
		Allocs:      c.allocs.Load(),
		Frees:       c.frees.Load(),
		DoubleFrees: c.doubleFrees.Load(),
		Live:        live,
	}
}
