package buf

import (
	"fmt"
	"sync/atomic"
)

// Block is a reference-counted backing array shared by several handles.
//
// The refcount starts at 1. Every Retain must be paired with a Release; the
// Release that brings the count to zero runs the release hook exactly once.
// Go atomics are sequentially consistent, so all writes made by former
// holders happen before the hook observes the data.
type Block struct {
	data     []byte
	origCap  int
	refCount atomic.Int32
	release  func([]byte)
}

// NewBlock wraps data (extended to its full capacity) with refcount 1.
// release may be nil, in which case the GC reclaims the array.
func NewBlock(data []byte, release func([]byte)) *Block {
	b := &Block{
		data:    data[:cap(data)],
		origCap: cap(data),
		release: release,
	}
	b.refCount.Store(1)
	return b
}

// Data returns the full backing array
func (b *Block) Data() []byte {
	return b.data
}

// Cap returns the original capacity of the backing array
func (b *Block) Cap() int {
	return b.origCap
}

// RefCount returns the current reference count
func (b *Block) RefCount() int {
	return int(b.refCount.Load())
}

// Unique reports whether the caller holds the only reference.
func (b *Block) Unique() bool {
	return b.refCount.Load() == 1
}

// Retain increments the reference count
func (b *Block) Retain() {
	if n := b.refCount.Add(1); n <= 1 {
		panic(fmt.Sprintf("buf: retain of released block (refcount %d)", n-1))
	}
}

// Release decrements the reference count and runs the release hook when it
// reaches zero. It reports whether this call freed the block.
func (b *Block) Release() bool {
	n := b.refCount.Add(-1)
	switch {
	case n > 0:
		return false
	case n < 0:
		panic(fmt.Sprintf("buf: block refcount underflow (%d)", n))
	}

	data := b.data
	b.data = nil
	if b.release != nil {
		b.release(data)
	}
	return true
}

// Detach hands the backing array to the sole holder without running the
// release hook. The block is dead afterwards.
func (b *Block) Detach() []byte {
	if !b.refCount.CompareAndSwap(1, 0) {
		panic(fmt.Sprintf("buf: detach of shared block (refcount %d)", b.refCount.Load()))
	}
	data := b.data
	b.data = nil
	return data
}
