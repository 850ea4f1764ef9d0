package ebytes

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ssungk/ebytes/pkg/ebytes/buf"
)

type allocatorBox struct{ a buf.Allocator }

var allocator atomic.Pointer[allocatorBox]

func init() {
	allocator.Store(&allocatorBox{buf.Default})
}

// SetAllocator replaces the allocator used for buffers the package allocates
// itself (copies, growth, promotion). Handles keep freeing into the allocator
// that is current at release time, so set it before creating handles.
// nil restores buf.Default.
func SetAllocator(a buf.Allocator) {
	if a == nil {
		a = buf.Default
	}
	allocator.Store(&allocatorBox{a})
}

func currentAllocator() buf.Allocator {
	return allocator.Load().a
}

// allocate returns a pooled buffer with len == n.
func allocate(n int) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(runtime.Error); !ok {
				panic(r)
			}
			debug("allocation failed", zap.Int("size", n), zap.Any("cause", r))
			b, err = nil, fmt.Errorf("%w: %d bytes: %v", ErrAllocationFailure, n, r)
		}
	}()
	return currentAllocator().Alloc(n), nil
}

func free(b []byte) {
	currentAllocator().Free(b)
}

// releaseBlock is the buf.Block hook for pooled backing arrays.
func releaseBlock(b []byte) {
	debug("block freed", zap.Int("cap", cap(b)))
	free(b)
}

// growCap picks the capacity for a buffer that must hold need bytes and
// currently holds cur.
func growCap(cur, need int) (int, error) {
	if need < 0 {
		return 0, fmt.Errorf("%w: need %d", ErrCapacityOverflow, need)
	}
	c := need
	if cur <= math.MaxInt/2 && 2*cur > c {
		c = 2 * cur
	}
	return c, nil
}

// checkedAdd returns a+b, or ErrCapacityOverflow if it does not fit an int.
func checkedAdd(a, b int) (int, error) {
	if b < 0 || a > math.MaxInt-b {
		return 0, fmt.Errorf("%w: %d + %d", ErrCapacityOverflow, a, b)
	}
	return a + b, nil
}
