package ebytes

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/ssungk/ebytes/pkg/ebytes/buf"
)

// Bytes is a cheaply cloneable and sliceable byte sequence.
//
// A Bytes is four machine words whatever it holds. Assigning one Bytes to
// another does not retain anything: use Clone or Slice to get an independent
// handle and Release to drop one. Handles are not safe for concurrent use,
// but clones of the same data may be used from different goroutines.
//
// The zero value is an empty handle.
type Bytes struct {
	h handle
}

// Static returns a zero-copy handle over s. Strings are immutable, so the
// handle never needs to copy on read.
func Static(s string) Bytes {
	if len(s) == 0 {
		return Bytes{}
	}
	return Bytes{makeStatic(unsafe.StringData(s), len(s))}
}

// StaticBytes returns a zero-copy handle over p, which must never be modified
// for the rest of the process, e.g. a package-level table.
func StaticBytes(p []byte) Bytes {
	if len(p) == 0 {
		return Bytes{}
	}
	return Bytes{makeStatic(unsafe.SliceData(p), len(p))}
}

// FromSlice takes ownership of p without copying. The caller must not use p
// afterwards. Its capacity is kept and returned again by IntoBuffer.
func FromSlice(p []byte) Bytes {
	if cap(p) == 0 {
		return Bytes{}
	}
	return Bytes{makeOwned(p, false)}
}

// Inline stores p inside the handle. It rejects payloads longer than
// InlineCap with ErrCapacityOverflow.
func Inline(p []byte) (Bytes, error) {
	if len(p) > InlineCap {
		return Bytes{}, fmt.Errorf("%w: inline payload of %d bytes exceeds %d", ErrCapacityOverflow, len(p), InlineCap)
	}
	return Bytes{makeInline(p)}, nil
}

// CopyFrom copies p into a new handle, inline when it fits.
func CopyFrom(p []byte) Bytes {
	if len(p) <= InlineCap {
		return Bytes{makeInline(p)}
	}
	return Bytes{mustCopyOwned(p)}
}

// mustCopyOwned copies p into a pooled allocation. Allocation failure for a
// length that already exists in memory is not recoverable here.
func mustCopyOwned(p []byte) handle {
	nb, err := allocate(len(p))
	if err != nil {
		panic(err)
	}
	copy(nb, p)
	return makeOwned(nb, true)
}

// Kind returns the current representation.
func (b *Bytes) Kind() Kind {
	return b.h.kind()
}

// Len returns the number of bytes in the handle.
func (b *Bytes) Len() int {
	return b.h.length()
}

// IsEmpty reports whether the handle holds no bytes.
func (b *Bytes) IsEmpty() bool {
	return b.h.length() == 0
}

// Bytes returns a read-only view of the contents. The view is valid until the
// handle is mutated, moved or released, and must not be written to.
func (b *Bytes) Bytes() []byte {
	return b.h.view()
}

// Clone returns a new handle to the same bytes.
//
// Static and inline handles are copied. An owned handle is first promoted to
// a shared block in place, so both handles end up sharing it with refcount 2.
func (b *Bytes) Clone() Bytes {
	switch b.h.kind() {
	case KindInline, KindStatic:
		return *b
	case KindOwned:
		b.h.promote()
	}
	b.h.block().Retain()
	return *b
}

// Slice returns a handle to b[start:end].
//
// Static and shared handles are sliced without copying; an owned handle is
// promoted to shared first. Inline handles copy the small range.
func (b *Bytes) Slice(start, end int) (Bytes, error) {
	n := b.h.length()
	if start < 0 || end < start || end > n {
		return Bytes{}, fmt.Errorf("%w: [%d:%d] with length %d", ErrIndexOutOfRange, start, end, n)
	}
	if start == end {
		return Bytes{}, nil
	}

	switch b.h.kind() {
	case KindInline:
		return Bytes{makeInline(b.h.inlineBuf()[start:end])}, nil
	case KindStatic:
		return Bytes{makeStatic((*byte)(unsafe.Add(b.h.ptr, start)), end-start)}, nil
	case KindOwned:
		b.h.promote()
	}
	blk := b.h.block()
	blk.Retain()
	return Bytes{makeShared(blk, int(b.h.w1)+start, end-start)}, nil
}

// Mut converts b into a uniquely owned mutable handle and leaves b empty.
//
// Inline, owned and unshared handles convert without copying. Static data and
// ranges of a block other handles still reference are copied first.
func (b *Bytes) Mut() BytesMut {
	h := b.h
	b.h = handle{}

	switch h.kind() {
	case KindStatic:
		debug("copy on write", zap.Stringer("from", KindStatic), zap.Int("len", h.length()))
		return BytesMut{mustCopyOwned(h.view())}
	case KindShared:
		blk := h.block()
		if blk.Unique() {
			return BytesMut{h}
		}
		debug("copy on write", zap.Stringer("from", KindShared), zap.Int("len", h.length()), zap.Int("refs", blk.RefCount()))
		m := BytesMut{mustCopyOwned(h.view())}
		blk.Release()
		return m
	}
	return BytesMut{h}
}

// IntoBuffer returns the contents as a plain slice the caller owns, and
// leaves b empty.
//
// An owned handle, or the only handle to a shared block, gives up its
// allocation without copying. Otherwise the bytes are copied.
func (b *Bytes) IntoBuffer() []byte {
	h := b.h
	b.h = handle{}

	switch h.kind() {
	case KindOwned:
		return h.ownedBuf()[:h.w1]
	case KindShared:
		blk := h.block()
		if blk.Unique() {
			off := int(h.w1)
			return blk.Detach()[off : off+int(h.w2)]
		}
		out := append([]byte(nil), h.view()...)
		blk.Release()
		return out
	}
	return append([]byte(nil), h.view()...)
}

// Release drops the handle and leaves it empty. Releasing an empty handle is
// a no-op.
func (b *Bytes) Release() {
	b.h.release()
	b.h = handle{}
}

func makeShared(blk *buf.Block, off, n int) handle {
	var h handle
	h.setLead(KindShared, 0)
	h.w1 = uintptr(off)
	h.w2 = uintptr(n)
	h.ptr = unsafe.Pointer(blk)
	return h
}

func (h *handle) block() *buf.Block {
	return (*buf.Block)(h.ptr)
}

func (h *handle) length() int {
	switch h.kind() {
	case KindInline:
		return h.inlineLen()
	case KindShared:
		return int(h.w2)
	}
	return int(h.w1)
}

// view returns the payload with cap == len.
func (h *handle) view() []byte {
	switch h.kind() {
	case KindInline:
		n := h.inlineLen()
		return h.inlineBuf()[:n:n]
	case KindStatic:
		return unsafe.Slice((*byte)(h.ptr), int(h.w1))
	case KindOwned:
		n := int(h.w1)
		return h.ownedBuf()[:n:n]
	}
	off, n := int(h.w1), int(h.w2)
	return h.block().Data()[off : off+n : off+n]
}

// promote turns an owned handle into the first reference of a new block.
func (h *handle) promote() {
	pooled := h.flags()&flagPooled != 0
	var hook func([]byte)
	if pooled {
		hook = releaseBlock
	}
	n := int(h.w1)
	debug("promote to shared", zap.Int("len", n), zap.Int("cap", int(h.w2)), zap.Bool("pooled", pooled))
	*h = makeShared(buf.NewBlock(h.ownedBuf(), hook), 0, n)
}

func (h *handle) release() {
	switch h.kind() {
	case KindOwned:
		if h.flags()&flagPooled != 0 {
			free(h.ownedBuf())
		}
	case KindShared:
		h.block().Release()
	}
}
