package ebytes

import (
	"fmt"
	"unsafe"
)

// Kind identifies the representation a handle currently uses.
type Kind uint8

const (
	KindInline Kind = iota // payload stored in the handle itself
	KindStatic             // view of immutable process-lifetime memory
	KindOwned              // exclusive heap allocation
	KindShared             // range of a reference-counted buf.Block
)

func (k Kind) String() string {
	switch k {
	case KindInline:
		return "inline"
	case KindStatic:
		return "static"
	case KindOwned:
		return "owned"
	case KindShared:
		return "shared"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

const (
	wordSize = unsafe.Sizeof(uintptr(0))

	// headerLen is the number of non-pointer bytes at the front of a handle.
	headerLen = 3 * int(wordSize)

	// InlineCap is the largest payload kept inside a handle: every header
	// byte except the leading one. The fourth word always stays a pointer
	// because the GC scans it.
	InlineCap = headerLen - 1

	tagBits  = 2
	tagMask  = 1<<tagBits - 1
	maxInlen = 1<<(8-tagBits) - 1
)

// The leading byte must be able to carry InlineCap.
var _ [maxInlen - InlineCap]struct{}

// Flags stored in the second header byte of an Owned handle.
const (
	flagPooled byte = 1 << iota // backing array came from the package allocator
)

// handle is the four-word physical layout shared by Bytes and BytesMut.
//
// The first byte in memory is the discriminant: the tag in bits 0-1 and, for
// Inline, the payload length in bits 2-7. On little-endian machines this is
// the low-order byte of meta, on big-endian machines the high-order byte.
//
//	Inline: lead | payload[0:InlineCap]                 | ptr=nil
//	Static: lead | w1=len                                | ptr=data
//	Owned:  lead flags | w1=len | w2=cap                 | ptr=data
//	Shared: lead | w1=offset | w2=len                    | ptr=*buf.Block
type handle struct {
	meta uintptr
	w1   uintptr
	w2   uintptr
	ptr  unsafe.Pointer
}

// header views the three leading words as bytes.
func (h *handle) header() *[headerLen]byte {
	return (*[headerLen]byte)(unsafe.Pointer(h))
}

func (h *handle) kind() Kind {
	return Kind(h.header()[0] & tagMask)
}

func (h *handle) setLead(k Kind, flags byte) {
	h.meta = 0
	hd := h.header()
	hd[0] = byte(k)
	hd[1] = flags
}

func (h *handle) flags() byte {
	return h.header()[1]
}

func (h *handle) inlineLen() int {
	return int(h.header()[0] >> tagBits)
}

func (h *handle) setInlineLen(n int) {
	h.header()[0] = byte(KindInline) | byte(n)<<tagBits
}

// inlineBuf returns the full inline payload area.
func (h *handle) inlineBuf() []byte {
	return h.header()[1:]
}

func makeInline(p []byte) handle {
	var h handle
	h.setInlineLen(len(p))
	copy(h.inlineBuf(), p)
	return h
}

func makeStatic(p *byte, n int) handle {
	var h handle
	h.setLead(KindStatic, 0)
	h.w1 = uintptr(n)
	h.ptr = unsafe.Pointer(p)
	return h
}

func makeOwned(b []byte, pooled bool) handle {
	var h handle
	var fl byte
	if pooled {
		fl = flagPooled
	}
	h.setLead(KindOwned, fl)
	h.w1 = uintptr(len(b))
	h.w2 = uintptr(cap(b))
	h.ptr = unsafe.Pointer(unsafe.SliceData(b))
	return h
}

// ownedBuf returns the owned allocation at full capacity.
func (h *handle) ownedBuf() []byte {
	return unsafe.Slice((*byte)(h.ptr), int(h.w2))
}
