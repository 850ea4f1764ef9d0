package ebytes

import (
	"fmt"

	"go.uber.org/zap"
)

// BytesMut is a handle whose storage nobody else references. It is created by
// Bytes.Mut or WithCapacity, which check ownership once; its methods mutate
// in place without checking again.
//
// A BytesMut never holds static data or a block with other references. It
// must not be used from more than one goroutine at a time.
type BytesMut struct {
	h handle
}

// WithCapacity returns an empty mutable handle able to hold n bytes without
// reallocating.
func WithCapacity(n int) (BytesMut, error) {
	if n < 0 {
		return BytesMut{}, fmt.Errorf("%w: negative capacity %d", ErrCapacityOverflow, n)
	}
	if n <= InlineCap {
		return BytesMut{}, nil
	}
	nb, err := allocate(n)
	if err != nil {
		return BytesMut{}, err
	}
	return BytesMut{makeOwned(nb[:0], true)}, nil
}

// Len returns the number of bytes written.
func (m *BytesMut) Len() int {
	return m.h.length()
}

// Cap returns how many bytes fit before the next reallocation.
func (m *BytesMut) Cap() int {
	switch m.h.kind() {
	case KindInline:
		return InlineCap
	case KindOwned:
		return int(m.h.w2)
	}
	return m.h.block().Cap() - int(m.h.w1)
}

// Bytes returns the contents for reading and writing. The slice is valid
// until the next call that changes the length or capacity.
func (m *BytesMut) Bytes() []byte {
	return m.h.view()
}

// spare returns the writable area past the current length.
func (m *BytesMut) spare() []byte {
	n := m.h.length()
	switch m.h.kind() {
	case KindInline:
		return m.h.inlineBuf()[n:]
	case KindOwned:
		return m.h.ownedBuf()[n:]
	}
	return m.h.block().Data()[int(m.h.w1)+n:]
}

func (m *BytesMut) setLen(n int) {
	switch m.h.kind() {
	case KindInline:
		m.h.setInlineLen(n)
	case KindOwned:
		m.h.w1 = uintptr(n)
	default:
		m.h.w2 = uintptr(n)
	}
}

// Reserve makes room for at least additional more bytes.
func (m *BytesMut) Reserve(additional int) error {
	need, err := checkedAdd(m.h.length(), additional)
	if err != nil {
		return err
	}
	return m.reserve(need, nil)
}

// reserve grows the storage to hold need bytes, appending tail after the
// existing contents before any old allocation is freed, so tail may alias
// the current contents.
func (m *BytesMut) reserve(need int, tail []byte) error {
	n := m.h.length()
	if need <= m.Cap() {
		return nil
	}

	if m.h.kind() == KindShared {
		blk := m.h.block()
		if need <= blk.Cap() && tail == nil {
			// reuse the block from the front
			off := int(m.h.w1)
			copy(blk.Data(), blk.Data()[off:off+n])
			m.h.w1 = 0
			return nil
		}
	}

	newCap, err := growCap(m.Cap(), need)
	if err != nil {
		return err
	}
	nb, err := allocate(newCap)
	if err != nil {
		return err
	}
	debug("grow", zap.Stringer("from", m.h.kind()), zap.Int("len", n), zap.Int("cap", cap(nb)))

	nb = nb[:n+len(tail)]
	copy(nb, m.h.view())
	copy(nb[n:], tail)

	old := m.h
	m.h = makeOwned(nb[:n], true)
	old.release()
	return nil
}

// Append appends p, growing the storage if needed.
func (m *BytesMut) Append(p []byte) error {
	n := m.h.length()
	need, err := checkedAdd(n, len(p))
	if err != nil {
		return err
	}
	if need > m.Cap() {
		if err := m.reserve(need, p); err != nil {
			return err
		}
	} else {
		copy(m.spare(), p)
	}
	m.setLen(need)
	return nil
}

// AppendByte appends a single byte.
func (m *BytesMut) AppendByte(c byte) error {
	return m.Append([]byte{c})
}

// Resize sets the length to n. New bytes are set to fill.
func (m *BytesMut) Resize(n int, fill byte) error {
	cur := m.h.length()
	if n < 0 {
		return fmt.Errorf("%w: negative length %d", ErrIndexOutOfRange, n)
	}
	if n <= cur {
		m.setLen(n)
		return nil
	}
	if err := m.reserve(n, nil); err != nil {
		return err
	}
	sp := m.spare()[:n-cur]
	for i := range sp {
		sp[i] = fill
	}
	m.setLen(n)
	return nil
}

// Truncate shortens the contents to n bytes; a larger n is a no-op.
// Capacity is kept.
func (m *BytesMut) Truncate(n int) {
	if n >= 0 && n < m.h.length() {
		m.setLen(n)
	}
}

// Clear removes all bytes and keeps the capacity.
func (m *BytesMut) Clear() {
	m.setLen(0)
}

// Freeze turns m back into a shareable Bytes and leaves m empty.
func (m *BytesMut) Freeze() Bytes {
	b := Bytes{m.h}
	m.h = handle{}
	return b
}

// Release drops the handle and leaves it empty.
func (m *BytesMut) Release() {
	m.h.release()
	m.h = handle{}
}
