package ebytes

import (
	"encoding/binary"
	"testing"
	"unsafe"
)

func wordOf(order binary.ByteOrder, p []byte) uint64 {
	if wordSize == 8 {
		return order.Uint64(p)
	}
	return uint64(order.Uint32(p))
}

func TestHandleSizeIsFourWords(t *testing.T) {
	want := 4 * unsafe.Sizeof(uintptr(0))

	inline, _ := Inline([]byte("abc"))
	owned := FromSlice(make([]byte, 40))
	shared := FromSlice(make([]byte, 40))
	clone := shared.Clone()
	defer clone.Release()
	defer shared.Release()

	handles := map[string]Bytes{
		"zero":   {},
		"inline": inline,
		"static": Static("hello"),
		"owned":  owned,
		"shared": shared,
	}
	for name, b := range handles {
		if got := unsafe.Sizeof(b); got != want {
			t.Errorf("%s: expected size %d, got %d", name, want, got)
		}
	}
	if got := unsafe.Sizeof(BytesMut{}); got != want {
		t.Errorf("BytesMut: expected size %d, got %d", want, got)
	}
	if wordSize == 8 && want != 32 {
		t.Errorf("expected 32-byte handle on 64-bit, got %d", want)
	}
}

func TestInlineCap(t *testing.T) {
	if InlineCap != 3*int(wordSize)-1 {
		t.Errorf("expected InlineCap %d, got %d", 3*int(wordSize)-1, InlineCap)
	}
	if wordSize == 8 && InlineCap != 23 {
		t.Errorf("expected 23 inline bytes on 64-bit, got %d", InlineCap)
	}
	if InlineCap > maxInlen {
		t.Errorf("inline length %d does not fit the %d length bits", InlineCap, 8-tagBits)
	}
}

func TestZeroValueIsEmptyInline(t *testing.T) {
	var b Bytes
	if b.Kind() != KindInline {
		t.Errorf("expected inline, got %s", b.Kind())
	}
	if b.Len() != 0 || !b.IsEmpty() || len(b.Bytes()) != 0 {
		t.Error("zero value should be empty")
	}
	b.Release()
}

func TestLeadingByteLayout(t *testing.T) {
	b, err := Inline([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}

	hd := b.h.header()
	lead := byte(KindInline) | 5<<tagBits
	if hd[0] != lead {
		t.Fatalf("expected leading byte %#x, got %#x", lead, hd[0])
	}
	if string(hd[1:6]) != "hello" {
		t.Errorf("expected payload right after the leading byte, got %q", hd[1:6])
	}

	first := hd[:wordSize]
	le := wordOf(binary.LittleEndian, first)
	be := wordOf(binary.BigEndian, first)

	// little-endian: discriminant is the low-order byte
	if byte(le) != lead || byte(le)&tagMask != byte(KindInline) || byte(le)>>tagBits != 5 {
		t.Errorf("little-endian decode: low byte %#x, want %#x", byte(le), lead)
	}
	// big-endian: discriminant is the high-order byte
	hi := byte(be >> (8 * (wordSize - 1)))
	if hi != lead || hi>>tagBits != 5 {
		t.Errorf("big-endian decode: high byte %#x, want %#x", hi, lead)
	}

	native := uint64(b.h.meta)
	if native != le && native != be {
		t.Errorf("meta %#x matches neither byte order (le %#x, be %#x)", native, le, be)
	}
	if native != wordOf(binary.NativeEndian, first) {
		t.Error("meta does not match the native byte order decode")
	}
}

func TestOwnedLayout(t *testing.T) {
	data := make([]byte, 3, 16)
	b := FromSlice(data)

	hd := b.h.header()
	if Kind(hd[0]) != KindOwned {
		t.Errorf("expected owned tag, got %#x", hd[0])
	}
	if hd[1]&flagPooled != 0 {
		t.Error("caller buffer must not be marked pooled")
	}
	if b.h.w1 != 3 || b.h.w2 != 16 {
		t.Errorf("expected len 3 cap 16, got %d %d", b.h.w1, b.h.w2)
	}
	if b.h.ptr != unsafe.Pointer(&data[0]) {
		t.Error("owned handle should point at the caller's array")
	}
}

func TestStaticLayout(t *testing.T) {
	s := "static data"
	b := Static(s)

	if b.Kind() != KindStatic {
		t.Fatalf("expected static, got %s", b.Kind())
	}
	if b.h.ptr != unsafe.Pointer(unsafe.StringData(s)) || b.h.w1 != uintptr(len(s)) {
		t.Error("static handle should reference the string data directly")
	}
	if b.h.w2 != 0 {
		t.Errorf("unused word should be zero, got %d", b.h.w2)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindInline: "inline",
		KindStatic: "static",
		KindOwned:  "owned",
		KindShared: "shared",
		Kind(9):    "Kind(9)",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
