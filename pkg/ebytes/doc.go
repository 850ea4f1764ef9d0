// Package ebytes provides Bytes, a byte sequence that can be shared, sliced
// and handed between readers without copying, and BytesMut, its uniquely
// owned mutable counterpart.
//
// A Bytes is always four machine words and holds one of four
// representations:
//
//   - Inline: up to InlineCap bytes stored in the handle itself.
//   - Static: a view of memory that lives for the whole process, such as a
//     string constant. Reads and clones never allocate.
//   - Owned: an exclusive heap allocation, for example a slice passed to
//     FromSlice.
//   - Shared: a range of a reference-counted buf.Block. Clones and slices
//     bump the refcount and never copy.
//
// Cloning or slicing an owned handle promotes it to shared in place.
// Mutation goes through Bytes.Mut, which copies only when the data is static
// or still referenced by other handles:
//
//	b := ebytes.FromSlice(make([]byte, 10))
//	c := b.Clone() // b and c share one block, refcount 2
//	m := c.Mut()   // copies c's range; b is unaffected
//	m.Bytes()[0] = 9
//	c = m.Freeze()
//	defer b.Release()
//	defer c.Release()
//
// Handles are values, but assignment does not retain: every handle obtained
// from Clone, Slice or a constructor must be released exactly once, and a
// handle must not be used after Mut, IntoBuffer or Release consumed it.
package ebytes
