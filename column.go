package silo

import "unsafe"

// column is a type-erased, contiguous store for one data component's
// values across every row of a table. It owns a raw byte buffer sized
// to cap*typeInfo.Size; it does not track its own length — callers
// (Table) bound every access by the table's shared row count, since all
// columns of a table grow and shrink in lockstep with the entities
// array (spec.md §4.3/§4.4).
//
// The byte-slice-plus-stride addressing mirrors the only other Go
// archetype engine in the reference corpus (edwinsyarief/lazyecs's
// componentData [][]byte + unsafe.Pointer(uintptr(base)+index*stride)),
// which is the idiomatic Go rendition of xecs's raw-allocated ColumnVec.
type column struct {
	info *TypeInfo
	data []byte
	cap  int
}

var zstSentinel byte

func newColumn(info *TypeInfo) *column {
	return &column{info: info}
}

// reserve grows the column's backing buffer to hold at least newCap
// rows. Zero-sized types need no storage at all.
func (c *column) reserve(newCap int) {
	if c.info.Size == 0 || newCap <= c.cap {
		return
	}
	buf := make([]byte, uintptr(newCap)*c.info.Size)
	copy(buf, c.data)
	c.data = buf
	c.cap = newCap
}

// at returns a pointer to the value at row. Callers must ensure row is
// within the table's current length.
func (c *column) at(row int) unsafe.Pointer {
	if c.info.Size == 0 {
		return unsafe.Pointer(&zstSentinel)
	}
	return unsafe.Pointer(&c.data[uintptr(row)*c.info.Size])
}

// swapRemoveDrop removes row by moving the surviving row at length-1
// into its place, after running the Drop hook (if any) on row's value.
// When row is already the last row this just drops it in place.
func (c *column) swapRemoveDrop(row, length int) {
	last := length - 1
	if c.info.Hooks.Drop != nil {
		c.info.Hooks.Drop(c.at(row))
	}
	if row != last && c.info.Size != 0 {
		copy(c.data[uintptr(row)*c.info.Size:uintptr(row+1)*c.info.Size],
			c.data[uintptr(last)*c.info.Size:uintptr(last+1)*c.info.Size])
	}
}

// swapRemoveForget removes row the same way but never invokes Drop —
// used when the caller has already moved the value elsewhere (a
// cross-table move_entity) and must not double-release it.
func (c *column) swapRemoveForget(row, length int) {
	last := length - 1
	if row != last && c.info.Size != 0 {
		copy(c.data[uintptr(row)*c.info.Size:uintptr(row+1)*c.info.Size],
			c.data[uintptr(last)*c.info.Size:uintptr(last+1)*c.info.Size])
	}
}

// moveRowTo copies the value at srcRow into dst at dstRow. The caller
// guarantees both columns hold the same element type and that srcRow
// will not be read again.
func (c *column) moveRowTo(srcRow int, dst *column, dstRow int) {
	if c.info.Size == 0 {
		return
	}
	src := c.data[uintptr(srcRow)*c.info.Size : uintptr(srcRow+1)*c.info.Size]
	dstBuf := dst.data[uintptr(dstRow)*dst.info.Size : uintptr(dstRow+1)*dst.info.Size]
	copy(dstBuf, src)
}
