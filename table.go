package silo

import (
	"fmt"
	"unsafe"

	"github.com/TheBitDrifter/mask"
)

// MissingComponentError is returned when a table is asked for a
// component id it does not carry.
type MissingComponentError struct {
	Entity Id
	Comp   Id
}

func (e MissingComponentError) Error() string {
	return fmt.Sprintf("silo: entity %v has no component %v in its table", e.Entity, e.Comp)
}

// Table is the home of every entity sharing one signature — an
// archetype. It owns the entities array, the type-erased columns, the
// signature -> column-index map, and its own archetype-graph node.
type Table struct {
	handle       TableHandle
	sig          Signature
	flags        ArchetypeFlags
	entities     []Id
	columns      []*column
	componentMap map[Id]int
	node         graphNode
	bitmask      mask.Mask
}

// newTable builds an (initially empty) table for sig. dataIds is the
// subset of sig that carries data (tags contribute to the signature but
// never get a column, per spec.md invariant 2).
func newTable(handle TableHandle, sig Signature, dataIds []Id, typeInfoFor func(Id) *TypeInfo, bitIndexFor func(Id) (uint32, bool), registerOccupancy func(Id, TableHandle, ComponentLocation)) *Table {
	t := &Table{
		handle:       handle,
		sig:          sig,
		flags:        deriveArchetypeFlags(sig, typeInfoFor),
		componentMap: make(map[Id]int, len(dataIds)),
		node:         newGraphNode(),
	}
	for _, id := range dataIds {
		info := typeInfoFor(id)
		col := len(t.columns)
		t.componentMap[id] = col
		t.columns = append(t.columns, newColumn(info))
	}

	ids := sig.Ids()
	for idx, id := range ids {
		if bit, ok := bitIndexFor(id); ok {
			t.bitmask.Mark(bit)
		}
		if registerOccupancy == nil {
			continue
		}
		loc := ComponentLocation{IdIndex: idx, IdCount: wildcardMatchCount(id, ids)}
		if col, ok := t.componentMap[id]; ok {
			loc.Column = col
			loc.HasColumn = true
		}
		registerOccupancy(id, handle, loc)
	}
	return t
}

// wildcardMatchCount returns how many entries of ids a wildcard query
// anchored on id would hit: id itself, plus — if id is a pair — any
// other pair in ids sharing its relation or its target. Non-pair ids
// always match only themselves, since ids is sorted/deduped (spec.md §3
// invariant 7, ComponentLocation.id_count).
func wildcardMatchCount(id Id, ids []Id) int {
	count := 0
	for _, other := range ids {
		switch {
		case other == id:
			count++
		case IsPair(id) && IsPair(other) && (First(other) == First(id) || Second(other) == Second(id)):
			count++
		}
	}
	return count
}

// Handle returns this table's handle in its owning TableIndex.
func (t *Table) Handle() TableHandle { return t.handle }

// Signature returns the table's component signature.
func (t *Table) Signature() Signature { return t.sig }

// Flags returns the table's cached ArchetypeFlags.
func (t *Table) Flags() ArchetypeFlags { return t.flags }

// Mask returns the table's component bitmask, used by the query layer's
// fast-path matching (mask.Maskable in the teacher's own query.go).
func (t *Table) Mask() mask.Mask { return t.bitmask }

// Length returns the number of rows (entities) currently in the table.
func (t *Table) Length() int { return len(t.entities) }

// Contains reports whether id is part of this table's signature.
func (t *Table) Contains(id Id) bool { return t.sig.HasId(id) }

// Entities returns the table's entity list. Callers must not mutate it.
func (t *Table) Entities() []Id { return t.entities }

// EntityAt returns the entity occupying row.
func (t *Table) EntityAt(row int) Id { return t.entities[row] }

// NewRow appends entity to the table and grows every column to match,
// returning the new row index. Column contents for the new row are
// left uninitialized — the caller must write each one.
func (t *Table) NewRow(entity Id) int {
	row := len(t.entities)
	t.entities = append(t.entities, entity)
	newCap := cap(t.entities)
	for _, c := range t.columns {
		c.reserve(newCap)
	}
	return row
}

// ColumnPtr returns a pointer to id's value at row, or
// MissingComponentError if id has no column in this table.
func (t *Table) ColumnPtr(row int, id Id) (unsafe.Pointer, error) {
	col, ok := t.componentMap[id]
	if !ok {
		return nil, MissingComponentError{Entity: t.entities[row], Comp: id}
	}
	return t.columns[col].at(row), nil
}

// ColumnPtrMut is ColumnPtr's mutable-borrow counterpart. Go has no
// const pointers, but the two are kept distinct to preserve the
// read/write borrow-resolution contract the query layer is specified
// against.
func (t *Table) ColumnPtrMut(row int, id Id) (unsafe.Pointer, error) {
	return t.ColumnPtr(row, id)
}

// DeleteRow removes row via swap-remove on every column (dropping per
// dropMask) and on the entities array. It returns the entity that was
// swapped into row, if any other row occupied the last slot.
func (t *Table) DeleteRow(row int, dropMask []bool) (moved Id, ok bool) {
	length := len(t.entities)
	last := length - 1
	for i, c := range t.columns {
		if dropMask == nil || dropMask[i] {
			c.swapRemoveDrop(row, length)
		} else {
			c.swapRemoveForget(row, length)
		}
	}
	if row != last {
		t.entities[row] = t.entities[last]
		moved = t.entities[row]
		ok = true
	}
	t.entities = t.entities[:last]
	return moved, ok
}

// moveEntity implements the central row-transfer protocol of spec.md
// §4.4: append an uninitialized row to dst, bit-copy every column src
// and dst share, run on_remove hooks for columns dst doesn't have, then
// delete the row from src (patching whichever entity got swapped into
// its place).
//
// writeNew is called once per column of dst that src didn't have (the
// ids being newly added); it must initialize that column's new cell.
func moveEntity(w *World, entity Id, src, dst *Table, srcRow int, writeNew func(id Id, ptr unsafe.Pointer)) int {
	idx, registry := w.entities, w.registry
	dstRow := dst.NewRow(entity)

	dropMask := make([]bool, len(src.columns))
	for i := range dropMask {
		dropMask[i] = true
	}

	for id, srcCol := range src.componentMap {
		if dstCol, ok := dst.componentMap[id]; ok {
			src.columns[srcCol].moveRowTo(srcRow, dst.columns[dstCol], dstRow)
			dropMask[srcCol] = false
		} else if rec := registry.Record(id); rec != nil && rec.TypeInfo != nil && rec.TypeInfo.Hooks.OnRemove != nil {
			rec.TypeInfo.Hooks.OnRemove(w, entity, src.columns[srcCol].at(srcRow))
		}
	}

	for id, dstColIdx := range dst.componentMap {
		if _, inSrc := src.componentMap[id]; inSrc {
			continue
		}
		ptr := dst.columns[dstColIdx].at(dstRow)
		if writeNew != nil {
			writeNew(id, ptr)
		} else if rec := registry.Record(id); rec != nil && rec.TypeInfo != nil && rec.TypeInfo.Hooks.Default != nil {
			rec.TypeInfo.Hooks.Default(ptr)
		}
	}

	if moved, ok := src.DeleteRow(srcRow, dropMask); ok {
		idx.SetLocation(moved, EntityLocation{Table: src.handle, Row: srcRow})
	}

	idx.SetLocation(entity, EntityLocation{Table: dst.handle, Row: dstRow})
	return dstRow
}
