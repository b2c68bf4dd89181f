package silo

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// TableHandle is a handle-stable reference to a Table. A handle to a
// removed table becomes invalid once its slot's version advances past
// the version recorded in the handle.
type TableHandle struct {
	Index   uint32
	Version uint32
}

// IsNull reports whether h was never assigned (the zero value).
func (h TableHandle) IsNull() bool { return h == TableHandle{} }

type tableSlot struct {
	table    *Table
	version  uint32
	occupied bool
	nextFree int
}

// TableIndex is the handle-stable registry of tables: a plain slice of
// slots with a free-list threaded through unoccupied ones (spec.md §4.5
// lists this as one of two equivalent implementations; it does not use
// EntityIndex's paged sparse array), plus a secondary
// Signature -> TableHandle map enforcing the injective signature-to-
// table invariant (spec.md §3(3)).
type TableIndex struct {
	slots      []tableSlot
	freeHead   int
	bySig      map[string]TableHandle
}

// NewTableIndex creates an empty table index. Slot 0 is reserved and
// permanently unoccupied (never placed on the free list), so no real
// table is ever handed the zero-value TableHandle{} — the registry
// relies on that handle being unambiguous as its sparse-storage
// occupancy sentinel (registry.go's sparseOccupancyHandle).
func NewTableIndex() *TableIndex {
	ti := &TableIndex{freeHead: -1, bySig: make(map[string]TableHandle)}
	ti.slots = append(ti.slots, tableSlot{nextFree: -1})
	return ti
}

// InsertWithSignature allocates a handle, builds the table via build,
// and registers it under sig. build receives the handle up front so the
// constructed Table can carry its own handle.
func (ti *TableIndex) InsertWithSignature(sig Signature, build func(TableHandle) *Table) TableHandle {
	var handle TableHandle
	if ti.freeHead >= 0 {
		idx := ti.freeHead
		slot := &ti.slots[idx]
		ti.freeHead = slot.nextFree
		handle = TableHandle{Index: uint32(idx), Version: slot.version}
	} else {
		idx := len(ti.slots)
		ti.slots = append(ti.slots, tableSlot{})
		handle = TableHandle{Index: uint32(idx), Version: 0}
	}

	tbl := build(handle)
	ti.slots[handle.Index] = tableSlot{table: tbl, version: handle.Version, occupied: true}
	ti.bySig[sig.Key()] = handle
	return handle
}

// Get returns the table for handle, or ok=false if the handle is stale
// or out of range.
func (ti *TableIndex) Get(handle TableHandle) (*Table, bool) {
	if int(handle.Index) >= len(ti.slots) {
		return nil, false
	}
	slot := &ti.slots[handle.Index]
	if !slot.occupied || slot.version != handle.Version {
		return nil, false
	}
	return slot.table, true
}

// GetTwoMut returns pointers to both a and b's tables for a disjoint
// structural move. It panics if a and b resolve to the same slot, the
// one case move_entity can never tolerate (spec.md §4.5: "required by
// move_entity").
func (ti *TableIndex) GetTwoMut(a, b TableHandle) (*Table, *Table) {
	if a.Index == b.Index {
		panic(bark.AddTrace(fmt.Errorf("silo: GetTwoMut called with overlapping handles %v", a)))
	}
	ta, ok := ti.Get(a)
	if !ok {
		panic(bark.AddTrace(fmt.Errorf("silo: GetTwoMut: stale handle %v", a)))
	}
	tb, ok := ti.Get(b)
	if !ok {
		panic(bark.AddTrace(fmt.Errorf("silo: GetTwoMut: stale handle %v", b)))
	}
	return ta, tb
}

// Remove deregisters handle's table, bumping its slot's version so any
// remaining copies of handle become stale, and returns the removed
// table. Tables are not currently reaped automatically by anything else
// in this package (spec.md Open Question (a)) — this method exists so
// that policy can be implemented by a caller without a storage rewrite.
func (ti *TableIndex) Remove(handle TableHandle) (*Table, bool) {
	tbl, ok := ti.Get(handle)
	if !ok {
		return nil, false
	}
	slot := &ti.slots[handle.Index]
	slot.occupied = false
	slot.table = nil
	slot.version++
	slot.nextFree = ti.freeHead
	ti.freeHead = int(handle.Index)
	delete(ti.bySig, tbl.sig.Key())
	return tbl, true
}

// HandleForSignature returns the table handle already registered for
// sig, if any.
func (ti *TableIndex) HandleForSignature(sig Signature) (TableHandle, bool) {
	h, ok := ti.bySig[sig.Key()]
	return h, ok
}

// All returns every currently occupied table. Order is not significant.
func (ti *TableIndex) All() []*Table {
	out := make([]*Table, 0, len(ti.slots))
	for i := range ti.slots {
		if ti.slots[i].occupied {
			out = append(out, ti.slots[i].table)
		}
	}
	return out
}
