package silo

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// worldOperation is a deferred structural mutation, queued while the
// world is locked and replayed in order once the last lock is released
// (spec.md §5). Only operations issued while a lock bit is held (for
// example by a query Cursor) are queued; moveEntity does not lock the
// world itself, so a hook that mutates structure while it runs is
// applied immediately.
type worldOperation interface {
	apply(w *World)
}

type opDeleteEntity struct{ entity Id }

func (op opDeleteEntity) apply(w *World) { w.DeleteEntity(op.entity) }

type opAdd struct {
	entity Id
	comp   Id
	write  func(unsafe.Pointer)
}

func (op opAdd) apply(w *World) { _ = w.addRaw(op.entity, op.comp, op.write) }

type opRemove struct {
	entity Id
	comp   Id
}

func (op opRemove) apply(w *World) { _ = w.Remove(op.entity, op.comp) }

// World owns every piece of ECS state: the entity index, the table
// index and its archetype graph, the component registry, and sparse
// storage. It is the sole entry point applications use.
type World struct {
	cfg      Config
	entities *EntityIndex
	tables   *TableIndex
	registry *ComponentRegistry

	rootTable TableHandle

	locks       mask.Mask256
	queue       []worldOperation
	nextLockBit uint32
}

// NextLockBit hands out a fresh bit position for a query Cursor to hold
// for the duration of its iteration (spec.md §5: iteration holds a lock
// bit so a hook-triggered structural change during iteration queues
// instead of invalidating the cursor's in-flight table list).
func (w *World) NextLockBit() uint32 {
	bit := w.nextLockBit
	w.nextLockBit = (w.nextLockBit + 1) % 256
	return bit
}

// NewWorld creates an empty world: one entity index, one table index
// seeded with the empty-signature root table, and one component
// registry bounded by cfg.MaxComponents.
func NewWorld(cfg Config) *World {
	cfg = cfg.withDefaults()
	w := &World{
		cfg:      cfg,
		entities: NewEntityIndex(),
		tables:   NewTableIndex(),
		registry: NewComponentRegistry(cfg.MaxComponents),
	}
	w.rootTable = w.tables.InsertWithSignature(NewSignature(), func(h TableHandle) *Table {
		return newTable(h, NewSignature(), nil, w.registry.TypeInfoFor, w.registry.BitIndexFor, w.registry.RegisterOccupancy)
	})
	w.bootstrapBuiltinIds()
	return w
}

// bootstrapBuiltinIds issues the reserved built-in ids (WILDCARD..
// SlotOfTag) in order, so the entity index's first NewID calls line up
// exactly with their hardcoded const values in id.go. Every World agrees
// on these ids without exchanging them out of band, because every World
// bootstraps the same sequence against the same empty entity index.
func (w *World) bootstrapBuiltinIds() {
	for _, want := range builtinIds {
		got := w.entities.NewID()
		if got != want {
			panic(bark.AddTrace(fmt.Errorf("silo: builtin id bootstrap drifted, got %v want %v", got, want)))
		}
		w.entities.flagsFor(got).Insert(EntityIsID)
	}
}

// Locked reports whether any lock bit is currently held.
func (w *World) Locked() bool { return !w.locks.IsEmpty() }

// Lock marks bit held, deferring every structural mutation until the
// matching Unlock (and every other held bit) clears. Used by query
// iteration to keep the table it's walking stable mid-iteration.
func (w *World) Lock(bit uint32) { w.locks.Mark(bit) }

// Unlock releases bit. Once every lock bit has cleared, queued
// operations replay in FIFO order.
func (w *World) Unlock(bit uint32) {
	w.locks.Unmark(bit)
	if w.locks.IsEmpty() {
		pending := w.queue
		w.queue = nil
		for _, op := range pending {
			op.apply(w)
		}
	}
}

// RegisterComponent registers the Go type T as a table-storage data
// component, returning the Id it was assigned. Calling it again for the
// same T returns the same Id.
func RegisterComponent[T any](w *World, hooks ...Hooks) (Id, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if id, ok := w.registry.IdForType(t); ok {
		return id, nil
	}
	id := w.entities.NewID()
	w.entities.flagsFor(id).Insert(EntityIsID)

	info := newTypeInfo[T]()
	h := w.cfg.DefaultHooks
	if len(hooks) > 0 {
		h = hooks[0]
	}
	var flags ComponentFlags
	withHooks, err := info.WithHooks(h)
	if err != nil {
		return 0, err
	}
	if !h.isEmpty() {
		if h.OnSet != nil {
			flags.Insert(CompHasOnSet)
		}
		if h.OnRemove != nil {
			flags.Insert(CompHasOnRemove)
		}
	}
	if info.IsZST() {
		flags.Insert(Tag)
	}

	if _, err := w.registry.RegisterTable(id, withHooks, flags); err != nil {
		return 0, err
	}
	if err := w.registry.BindType(t, id); err != nil {
		return 0, err
	}
	return id, nil
}

// RegisterSparseComponent is RegisterComponent's sparse-storage
// counterpart, for components flagged CompIsSparse (spec.md §4.10).
func RegisterSparseComponent[T any](w *World, hooks ...Hooks) (Id, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if id, ok := w.registry.IdForType(t); ok {
		return id, nil
	}
	id := w.entities.NewID()
	w.entities.flagsFor(id).Insert(EntityIsID)

	info := newTypeInfo[T]()
	h := w.cfg.DefaultHooks
	if len(hooks) > 0 {
		h = hooks[0]
	}
	withHooks, err := info.WithHooks(h)
	if err != nil {
		return 0, err
	}
	flags := CompIsSparse
	if _, err := w.registry.RegisterSparseData(id, withHooks, flags); err != nil {
		return 0, err
	}
	if err := w.registry.BindType(t, id); err != nil {
		return 0, err
	}
	return id, nil
}

// NewEntity creates a fresh entity in the root (empty-signature) table.
func (w *World) NewEntity() Id {
	id := w.entities.NewID()
	root, _ := w.tables.Get(w.rootTable)
	row := root.NewRow(id)
	w.entities.SetLocation(id, EntityLocation{Table: w.rootTable, Row: row})
	return id
}

// IsAlive reports whether entity currently exists.
func (w *World) IsAlive(entity Id) bool { return w.entities.IsAlive(entity) }

// aliveOrErr translates the entity index's alive/dead distinction into
// the corresponding typed World error: EntityNonExistentError if
// entity's index was never issued, EntityNotAliveError if it was issued
// and has since been recycled (spec.md §7 lists these as distinct
// kinds; EntityIndex.Exists already computes the distinction, see
// entityindex.go's LocationError).
func (w *World) aliveOrErr(entity Id) error {
	if w.entities.IsAlive(entity) {
		return nil
	}
	if w.entities.Exists(entity) {
		return EntityNotAliveError{Entity: entity}
	}
	return EntityNonExistentError{Entity: entity}
}

// DeleteEntity removes entity and recycles its index. If the world is
// locked the deletion is queued and applied once it unlocks.
func (w *World) DeleteEntity(entity Id) error {
	if err := w.aliveOrErr(entity); err != nil {
		return err
	}
	if w.Locked() {
		w.queue = append(w.queue, opDeleteEntity{entity: entity})
		return nil
	}
	loc, err := w.entities.GetLocation(entity)
	if err != nil {
		return err
	}
	tbl, ok := w.tables.Get(loc.Table)
	if !ok {
		return bark.AddTrace(fmt.Errorf("silo: entity %v points at a stale table handle", entity))
	}
	for id, col := range tbl.componentMap {
		if rec := w.registry.Record(id); rec != nil && rec.TypeInfo != nil && rec.TypeInfo.Hooks.OnRemove != nil {
			rec.TypeInfo.Hooks.OnRemove(w, entity, tbl.columns[col].at(loc.Row))
		}
	}
	for _, rec := range w.registry.records {
		switch rec.Storage {
		case StorageSparseData:
			if ptr, ok := rec.sparseData.Get(entity); ok {
				if rec.TypeInfo != nil && rec.TypeInfo.Hooks.OnRemove != nil {
					rec.TypeInfo.Hooks.OnRemove(w, entity, ptr)
				}
				rec.sparseData.Remove(entity)
			}
		case StorageSparseTag:
			rec.sparseTag.Remove(entity)
		}
	}
	dropMask := make([]bool, len(tbl.columns))
	for i := range dropMask {
		dropMask[i] = true
	}
	if moved, ok := tbl.DeleteRow(loc.Row, dropMask); ok {
		w.entities.SetLocation(moved, EntityLocation{Table: loc.Table, Row: loc.Row})
	}
	w.entities.RemoveID(entity)
	return nil
}

// Has reports whether entity currently carries component comp.
func (w *World) Has(entity Id, comp Id) bool {
	loc, err := w.entities.GetLocation(entity)
	if err != nil {
		return false
	}
	tbl, ok := w.tables.Get(loc.Table)
	if ok && tbl.Contains(comp) {
		return true
	}
	if rec := w.registry.Record(comp); rec != nil {
		switch rec.Storage {
		case StorageSparseData:
			return rec.sparseData.Has(entity)
		case StorageSparseTag:
			return rec.sparseTag.Has(entity)
		}
	}
	return false
}

// HasPair reports whether entity carries the relation pair (rel, tgt).
func (w *World) HasPair(entity, rel, tgt Id) bool { return w.Has(entity, Pair(rel, tgt)) }

// addRaw is Add's unqueued, always-structural core, reused by the
// deferred opAdd replay and by Add/AddWithValue once the world is
// unlocked. comp need not be a registered component: an id with no
// ComponentRecord is treated as a plain zero-data tag, matching
// original_source/world.rs's add() (only a registered, non-ZST
// TypeInfo gates the call — see Add's own check below).
func (w *World) addRaw(entity Id, comp Id, write func(unsafe.Pointer)) error {
	if err := w.aliveOrErr(entity); err != nil {
		return err
	}
	rec := w.registry.Record(comp)
	if rec != nil {
		if rec.Storage == StorageSparseData {
			ptr := rec.sparseData.Insert(entity)
			if write != nil {
				write(ptr)
			} else if rec.TypeInfo != nil && rec.TypeInfo.Hooks.Default != nil {
				rec.TypeInfo.Hooks.Default(ptr)
			}
			return nil
		}
		if rec.Storage == StorageSparseTag {
			rec.sparseTag.Insert(entity)
			return nil
		}
	}

	loc, err := w.entities.GetLocation(entity)
	if err != nil {
		return err
	}
	src, ok := w.tables.Get(loc.Table)
	if !ok {
		return bark.AddTrace(fmt.Errorf("silo: entity %v points at a stale table handle", entity))
	}
	if src.Contains(comp) {
		return ComponentAlreadyPresentError{Entity: entity, Comp: comp}
	}

	dstHandle, _, ok := traverseAdd(w.tables, src, comp, Signature.TryExtend, w.buildTable)
	if !ok {
		return ComponentAlreadyPresentError{Entity: entity, Comp: comp}
	}
	src, dst := w.tables.GetTwoMut(loc.Table, dstHandle)

	moveEntity(w, entity, src, dst, loc.Row, func(id Id, ptr unsafe.Pointer) {
		if id == comp && write != nil {
			write(ptr)
			return
		}
		if r := w.registry.Record(id); r != nil && r.TypeInfo != nil && r.TypeInfo.Hooks.Default != nil {
			r.TypeInfo.Hooks.Default(ptr)
		}
	})
	return nil
}

// Add attaches component comp to entity, initializing its storage with
// the component's Default hook (if any). Add is for tags: if comp
// carries non-ZST TypeInfo it fails with UseSetForDataError, since only
// Set (via the generic package-level Set helper) can supply the value a
// data component needs (spec.md §4.10 step 1, original_source/world.rs
// add()'s has_type_info check).
func (w *World) Add(entity Id, comp Id) error {
	if rec := w.registry.Record(comp); rec != nil && rec.TypeInfo != nil && !rec.TypeInfo.IsZST() {
		return UseSetForDataError{Comp: comp}
	}
	if w.Locked() {
		w.queue = append(w.queue, opAdd{entity: entity, comp: comp})
		return nil
	}
	return w.addRaw(entity, comp, nil)
}

// AddPair attaches the relation pair (rel, tgt) to entity.
func (w *World) AddPair(entity, rel, tgt Id) error { return w.Add(entity, Pair(rel, tgt)) }

// Remove detaches component comp from entity, running its OnRemove hook
// first if one is registered. Like addRaw, comp need not be registered:
// an unregistered id (such as a relation pair attached by AddPair) is
// removed through the table path like any other tag.
func (w *World) Remove(entity Id, comp Id) error {
	if w.Locked() {
		w.queue = append(w.queue, opRemove{entity: entity, comp: comp})
		return nil
	}
	if err := w.aliveOrErr(entity); err != nil {
		return err
	}
	rec := w.registry.Record(comp)
	if rec != nil {
		if rec.Storage == StorageSparseData {
			if rec.TypeInfo != nil && rec.TypeInfo.Hooks.OnRemove != nil {
				if ptr, ok := rec.sparseData.Get(entity); ok {
					rec.TypeInfo.Hooks.OnRemove(w, entity, ptr)
				}
			}
			if !rec.sparseData.Remove(entity) {
				return ComponentAbsentError{Entity: entity, Comp: comp}
			}
			return nil
		}
		if rec.Storage == StorageSparseTag {
			if !rec.sparseTag.Remove(entity) {
				return ComponentAbsentError{Entity: entity, Comp: comp}
			}
			return nil
		}
	}

	loc, err := w.entities.GetLocation(entity)
	if err != nil {
		return err
	}
	src, ok := w.tables.Get(loc.Table)
	if !ok {
		return bark.AddTrace(fmt.Errorf("silo: entity %v points at a stale table handle", entity))
	}
	if !src.Contains(comp) {
		return ComponentAbsentError{Entity: entity, Comp: comp}
	}

	dstHandle, _, ok := traverseRemove(w.tables, src, comp, Signature.TryShrink, w.buildTable)
	if !ok {
		return ComponentAbsentError{Entity: entity, Comp: comp}
	}
	src, dst := w.tables.GetTwoMut(loc.Table, dstHandle)

	moveEntity(w, entity, src, dst, loc.Row, nil)
	return nil
}

// AddWithValue attaches component comp, writing *value into its newly
// allocated storage by a raw bit-copy. Generic callers should prefer
// the package-level Set function instead.
func (w *World) AddWithValue(entity Id, comp Id, value unsafe.Pointer, size uintptr) error {
	write := func(ptr unsafe.Pointer) {
		if size > 0 {
			copy(unsafe.Slice((*byte)(ptr), size), unsafe.Slice((*byte)(value), size))
		}
	}
	if w.Locked() {
		w.queue = append(w.queue, opAdd{entity: entity, comp: comp, write: write})
		return nil
	}
	return w.addRaw(entity, comp, write)
}

// buildTable constructs a new table for sig, used as TableIndex's
// build callback from traverseAdd/traverseRemove.
func (w *World) buildTable(sig Signature) TableHandle {
	var dataIds []Id
	for _, id := range sig.Ids() {
		if rec := w.registry.Record(id); rec != nil && rec.Storage == StorageTable && rec.TypeInfo != nil && !rec.TypeInfo.IsZST() {
			dataIds = append(dataIds, id)
		}
	}
	return w.tables.InsertWithSignature(sig, func(h TableHandle) *Table {
		return newTable(h, sig, dataIds, w.registry.TypeInfoFor, w.registry.BitIndexFor, w.registry.RegisterOccupancy)
	})
}

// Get returns the raw storage pointer for entity's comp value, or an
// error if entity doesn't carry it. Generic callers should prefer the
// package-level Get/GetMut functions.
func (w *World) Get(entity Id, comp Id) (unsafe.Pointer, error) {
	rec := w.registry.Record(comp)
	if rec == nil {
		return nil, ComponentNotRegisteredError{Comp: comp}
	}
	if rec.Storage == StorageSparseData {
		ptr, ok := rec.sparseData.Get(entity)
		if !ok {
			return nil, ComponentAbsentError{Entity: entity, Comp: comp}
		}
		return ptr, nil
	}
	loc, err := w.entities.GetLocation(entity)
	if err != nil {
		return nil, err
	}
	tbl, ok := w.tables.Get(loc.Table)
	if !ok {
		return nil, bark.AddTrace(fmt.Errorf("silo: entity %v points at a stale table handle", entity))
	}
	ptr, err := tbl.ColumnPtr(loc.Row, comp)
	if err != nil {
		return nil, ComponentAbsentError{Entity: entity, Comp: comp}
	}
	return ptr, nil
}

// Registry exposes the world's component registry to the query layer.
func (w *World) Registry() *ComponentRegistry { return w.registry }

// Tables exposes the world's table index to the query layer.
func (w *World) Tables() *TableIndex { return w.tables }

// Entities exposes the world's entity index to the query layer.
func (w *World) Entities() *EntityIndex { return w.entities }

// RegisterComponent is a free function because Go methods cannot carry
// their own type parameters; Get/GetMut/Set below follow the teacher's
// generic-accessor pattern the same way.

// Get resolves entity's T component, returning a copy.
func Get[T any](w *World, entity Id) (T, error) {
	var zero T
	t := reflect.TypeOf(zero)
	id, ok := w.registry.IdForType(t)
	if !ok {
		return zero, UnregisteredTypeError{Type: t}
	}
	ptr, err := w.Get(entity, id)
	if err != nil {
		return zero, err
	}
	return *(*T)(ptr), nil
}

// GetMut resolves entity's T component as a mutable pointer into its
// backing storage.
func GetMut[T any](w *World, entity Id) (*T, error) {
	var zero T
	t := reflect.TypeOf(zero)
	id, ok := w.registry.IdForType(t)
	if !ok {
		return nil, UnregisteredTypeError{Type: t}
	}
	ptr, err := w.Get(entity, id)
	if err != nil {
		return nil, err
	}
	return (*T)(ptr), nil
}

// Set attaches (if absent) or overwrites entity's T component with
// value, running OnSet afterward if the type registered one. Set is for
// data: if T is a zero-sized (tag) type it fails with UseAddForTagError,
// the mirror image of Add's data check (spec.md §4.10 step 1,
// original_source/world.rs's set()). Overwriting an existing value runs
// Drop on the old value first, so every value is dropped exactly once
// (spec.md §4.10 step 2).
func Set[T any](w *World, entity Id, value T) error {
	var zero T
	t := reflect.TypeOf(zero)
	id, ok := w.registry.IdForType(t)
	if !ok {
		return UnregisteredTypeError{Type: t}
	}
	rec := w.registry.Record(id)
	if rec != nil && rec.TypeInfo != nil && rec.TypeInfo.IsZST() {
		return UseAddForTagError{Comp: id}
	}
	size := unsafe.Sizeof(value)
	if w.Has(entity, id) {
		ptr, err := w.Get(entity, id)
		if err != nil {
			return err
		}
		if rec != nil && rec.TypeInfo != nil && rec.TypeInfo.Hooks.Drop != nil {
			rec.TypeInfo.Hooks.Drop(ptr)
		}
		*(*T)(ptr) = value
	} else if err := w.AddWithValue(entity, id, unsafe.Pointer(&value), size); err != nil {
		return err
	}
	if rec != nil && rec.TypeInfo != nil && rec.TypeInfo.Hooks.OnSet != nil {
		ptr, _ := w.Get(entity, id)
		rec.TypeInfo.Hooks.OnSet(w, entity, ptr)
	}
	return nil
}

// Has reports whether entity carries a registered T component.
func Has[T any](w *World, entity Id) bool {
	var zero T
	id, ok := w.registry.IdForType(reflect.TypeOf(zero))
	if !ok {
		return false
	}
	return w.Has(entity, id)
}
