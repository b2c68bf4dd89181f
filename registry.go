package silo

import (
	"fmt"
	"reflect"
)

// StorageKind selects where a component's values live: packed in every
// table that carries it (Table), or off to the side in one shared
// sparse set (SparseData for data components, SparseTag for zero-sized
// tags that only need membership tracking) — spec.md §4.10.
type StorageKind int

const (
	StorageTable StorageKind = iota
	StorageSparseData
	StorageSparseTag
)

// ComponentLocation is the per-table address an id occupies within one
// archetype (spec.md §3): IdIndex is the id's position in the table's
// sorted signature, IdCount is how many signature entries a wildcard
// query anchored on this id would match (itself, plus — for a pair —
// any other pair sharing its relation or its target, spec.md invariant
// 7), and Column/HasColumn give the data column carrying its values, if
// it has one.
type ComponentLocation struct {
	IdIndex   int
	IdCount   int
	Column    int
	HasColumn bool
}

// sparseOccupancyHandle is the sentinel TableHandle key under which
// sparse-backed components (data or tag) register their occupancy
// entry, so Occupancy lists them alongside table-backed components
// (spec.md Open Question (c), resolved in SPEC_FULL §4.13). World.Has
// does not consult occupancy: it checks the entity's table signature
// and then the record's sparse set.
var sparseOccupancyHandle = TableHandle{}

// ComponentRecord is a registered component id's metadata: its flags,
// where its values live, its TypeInfo (nil for StorageSparseTag ids and
// relationship-only ids with no payload), and — if sparse — the set
// backing it.
type ComponentRecord struct {
	Id        Id
	Flags     ComponentFlags
	Storage   StorageKind
	TypeInfo  *TypeInfo
	BitIndex  uint32
	hasBit    bool
	occupancy map[TableHandle]ComponentLocation

	sparseData *ComponentSparseSet
	sparseTag  *TagSparseSet
}

// TooManyComponentsError is returned by Register when the registry's
// bit-index space (bounded by Config.MaxComponents, spec.md §9 Design
// Note) is exhausted.
type TooManyComponentsError struct{ Max int }

func (e TooManyComponentsError) Error() string {
	return fmt.Sprintf("silo: component registry exhausted its %d-id bit-index budget", e.Max)
}

// AlreadyRegisteredError is returned by BindType when a Go type is
// already bound to a different id. Registering the same id again returns
// its existing record instead.
type AlreadyRegisteredError struct{ Type reflect.Type }

func (e AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("silo: type %s is already registered", e.Type)
}

// ComponentRegistry owns every component id's metadata plus the bit
// index used by the query layer's mask.Mask fast-path matching. Ids
// themselves come from the same EntityIndex components are entities in
// (spec.md §4.7: "component ids are entities too").
type ComponentRegistry struct {
	maxComponents int
	records       map[Id]*ComponentRecord
	byType        map[reflect.Type]Id
	nextBit       uint32
}

// NewComponentRegistry creates an empty registry bounded to maxComponents
// distinct bit-indexed ids (Config.MaxComponents).
func NewComponentRegistry(maxComponents int) *ComponentRegistry {
	return &ComponentRegistry{
		maxComponents: maxComponents,
		records:       make(map[Id]*ComponentRecord),
		byType:        make(map[reflect.Type]Id),
	}
}

// Record returns id's registered metadata, or nil if id is not (yet) a
// registered component — e.g. a plain relation/tag entity with no
// component data of its own.
func (r *ComponentRegistry) Record(id Id) *ComponentRecord { return r.records[id] }

// RegisterTable registers id as a table-storage data component with the
// given TypeInfo.
func (r *ComponentRegistry) RegisterTable(id Id, info *TypeInfo, flags ComponentFlags) (*ComponentRecord, error) {
	return r.register(id, info, StorageTable, flags, false)
}

// RegisterSparseData registers id as a sparse-set-backed data component.
func (r *ComponentRegistry) RegisterSparseData(id Id, info *TypeInfo, flags ComponentFlags) (*ComponentRecord, error) {
	rec, err := r.register(id, info, StorageSparseData, flags, false)
	if err != nil {
		return nil, err
	}
	rec.sparseData = NewComponentSparseSet(info)
	r.RegisterOccupancy(id, sparseOccupancyHandle, ComponentLocation{IdCount: 1})
	return rec, nil
}

// RegisterSparseTag registers id as a membership-only sparse tag.
func (r *ComponentRegistry) RegisterSparseTag(id Id, flags ComponentFlags) (*ComponentRecord, error) {
	rec, err := r.register(id, nil, StorageSparseTag, flags|Tag, true)
	if err != nil {
		return nil, err
	}
	rec.sparseTag = NewTagSparseSet()
	r.RegisterOccupancy(id, sparseOccupancyHandle, ComponentLocation{IdCount: 1})
	return rec, nil
}

// RegisterOccupancy records that id occupies column loc.Column within
// the table handle. Table construction calls this once per signature id
// (tags included; loc.HasColumn is false for ids without a column) —
// spec.md §4.7: the occupancy map registers "when built".
func (r *ComponentRegistry) RegisterOccupancy(id Id, handle TableHandle, loc ComponentLocation) {
	rec, ok := r.records[id]
	if !ok {
		return
	}
	if rec.occupancy == nil {
		rec.occupancy = make(map[TableHandle]ComponentLocation)
	}
	rec.occupancy[handle] = loc
}

// Occupancy returns every table (or, for sparse storage, the sentinel
// handle) id currently occupies, keyed by where its values live — the
// "find every table carrying id" entry point (SPEC_FULL §6). The Query/
// Cursor types in this package match tables by bitmask and do not use it.
func (r *ComponentRegistry) Occupancy(id Id) map[TableHandle]ComponentLocation {
	rec, ok := r.records[id]
	if !ok {
		return nil
	}
	return rec.occupancy
}

// DeregisterTable removes handle's occupancy entry from every
// component record. No World operation or TableIndex method calls it
// (tables are never reaped, Open Question (a)).
func (r *ComponentRegistry) DeregisterTable(handle TableHandle) {
	for _, rec := range r.records {
		delete(rec.occupancy, handle)
	}
}

func (r *ComponentRegistry) register(id Id, info *TypeInfo, kind StorageKind, flags ComponentFlags, isTag bool) (*ComponentRecord, error) {
	if existing, ok := r.records[id]; ok {
		return existing, nil
	}
	rec := &ComponentRecord{Id: id, Flags: flags, Storage: kind, TypeInfo: info}
	isZST := isTag || info == nil || info.IsZST()
	if !isZST {
		if int(r.nextBit) >= r.maxComponents {
			return nil, TooManyComponentsError{Max: r.maxComponents}
		}
		rec.BitIndex = r.nextBit
		rec.hasBit = true
		r.nextBit++
	} else if r.maxComponents > 0 {
		if int(r.nextBit) < r.maxComponents {
			rec.BitIndex = r.nextBit
			rec.hasBit = true
			r.nextBit++
		}
	}
	r.records[id] = rec
	return rec, nil
}

// BitIndexFor returns id's mask.Mask bit position, if it has one.
func (r *ComponentRegistry) BitIndexFor(id Id) (uint32, bool) {
	rec, ok := r.records[id]
	if !ok || !rec.hasBit {
		return 0, false
	}
	return rec.BitIndex, true
}

// TypeInfoFor returns id's TypeInfo, or nil for tags/unregistered ids.
func (r *ComponentRegistry) TypeInfoFor(id Id) *TypeInfo {
	if rec, ok := r.records[id]; ok {
		return rec.TypeInfo
	}
	return nil
}

// IdForType returns the id a Go type T was registered under.
func (r *ComponentRegistry) IdForType(t reflect.Type) (Id, bool) {
	id, ok := r.byType[t]
	return id, ok
}

// BindType associates a Go type with an already-registered id, so future
// lookups by reflect.Type (generic World.Get[T] etc.) can find it.
func (r *ComponentRegistry) BindType(t reflect.Type, id Id) error {
	if existing, ok := r.byType[t]; ok && existing != id {
		return AlreadyRegisteredError{Type: t}
	}
	r.byType[t] = id
	return nil
}

// IsSparse reports whether id is stored off the table path.
func (r *ComponentRegistry) IsSparse(id Id) bool {
	rec, ok := r.records[id]
	return ok && (rec.Storage == StorageSparseData || rec.Storage == StorageSparseTag)
}
