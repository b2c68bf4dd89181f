package silo

// ComponentFlags, ArchetypeFlags and EntityFlags are bitsets over a
// uint64. Go has no macros, so unlike original_source's impl_bitflags!
// each type gets its own handful of methods instead of a generated impl
// — there are only three of these types, so the duplication is cheaper
// than the indirection a generic bitset would add.

// ComponentFlags describes per-id behavior: delete propagation,
// instantiation behavior, and storage/event capability bits.
type ComponentFlags uint64

const (
	OnDeleteRemove ComponentFlags = 1 << iota
	OnDeleteDelete
	OnDeletePanic

	OnDeleteObjectRemove
	OnDeleteObjectDelete
	OnDeleteObjectPanic

	OnInstantiateOverride
	OnInstantiateInherit
	OnInstantiateDontInherit

	Exclusive
	Traversable
	Tag

	CanToggle
	IsTransitive
	IsInheritable
	IsRelationship

	CompHasOnAdd
	CompHasOnRemove
	CompHasOnSet
	CompIsSparse

	MarkedForDelete
)

func (f ComponentFlags) Contains(other ComponentFlags) bool { return f&other == other }
func (f ComponentFlags) Intersects(other ComponentFlags) bool { return f&other != 0 }
func (f *ComponentFlags) Insert(other ComponentFlags)       { *f |= other }
func (f *ComponentFlags) Remove(other ComponentFlags)       { *f &^= other }

// ArchetypeFlags describes per-table capability/occupancy bits, derived
// by scanning the table's signature and its columns' hooks.
type ArchetypeFlags uint64

const (
	HasIsA ArchetypeFlags = 1 << iota
	HasChildOf
	HasPairs
	HasModule
	HasToggle
	HasOverrides
	IsPrefab
	IsDisabled
	NotQueryable

	HasCtors
	HasDtors
	HasOnAdd
	HasOnRemove
	HasOnSet
)

func (f ArchetypeFlags) Contains(other ArchetypeFlags) bool   { return f&other == other }
func (f ArchetypeFlags) Intersects(other ArchetypeFlags) bool { return f&other != 0 }
func (f *ArchetypeFlags) Insert(other ArchetypeFlags)         { *f |= other }
func (f *ArchetypeFlags) Remove(other ArchetypeFlags)         { *f &^= other }

// EntityFlags is carried on an entity record (spec.md §3's "flags" field).
type EntityFlags uint64

const (
	EntityIsID EntityFlags = 1 << iota
	EntityIsTarget
	EntityIsTraversable
	EntityHasSparse
)

func (f EntityFlags) Contains(other EntityFlags) bool   { return f&other == other }
func (f EntityFlags) Intersects(other EntityFlags) bool { return f&other != 0 }
func (f *EntityFlags) Insert(other EntityFlags)         { *f |= other }
func (f *EntityFlags) Remove(other EntityFlags)         { *f &^= other }
