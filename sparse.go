package silo

import "unsafe"

// sparsePageSize mirrors EntityIndex's paging so sparse-set lookups stay
// O(1) without preallocating space for the entire 32-bit index range.
const sparsePageSize = entityPageSize

// sparsePages is the paged sparse array shared by ComponentSparseSet and
// TagSparseSet: entity index -> dense slot, or unset.
type sparsePages struct {
	pages [][]int
}

func (s *sparsePages) get(index uint32) int {
	page := index / sparsePageSize
	if int(page) >= len(s.pages) || s.pages[page] == nil {
		return unset
	}
	return s.pages[page][index%sparsePageSize]
}

func (s *sparsePages) set(index uint32, dense int) {
	page := index / sparsePageSize
	offset := index % sparsePageSize
	for uint32(len(s.pages)) <= page {
		s.pages = append(s.pages, nil)
	}
	if s.pages[page] == nil {
		slots := make([]int, sparsePageSize)
		for i := range slots {
			slots[i] = unset
		}
		s.pages[page] = slots
	}
	s.pages[page][offset] = dense
}

// ComponentSparseSet stores one data component's values for whichever
// entities carry it, independent of which table (if any) they sit in —
// the storage path for components flagged CompIsSparse (spec.md §4.10).
type ComponentSparseSet struct {
	sparse sparsePages
	dense  []Id
	col    *column
}

// NewComponentSparseSet creates an empty sparse set backed by info's layout.
func NewComponentSparseSet(info *TypeInfo) *ComponentSparseSet {
	return &ComponentSparseSet{col: newColumn(info)}
}

// Has reports whether entity currently has a value in this set.
func (s *ComponentSparseSet) Has(entity Id) bool {
	return s.sparse.get(Index(entity)) != unset
}

// Insert adds entity with an uninitialized slot, returning a pointer the
// caller must write through. If entity is already present, returns its
// existing slot instead of adding a duplicate.
func (s *ComponentSparseSet) Insert(entity Id) unsafe.Pointer {
	if d := s.sparse.get(Index(entity)); d != unset {
		return s.col.at(d)
	}
	d := len(s.dense)
	s.dense = append(s.dense, entity)
	s.col.reserve(cap(s.dense))
	s.sparse.set(Index(entity), d)
	return s.col.at(d)
}

// Get returns entity's value pointer, or ok=false if absent.
func (s *ComponentSparseSet) Get(entity Id) (unsafe.Pointer, bool) {
	d := s.sparse.get(Index(entity))
	if d == unset {
		return nil, false
	}
	return s.col.at(d), true
}

// Remove drops entity's value via swap-remove, running Drop if set.
func (s *ComponentSparseSet) Remove(entity Id) bool {
	d := s.sparse.get(Index(entity))
	if d == unset {
		return false
	}
	length := len(s.dense)
	s.col.swapRemoveDrop(d, length)
	last := length - 1
	if d != last {
		moved := s.dense[last]
		s.dense[d] = moved
		s.sparse.set(Index(moved), d)
	}
	s.dense = s.dense[:last]
	s.sparse.set(Index(entity), unset)
	return true
}

// Len returns the number of entities currently holding a value.
func (s *ComponentSparseSet) Len() int { return len(s.dense) }

// Entities returns the dense entity list. Callers must not mutate it.
func (s *ComponentSparseSet) Entities() []Id { return s.dense }

// TagSparseSet tracks membership only — no payload — for sparse-storage
// tags (spec.md §4.10's StorageKind::SparseTag).
type TagSparseSet struct {
	sparse sparsePages
	dense  []Id
}

// NewTagSparseSet creates an empty tag membership set.
func NewTagSparseSet() *TagSparseSet { return &TagSparseSet{} }

// Has reports whether entity carries the tag.
func (s *TagSparseSet) Has(entity Id) bool { return s.sparse.get(Index(entity)) != unset }

// Insert adds entity to the set. A no-op if already present.
func (s *TagSparseSet) Insert(entity Id) {
	if s.sparse.get(Index(entity)) != unset {
		return
	}
	d := len(s.dense)
	s.dense = append(s.dense, entity)
	s.sparse.set(Index(entity), d)
}

// Remove drops entity from the set via swap-remove.
func (s *TagSparseSet) Remove(entity Id) bool {
	d := s.sparse.get(Index(entity))
	if d == unset {
		return false
	}
	length := len(s.dense)
	last := length - 1
	if d != last {
		moved := s.dense[last]
		s.dense[d] = moved
		s.sparse.set(Index(moved), d)
	}
	s.dense = s.dense[:last]
	s.sparse.set(Index(entity), unset)
	return true
}

// Len returns the number of entities currently tagged.
func (s *TagSparseSet) Len() int { return len(s.dense) }

// Entities returns the dense entity list. Callers must not mutate it.
func (s *TagSparseSet) Entities() []Id { return s.dense }
