package silo

// entityPageSize is the page size of the sparse array backing
// EntityIndex, per spec.md §4.1.
const entityPageSize = 4096

// unset marks an entityRecord that has never been touched, i.e. its
// index has never been issued by NewID.
const unset = -1

// EntityLocation answers "where does this entity's data live".
type EntityLocation struct {
	Table TableHandle
	Row   int
}

// entityRecord is the one per-index slot of the sparse pages.
type entityRecord struct {
	location EntityLocation
	flags    EntityFlags
	dense    int
}

// LocationError distinguishes "never created" from "recycled/dead" when
// resolving an id's location.
type LocationError int

const (
	// NonExistent means the index was never issued.
	NonExistent LocationError = iota
	// NotAlive means the index was issued but has since been recycled.
	NotAlive
)

func (e LocationError) Error() string {
	if e == NonExistent {
		return "silo: entity does not exist"
	}
	return "silo: entity is not alive"
}

// EntityIndex is a stable handle allocator: it assigns 32-bit indices
// with 16-bit generation counters, tracks alive/dead, and answers
// "where is this entity" in O(1). entities[0] is a sentinel (never
// created); entities[1:aliveCount] are alive, the remainder dead.
type EntityIndex struct {
	entities   []Id
	pages      [][]entityRecord
	aliveCount int
}

// NewEntityIndex creates an index with slot 0 reserved as the sentinel.
func NewEntityIndex() *EntityIndex {
	idx := &EntityIndex{
		entities:   []Id{NullID},
		aliveCount: 1,
	}
	idx.growRecord(0)
	return idx
}

// growRecord returns the record for index, allocating its page (with
// every slot's dense initialized to unset) if this is the first touch.
func (idx *EntityIndex) growRecord(index uint32) *entityRecord {
	page := index / entityPageSize
	offset := index % entityPageSize
	for uint32(len(idx.pages)) <= page {
		idx.pages = append(idx.pages, nil)
	}
	if idx.pages[page] == nil {
		records := make([]entityRecord, entityPageSize)
		for i := range records {
			records[i].dense = unset
		}
		idx.pages[page] = records
	}
	return &idx.pages[page][offset]
}

func (idx *EntityIndex) record(index uint32) *entityRecord {
	page := index / entityPageSize
	offset := index % entityPageSize
	if int(page) >= len(idx.pages) || idx.pages[page] == nil {
		return nil
	}
	return &idx.pages[page][offset]
}

// NewID allocates a fresh entity id, recycling a dead slot if one is
// available.
func (idx *EntityIndex) NewID() Id {
	if idx.aliveCount < len(idx.entities) {
		id := idx.entities[idx.aliveCount]
		rec := idx.record(uint32(Index(id)))
		rec.dense = idx.aliveCount
		rec.location = EntityLocation{}
		rec.flags = 0
		idx.aliveCount++
		return id
	}

	index := uint32(len(idx.entities))
	if uint64(index) >= uint64(1)<<32 {
		panic("silo: entity index exhausted 32-bit index space")
	}
	id := FromParts(index, 0)
	idx.entities = append(idx.entities, id)
	rec := idx.growRecord(index)
	rec.dense = idx.aliveCount
	rec.location = EntityLocation{}
	rec.flags = 0
	idx.aliveCount++
	return id
}

// RemoveID recycles id, incrementing its generation. A no-op if id is
// not currently alive.
func (idx *EntityIndex) RemoveID(id Id) {
	rec := idx.record(uint32(Index(id)))
	if rec == nil || rec.dense == unset || rec.dense >= idx.aliveCount || idx.entities[rec.dense] != id {
		return
	}

	d := rec.dense
	idx.aliveCount--
	next := WithIncrementedGeneration(id)
	rec.location = EntityLocation{}
	rec.flags = 0
	rec.dense = idx.aliveCount

	if d != idx.aliveCount {
		last := idx.entities[idx.aliveCount]
		idx.entities[d] = last
		lastRec := idx.record(uint32(Index(last)))
		lastRec.dense = d
	}
	idx.entities[idx.aliveCount] = next
}

// GetLocation resolves id to its current (table, row), or a LocationError
// if id was never created (NonExistent) or has since been recycled
// (NotAlive).
func (idx *EntityIndex) GetLocation(id Id) (EntityLocation, error) {
	rec := idx.record(uint32(Index(id)))
	if rec == nil || rec.dense == unset {
		return EntityLocation{}, NonExistent
	}
	if rec.dense >= idx.aliveCount || idx.entities[rec.dense] != id {
		return EntityLocation{}, NotAlive
	}
	return rec.location, nil
}

// SetLocation updates the (table, row) for id if it is currently alive.
func (idx *EntityIndex) SetLocation(id Id, loc EntityLocation) {
	rec := idx.record(uint32(Index(id)))
	if rec == nil || rec.dense == unset || rec.dense >= idx.aliveCount || idx.entities[rec.dense] != id {
		return
	}
	rec.location = loc
}

// IsAlive reports whether id is currently alive.
func (idx *EntityIndex) IsAlive(id Id) bool {
	rec := idx.record(uint32(Index(id)))
	if rec == nil || rec.dense == unset || rec.dense >= idx.aliveCount {
		return false
	}
	return idx.entities[rec.dense] == id
}

// Exists reports whether id's index was ever created, alive or dead.
func (idx *EntityIndex) Exists(id Id) bool {
	rec := idx.record(uint32(Index(id)))
	return rec != nil && rec.dense != unset
}

// GetCurrent returns id's index with its up-to-date generation — the
// alive id, or for a recycled index the id that the next NewID will
// reissue — or ok=false if id's index was never issued.
func (idx *EntityIndex) GetCurrent(id Id) (Id, bool) {
	rec := idx.record(uint32(Index(id)))
	if rec == nil || rec.dense == unset {
		return 0, false
	}
	return idx.entities[rec.dense], true
}

// flagsFor returns a pointer to the EntityFlags for id, or nil if id
// has no record.
func (idx *EntityIndex) flagsFor(id Id) *EntityFlags {
	rec := idx.record(uint32(Index(id)))
	if rec == nil || rec.dense == unset {
		return nil
	}
	return &rec.flags
}

// AliveCount returns the number of currently alive entities (excluding
// the sentinel).
func (idx *EntityIndex) AliveCount() int { return idx.aliveCount - 1 }

// DeadCount returns the number of recycled, not-currently-alive slots.
func (idx *EntityIndex) DeadCount() int { return len(idx.entities) - idx.aliveCount }
