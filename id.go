package silo

// Id is a 64-bit identifier. The low 32 bits are an index, bits 32-47
// hold a generation counter, and bits 48-63 are flag bits. The most
// significant flag bit (PairFlag) marks a pair id, which instead packs
// (relation_index, target_index) into the low 64 bits and loses its
// generation — pairs are compared by index only.
type Id uint64

const (
	indexMask      = Id(0xFFFFFFFF)
	generationMask = Id(0xFFFF) << 32
	flagsMask      = Id(0xFFFF) << 48

	// PairFlag marks id as a (relation, target) pair.
	PairFlag = Id(1) << 63
	// ToggleFlag marks a component id as independently toggleable.
	ToggleFlag = Id(1) << 62
	// AutoOverrideFlag marks a component id as auto-overridden on instantiation.
	AutoOverrideFlag = Id(1) << 61
)

// Built-in entities. Reserved at the lowest indices so every world agrees
// on their identity without needing to exchange ids out of band. NullID
// is never issued by the entity index (slot 0 is its sentinel).
const (
	NullID Id = 0

	WILDCARD Id = 1
	ANY      Id = 2

	ChildOf   Id = 3
	IsA       Id = 4
	DependsOn Id = 5

	ModuleTag       Id = 6
	PrefabTag       Id = 7
	DisabledTag     Id = 8
	NotQueryableTag Id = 9
	SlotOfTag       Id = 10
)

// builtinIds is the order NewWorld bootstraps them in, so their indices
// land at 1..len(builtinIds) deterministically.
var builtinIds = []Id{
	WILDCARD, ANY, ChildOf, IsA, DependsOn,
	ModuleTag, PrefabTag, DisabledTag, NotQueryableTag, SlotOfTag,
}

// Index returns the low 32 bits of id.
func Index(id Id) uint32 { return uint32(id) }

// Generation returns the 16-bit generation counter.
func Generation(id Id) uint16 { return uint16(id >> 32) }

// WithIncrementedGeneration returns id with its generation bumped by one
// and its index preserved. Used by the entity index on recycling.
func WithIncrementedGeneration(id Id) Id {
	gen := Generation(id) + 1
	return Id(Index(id)) | Id(gen)<<32
}

// FromParts builds a plain (non-pair) id from an index and generation.
func FromParts(index uint32, generation uint16) Id {
	return Id(index) | Id(generation)<<32
}

// Pair packs (rel, tgt) into one id: PAIR | (index(rel) << 32) | index(tgt).
// A pair id never equals a non-pair id, since PairFlag is always set.
func Pair(rel, tgt Id) Id {
	return PairFlag | Id(Index(rel))<<32 | Id(Index(tgt))
}

// IsPair reports whether id was built with Pair.
func IsPair(id Id) bool { return id&PairFlag != 0 }

// First returns the relation side of a pair id, as a bare index-only Id.
func First(id Id) Id { return Id(uint32(id >> 32)) }

// Second returns the target side of a pair id, as a bare index-only Id.
func Second(id Id) Id { return Id(uint32(id)) }

// HasIdFlag reports whether any bit in flag is set on id.
func HasIdFlag(id, flag Id) bool { return id&flag != 0 }

// HasRelation reports whether id is a pair whose relation side is rel.
// Comparison is by index only, per the pair-comparison contract.
func HasRelation(id, rel Id) bool {
	return IsPair(id) && First(id) == Id(Index(rel))
}

// StripGeneration zeroes the generation bits of a plain id. Pair ids
// (and any other flagged id) are returned unchanged, since their
// upper bits don't hold a meaningful generation.
func StripGeneration(id Id) Id {
	if id&flagsMask != 0 {
		return id
	}
	return id &^ generationMask
}

// IsWildcard reports whether id is WILDCARD/ANY, or a pair with either
// side equal to WILDCARD/ANY.
func IsWildcard(id Id) bool {
	if id == WILDCARD || id == ANY {
		return true
	}
	if !IsPair(id) {
		return false
	}
	first, second := First(id), Second(id)
	return first == WILDCARD || first == ANY || second == WILDCARD || second == ANY
}
