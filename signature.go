package silo

import (
	"encoding/binary"
	"sort"
)

// Signature is a sorted, deduplicated sequence of component ids
// identifying one archetype. Equality and hashing are by content, so
// two signatures built from the same ids in any order are interchangeable.
type Signature struct {
	ids []Id
	key string
}

// NewSignature builds a Signature from an unordered, possibly duplicated
// list of ids.
func NewSignature(ids ...Id) Signature {
	cp := make([]Id, len(ids))
	copy(cp, ids)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	cp = dedupSorted(cp)
	return Signature{ids: cp, key: signatureKey(cp)}
}

func dedupSorted(ids []Id) []Id {
	if len(ids) < 2 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if out[len(out)-1] != id {
			out = append(out, id)
		}
	}
	return out
}

func signatureKey(ids []Id) string {
	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(id))
	}
	return string(buf)
}

// Ids returns the sorted id slice backing this signature. Callers must
// not mutate it.
func (s Signature) Ids() []Id { return s.ids }

// Len returns the number of ids in the signature.
func (s Signature) Len() int { return len(s.ids) }

// Key returns a comparable, hashable representation of the signature's
// content, suitable as a map key.
func (s Signature) Key() string { return s.key }

// HasId reports whether id is present in the signature.
func (s Signature) HasId(id Id) bool {
	_, ok := s.search(id)
	return ok
}

// IndexOf returns the position of id within the sorted signature.
func (s Signature) IndexOf(id Id) (int, bool) { return s.search(id) }

func (s Signature) search(id Id) (int, bool) {
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	if i < len(s.ids) && s.ids[i] == id {
		return i, true
	}
	return i, false
}

// TryExtend returns a new signature with id inserted in sort order, or
// ok=false if id is already present.
func (s Signature) TryExtend(id Id) (Signature, bool) {
	pos, found := s.search(id)
	if found {
		return Signature{}, false
	}
	next := make([]Id, 0, len(s.ids)+1)
	next = append(next, s.ids[:pos]...)
	next = append(next, id)
	next = append(next, s.ids[pos:]...)
	return Signature{ids: next, key: signatureKey(next)}, true
}

// TryShrink returns a new signature with id removed, or ok=false if id
// was not present.
func (s Signature) TryShrink(id Id) (Signature, bool) {
	pos, found := s.search(id)
	if !found {
		return Signature{}, false
	}
	next := make([]Id, 0, len(s.ids)-1)
	next = append(next, s.ids[:pos]...)
	next = append(next, s.ids[pos+1:]...)
	return Signature{ids: next, key: signatureKey(next)}, true
}

// Equal reports whether two signatures carry the same ids.
func (s Signature) Equal(other Signature) bool { return s.key == other.key }
