package silo

import (
	"testing"
	"unsafe"
)

func TestComponentSparseSetInsertGetRemove(t *testing.T) {
	info := newTypeInfo[int64]()
	set := NewComponentSparseSet(info)

	e1 := FromParts(1, 0)
	e2 := FromParts(2, 0)

	ptr := set.Insert(e1)
	*(*int64)(ptr) = 42

	ptr2 := set.Insert(e2)
	*(*int64)(ptr2) = 99

	got, ok := set.Get(e1)
	if !ok || *(*int64)(got) != 42 {
		t.Fatalf("Get(e1) = (%v, %v), want (42, true)", derefOrNil(got), ok)
	}

	if !set.Remove(e1) {
		t.Fatal("Remove(e1) = false")
	}
	if set.Has(e1) {
		t.Fatal("Has(e1) = true after Remove")
	}
	got2, ok := set.Get(e2)
	if !ok || *(*int64)(got2) != 99 {
		t.Fatalf("Get(e2) after removing e1 = (%v, %v), want (99, true)", derefOrNil(got2), ok)
	}
}

func derefOrNil(ptr unsafe.Pointer) int64 {
	if ptr == nil {
		return -1
	}
	return *(*int64)(ptr)
}

func TestTagSparseSetMembership(t *testing.T) {
	set := NewTagSparseSet()
	e1 := FromParts(1, 0)
	e2 := FromParts(2, 0)

	set.Insert(e1)
	set.Insert(e2)
	if set.Len() != 2 {
		t.Fatalf("Len() = %v, want 2", set.Len())
	}

	if !set.Remove(e1) {
		t.Fatal("Remove(e1) = false")
	}
	if set.Has(e1) {
		t.Fatal("Has(e1) = true after Remove")
	}
	if !set.Has(e2) {
		t.Fatal("Has(e2) = false, swap-remove corrupted survivor")
	}
}
