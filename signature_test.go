package silo

import "testing"

func TestNewSignatureSortsAndDedups(t *testing.T) {
	sig := NewSignature(Id(5), Id(1), Id(3), Id(1), Id(5))
	ids := sig.Ids()
	want := []Id{1, 3, 5}
	if len(ids) != len(want) {
		t.Fatalf("len(Ids()) = %v, want %v", len(ids), len(want))
	}
	for i, id := range ids {
		if id != want[i] {
			t.Errorf("Ids()[%d] = %v, want %v", i, id, want[i])
		}
	}
}

func TestSignatureEqualIgnoresInputOrder(t *testing.T) {
	a := NewSignature(Id(1), Id(2), Id(3))
	b := NewSignature(Id(3), Id(1), Id(2))
	if !a.Equal(b) {
		t.Fatal("signatures built from the same ids in different order are not equal")
	}
}

func TestSignatureTryExtend(t *testing.T) {
	base := NewSignature(Id(1), Id(3))
	extended, ok := base.TryExtend(Id(2))
	if !ok {
		t.Fatal("TryExtend() ok = false for a new id")
	}
	want := NewSignature(Id(1), Id(2), Id(3))
	if !extended.Equal(want) {
		t.Errorf("TryExtend() = %v, want %v", extended.Ids(), want.Ids())
	}

	if _, ok := base.TryExtend(Id(1)); ok {
		t.Fatal("TryExtend() ok = true for an already-present id")
	}
}

func TestSignatureTryShrink(t *testing.T) {
	base := NewSignature(Id(1), Id(2), Id(3))
	shrunk, ok := base.TryShrink(Id(2))
	if !ok {
		t.Fatal("TryShrink() ok = false for a present id")
	}
	want := NewSignature(Id(1), Id(3))
	if !shrunk.Equal(want) {
		t.Errorf("TryShrink() = %v, want %v", shrunk.Ids(), want.Ids())
	}

	if _, ok := base.TryShrink(Id(99)); ok {
		t.Fatal("TryShrink() ok = true for an absent id")
	}
}

func TestSignatureHasIdAndIndexOf(t *testing.T) {
	sig := NewSignature(Id(10), Id(20), Id(30))
	if !sig.HasId(Id(20)) {
		t.Fatal("HasId(20) = false")
	}
	if sig.HasId(Id(99)) {
		t.Fatal("HasId(99) = true")
	}
	idx, ok := sig.IndexOf(Id(20))
	if !ok || idx != 1 {
		t.Errorf("IndexOf(20) = (%v, %v), want (1, true)", idx, ok)
	}
}
