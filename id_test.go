package silo

import "testing"

func TestFromPartsRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		index      uint32
		generation uint16
	}{
		{"zero", 0, 0},
		{"small", 7, 3},
		{"max index", 0xFFFFFFFF, 0},
		{"max generation", 0, 0xFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := FromParts(tt.index, tt.generation)
			if got := Index(id); got != tt.index {
				t.Errorf("Index() = %v, want %v", got, tt.index)
			}
			if got := Generation(id); got != tt.generation {
				t.Errorf("Generation() = %v, want %v", got, tt.generation)
			}
		})
	}
}

func TestWithIncrementedGeneration(t *testing.T) {
	id := FromParts(42, 5)
	next := WithIncrementedGeneration(id)
	if Index(next) != 42 {
		t.Errorf("index changed across generation bump: got %v", Index(next))
	}
	if Generation(next) != 6 {
		t.Errorf("Generation() = %v, want 6", Generation(next))
	}
}

func TestPairEncoding(t *testing.T) {
	rel := FromParts(11, 2)
	tgt := FromParts(22, 9)
	p := Pair(rel, tgt)

	if !IsPair(p) {
		t.Fatal("IsPair() = false, want true")
	}
	if First(p) != Id(11) {
		t.Errorf("First() = %v, want 11", First(p))
	}
	if Second(p) != Id(22) {
		t.Errorf("Second() = %v, want 22", Second(p))
	}
	if HasRelation(p, rel) != true {
		t.Errorf("HasRelation() = false, want true")
	}
}

func TestPairNeverEqualsPlainId(t *testing.T) {
	rel := FromParts(1, 0)
	tgt := FromParts(2, 0)
	p := Pair(rel, tgt)
	plain := FromParts(uint32(p), 0)
	if p == plain {
		t.Fatal("pair id collided with a plain id of the same low bits")
	}
}

func TestStripGeneration(t *testing.T) {
	id := FromParts(5, 99)
	stripped := StripGeneration(id)
	if Generation(stripped) != 0 {
		t.Errorf("Generation() after strip = %v, want 0", Generation(stripped))
	}
	if Index(stripped) != 5 {
		t.Errorf("Index() after strip = %v, want 5", Index(stripped))
	}

	rel := FromParts(1, 0)
	tgt := FromParts(2, 0)
	p := Pair(rel, tgt)
	if StripGeneration(p) != p {
		t.Error("StripGeneration() altered a pair id")
	}
}

func TestIsWildcard(t *testing.T) {
	tests := []struct {
		name string
		id   Id
		want bool
	}{
		{"wildcard", WILDCARD, true},
		{"any", ANY, true},
		{"plain", FromParts(100, 0), false},
		{"pair with wildcard target", Pair(FromParts(5, 0), WILDCARD), true},
		{"pair with wildcard relation", Pair(WILDCARD, FromParts(5, 0)), true},
		{"plain pair", Pair(FromParts(5, 0), FromParts(6, 0)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWildcard(tt.id); got != tt.want {
				t.Errorf("IsWildcard() = %v, want %v", got, tt.want)
			}
		})
	}
}
