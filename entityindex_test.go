package silo

import "testing"

func TestEntityIndexNewIDIsAlive(t *testing.T) {
	idx := NewEntityIndex()
	id := idx.NewID()
	if !idx.IsAlive(id) {
		t.Fatal("freshly created id is not alive")
	}
	if idx.AliveCount() != 1 {
		t.Errorf("AliveCount() = %v, want 1", idx.AliveCount())
	}
}

func TestEntityIndexRemoveRecyclesWithNewGeneration(t *testing.T) {
	idx := NewEntityIndex()
	a := idx.NewID()
	idx.RemoveID(a)

	if idx.IsAlive(a) {
		t.Fatal("removed id still reports alive")
	}

	b := idx.NewID()
	if Index(a) != Index(b) {
		t.Fatalf("recycled id has a different index: got %v, want %v", Index(b), Index(a))
	}
	if Generation(b) != Generation(a)+1 {
		t.Fatalf("recycled id generation = %v, want %v", Generation(b), Generation(a)+1)
	}
	if a == b {
		t.Fatal("recycled id equals the id it replaced")
	}
}

func TestEntityIndexStaleIdNotAlive(t *testing.T) {
	idx := NewEntityIndex()
	a := idx.NewID()
	idx.RemoveID(a)
	idx.NewID() // recycles a's index under a new generation

	if idx.IsAlive(a) {
		t.Fatal("stale (pre-recycle) id reports alive")
	}
	if _, err := idx.GetLocation(a); err != NotAlive {
		t.Fatalf("GetLocation(stale) error = %v, want NotAlive", err)
	}
}

func TestEntityIndexNonExistent(t *testing.T) {
	idx := NewEntityIndex()
	neverIssued := FromParts(9999, 0)
	if idx.Exists(neverIssued) {
		t.Fatal("Exists() = true for an index never issued")
	}
	if _, err := idx.GetLocation(neverIssued); err != NonExistent {
		t.Fatalf("GetLocation() error = %v, want NonExistent", err)
	}
}

func TestEntityIndexSentinelNotAlive(t *testing.T) {
	idx := NewEntityIndex()
	if idx.IsAlive(NullID) {
		t.Fatal("sentinel NullID reports alive")
	}
}

func TestEntityIndexSetGetLocation(t *testing.T) {
	idx := NewEntityIndex()
	id := idx.NewID()
	want := EntityLocation{Table: TableHandle{Index: 3, Version: 1}, Row: 7}
	idx.SetLocation(id, want)

	got, err := idx.GetLocation(id)
	if err != nil {
		t.Fatalf("GetLocation() error = %v", err)
	}
	if got != want {
		t.Errorf("GetLocation() = %+v, want %+v", got, want)
	}
}

func TestEntityIndexSwapRemovePatchesLastEntity(t *testing.T) {
	idx := NewEntityIndex()
	a := idx.NewID()
	b := idx.NewID()
	c := idx.NewID()
	_ = a

	idx.RemoveID(b)

	if !idx.IsAlive(c) {
		t.Fatal("swapped-in entity reports not alive")
	}
	if idx.DeadCount() != 1 {
		t.Errorf("DeadCount() = %v, want 1", idx.DeadCount())
	}
}

func TestEntityIndexManyPagesAcrossBoundary(t *testing.T) {
	idx := NewEntityIndex()
	ids := make([]Id, 0, entityPageSize+10)
	for i := 0; i < entityPageSize+10; i++ {
		ids = append(ids, idx.NewID())
	}
	for i, id := range ids {
		if !idx.IsAlive(id) {
			t.Fatalf("entity %d (page boundary test) not alive", i)
		}
	}
}
