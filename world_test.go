package silo

import (
	"testing"
	"unsafe"
)

type position struct{ X, Y float64 }
type velocity struct{ X, Y float64 }
type marker struct{}

func TestWorldNewEntityIsAlive(t *testing.T) {
	w := NewWorld(Config{})
	e := w.NewEntity()
	if !w.IsAlive(e) {
		t.Fatal("new entity is not alive")
	}
}

func TestWorldAddMovesEntityToNewArchetype(t *testing.T) {
	w := NewWorld(Config{})
	markID, err := RegisterComponent[marker](w)
	if err != nil {
		t.Fatalf("RegisterComponent() error = %v", err)
	}
	e := w.NewEntity()

	if err := w.Add(e, markID); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !w.Has(e, markID) {
		t.Fatal("Has() = false after Add")
	}
}

func TestAddRejectsDataComponent(t *testing.T) {
	w := NewWorld(Config{})
	posID, _ := RegisterComponent[position](w)
	e := w.NewEntity()

	err := w.Add(e, posID)
	if _, ok := err.(UseSetForDataError); !ok {
		t.Fatalf("Add() error = %v (%T), want UseSetForDataError", err, err)
	}
}

func TestSetRejectsTagComponent(t *testing.T) {
	w := NewWorld(Config{})
	RegisterComponent[marker](w)
	e := w.NewEntity()

	err := Set(w, e, marker{})
	if _, ok := err.(UseAddForTagError); !ok {
		t.Fatalf("Set() error = %v (%T), want UseAddForTagError", err, err)
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	w := NewWorld(Config{})
	if _, err := RegisterComponent[position](w); err != nil {
		t.Fatalf("RegisterComponent() error = %v", err)
	}
	e := w.NewEntity()

	want := position{X: 1, Y: 2}
	if err := Set(w, e, want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := Get[position](w, e)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestSetOverwritesExistingValue(t *testing.T) {
	w := NewWorld(Config{})
	RegisterComponent[position](w)
	e := w.NewEntity()

	Set(w, e, position{X: 1, Y: 1})
	Set(w, e, position{X: 9, Y: 9})

	got, err := Get[position](w, e)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != (position{X: 9, Y: 9}) {
		t.Errorf("Get() = %+v, want {9 9}", got)
	}
}

func TestSetOverwriteDropsOldValueExactlyOnce(t *testing.T) {
	w := NewWorld(Config{})
	drops := 0
	posID, err := RegisterComponent[position](w, Hooks{
		Drop: func(unsafe.Pointer) { drops++ },
	})
	if err != nil {
		t.Fatalf("RegisterComponent() error = %v", err)
	}
	e := w.NewEntity()

	Set(w, e, position{X: 1, Y: 1})
	if drops != 0 {
		t.Fatalf("drops = %d after the first Set, want 0", drops)
	}

	Set(w, e, position{X: 9, Y: 9})
	if drops != 1 {
		t.Fatalf("drops = %d after overwriting Set, want 1", drops)
	}

	if err := w.Remove(e, posID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
}

func TestMultiComponentEntityKeepsValuesIndependent(t *testing.T) {
	w := NewWorld(Config{})
	RegisterComponent[position](w)
	RegisterComponent[velocity](w)
	e := w.NewEntity()

	Set(w, e, position{X: 1, Y: 2})
	Set(w, e, velocity{X: 3, Y: 4})

	pos, err := Get[position](w, e)
	if err != nil || pos != (position{X: 1, Y: 2}) {
		t.Errorf("Get[position]() = %+v, %v", pos, err)
	}
	vel, err := Get[velocity](w, e)
	if err != nil || vel != (velocity{X: 3, Y: 4}) {
		t.Errorf("Get[velocity]() = %+v, %v", vel, err)
	}
}

func TestRemoveMovesEntityBackAndDropsValue(t *testing.T) {
	w := NewWorld(Config{})
	posID, _ := RegisterComponent[position](w)
	e := w.NewEntity()
	Set(w, e, position{X: 1, Y: 1})

	if err := w.Remove(e, posID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if w.Has(e, posID) {
		t.Fatal("Has() = true after Remove")
	}
}

func TestRemoveAbsentComponentErrors(t *testing.T) {
	w := NewWorld(Config{})
	posID, _ := RegisterComponent[position](w)
	e := w.NewEntity()

	err := w.Remove(e, posID)
	if _, ok := err.(ComponentAbsentError); !ok {
		t.Fatalf("Remove() error = %v (%T), want ComponentAbsentError", err, err)
	}
}

func TestAddAlreadyPresentComponentErrors(t *testing.T) {
	w := NewWorld(Config{})
	markID, _ := RegisterComponent[marker](w)
	e := w.NewEntity()
	w.Add(e, markID)

	err := w.Add(e, markID)
	if _, ok := err.(ComponentAlreadyPresentError); !ok {
		t.Fatalf("Add() error = %v (%T), want ComponentAlreadyPresentError", err, err)
	}
}

func TestDeleteEntityOnNeverIssuedIdErrorsNonExistent(t *testing.T) {
	w := NewWorld(Config{})
	neverIssued := Id(1 << 20)

	err := w.DeleteEntity(neverIssued)
	if _, ok := err.(EntityNonExistentError); !ok {
		t.Fatalf("DeleteEntity() error = %v (%T), want EntityNonExistentError", err, err)
	}
}

func TestDeleteEntityOnRecycledIdErrorsNotAlive(t *testing.T) {
	w := NewWorld(Config{})
	e := w.NewEntity()
	if err := w.DeleteEntity(e); err != nil {
		t.Fatalf("DeleteEntity() error = %v", err)
	}

	err := w.DeleteEntity(e)
	if _, ok := err.(EntityNotAliveError); !ok {
		t.Fatalf("DeleteEntity() error = %v (%T), want EntityNotAliveError", err, err)
	}
}

func TestDeleteEntityRecyclesIndexWithNewGeneration(t *testing.T) {
	w := NewWorld(Config{})
	e := w.NewEntity()
	if err := w.DeleteEntity(e); err != nil {
		t.Fatalf("DeleteEntity() error = %v", err)
	}
	if w.IsAlive(e) {
		t.Fatal("deleted entity still alive")
	}

	next := w.NewEntity()
	if Index(next) != Index(e) {
		t.Fatalf("recycled entity index = %v, want %v", Index(next), Index(e))
	}
	if Generation(next) == Generation(e) {
		t.Fatal("recycled entity carries the stale generation")
	}
}

func TestDeleteEntitySwapRemovePatchesSurvivor(t *testing.T) {
	w := NewWorld(Config{})
	RegisterComponent[position](w)
	a := w.NewEntity()
	b := w.NewEntity()
	Set(w, a, position{X: 1, Y: 1})
	Set(w, b, position{X: 2, Y: 2})

	if err := w.DeleteEntity(a); err != nil {
		t.Fatalf("DeleteEntity() error = %v", err)
	}

	got, err := Get[position](w, b)
	if err != nil {
		t.Fatalf("Get(b) error = %v after deleting a", err)
	}
	if got != (position{X: 2, Y: 2}) {
		t.Errorf("Get(b) = %+v after swap-remove, want {2 2}", got)
	}
}

func TestTagComponentCarriesNoStorage(t *testing.T) {
	w := NewWorld(Config{})
	markID, err := RegisterComponent[marker](w)
	if err != nil {
		t.Fatalf("RegisterComponent() error = %v", err)
	}
	if !w.registry.TypeInfoFor(markID).IsZST() {
		t.Fatal("marker's TypeInfo is not ZST")
	}
	e := w.NewEntity()
	if err := w.Add(e, markID); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !w.Has(e, markID) {
		t.Fatal("Has() = false for a tag component")
	}
}

func TestPairRoundTripsThroughAddPair(t *testing.T) {
	w := NewWorld(Config{})
	parent := w.NewEntity()
	child := w.NewEntity()

	if err := w.AddPair(child, ChildOf, parent); err != nil {
		t.Fatalf("AddPair() error = %v", err)
	}
	if !w.HasPair(child, ChildOf, parent) {
		t.Fatal("HasPair() = false after AddPair")
	}
}

func TestLockDefersStructuralMutationUntilUnlock(t *testing.T) {
	w := NewWorld(Config{})
	markID, _ := RegisterComponent[marker](w)
	e := w.NewEntity()

	bit := w.NextLockBit()
	w.Lock(bit)
	if err := w.Add(e, markID); err != nil {
		t.Fatalf("Add() while locked returned an error instead of queueing: %v", err)
	}
	if w.Has(e, markID) {
		t.Fatal("Add() applied immediately while the world was locked")
	}

	w.Unlock(bit)
	if !w.Has(e, markID) {
		t.Fatal("queued Add() was not applied after Unlock")
	}
}

func TestSparseComponentDoesNotAffectSignature(t *testing.T) {
	w := NewWorld(Config{})
	RegisterComponent[position](w)
	sparseID, err := RegisterSparseComponent[velocity](w)
	if err != nil {
		t.Fatalf("RegisterSparseComponent() error = %v", err)
	}
	e := w.NewEntity()
	if err := Set(w, e, position{X: 1, Y: 1}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	loc, _ := w.entities.GetLocation(e)
	tblBefore, _ := w.tables.Get(loc.Table)

	if err := Set(w, e, velocity{X: 2, Y: 2}); err != nil {
		t.Fatalf("Set(sparse) error = %v", err)
	}

	locAfter, _ := w.entities.GetLocation(e)
	if locAfter.Table != loc.Table {
		t.Error("adding a sparse component moved the entity to a new table")
	}
	if tblBefore.Length() != 1 {
		t.Errorf("table length changed unexpectedly: %v", tblBefore.Length())
	}
	if !w.Has(e, sparseID) {
		t.Fatal("Has() = false for sparse component after Add")
	}
}
