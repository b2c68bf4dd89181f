package silo

import "testing"

func buildEmptyTable(ti *TableIndex, sig Signature) TableHandle {
	return ti.InsertWithSignature(sig, func(h TableHandle) *Table {
		return newTable(h, sig, nil, func(Id) *TypeInfo { return nil }, func(Id) (uint32, bool) { return 0, false }, nil)
	})
}

func TestTableIndexReservesSlotZero(t *testing.T) {
	ti := NewTableIndex()
	h := buildEmptyTable(ti, NewSignature())
	if h == (TableHandle{}) {
		t.Fatal("first real table was handed the zero-value TableHandle{} sentinel")
	}
}

func TestGetTwoMutReturnsDisjointTables(t *testing.T) {
	ti := NewTableIndex()
	a := buildEmptyTable(ti, NewSignature(Id(1)))
	b := buildEmptyTable(ti, NewSignature(Id(2)))

	ta, tb := ti.GetTwoMut(a, b)
	if ta.Handle() != a || tb.Handle() != b {
		t.Fatalf("GetTwoMut(%v, %v) = (%v, %v)", a, b, ta.Handle(), tb.Handle())
	}
}

func TestGetTwoMutPanicsOnOverlappingHandles(t *testing.T) {
	ti := NewTableIndex()
	a := buildEmptyTable(ti, NewSignature(Id(1)))

	defer func() {
		if recover() == nil {
			t.Fatal("GetTwoMut did not panic on overlapping handles")
		}
	}()
	ti.GetTwoMut(a, a)
}

func TestTableIndexRemoveInvalidatesHandle(t *testing.T) {
	ti := NewTableIndex()
	h := buildEmptyTable(ti, NewSignature(Id(1)))

	if _, ok := ti.Remove(h); !ok {
		t.Fatal("Remove() = false for a live handle")
	}
	if _, ok := ti.Get(h); ok {
		t.Fatal("Get() succeeded on a handle removed earlier")
	}
}
