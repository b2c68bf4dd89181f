package silo

// ArchetypeDiff describes the structural delta between a table and one
// of its add/remove neighbors in the archetype graph: which ids appear
// only on one side, plus the flag bits that change (spec.md §4.6,
// invariant 7). traverseAdd/traverseRemove store a diff on every edge
// they create; trivial edges are not special-cased and also carry one.
type ArchetypeDiff struct {
	Added    []Id
	Removed  []Id
	OldFlags ArchetypeFlags
	NewFlags ArchetypeFlags
}

// IsTrivial reports whether this diff carries no observable change.
func (d ArchetypeDiff) IsTrivial() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && d.OldFlags == d.NewFlags
}

// edge is one outgoing link of the archetype graph: the neighbor table
// reached by adding/removing a single id, plus the diff produced by
// that single-id step.
type edge struct {
	to   TableHandle
	diff *ArchetypeDiff
}

// graphNode holds one table's outgoing edges. Edges are added lazily,
// the first time a given single-id add/remove is actually taken, so an
// archetype that is never extended in some direction never pays for an
// edge map entry (spec.md §4.6: "populated lazily").
type graphNode struct {
	add    map[Id]edge
	remove map[Id]edge
}

func newGraphNode() graphNode {
	return graphNode{add: make(map[Id]edge), remove: make(map[Id]edge)}
}

// computeDiff walks from's and to's sorted signatures with two pointers
// to find the ids present in exactly one side, the same sorted-merge
// the reference xecs prototype left unfinished (its graph.rs leaves
// this walk as a stub); spec.md invariant 7 fully specifies it: both
// signatures are already sorted and deduplicated, so a single
// linear merge produces both Added and Removed in one pass.
func computeDiff(from, to Signature) ArchetypeDiff {
	a, b := from.Ids(), to.Ids()
	var diff ArchetypeDiff
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case a[i] < b[j]:
			diff.Removed = append(diff.Removed, a[i])
			i++
		default:
			diff.Added = append(diff.Added, b[j])
			j++
		}
	}
	diff.Removed = append(diff.Removed, a[i:]...)
	diff.Added = append(diff.Added, b[j:]...)
	return diff
}

// deriveArchetypeFlags recomputes a table's ArchetypeFlags from its
// signature and, where typeInfoFor is non-nil, its columns' hooks:
// Disabled if it carries DisabledTag, Prefab if it carries PrefabTag,
// HasModule if it carries ModuleTag, and NotQueryable if it carries
// NotQueryableTag itself (relation pairs do not contribute NotQueryable;
// this only reflects ids the signature carries directly). Any id flagged AutoOverrideFlag contributes
// HasOverrides, mirroring original_source/graph.rs's AUTO_OVERRIDE ->
// HAS_OVERRIDES mapping. Per-column capability bits (HasCtors/HasDtors/
// HasOnAdd/HasOnRemove/HasOnSet) are set when any data id in the
// signature carries the corresponding hook.
func deriveArchetypeFlags(sig Signature, typeInfoFor func(Id) *TypeInfo) ArchetypeFlags {
	var flags ArchetypeFlags
	for _, id := range sig.Ids() {
		switch {
		case id == DisabledTag:
			flags.Insert(IsDisabled)
		case id == PrefabTag:
			flags.Insert(IsPrefab)
		case id == ModuleTag:
			flags.Insert(HasModule)
		case id == NotQueryableTag:
			flags.Insert(NotQueryable)
		case IsPair(id):
			flags.Insert(HasPairs)
			if First(id) == IsA {
				flags.Insert(HasIsA)
			}
			if First(id) == ChildOf {
				flags.Insert(HasChildOf)
			}
			if HasIdFlag(id, ToggleFlag) {
				flags.Insert(HasToggle)
			}
		case HasIdFlag(id, ToggleFlag):
			flags.Insert(HasToggle)
		}
		if HasIdFlag(id, AutoOverrideFlag) {
			flags.Insert(HasOverrides)
		}

		if typeInfoFor == nil {
			continue
		}
		info := typeInfoFor(id)
		if info == nil {
			continue
		}
		if info.Hooks.Default != nil {
			flags.Insert(HasCtors)
			flags.Insert(HasOnAdd)
		}
		if info.Hooks.Drop != nil {
			flags.Insert(HasDtors)
		}
		if info.Hooks.OnRemove != nil {
			flags.Insert(HasOnRemove)
		}
		if info.Hooks.OnSet != nil {
			flags.Insert(HasOnSet)
		}
	}
	return flags
}

// traverseAdd returns the table reached from src by adding id, building
// it (and the edge to it) on first use. sigForAdd/buildFor let the
// graph stay storage-agnostic: graph.go only knows about ids and
// diffs, table construction is TableIndex's job.
func traverseAdd(ti *TableIndex, src *Table, id Id, sigForAdd func(Signature, Id) (Signature, bool), buildFor func(Signature) TableHandle) (TableHandle, *ArchetypeDiff, bool) {
	if e, ok := src.node.add[id]; ok {
		return e.to, e.diff, true
	}
	newSig, ok := sigForAdd(src.sig, id)
	if !ok {
		return TableHandle{}, nil, false
	}
	handle, ok := ti.HandleForSignature(newSig)
	if !ok {
		handle = buildFor(newSig)
	}
	dstTbl, _ := ti.Get(handle)
	d := computeDiff(src.sig, newSig)
	d.OldFlags = src.flags
	d.NewFlags = dstTbl.flags
	e := edge{to: handle, diff: &d}
	src.node.add[id] = e
	if back, ok := dstTbl.node.remove[id]; !ok || back.to != src.handle {
		rd := computeDiff(newSig, src.sig)
		rd.OldFlags = dstTbl.flags
		rd.NewFlags = src.flags
		dstTbl.node.remove[id] = edge{to: src.handle, diff: &rd}
	}
	return handle, e.diff, true
}

// traverseRemove is traverseAdd's mirror for the remove direction.
func traverseRemove(ti *TableIndex, src *Table, id Id, sigForRemove func(Signature, Id) (Signature, bool), buildFor func(Signature) TableHandle) (TableHandle, *ArchetypeDiff, bool) {
	if e, ok := src.node.remove[id]; ok {
		return e.to, e.diff, true
	}
	newSig, ok := sigForRemove(src.sig, id)
	if !ok {
		return TableHandle{}, nil, false
	}
	handle, ok := ti.HandleForSignature(newSig)
	if !ok {
		handle = buildFor(newSig)
	}
	dstTbl, _ := ti.Get(handle)
	d := computeDiff(src.sig, newSig)
	d.OldFlags = src.flags
	d.NewFlags = dstTbl.flags
	e := edge{to: handle, diff: &d}
	src.node.remove[id] = e
	if back, ok := dstTbl.node.add[id]; !ok || back.to != src.handle {
		rd := computeDiff(newSig, src.sig)
		rd.OldFlags = dstTbl.flags
		rd.NewFlags = src.flags
		dstTbl.node.add[id] = edge{to: src.handle, diff: &rd}
	}
	return handle, e.diff, true
}
