package silo

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Hooks are user-supplied callbacks the engine runs at lifecycle events.
// Every hook receives raw unsafe.Pointer access to the component value;
// OnSet and OnRemove also receive the world and the entity id.
type Hooks struct {
	// Default initializes a freshly-appended column cell when no writer
	// is supplied by the caller.
	Default func(ptr unsafe.Pointer)
	// Clone duplicates src into dst. No operation in this package calls it.
	Clone func(dst, src unsafe.Pointer)
	// OnSet runs after a value is written via World.Set.
	OnSet func(w *World, e Id, ptr unsafe.Pointer)
	// OnRemove runs before a value's storage is reclaimed: a structural
	// remove or a swap-remove during entity destruction. An overwrite by
	// Set runs Drop, not OnRemove.
	OnRemove func(w *World, e Id, ptr unsafe.Pointer)
	// Drop releases resources a value holds before its storage is
	// reused. Left nil for trivially-destructible types (the common
	// case in Go, where the GC reclaims memory on its own).
	Drop func(ptr unsafe.Pointer)
}

func (h Hooks) isEmpty() bool {
	return h.Default == nil && h.Clone == nil && h.OnSet == nil && h.OnRemove == nil && h.Drop == nil
}

// TypeInfo describes the Go type backing a data component: its layout
// and its hook set. Hooks are rejected for zero-sized types, since a
// ZST has no storage for a hook to act on.
type TypeInfo struct {
	Type  reflect.Type
	Size  uintptr
	Align uintptr
	Hooks Hooks
}

// newTypeInfo builds a TypeInfo for T. A zero-sized T (an empty struct,
// used as a tag) gets Size 0 and must not carry hooks.
func newTypeInfo[T any]() *TypeInfo {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		// T is an interface type, whose nil zero value has no dynamic
		// type; use the interface type itself. Its Size is the interface
		// header's, so it is not a tag. Components should always be
		// concrete structs.
		t = reflect.TypeOf((*T)(nil)).Elem()
	}
	return &TypeInfo{
		Type:  t,
		Size:  unsafe.Sizeof(zero),
		Align: uintptr(t.Align()),
	}
}

// WithHooks attaches hooks to a TypeInfo, rejecting any hook set on a
// zero-sized type (spec.md §4.9: "ZST types must not register a value
// hook; the builder rejects ZST in all hook constructors").
func (info *TypeInfo) WithHooks(h Hooks) (*TypeInfo, error) {
	if info.Size == 0 && !h.isEmpty() {
		return nil, fmt.Errorf("silo: cannot register hooks on zero-sized type %s", info.Type)
	}
	cp := *info
	cp.Hooks = h
	return &cp, nil
}

// IsZST reports whether this type carries no data (a tag's natural type).
func (info *TypeInfo) IsZST() bool { return info.Size == 0 }

// valueAt reinterprets ptr as *T for hook invocation convenience.
func valueAt[T any](ptr unsafe.Pointer) *T {
	return (*T)(ptr)
}
