package silo

import (
	"fmt"
	"reflect"
)

// LockedWorldError mirrors the teacher's LockedStorageError for the
// command-buffer concurrency model of spec.md §5. No World operation
// returns it: structural operations issued while the world is locked
// (World.Lock) are queued and return nil.
type LockedWorldError struct{}

func (e LockedWorldError) Error() string {
	return "silo: world is currently locked, operation was queued"
}

// EntityNotAliveError is returned whenever an operation is given an id
// whose index was issued but has since been recycled (EntityIndex's
// LocationError.NotAlive). See EntityNonExistentError for an id whose
// index was never issued at all.
type EntityNotAliveError struct{ Entity Id }

func (e EntityNotAliveError) Error() string {
	return fmt.Sprintf("silo: entity %v is not alive", e.Entity)
}

// EntityNonExistentError is returned whenever an operation is given an
// id whose index was never issued by the entity index (EntityIndex's
// LocationError.NonExistent) — distinct from EntityNotAliveError, which
// means the index was issued and has since been recycled.
type EntityNonExistentError struct{ Entity Id }

func (e EntityNonExistentError) Error() string {
	return fmt.Sprintf("silo: entity %v does not exist", e.Entity)
}

// ComponentNotRegisteredError is returned by World.Get when comp has no
// record in the World's registry. Add and Remove accept such ids as
// plain tags instead.
type ComponentNotRegisteredError struct{ Comp Id }

func (e ComponentNotRegisteredError) Error() string {
	return fmt.Sprintf("silo: component %v is not registered", e.Comp)
}

// ComponentAlreadyPresentError is returned by Add when the entity
// already carries the component.
type ComponentAlreadyPresentError struct {
	Entity Id
	Comp   Id
}

func (e ComponentAlreadyPresentError) Error() string {
	return fmt.Sprintf("silo: entity %v already has component %v", e.Entity, e.Comp)
}

// ComponentAbsentError is returned by Remove and Get when the entity
// does not carry the component.
type ComponentAbsentError struct {
	Entity Id
	Comp   Id
}

func (e ComponentAbsentError) Error() string {
	return fmt.Sprintf("silo: entity %v has no component %v", e.Entity, e.Comp)
}

// UnregisteredTypeError is returned by the generic Get/GetMut/Set
// helpers when the Go type T was never passed to RegisterComponent (or
// RegisterSparseComponent) on this world; the generic Has reports false
// in that case instead.
type UnregisteredTypeError struct{ Type reflect.Type }

func (e UnregisteredTypeError) Error() string {
	return fmt.Sprintf("silo: type %s was never registered on this world", e.Type)
}

// UseSetForDataError is returned by Add when comp carries non-ZST
// TypeInfo — Add only ever default-initializes a cell, callers that
// want to supply a value must call Set instead (original_source/
// world.rs's add(): "can't use add for non-ZST, use set instead").
type UseSetForDataError struct{ Comp Id }

func (e UseSetForDataError) Error() string {
	return fmt.Sprintf("silo: component %v carries data, use Set instead of Add", e.Comp)
}

// UseAddForTagError is returned by Set when T is a zero-sized (tag)
// type with no data to write, and callers should call Add instead
// (original_source/world.rs's set(): "can't use set for tag, did you
// want to add?").
type UseAddForTagError struct{ Comp Id }

func (e UseAddForTagError) Error() string {
	return fmt.Sprintf("silo: component %v is a tag, use Add instead of Set", e.Comp)
}

// InvalidRelationError describes a relation or target id that cannot
// legally form a relationship (e.g. NullID). Pair and AddPair do not
// validate their arguments and never return it.
type InvalidRelationError struct {
	Relation Id
	Target   Id
	Reason   string
}

func (e InvalidRelationError) Error() string {
	return fmt.Sprintf("silo: invalid relation pair (%v, %v): %s", e.Relation, e.Target, e.Reason)
}
