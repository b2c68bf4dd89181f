package silo

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// QueryNode is anything that can be asked whether a table matches it.
type QueryNode interface {
	Evaluate(tbl *Table) bool
}

// Query is a composable filter expression built from component ids
// (mirroring the teacher's Query interface, but over silo.Id instead of
// a Component value, since components here are identified by id rather
// than by the Go struct literal itself).
type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

// QueryOperation enumerates the logical combinators a composite node
// applies to its ids and children.
type QueryOperation int

const (
	OpAnd QueryOperation = iota
	OpOr
	OpNot
)

// compositeNode and leafNode both resolve ids to mask.Mask bits through
// bitIndexFor, captured from the World's registry at NewQuery time — a
// table's own Mask() was built from that same registry, so the two
// bitsets are directly comparable.
type compositeNode struct {
	op          QueryOperation
	ids         []Id
	children    []QueryNode
	bitIndexFor func(Id) (uint32, bool)
}

type leafNode struct {
	ids         []Id
	bitIndexFor func(Id) (uint32, bool)
}

type query struct {
	root        QueryNode
	bitIndexFor func(Id) (uint32, bool)
}

// NewQuery creates an empty, composable query bound to w's registry.
func NewQuery(w *World) Query {
	return &query{bitIndexFor: w.registry.BitIndexFor}
}

func maskOf(ids []Id, bitIndexFor func(Id) (uint32, bool)) mask.Mask {
	var m mask.Mask
	for _, id := range ids {
		if bit, ok := bitIndexFor(id); ok {
			m.Mark(bit)
		}
	}
	return m
}

func (n *compositeNode) Evaluate(tbl *Table) bool {
	nodeMask := maskOf(n.ids, n.bitIndexFor)
	archMask := tbl.Mask()

	switch n.op {
	case OpAnd:
		if len(n.ids) > 0 && !archMask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(tbl) {
				return false
			}
		}
		return true
	case OpOr:
		if len(n.ids) > 0 && archMask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(tbl) {
				return true
			}
		}
		return false
	case OpNot:
		if len(n.ids) > 0 && !archMask.ContainsNone(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if child.Evaluate(tbl) {
				return false
			}
		}
		return true
	}
	return false
}

func (n *leafNode) Evaluate(tbl *Table) bool {
	nodeMask := maskOf(n.ids, n.bitIndexFor)
	return tbl.Mask().ContainsAll(nodeMask)
}

func (q *query) And(items ...interface{}) QueryNode {
	ids, children := processItems(items...)
	node := &compositeNode{op: OpAnd, ids: ids, children: children, bitIndexFor: q.bitIndexFor}
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) Or(items ...interface{}) QueryNode {
	ids, children := processItems(items...)
	node := &compositeNode{op: OpOr, ids: ids, children: children, bitIndexFor: q.bitIndexFor}
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) Not(items ...interface{}) QueryNode {
	ids, children := processItems(items...)
	node := &compositeNode{op: OpNot, ids: ids, children: children, bitIndexFor: q.bitIndexFor}
	if q.root == nil {
		q.root = node
	}
	return node
}

func (q *query) Evaluate(tbl *Table) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(tbl)
}

func processItems(items ...interface{}) ([]Id, []QueryNode) {
	var ids []Id
	var children []QueryNode
	for _, item := range items {
		switch v := item.(type) {
		case Id:
			ids = append(ids, v)
		case []Id:
			ids = append(ids, v...)
		case QueryNode:
			children = append(children, v)
		default:
			panic(bark.AddTrace(fmt.Errorf("silo: invalid query item type %T, want Id, []Id, or QueryNode", item)))
		}
	}
	return ids, children
}
