package silo

import "unsafe"

// Cursor iterates the entities of every table a Query matches, holding
// a World lock bit for its whole lifetime so a hook firing mid-iteration
// queues its structural change instead of invalidating the table list
// the cursor is walking (spec.md §5).
type Cursor struct {
	world   *World
	query   QueryNode
	lockBit uint32

	matched     []*Table
	tableIndex  int
	entityIndex int

	initialized bool
}

// NewCursor creates a cursor over every table matching query.
func NewCursor(w *World, query QueryNode) *Cursor {
	return &Cursor{world: w, query: query}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.lockBit = c.world.NextLockBit()
	c.world.Lock(c.lockBit)
	for _, tbl := range c.world.tables.All() {
		if c.query.Evaluate(tbl) {
			c.matched = append(c.matched, tbl)
		}
	}
	c.entityIndex = -1
	c.initialized = true
}

// Next advances the cursor to the next matching entity, returning false
// once every matched table has been exhausted (and releasing the lock
// bit it was holding).
func (c *Cursor) Next() bool {
	c.initialize()
	for c.tableIndex < len(c.matched) {
		tbl := c.matched[c.tableIndex]
		c.entityIndex++
		if c.entityIndex < tbl.Length() {
			return true
		}
		c.tableIndex++
		c.entityIndex = -1
	}
	c.Reset()
	return false
}

// Reset clears the cursor's iteration state and releases its lock bit,
// so a caller that breaks out of iteration early still unblocks queued
// structural operations.
func (c *Cursor) Reset() {
	if c.initialized {
		c.world.Unlock(c.lockBit)
	}
	c.tableIndex = 0
	c.entityIndex = -1
	c.matched = nil
	c.initialized = false
}

// CurrentEntity returns the entity at the cursor's current position.
func (c *Cursor) CurrentEntity() Id {
	tbl := c.matched[c.tableIndex]
	return tbl.EntityAt(c.entityIndex)
}

// CurrentTable returns the table the cursor is currently positioned in.
func (c *Cursor) CurrentTable() *Table { return c.matched[c.tableIndex] }

// CurrentRow returns the row within CurrentTable the cursor is
// currently positioned at.
func (c *Cursor) CurrentRow() int { return c.entityIndex }

// TotalMatched returns the total entity count across every matched
// table, without disturbing an in-progress iteration.
func (c *Cursor) TotalMatched() int {
	c.initialize()
	total := 0
	for _, tbl := range c.matched {
		total += tbl.Length()
	}
	return total
}

// Column resolves a typed component pointer at the cursor's current
// position — the generic equivalent of Table.ColumnPtr, letting query
// consumers avoid repeating the unsafe-pointer cast at every call site.
func Column[T any](c *Cursor, id Id) (*T, error) {
	ptr, err := c.CurrentTable().ColumnPtr(c.CurrentRow(), id)
	if err != nil {
		return nil, err
	}
	return (*T)(ptr), nil
}

// ParamItem describes one parameter a query iterator resolves per row:
// which component id, whether its absence is tolerated (Optional), and
// whether the caller intends to write through it (Mut) — the query
// layer's declarative counterpart to calling Column by hand.
type ParamItem struct {
	ID       Id
	Optional bool
	Mut      bool
}

// Resolve looks up p's component at the cursor's current position,
// returning ok=false (rather than an error) when p.Optional and the
// component is simply absent from this row's table.
func (p ParamItem) Resolve(c *Cursor) (unsafe.Pointer, bool, error) {
	var ptr unsafe.Pointer
	var err error
	if p.Mut {
		ptr, err = c.CurrentTable().ColumnPtrMut(c.CurrentRow(), p.ID)
	} else {
		ptr, err = c.CurrentTable().ColumnPtr(c.CurrentRow(), p.ID)
	}
	if err != nil {
		if p.Optional {
			return nil, false, nil
		}
		return nil, false, err
	}
	return ptr, true, nil
}
