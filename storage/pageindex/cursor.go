package pageindex

import "github.com/latchdb/tablekernel/storage"

// sliceCursor walks a pre-materialized slice of rows. Used by the
// in-memory index variants, whose Find already holds everything needed
// in memory.
type sliceCursor struct {
	rows []*storage.Row
	pos  int
}

func newSliceCursor(rows []*storage.Row) *sliceCursor {
	return &sliceCursor{rows: rows, pos: -1}
}

func (c *sliceCursor) Next() bool {
	c.pos++
	return c.pos < len(c.rows)
}

func (c *sliceCursor) Row() *storage.Row {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil
	}
	return c.rows[c.pos]
}

func (c *sliceCursor) Close() error { return nil }
