package storage

// delegateIndex projects a single column from the scan index when that
// column is the effective primary key: it has no independent storage and
// forwards every lookup to the owning table's scan index, keyed directly
// on the column value. Row-count reconciliation is waived for delegates.
type delegateIndex struct {
	name   string
	table  *Table
	column int
}

func newDelegateIndex(name string, table *Table, column int) *delegateIndex {
	return &delegateIndex{name: name, table: table, column: column}
}

func (d *delegateIndex) Name() string { return d.name }

// Add is a no-op: the row is already present in the scan index under the
// same key this delegate would have assigned.
func (d *delegateIndex) Add(session *Session, row *Row) error { return nil }

// Remove is a no-op for the same reason.
func (d *delegateIndex) Remove(session *Session, row *Row) error { return nil }

func (d *delegateIndex) Find(session *Session, low, high interface{}) (Cursor, error) {
	return d.table.scanIndex().Find(session, low, high)
}

func (d *delegateIndex) GetRow(session *Session, key int64) (*Row, error) {
	return d.table.scanIndex().GetRow(session, key)
}

func (d *delegateIndex) GetRowCount(session *Session) (int64, error) {
	return d.table.scanIndex().GetRowCount(session)
}

func (d *delegateIndex) Truncate(session *Session) error { return nil }

func (d *delegateIndex) NeedRebuild() bool { return false }
func (d *delegateIndex) IsUnique() bool    { return true }
func (d *delegateIndex) IsHash() bool      { return false }
func (d *delegateIndex) IsSpatial() bool   { return false }
func (d *delegateIndex) IsPersistent() bool { return true }

// isDelegateIndex marks this type for Table's row-count invariant check,
// which must be skipped for delegates.
func (d *delegateIndex) isDelegateIndex() bool { return true }
