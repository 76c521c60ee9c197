package storage

// Row is an ordered tuple of column values plus the 64-bit key the scan
// index assigned it. A Row is immutable once added to a table: mutation is
// modeled as removeRow followed by addRow with a fresh Row.
type Row struct {
	Key     int64
	Values  []interface{}
	Memory  int64
	removed bool
}

// NewRow builds a row with an estimated in-memory footprint derived from
// its values.
func NewRow(key int64, values []interface{}) *Row {
	return &Row{
		Key:    key,
		Values: values,
		Memory: estimateMemory(values),
	}
}

// RemovedRow builds a tombstone: a row carrying only its key, used to mark
// a key's slot released without retaining its former contents.
func RemovedRow(key int64) *Row {
	return &Row{Key: key, removed: true, Memory: 8}
}

// IsRemoved reports whether this row is a tombstone sentinel.
func (r *Row) IsRemoved() bool {
	return r.removed
}

// Column returns the value at position i, failing for a removed row.
func (r *Row) Column(i int) (interface{}, error) {
	if r.removed {
		return nil, &ErrRemovedRow{Key: r.Key}
	}
	if i < 0 || i >= len(r.Values) {
		return nil, &ErrUnsupported{Op: "Row.Column", Reason: "column index out of range"}
	}
	return r.Values[i], nil
}

// Columns returns the full value slice, failing for a removed row.
func (r *Row) Columns() ([]interface{}, error) {
	if r.removed {
		return nil, &ErrRemovedRow{Key: r.Key}
	}
	return r.Values, nil
}

// estimateMemory gives a rough per-row byte estimate: a fixed per-column
// overhead plus the length of any string values; not an exact accounting.
// Rebuild batches are capped by row count (maxMemoryRows), not by this
// estimate.
func estimateMemory(values []interface{}) int64 {
	const perColumnOverhead = 16
	total := int64(8) // key
	for _, v := range values {
		total += perColumnOverhead
		if s, ok := v.(string); ok {
			total += int64(len(s))
		}
	}
	return total
}
