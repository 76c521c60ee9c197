package pageindex

import (
	"sort"
	"sync"

	"github.com/latchdb/tablekernel/storage"
)

// TreeIndexMemory is the in-memory ordered secondary index variant:
// supports composite-column keys, ordered via the shared Comparator
// rather than a raw byte comparison.
type TreeIndexMemory struct {
	name    string
	columns []int
	cmp     *storage.Comparator
	lookup  storage.RowLookup

	mu      sync.RWMutex
	entries []treeEntry // kept sorted by values
}

type treeEntry struct {
	values []interface{}
	rowKey int64
}

// NewTreeIndexMemory creates an empty in-memory ordered index over columns.
func NewTreeIndexMemory(name string, columns []int, cmp *storage.Comparator, lookup storage.RowLookup) *TreeIndexMemory {
	return &TreeIndexMemory{
		name:    name,
		columns: columns,
		cmp:     cmp,
		lookup:  lookup,
	}
}

func (t *TreeIndexMemory) Name() string { return t.name }

func (t *TreeIndexMemory) extractKey(row *storage.Row) ([]interface{}, error) {
	values := make([]interface{}, len(t.columns))
	for i, col := range t.columns {
		v, err := row.Column(col)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (t *TreeIndexMemory) find(values []interface{}, rowKey int64) int {
	return sort.Search(len(t.entries), func(i int) bool {
		c := t.cmp.CompareKeys(t.entries[i].values, values)
		if c != 0 {
			return c >= 0
		}
		return t.entries[i].rowKey >= rowKey
	})
}

func (t *TreeIndexMemory) Add(session *storage.Session, row *storage.Row) error {
	values, err := t.extractKey(row)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.find(values, row.Key)
	t.entries = append(t.entries, treeEntry{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = treeEntry{values: values, rowKey: row.Key}
	return nil
}

func (t *TreeIndexMemory) Remove(session *storage.Session, row *storage.Row) error {
	values, err := t.extractKey(row)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.find(values, row.Key)
	if i < len(t.entries) && t.entries[i].rowKey == row.Key {
		t.entries = append(t.entries[:i], t.entries[i+1:]...)
	}
	return nil
}

// Find returns the rows whose key lies in [low, high]. Bounds are composite
// keys ([]interface{}); a bound of any other type, like nil, leaves that
// side unbounded.
func (t *TreeIndexMemory) Find(session *storage.Session, low, high interface{}) (storage.Cursor, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lowValues, hasLow := low.([]interface{})
	highValues, hasHigh := high.([]interface{})

	rows := make([]*storage.Row, 0, len(t.entries))
	for _, e := range t.entries {
		if hasLow && t.cmp.CompareKeys(e.values, lowValues) < 0 {
			continue
		}
		if hasHigh && t.cmp.CompareKeys(e.values, highValues) > 0 {
			continue
		}
		row, err := t.lookup(session, e.rowKey)
		if err != nil {
			return nil, err
		}
		if row != nil {
			rows = append(rows, row)
		}
	}
	return newSliceCursor(rows), nil
}

func (t *TreeIndexMemory) GetRow(session *storage.Session, key int64) (*storage.Row, error) {
	return t.lookup(session, key)
}

func (t *TreeIndexMemory) GetRowCount(session *storage.Session) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int64(len(t.entries)), nil
}

func (t *TreeIndexMemory) Truncate(session *storage.Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
	return nil
}

func (t *TreeIndexMemory) NeedRebuild() bool  { return true }
func (t *TreeIndexMemory) IsUnique() bool     { return false }
func (t *TreeIndexMemory) IsHash() bool       { return false }
func (t *TreeIndexMemory) IsSpatial() bool    { return false }
func (t *TreeIndexMemory) IsPersistent() bool { return false }
