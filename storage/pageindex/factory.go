package pageindex

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/latchdb/tablekernel/storage"
)

// Factory is the concrete storage.IndexFactory implementation: badger-backed
// B-tree indexes when a badger handle is configured, in-memory hash and
// tree indexes otherwise. Each Table is constructed with its own Factory,
// bound to that table's name and the database's persistence mode.
type Factory struct {
	db        *badger.DB
	tableName string
}

// NewFactory builds a Factory for tableName. db may be nil, in which case
// every index variant (including the "persistent" B-tree request) falls
// back to its in-memory counterpart — used for session-temporary tables,
// which are never persisted regardless of the database's own mode.
func NewFactory(db *badger.DB, tableName string) *Factory {
	return &Factory{db: db, tableName: tableName}
}

func (f *Factory) NewBTree(name string, columns []int, cmp *storage.Comparator, lookup storage.RowLookup) storage.Index {
	if f.db == nil {
		return NewTreeIndexMemory(name, columns, cmp, lookup)
	}
	return NewBTreeIndexBadger(f.db, f.tableName, name, columns, cmp, lookup, false)
}

func (f *Factory) NewHash(name string, column int, unique bool, lookup storage.RowLookup) storage.Index {
	return NewHashIndexMemory(name, column, unique, lookup)
}

func (f *Factory) NewTree(name string, columns []int, cmp *storage.Comparator, lookup storage.RowLookup) storage.Index {
	return NewTreeIndexMemory(name, columns, cmp, lookup)
}

// NewScanIndex constructs the table's primary scan index: persistent
// (badger-backed) when a db handle is configured, in-memory otherwise.
func NewScanIndex(db *badger.DB, tableName string) (storage.Index, func() error, error) {
	if db == nil {
		idx := NewScanIndexMemory(tableName)
		return idx, func() error { return nil }, nil
	}
	idx, err := NewScanIndexBadger(db, tableName)
	if err != nil {
		return nil, nil, err
	}
	return idx, idx.Close, nil
}
