package pageindex

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/latchdb/tablekernel/storage"
)

// BTreeIndexBadger is the persistent secondary index variant: stores
// composite-column-encoded keys mapping to scan-index row keys, resolving
// full rows through the injected RowLookup rather than duplicating row
// storage. Keys are pipe-joined column values under an
// idx:{table}:{index}: prefix, with the row key appended so duplicate
// values across rows remain distinct entries. Entries are ordered by the
// bytes of that key; cmp is stored but not used for ordering.
type BTreeIndexBadger struct {
	name    string
	db      *badger.DB
	prefix  []byte
	columns []int
	cmp     *storage.Comparator
	lookup  storage.RowLookup
	unique  bool
}

// NewBTreeIndexBadger opens the persistent secondary index named name over
// columns, backed by db.
func NewBTreeIndexBadger(db *badger.DB, tableName, name string, columns []int, cmp *storage.Comparator, lookup storage.RowLookup, unique bool) *BTreeIndexBadger {
	return &BTreeIndexBadger{
		name:    name,
		db:      db,
		prefix:  []byte(fmt.Sprintf("idx:%s:%s:", tableName, name)),
		columns: columns,
		cmp:     cmp,
		lookup:  lookup,
		unique:  unique,
	}
}

func (b *BTreeIndexBadger) Name() string { return b.name }

func (b *BTreeIndexBadger) valueKey(row *storage.Row) ([]byte, error) {
	parts := make([]string, len(b.columns))
	for i, col := range b.columns {
		v, err := row.Column(col)
		if err != nil {
			return nil, err
		}
		parts[i] = fmt.Sprintf("%v", v)
	}
	return append([]byte{}, append(b.prefix, []byte(strings.Join(parts, "|")+":")...)...), nil
}

func (b *BTreeIndexBadger) entryKey(row *storage.Row) ([]byte, error) {
	vk, err := b.valueKey(row)
	if err != nil {
		return nil, err
	}
	return append(vk, encodeKey(row.Key)...), nil
}

func (b *BTreeIndexBadger) Add(session *storage.Session, row *storage.Row) error {
	key, err := b.entryKey(row)
	if err != nil {
		return fmt.Errorf("index %s: %w", b.name, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if b.unique {
			vk, err := b.valueKey(row)
			if err != nil {
				return err
			}
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek(vk); it.ValidForPrefix(vk); it.Next() {
				if string(it.Item().Key()) != string(key) {
					return &storage.ErrUniqueViolation{IndexName: b.name, Value: fmt.Sprintf("%v", row.Values)}
				}
			}
		}
		return txn.Set(key, encodeKey(row.Key))
	})
}

func (b *BTreeIndexBadger) Remove(session *storage.Session, row *storage.Row) error {
	key, err := b.entryKey(row)
	if err != nil {
		return fmt.Errorf("index %s: %w", b.name, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Find streams matching row keys off the badger iterator and resolves each
// through lookup, honoring low/high as value-prefix bounds rather than
// numeric key bounds (a secondary index orders by column value, not by row
// key).
func (b *BTreeIndexBadger) Find(session *storage.Session, low, high interface{}) (storage.Cursor, error) {
	txn := b.db.NewTransaction(false)
	it := txn.NewIterator(badger.DefaultIteratorOptions)

	seek := b.prefix
	if low != nil {
		seek = append(append([]byte{}, b.prefix...), []byte(fmt.Sprintf("%v", low))...)
	}
	it.Seek(seek)

	var highBytes []byte
	if high != nil {
		highBytes = append(append([]byte{}, b.prefix...), []byte(fmt.Sprintf("%v", high)+"\xff")...)
	}

	return &badgerIndexCursor{
		it:      it,
		txn:     txn,
		prefix:  b.prefix,
		high:    highBytes,
		session: session,
		lookup:  b.lookup,
	}, nil
}

func (b *BTreeIndexBadger) GetRow(session *storage.Session, key int64) (*storage.Row, error) {
	return b.lookup(session, key)
}

func (b *BTreeIndexBadger) GetRowCount(session *storage.Session) (int64, error) {
	var count int64
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(b.prefix); it.ValidForPrefix(b.prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (b *BTreeIndexBadger) Truncate(session *storage.Session) error {
	return b.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		var keys [][]byte
		for it.Seek(b.prefix); it.ValidForPrefix(b.prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BTreeIndexBadger) NeedRebuild() bool  { return true }
func (b *BTreeIndexBadger) IsUnique() bool     { return b.unique }
func (b *BTreeIndexBadger) IsHash() bool       { return false }
func (b *BTreeIndexBadger) IsSpatial() bool    { return false }
func (b *BTreeIndexBadger) IsPersistent() bool { return true }

type badgerIndexCursor struct {
	it      *badger.Iterator
	txn     *badger.Txn
	prefix  []byte
	high    []byte
	session *storage.Session
	lookup  storage.RowLookup
	row     *storage.Row
	started bool
}

func (c *badgerIndexCursor) Next() bool {
	if !c.started {
		c.started = true
	} else {
		c.it.Next()
	}
	for c.it.ValidForPrefix(c.prefix) {
		item := c.it.Item()
		if c.high != nil && string(item.Key()) > string(c.high) {
			return false
		}
		var rowKey int64
		err := item.Value(func(val []byte) error {
			rowKey = decodeKey(val)
			return nil
		})
		if err != nil {
			c.it.Next()
			continue
		}
		row, err := c.lookup(c.session, rowKey)
		if err != nil || row == nil {
			c.it.Next()
			continue
		}
		c.row = row
		return true
	}
	return false
}

func (c *badgerIndexCursor) Row() *storage.Row { return c.row }

func (c *badgerIndexCursor) Close() error {
	c.it.Close()
	c.txn.Discard()
	return nil
}
