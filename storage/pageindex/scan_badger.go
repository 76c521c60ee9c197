package pageindex

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/latchdb/tablekernel/storage"
)

// ScanIndexBadger is the persistent scan-index variant: authoritative row
// storage backed by badger. Keys are assigned from a badger sequence
// rather than an in-memory counter, so key assignment survives a process
// restart.
type ScanIndexBadger struct {
	name   string
	db     *badger.DB
	prefix []byte
	seq    *badger.Sequence
}

// NewScanIndexBadger opens (or reuses) db for the scan index of tableName.
// The caller owns db's lifetime; Close releases only the key sequence.
func NewScanIndexBadger(db *badger.DB, tableName string) (*ScanIndexBadger, error) {
	seq, err := db.GetSequence([]byte("seq:"+tableName), 100)
	if err != nil {
		return nil, fmt.Errorf("scan index %s: open sequence: %w", tableName, err)
	}
	return &ScanIndexBadger{
		name:   tableName,
		db:     db,
		prefix: []byte("row:" + tableName + ":"),
		seq:    seq,
	}, nil
}

// Close releases the key sequence's reserved bandwidth back to badger.
func (s *ScanIndexBadger) Close() error {
	return s.seq.Release()
}

func (s *ScanIndexBadger) Name() string { return s.name }

func (s *ScanIndexBadger) rowKey(key int64) []byte {
	return append(append([]byte{}, s.prefix...), encodeKey(key)...)
}

func (s *ScanIndexBadger) Add(session *storage.Session, row *storage.Row) error {
	if row.Key == 0 {
		next, err := s.seq.Next()
		if err != nil {
			return fmt.Errorf("scan index %s: next key: %w", s.name, err)
		}
		row.Key = int64(next) + 1 // badger sequences start at 0; row keys start at 1
	}

	buf, err := rowToBytes(row)
	if err != nil {
		return fmt.Errorf("scan index %s: encode row %d: %w", s.name, row.Key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.rowKey(row.Key), buf)
	})
}

func (s *ScanIndexBadger) Remove(session *storage.Session, row *storage.Row) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.rowKey(row.Key))
	})
}

// Find opens a streaming cursor over [low, high], iterating badger's
// key-sorted storage directly rather than materializing the result set, so
// a memory-capped rebuild over a persistent scan index actually bounds
// memory use.
func (s *ScanIndexBadger) Find(session *storage.Session, low, high interface{}) (storage.Cursor, error) {
	txn := s.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	it := txn.NewIterator(opts)

	lowKey, hasLow := asKeyBound(low)
	highKey, hasHigh := asKeyBound(high)

	seek := s.prefix
	if hasLow {
		seek = s.rowKey(lowKey)
	}
	it.Seek(seek)

	return &badgerScanCursor{
		it:      it,
		txn:     txn,
		prefix:  s.prefix,
		hasHigh: hasHigh,
		highKey: highKey,
	}, nil
}

func (s *ScanIndexBadger) GetRow(session *storage.Session, key int64) (*storage.Row, error) {
	var row *storage.Row
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.rowKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			r, err := bytesToRow(key, val)
			if err != nil {
				return err
			}
			row = r
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("scan index %s: get row %d: %w", s.name, key, err)
	}
	return row, nil
}

func (s *ScanIndexBadger) GetRowCount(session *storage.Session) (int64, error) {
	var count int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan index %s: count: %w", s.name, err)
	}
	return count, nil
}

func (s *ScanIndexBadger) Truncate(session *storage.Session) error {
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		var keys [][]byte
		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
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

func (s *ScanIndexBadger) NeedRebuild() bool  { return false }
func (s *ScanIndexBadger) IsUnique() bool     { return true }
func (s *ScanIndexBadger) IsHash() bool       { return false }
func (s *ScanIndexBadger) IsSpatial() bool    { return false }
func (s *ScanIndexBadger) IsPersistent() bool { return true }

// badgerScanCursor streams rows directly off a badger iterator.
type badgerScanCursor struct {
	it      *badger.Iterator
	txn     *badger.Txn
	prefix  []byte
	hasHigh bool
	highKey int64
	row     *storage.Row
	started bool
}

func (c *badgerScanCursor) Next() bool {
	if !c.started {
		c.started = true
	} else {
		c.it.Next()
	}
	if !c.it.ValidForPrefix(c.prefix) {
		return false
	}
	item := c.it.Item()
	key := decodeKey(item.Key()[len(c.prefix):])
	if c.hasHigh && key > c.highKey {
		return false
	}
	var row *storage.Row
	err := item.Value(func(val []byte) error {
		r, err := bytesToRow(key, val)
		if err != nil {
			return err
		}
		row = r
		return nil
	})
	if err != nil {
		return false
	}
	c.row = row
	return true
}

func (c *badgerScanCursor) Row() *storage.Row { return c.row }

func (c *badgerScanCursor) Close() error {
	c.it.Close()
	c.txn.Discard()
	return nil
}
