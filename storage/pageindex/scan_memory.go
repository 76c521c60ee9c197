// Package pageindex implements the concrete index variants: persistent
// and in-memory scan indexes, a badger-backed B-tree, in-memory hash and
// tree indexes, each satisfying the storage.Index capability set. It is a
// separate package from storage so the core table/lock logic has no
// compile-time dependency on a specific storage engine.
package pageindex

import (
	"sort"
	"sync"

	"github.com/latchdb/tablekernel/storage"
)

// ScanIndexMemory is the volatile scan-index variant: authoritative row
// storage, with key assignment on Add.
type ScanIndexMemory struct {
	name string

	mu      sync.RWMutex
	rows    map[int64]*storage.Row
	order   []int64 // sorted keys
	nextKey int64
}

// NewScanIndexMemory creates an empty in-memory scan index.
func NewScanIndexMemory(name string) *ScanIndexMemory {
	return &ScanIndexMemory{
		name: name,
		rows: make(map[int64]*storage.Row),
	}
}

func (s *ScanIndexMemory) Name() string { return s.name }

// Add assigns row a fresh key when row.Key is zero (unassigned), then
// inserts it.
func (s *ScanIndexMemory) Add(session *storage.Session, row *storage.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row.Key == 0 {
		s.nextKey++
		row.Key = s.nextKey
	} else if row.Key > s.nextKey {
		s.nextKey = row.Key
	}

	s.rows[row.Key] = row
	i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= row.Key })
	s.order = append(s.order, 0)
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = row.Key
	return nil
}

func (s *ScanIndexMemory) Remove(session *storage.Session, row *storage.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows, row.Key)
	i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= row.Key })
	if i < len(s.order) && s.order[i] == row.Key {
		s.order = append(s.order[:i], s.order[i+1:]...)
	}
	return nil
}

func (s *ScanIndexMemory) Find(session *storage.Session, low, high interface{}) (storage.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lowKey, hasLow := asKeyBound(low)
	highKey, hasHigh := asKeyBound(high)

	rows := make([]*storage.Row, 0, len(s.order))
	for _, k := range s.order {
		if hasLow && k < lowKey {
			continue
		}
		if hasHigh && k > highKey {
			continue
		}
		rows = append(rows, s.rows[k])
	}
	return newSliceCursor(rows), nil
}

func (s *ScanIndexMemory) GetRow(session *storage.Session, key int64) (*storage.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[key]
	if !ok {
		return nil, nil
	}
	return row, nil
}

func (s *ScanIndexMemory) GetRowCount(session *storage.Session) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows)), nil
}

func (s *ScanIndexMemory) Truncate(session *storage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make(map[int64]*storage.Row)
	s.order = nil
	return nil
}

func (s *ScanIndexMemory) NeedRebuild() bool  { return false }
func (s *ScanIndexMemory) IsUnique() bool     { return true }
func (s *ScanIndexMemory) IsHash() bool       { return false }
func (s *ScanIndexMemory) IsSpatial() bool    { return false }
func (s *ScanIndexMemory) IsPersistent() bool { return false }

func asKeyBound(v interface{}) (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch k := v.(type) {
	case int64:
		return k, true
	case int:
		return int64(k), true
	default:
		return 0, false
	}
}
