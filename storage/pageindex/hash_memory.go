package pageindex

import (
	"fmt"
	"sync"

	"github.com/latchdb/tablekernel/storage"
)

// HashIndexMemory is the in-memory hash index variant: single-column,
// unique or non-unique, with no ordering guarantee on Find.
type HashIndexMemory struct {
	name   string
	column int
	unique bool
	lookup storage.RowLookup

	mu      sync.RWMutex
	buckets map[string][]int64 // value -> row keys (len 1 if unique)
}

// NewHashIndexMemory creates an empty in-memory hash index over a single
// column.
func NewHashIndexMemory(name string, column int, unique bool, lookup storage.RowLookup) *HashIndexMemory {
	return &HashIndexMemory{
		name:    name,
		column:  column,
		unique:  unique,
		lookup:  lookup,
		buckets: make(map[string][]int64),
	}
}

func (h *HashIndexMemory) Name() string { return h.name }

func (h *HashIndexMemory) bucketKey(row *storage.Row) (string, error) {
	v, err := row.Column(h.column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v", v), nil
}

func (h *HashIndexMemory) Add(session *storage.Session, row *storage.Row) error {
	key, err := h.bucketKey(row)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unique {
		if existing, ok := h.buckets[key]; ok && len(existing) > 0 && existing[0] != row.Key {
			return &storage.ErrUniqueViolation{IndexName: h.name, Value: key}
		}
		h.buckets[key] = []int64{row.Key}
		return nil
	}

	for _, k := range h.buckets[key] {
		if k == row.Key {
			return nil
		}
	}
	h.buckets[key] = append(h.buckets[key], row.Key)
	return nil
}

func (h *HashIndexMemory) Remove(session *storage.Session, row *storage.Row) error {
	key, err := h.bucketKey(row)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	keys := h.buckets[key]
	for i, k := range keys {
		if k == row.Key {
			h.buckets[key] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(h.buckets[key]) == 0 {
		delete(h.buckets, key)
	}
	return nil
}

// Find returns every row when low is nil; otherwise it returns the exact
// matches for low, and high is ignored. A hash index has no useful
// ordering for range scans.
func (h *HashIndexMemory) Find(session *storage.Session, low, high interface{}) (storage.Cursor, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if low == nil {
		rows := make([]*storage.Row, 0)
		for _, keys := range h.buckets {
			for _, k := range keys {
				row, err := h.lookup(session, k)
				if err != nil {
					return nil, err
				}
				if row != nil {
					rows = append(rows, row)
				}
			}
		}
		return newSliceCursor(rows), nil
	}

	bucket := fmt.Sprintf("%v", low)
	rows := make([]*storage.Row, 0, len(h.buckets[bucket]))
	for _, k := range h.buckets[bucket] {
		row, err := h.lookup(session, k)
		if err != nil {
			return nil, err
		}
		if row != nil {
			rows = append(rows, row)
		}
	}
	return newSliceCursor(rows), nil
}

func (h *HashIndexMemory) GetRow(session *storage.Session, key int64) (*storage.Row, error) {
	return h.lookup(session, key)
}

func (h *HashIndexMemory) GetRowCount(session *storage.Session) (int64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var count int64
	for _, keys := range h.buckets {
		count += int64(len(keys))
	}
	return count, nil
}

func (h *HashIndexMemory) Truncate(session *storage.Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buckets = make(map[string][]int64)
	return nil
}

func (h *HashIndexMemory) NeedRebuild() bool  { return true }
func (h *HashIndexMemory) IsUnique() bool     { return h.unique }
func (h *HashIndexMemory) IsHash() bool       { return true }
func (h *HashIndexMemory) IsSpatial() bool    { return false }
func (h *HashIndexMemory) IsPersistent() bool { return false }
