package storage

import (
	"fmt"

	"github.com/latchdb/tablekernel/pkg/config"
	"github.com/latchdb/tablekernel/pkg/reliability"
)

// Table holds the index list, orchestrates atomic multi-index mutation,
// schedules analyze, coordinates locking, and manages online index
// creation.
type Table struct {
	Name string

	db       *Database
	settings config.TableConfig
	factory  IndexFactory
	cmp      *Comparator

	// indexes[0] is always the scan index.
	indexes []Index

	rowCount            int64
	lastModificationId  int64
	changesSinceAnalyze int64
	nextAnalyze         int64

	mainIndexColumn *int

	// Lock manager state, all guarded by db.mu.
	lockExclusiveSession *Session
	lockSharedSessions   map[*Session]struct{}
	waitingSessions      []*Session

	temporary       bool
	globalTemporary bool

	invalid bool
}

// NewTable creates a table backed by scanIndex (which must already occupy
// position 0) and registers it with db. factory constructs the non-delegate
// secondary index variants AddIndex may need.
func NewTable(db *Database, name string, scanIndex Index, settings config.TableConfig, factory IndexFactory) *Table {
	t := &Table{
		Name:               name,
		db:                 db,
		settings:           settings,
		factory:            factory,
		indexes:            []Index{scanIndex},
		nextAnalyze:        settings.AnalyzeAuto,
		lockSharedSessions: make(map[*Session]struct{}),
	}
	db.RegisterTable(t)
	return t
}

func (t *Table) scanIndex() Index {
	return t.indexes[0]
}

// GetScanIndex returns the table's scan index (position 0).
func (t *Table) GetScanIndex(session *Session) Index {
	return t.scanIndex()
}

// GetRowCount returns the table's exact row count under the caller's held
// lock.
func (t *Table) GetRowCount(session *Session) int64 {
	return t.rowCount
}

// GetRowCountApproximation returns an unlocked read of the row count,
// distinct from GetRowCount's exact, lock-held value.
func (t *Table) GetRowCountApproximation() int64 {
	return t.rowCount
}

// GetLastModificationID returns the modification ID reserved by this
// table's most recent successful mutation, or 0 if the table has never
// been mutated. Strictly increases after every successful AddRow,
// RemoveRow, Truncate, or AddIndex.
func (t *Table) GetLastModificationID(session *Session) int64 {
	return t.lastModificationId
}

// GetMainIndexColumn returns the column position delegated to the scan
// index's row key, if any has been claimed.
func (t *Table) GetMainIndexColumn() *int {
	return t.mainIndexColumn
}

// GetIndexes returns catalog snapshots of every index on the table.
// Columns is left nil in each snapshot: the Index interface exposes no
// column list.
func (t *Table) GetIndexes() []*IndexInfo {
	infos := make([]*IndexInfo, 0, len(t.indexes))
	for _, idx := range t.indexes {
		infos = append(infos, &IndexInfo{
			Name:       idx.Name(),
			TableName:  t.Name,
			Unique:     idx.IsUnique(),
			Hash:       idx.IsHash(),
			Spatial:    idx.IsSpatial(),
			Persistent: idx.IsPersistent(),
		})
	}
	return infos
}

// GetUniqueIndex returns the first unique index on the table, if any.
func (t *Table) GetUniqueIndex() (Index, bool) {
	for _, idx := range t.indexes {
		if idx.IsUnique() {
			return idx, true
		}
	}
	return nil, false
}

// GetRow looks up a row by key via the scan index.
func (t *Table) GetRow(session *Session, key int64) (*Row, error) {
	return t.scanIndex().GetRow(session, key)
}

// AddRow fans row out to every index left-to-right, rolling back on
// partial failure. Precondition: the caller already holds the table's
// exclusive lock.
func (t *Table) AddRow(session *Session, row *Row) error {
	modID := t.db.NextModificationID()

	for i, idx := range t.indexes {
		if err := idx.Add(session, row); err != nil {
			if rbErr := t.rollbackAdd(session, row, i-1, err); rbErr != nil {
				return rbErr
			}
			return err
		}
		if t.settings.Check && !isDelegate(idx) {
			if count, cerr := idx.GetRowCount(session); cerr == nil && count != t.rowCount+1 {
				mismatchErr := &ErrRowCountMismatch{
					TableName: t.Name,
					IndexName: idx.Name(),
					Expected:  t.rowCount + 1,
					Actual:    count,
				}
				if rbErr := t.rollbackAdd(session, row, i, mismatchErr); rbErr != nil {
					return rbErr
				}
				return mismatchErr
			}
		}
	}

	t.rowCount++
	t.lastModificationId = modID
	t.scheduleAnalyze(session)
	return nil
}

// rollbackAdd undoes indexes[from..0] after a failed Add at position
// from+1. Every step is attempted regardless of earlier failures; if any
// step fails, the first such failure is returned wrapped in
// ErrRollbackFailed, which the caller must propagate instead of
// originalErr — a rollback failure is always fatal to the session.
func (t *Table) rollbackAdd(session *Session, row *Row, from int, originalErr error) error {
	var rollbackErr error
	for i := from; i >= 0; i-- {
		if err := t.indexes[i].Remove(session, row); err != nil {
			wrapped := t.logRollbackFailure(originalErr, err)
			if rollbackErr == nil {
				rollbackErr = wrapped
			}
		}
	}
	return rollbackErr
}

// RemoveRow fans row out right-to-left: secondary indexes first, scan
// index last, so the row remains readable while secondary structures are
// updated.
func (t *Table) RemoveRow(session *Session, row *Row) error {
	modID := t.db.NextModificationID()

	for i := len(t.indexes) - 1; i >= 0; i-- {
		idx := t.indexes[i]
		if err := idx.Remove(session, row); err != nil {
			if rbErr := t.rollbackRemove(session, row, i+1, err); rbErr != nil {
				return rbErr
			}
			return err
		}
	}

	t.rowCount--
	t.lastModificationId = modID
	t.scheduleAnalyze(session)
	return nil
}

// rollbackRemove re-adds indexes[from..len-1] after a failed Remove at
// position from-1. Every step is attempted regardless of earlier
// failures; if any step fails, the first such failure is returned wrapped
// in ErrRollbackFailed, which the caller must propagate instead of
// originalErr.
func (t *Table) rollbackRemove(session *Session, row *Row, from int, originalErr error) error {
	var rollbackErr error
	for i := from; i < len(t.indexes); i++ {
		if err := t.indexes[i].Add(session, row); err != nil {
			wrapped := t.logRollbackFailure(originalErr, err)
			if rollbackErr == nil {
				rollbackErr = wrapped
			}
		}
	}
	return rollbackErr
}

// logRollbackFailure records a rollback-step failure (logged and counted
// as a critical failure) and returns the ErrRollbackFailed the caller
// should propagate.
func (t *Table) logRollbackFailure(original, cause error) *ErrRollbackFailed {
	wrapped := &ErrRollbackFailed{TableName: t.Name, Original: original, Cause: cause}
	t.db.Trace.Logf("FATAL: %s", wrapped.Error())
	t.db.Failures.Record(reliability.ErrorTypeRollbackFailure, wrapped.Error(), wrapped, map[string]interface{}{
		"table": t.Name,
	})
	return wrapped
}

func isDelegate(idx Index) bool {
	type delegateMarker interface{ isDelegateIndex() bool }
	if d, ok := idx.(delegateMarker); ok {
		return d.isDelegateIndex()
	}
	return false
}

// scheduleAnalyze implements the geometric-backoff analyze trigger.
func (t *Table) scheduleAnalyze(session *Session) {
	if t.nextAnalyze == 0 {
		return
	}

	t.changesSinceAnalyze++
	if t.changesSinceAnalyze > t.nextAnalyze {
		session.MarkAnalyzePending(t.Name)
		t.changesSinceAnalyze = 0
		t.db.Metrics.RecordAnalyzeTrigger()

		doubled := t.nextAnalyze * 2
		if doubled > t.nextAnalyze {
			t.nextAnalyze = doubled
		}
		// overflow: leave nextAnalyze unchanged rather than wrap negative.
	}
}

// Truncate removes every row from every index right-to-left and resets
// counters, returning the pre-truncate row count. No rollback is
// attempted on partial failure.
func (t *Table) Truncate(session *Session) (int64, error) {
	modID := t.db.NextModificationID()

	previous := t.rowCount
	for i := len(t.indexes) - 1; i >= 0; i-- {
		if err := t.indexes[i].Truncate(session); err != nil {
			return previous, fmt.Errorf("truncate table %s: %w", t.Name, err)
		}
	}

	t.rowCount = 0
	t.lastModificationId = modID
	t.changesSinceAnalyze = 0
	return previous, nil
}

// RemoveChildrenAndResources tears the table down: removes every
// secondary index in reverse order, then the scan index, clears lock
// state, and invalidates the table.
func (t *Table) RemoveChildrenAndResources(session *Session) error {
	for i := len(t.indexes) - 1; i >= 1; i-- {
		if err := t.indexes[i].Truncate(session); err != nil {
			return fmt.Errorf("remove index %s on table %s: %w", t.indexes[i].Name(), t.Name, err)
		}
	}
	if err := t.scanIndex().Truncate(session); err != nil {
		return fmt.Errorf("remove scan index on table %s: %w", t.Name, err)
	}

	t.db.lock()
	t.lockExclusiveSession = nil
	t.lockSharedSessions = make(map[*Session]struct{})
	t.waitingSessions = nil
	t.invalid = true
	t.db.broadcastLocked()
	t.db.unlock()

	t.db.UnregisterTable(t.Name)
	return nil
}
