package storage

import (
	"context"
	"fmt"

	"github.com/latchdb/tablekernel/pkg/reliability"
	"github.com/latchdb/tablekernel/pkg/workerpool"
)

// IndexKind selects the concrete Index variant Table.AddIndex constructs.
type IndexKind int

const (
	IndexKindBTree IndexKind = iota
	IndexKindHashUnique
	IndexKindHashNonUnique
	IndexKindTree
	IndexKindSpatial
)

// AddIndexRequest carries the inputs to Table.AddIndex.
type AddIndexRequest struct {
	Name             string
	ID               int64
	Columns          []int
	Kind             IndexKind
	Persistent       bool
	CreateSQL        bool
	Comment          string
	SessionTemporary bool
}

// newIndexFactory builds the concrete, empty index variant for req,
// applying the delegation and persistence rules. It does not populate the
// index; Table.AddIndex rebuilds it afterward if NeedRebuild reports true.
func (t *Table) newIndexFactory(req AddIndexRequest) (Index, error) {
	if req.Kind == IndexKindSpatial {
		return nil, &ErrUnsupported{Op: "AddIndex", Reason: "spatial indexes are not supported by the page store"}
	}

	if t.scanIndexIsPersistent() && req.Persistent {
		if t.canDelegate(req) {
			t.claimMainIndexColumn(req.Columns[0])
			return newDelegateIndex(req.Name, t, req.Columns[0]), nil
		}
		return t.factory.NewBTree(req.Name, req.Columns, t.comparator(), t.lookupRow), nil
	}

	switch req.Kind {
	case IndexKindHashUnique:
		if len(req.Columns) != 1 {
			return nil, &ErrUnsupported{Op: "AddIndex", Reason: "hash index requires exactly one column"}
		}
		return t.factory.NewHash(req.Name, req.Columns[0], true, t.lookupRow), nil
	case IndexKindHashNonUnique:
		if len(req.Columns) != 1 {
			return nil, &ErrUnsupported{Op: "AddIndex", Reason: "hash index requires exactly one column"}
		}
		return t.factory.NewHash(req.Name, req.Columns[0], false, t.lookupRow), nil
	default:
		return t.factory.NewTree(req.Name, req.Columns, t.comparator(), t.lookupRow), nil
	}
}

// lookupRow resolves a key via the scan index, satisfying the RowLookup
// signature secondary index variants use for GetRow.
func (t *Table) lookupRow(session *Session, key int64) (*Row, error) {
	return t.scanIndex().GetRow(session, key)
}

// canDelegate is the main-index-column delegation test: delegation is
// chosen only when the database is not replaying startup,
// the scan index is empty and no main-index column was already claimed for
// this table, and the request targets a single, qualifying column.
func (t *Table) canDelegate(req AddIndexRequest) bool {
	if t.db.IsReplaying() {
		return false
	}
	if t.rowCount != 0 {
		return false
	}
	if t.mainIndexColumn != nil {
		return false
	}
	if len(req.Columns) != 1 {
		return false
	}
	return true
}

func (t *Table) claimMainIndexColumn(col int) {
	if t.db.claimMainIndexColumn(t.Name) {
		c := col
		t.mainIndexColumn = &c
	}
}

func (t *Table) scanIndexIsPersistent() bool {
	return t.scanIndex().IsPersistent()
}

func (t *Table) comparator() *Comparator {
	if t.cmp == nil {
		t.cmp = NewComparator()
	}
	return t.cmp
}

// AddIndex appends a new index to the table, rebuilding it online from the
// scan index if it reports NeedRebuild and the table has rows. Precondition:
// the caller holds the appropriate lock (exclusive, unless the table is
// session-temporary and non-global).
func (t *Table) AddIndex(session *Session, req AddIndexRequest) (Index, error) {
	req.Columns = prepareColumns(req.Columns)

	idx, err := t.newIndexFactory(req)
	if err != nil {
		return nil, err
	}

	if idx.NeedRebuild() && t.rowCount > 0 {
		if err := t.rebuildIndex(session, idx, req.Name); err != nil {
			return nil, err
		}
	}

	t.indexes = append(t.indexes, idx)

	if req.SessionTemporary {
		session.AttachSessionIndex(t.Name, idx.Name())
	} else if t.db.IndexRegistry != nil {
		if err := t.db.IndexRegistry.RegisterIndex(t.Name, idx.Name(), indexKindLabel(idx), req.Columns, idx.IsUnique(), idx.IsPersistent()); err != nil {
			t.db.Trace.Logf("index %s registration failed: %v", idx.Name(), err)
		}
	}

	t.lastModificationId = t.db.NextModificationID()
	return idx, nil
}

// indexKindLabel classifies a built index for schema-object registration,
// from the concrete variant's own flags rather than the request's Kind
// field (which the persistent B-tree/delegate selection in
// newIndexFactory ignores).
func indexKindLabel(idx Index) string {
	if isDelegate(idx) {
		return "delegate"
	}
	if idx.IsHash() {
		if idx.IsUnique() {
			return "hash_unique"
		}
		return "hash"
	}
	if idx.IsPersistent() {
		return "btree"
	}
	return "tree"
}

// prepareColumns deduplicates a requested column list while preserving
// first-seen order. The transformation is deterministic and idempotent.
func prepareColumns(cols []int) []int {
	seen := make(map[int]bool, len(cols))
	out := make([]int, 0, len(cols))
	for _, c := range cols {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// RebuildProgress is the (current, total) pair reported during an online
// index rebuild.
type RebuildProgress struct {
	Current int64
	Total   int64
}

// rebuildIndex cursors the scan index in memory-capped batches into idx,
// flushing each batch through a single-worker pool so flushes remain
// strictly sequential; there is no suspend/resume for an in-progress build.
func (t *Table) rebuildIndex(session *Session, idx Index, indexName string) error {
	batchCap := t.rowCount
	if t.settings.MaxMemoryRows < batchCap {
		batchCap = t.settings.MaxMemoryRows
	}
	if batchCap <= 0 {
		batchCap = 1
	}

	pool, err := workerpool.NewRebuildPool()
	if err != nil {
		return fmt.Errorf("rebuild index %s: %w", indexName, err)
	}
	if err := pool.Start(); err != nil {
		return fmt.Errorf("rebuild index %s: %w", indexName, err)
	}
	defer pool.Close()

	cursor, err := t.scanIndex().Find(session, nil, nil)
	if err != nil {
		return t.cleanupFailedRebuild(session, idx, indexName, err)
	}
	defer cursor.Close()

	label := fmt.Sprintf("%s:%s", t.Name, indexName)
	total := t.rowCount
	var current int64
	batch := make([]*Row, 0, batchCap)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		rows := batch
		return pool.SubmitWait(context.Background(), func(ctx context.Context) error {
			for _, row := range rows {
				if err := idx.Add(session, row); err != nil {
					return err
				}
			}
			t.db.Metrics.RecordRebuildBatch()
			return nil
		})
	}

	for cursor.Next() {
		batch = append(batch, cursor.Row())
		current++
		if int64(len(batch)) >= batchCap {
			if err := flush(); err != nil {
				return t.cleanupFailedRebuild(session, idx, indexName, err)
			}
			batch = batch[:0]
			t.db.Progress.OnProgress(label, current, total)
		}
	}
	if err := flush(); err != nil {
		return t.cleanupFailedRebuild(session, idx, indexName, err)
	}
	t.db.Progress.OnProgress(label, total, total)

	return nil
}

// cleanupFailedRebuild releases the partially built index's storage after
// a flush failure, then propagates the original error. If the cleanup
// itself fails, that error is logged and propagated instead; the database
// state is now suspect.
func (t *Table) cleanupFailedRebuild(session *Session, idx Index, indexName string, original error) error {
	if err := idx.Truncate(session); err != nil {
		t.db.Trace.Logf("rebuild cleanup for index %s failed: %v (original error: %v)", indexName, err, original)
		t.db.Failures.Record(reliability.ErrorTypeRebuildFailure, err.Error(), err, map[string]interface{}{
			"index":    indexName,
			"original": original.Error(),
		})
		return fmt.Errorf("rebuild index %s: cleanup failed: %w", indexName, err)
	}
	t.db.Failures.Record(reliability.ErrorTypeRebuildFailure, original.Error(), original, map[string]interface{}{
		"index": indexName,
	})
	return fmt.Errorf("rebuild index %s: %w", indexName, original)
}
