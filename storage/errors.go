package storage

import "fmt"

// ErrTableNotFound is raised when an operation names a table the database
// registry has no record of.
type ErrTableNotFound struct {
	TableName string
}

func (e *ErrTableNotFound) Error() string {
	return fmt.Sprintf("table %s not found", e.TableName)
}

// ErrUnsupported covers contract violations: wrong lock mode for an
// operation, a hash index requested over more than one column, a spatial
// index on the page store.
type ErrUnsupported struct {
	Op     string
	Reason string
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("unsupported operation %s: %s", e.Op, e.Reason)
}

// ErrDeadlock is raised against the chosen victim of a detected wait-for
// cycle. Details lists every session participating in the cycle.
type ErrDeadlock struct {
	TableName string
	Details   string
}

func (e *ErrDeadlock) Error() string {
	return fmt.Sprintf("deadlock detected waiting for table %s: %s", e.TableName, e.Details)
}

// ErrLockTimeout is raised when a lock request is not granted before the
// requesting session's configured timeout elapses.
type ErrLockTimeout struct {
	TableName string
	Timeout   string
}

func (e *ErrLockTimeout) Error() string {
	return fmt.Sprintf("lock timeout on table %s after %s", e.TableName, e.Timeout)
}

// ErrRowCountMismatch is raised by the optional invariant checker (settings
// CHECK) when an index reports a row count diverging from the table's own.
type ErrRowCountMismatch struct {
	TableName string
	IndexName string
	Expected  int64
	Actual    int64
}

func (e *ErrRowCountMismatch) Error() string {
	return fmt.Sprintf("row count mismatch on table %s index %s: expected %d, got %d",
		e.TableName, e.IndexName, e.Expected, e.Actual)
}

// ErrUniqueViolation is raised by a unique index's Add when the row's key
// column(s) duplicate an existing entry.
type ErrUniqueViolation struct {
	IndexName string
	Value     interface{}
}

func (e *ErrUniqueViolation) Error() string {
	return fmt.Sprintf("unique constraint violated on index %s for value %v", e.IndexName, e.Value)
}

// ErrRollbackFailed wraps a failure that occurred while undoing a partial
// mutation. Always fatal: it is logged and re-raised, never retried, and
// the table must be treated as invalid by the caller.
type ErrRollbackFailed struct {
	TableName string
	Original  error
	Cause     error
}

func (e *ErrRollbackFailed) Error() string {
	return fmt.Sprintf("rollback failed on table %s: original error %v, rollback error %v",
		e.TableName, e.Original, e.Cause)
}

func (e *ErrRollbackFailed) Unwrap() error {
	return e.Cause
}

// ErrRemovedRow is raised when a caller attempts to read or write a
// non-key column of a removed-row tombstone.
type ErrRemovedRow struct {
	Key int64
}

func (e *ErrRemovedRow) Error() string {
	return fmt.Sprintf("row %d is a removed-row tombstone and carries no columns", e.Key)
}
