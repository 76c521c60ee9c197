package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the per-connection context passed explicitly to every
// operation that needs it; there is no thread-local state. It records the
// lock this session is currently blocked on, its configured lock timeout,
// and tables pending an analyze.
type Session struct {
	ID          string
	LockTimeout time.Duration

	mu              sync.Mutex
	waitForTable    string
	analyzePending  map[string]bool
	attachedIndexes map[string]bool
}

// NewSession creates a session with a fresh diagnostic ID and the given
// lock-wait timeout.
func NewSession(lockTimeout time.Duration) *Session {
	return &Session{
		ID:              uuid.NewString(),
		LockTimeout:     lockTimeout,
		analyzePending:  make(map[string]bool),
		attachedIndexes: make(map[string]bool),
	}
}

// SetWaitForLock records the table this session is blocked waiting to
// lock. A session waits on at most one table at a time.
func (s *Session) SetWaitForLock(tableName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitForTable = tableName
}

// ClearWaitForLock clears the wait-for edge once a lock attempt resolves
// (granted, timed out, or lost to a deadlock).
func (s *Session) ClearWaitForLock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitForTable = ""
}

// WaitForTable returns the table this session is currently blocked on, or
// "" if it isn't waiting.
func (s *Session) WaitForTable() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitForTable
}

// MarkAnalyzePending records that tableName should be analyzed once this
// session's work completes.
func (s *Session) MarkAnalyzePending(tableName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzePending[tableName] = true
}

// PendingAnalyzeTables returns the set of tables marked for analyze.
func (s *Session) PendingAnalyzeTables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tables := make([]string, 0, len(s.analyzePending))
	for name := range s.analyzePending {
		tables = append(tables, name)
	}
	return tables
}

// ClearAnalyzePending drops a table from the pending-analyze set once it
// has been processed.
func (s *Session) ClearAnalyzePending(tableName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.analyzePending, tableName)
}

// AttachSessionIndex records a session-temporary index built by
// Table.AddIndex: it lives for the life of this session instead of being
// registered as a durable schema object.
func (s *Session) AttachSessionIndex(tableName, indexName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachedIndexes[tableName+":"+indexName] = true
}

// HasSessionIndex reports whether this session attached indexName on
// tableName.
func (s *Session) HasSessionIndex(tableName, indexName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachedIndexes[tableName+":"+indexName]
}
