package storage

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/latchdb/tablekernel/pkg/config"
	"github.com/latchdb/tablekernel/pkg/monitor"
	"github.com/latchdb/tablekernel/pkg/reliability"
)

// ProgressListener receives rebuild progress during an online index build.
// label is "<tableName>:<indexName>".
type ProgressListener interface {
	OnProgress(label string, current, total int64)
}

// noopProgressListener discards progress notifications.
type noopProgressListener struct{}

func (noopProgressListener) OnProgress(string, int64, int64) {}

// Database is the database registry: it issues monotonic modification
// IDs, owns the process-wide wait/notify monitor every table's lock
// manager uses, and holds the shared settings, trace sink, and metrics
// collectors.
//
// The wait/notify monitor is an explicit condition variable owned by the
// database instance, rather than a package-level global; every table
// references it by a non-owning pointer.
type Database struct {
	Settings *config.Config
	Trace    TraceSink
	Progress ProgressListener
	Metrics  *monitor.MetricsCollector
	LockWait *monitor.LockWaitAnalyzer
	Failures *reliability.FailureRecorder

	// ModIDSink, when set, receives a best-effort persisted copy of every
	// modification ID issued. The in-memory atomic counter remains the
	// authoritative fast path; a sink failure is logged, never fatal, and
	// never blocks the caller of NextModificationID.
	ModIDSink ModIDSink

	// IndexRegistry, when set, receives a schema-object record for every
	// non-session-temporary index Table.AddIndex builds successfully. A
	// registration failure is logged, never fatal, and never unwinds the
	// index build that already succeeded.
	IndexRegistry IndexRegistry

	mu              sync.Mutex
	notifyCh        chan struct{}
	nextModID       int64
	tables          map[string]*Table
	mainIndexClaims map[string]bool // tableName -> a main-index column has been claimed
	replaying       bool
}

// ModIDSink persists modification IDs issued by NextModificationID.
// storage/catalog.Catalog implements this by incrementing its own SQLite
// counter; callers that don't need cross-restart durability leave
// Database.ModIDSink nil.
type ModIDSink interface {
	NextModificationID() (int64, error)
}

// IndexRegistry records a newly built index as a schema object.
// storage/catalog.Catalog implements this; callers that don't need
// cross-restart durability for index definitions leave
// Database.IndexRegistry nil.
type IndexRegistry interface {
	RegisterIndex(tableName, name, kind string, columns []int, unique, persistent bool) error
}

// NewDatabase creates a database registry using cfg (or config.DefaultConfig()
// if nil).
func NewDatabase(cfg *config.Config) *Database {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Database{
		Settings:        cfg,
		Trace:           NewLogTraceSink(nil),
		Progress:        noopProgressListener{},
		Metrics:         monitor.NewMetricsCollector(),
		LockWait:        monitor.NewLockWaitAnalyzer(50*time.Millisecond, 500),
		Failures:        reliability.NewFailureRecorder(1000),
		notifyCh:        make(chan struct{}),
		tables:          make(map[string]*Table),
		mainIndexClaims: make(map[string]bool),
	}
}

// NextModificationID reserves and returns the next monotonic modification
// ID.
func (db *Database) NextModificationID() int64 {
	id := atomic.AddInt64(&db.nextModID, 1)
	if db.ModIDSink != nil {
		if _, err := db.ModIDSink.NextModificationID(); err != nil {
			db.Trace.Logf("modification ID persistence failed: %v", err)
		}
	}
	return id
}

// RegisterTable adds t to the database's table registry, used by deadlock
// detection to resolve a session's wait-for table name to its lock state.
func (db *Database) RegisterTable(t *Table) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables[t.Name] = t
}

// UnregisterTable removes t from the registry.
func (db *Database) UnregisterTable(name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.tables, name)
}

// Table looks up a registered table by name.
func (db *Database) Table(name string) (*Table, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tables[name]
	return t, ok
}

// IsReplaying reports whether the database is replaying startup (affects
// main-index-column delegation eligibility).
func (db *Database) IsReplaying() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.replaying
}

// SetReplaying toggles startup-replay mode.
func (db *Database) SetReplaying(replaying bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.replaying = replaying
}

// claimMainIndexColumn records that tableName has claimed a main-index
// column, returning false if one was already claimed.
func (db *Database) claimMainIndexColumn(tableName string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.mainIndexClaims[tableName] {
		return false
	}
	db.mainIndexClaims[tableName] = true
	return true
}

// --- monitor: broadcast-on-channel condition variable, guarded by mu ---

// lock acquires the database-wide monitor mutex. Every table's lock
// manager state transition happens under this single lock, which is what
// makes the cross-table deadlock graph walk safe to perform without its
// own separate locking.
func (db *Database) lock() {
	db.mu.Lock()
}

func (db *Database) unlock() {
	db.mu.Unlock()
}

// broadcastLocked wakes every waiter currently blocked in waitLocked.
// Must be called with db.mu held.
func (db *Database) broadcastLocked() {
	close(db.notifyCh)
	db.notifyCh = make(chan struct{})
}

// waitLocked releases db.mu, blocks until either broadcastLocked is called
// or timeout elapses, then reacquires db.mu. Must be called with db.mu held.
func (db *Database) waitLocked(timeout time.Duration) {
	ch := db.notifyCh
	db.mu.Unlock()
	select {
	case <-ch:
	case <-time.After(timeout):
	}
	db.mu.Lock()
}
