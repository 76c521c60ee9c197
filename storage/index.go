package storage

// Cursor walks rows in key order, as produced by Index.Find.
type Cursor interface {
	// Next advances the cursor and reports whether a row is available.
	Next() bool
	// Row returns the row at the cursor's current position. Valid only
	// after Next returned true.
	Row() *Row
	// Close releases any resources the cursor holds.
	Close() error
}

// Index is the capability set every scan, secondary, or delegate index
// implements. The table dispatches to it polymorphically; concrete
// variants are selected by Table.AddIndex based on type flags, never
// loaded dynamically.
type Index interface {
	// Name returns the index's registered name.
	Name() string

	// Add inserts row into the index. For the scan index this is where a
	// fresh row is assigned its key; secondary indexes key off row.Key.
	Add(session *Session, row *Row) error

	// Remove deletes row from the index.
	Remove(session *Session, row *Row) error

	// Find opens a cursor over keys in [low, high]. A nil bound is
	// unbounded on that side.
	Find(session *Session, low, high interface{}) (Cursor, error)

	// GetRow looks up a single row by its scan-index key.
	GetRow(session *Session, key int64) (*Row, error)

	// GetRowCount returns the index's authoritative row count.
	GetRowCount(session *Session) (int64, error)

	// Truncate removes every row from the index.
	Truncate(session *Session) error

	// NeedRebuild reports whether the index was constructed empty and
	// needs an online rebuild from the scan index before it is usable.
	NeedRebuild() bool

	IsUnique() bool
	IsHash() bool
	IsSpatial() bool
	IsPersistent() bool
}

// RowLookup resolves a scan-index key to its row. Secondary index
// variants that store only a key (not a full row copy) use it to satisfy
// GetRow without depending on the storage package's Table type directly.
type RowLookup func(session *Session, key int64) (*Row, error)

// IndexFactory constructs the non-delegate secondary index variants
// Table.AddIndex selects among. Concrete variants (badger-backed B-tree,
// in-memory hash and tree) live in storage/pageindex, which imports this
// package for the Index/Row/Session types; Table depends on IndexFactory
// rather than on storage/pageindex directly to avoid an import cycle,
// with the concrete implementation injected at table construction time.
type IndexFactory interface {
	NewBTree(name string, columns []int, cmp *Comparator, lookup RowLookup) Index
	NewHash(name string, column int, unique bool, lookup RowLookup) Index
	NewTree(name string, columns []int, cmp *Comparator, lookup RowLookup) Index
}

// IndexInfo is a read-only snapshot of an index's catalog metadata,
// returned by Table.GetIndexes.
type IndexInfo struct {
	Name      string
	TableName string
	Columns   []int
	Unique    bool
	Hash      bool
	Spatial   bool
	Persistent bool
}
