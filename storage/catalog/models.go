package catalog

import "time"

// TableRecord is the persisted schema-object entry for one table
// registered with the database.
type TableRecord struct {
	Name            string `gorm:"primaryKey;column:name"`
	MainIndexColumn int    `gorm:"column:main_index_column"` // -1 when unclaimed
	CreatedAt       time.Time
}

func (TableRecord) TableName() string { return "tables" }

// IndexRecord is the persisted schema-object entry for one secondary index.
type IndexRecord struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	TableName  string `gorm:"column:table_name;index:idx_indexes_table"`
	Name       string `gorm:"column:name"`
	Kind       string `gorm:"column:kind"` // "btree", "hash", "hash_unique", "tree", "delegate"
	ColumnsCSV string `gorm:"column:columns_csv"`
	Unique     bool   `gorm:"column:is_unique"`
	Persistent bool   `gorm:"column:is_persistent"`
	CreatedAt  time.Time
}

func (IndexRecord) TableName() string { return "indexes" }

// AnalyzeStat is the persisted row-count/timestamp snapshot from the most
// recent analyze of a table.
type AnalyzeStat struct {
	TableName  string `gorm:"primaryKey;column:table_name"`
	RowCount   int64  `gorm:"column:row_count"`
	AnalyzedAt time.Time
}

func (AnalyzeStat) TableName() string { return "analyze_stats" }

// modCounter is the single-row modification-ID sequence, persisted so a
// restarted process resumes numbering rather than rewinding.
type modCounter struct {
	ID    int   `gorm:"primaryKey;column:id"`
	Value int64 `gorm:"column:value"`
}

func (modCounter) TableName() string { return "mod_counter" }
