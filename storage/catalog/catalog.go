package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const ddl = `
CREATE TABLE IF NOT EXISTS tables (
	name TEXT PRIMARY KEY,
	main_index_column INTEGER NOT NULL DEFAULT -1,
	created_at DATETIME
);
CREATE TABLE IF NOT EXISTS indexes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	table_name TEXT NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	columns_csv TEXT NOT NULL,
	is_unique BOOLEAN NOT NULL,
	is_persistent BOOLEAN NOT NULL,
	created_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_indexes_table ON indexes(table_name);
CREATE TABLE IF NOT EXISTS analyze_stats (
	table_name TEXT PRIMARY KEY,
	row_count INTEGER NOT NULL,
	analyzed_at DATETIME
);
CREATE TABLE IF NOT EXISTS mod_counter (
	id INTEGER PRIMARY KEY,
	value INTEGER NOT NULL
);
INSERT OR IGNORE INTO mod_counter (id, value) VALUES (1, 0);
`

// Catalog is the embedded schema-object registry: table/index definitions,
// analyze snapshots, and the modification-ID counter outlive a process
// restart here, while Table and its lock manager keep their own in-memory
// fast paths for anything read on every mutation.
type Catalog struct {
	db *gorm.DB
	d  *Dialector
}

// Open creates (or re-opens) a catalog backed by the SQLite file at dsn.
// Use ":memory:" for an ephemeral, process-local catalog.
func Open(dsn string) (*Catalog, error) {
	d := NewDialector(dsn)
	db, err := gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}

	for _, stmt := range strings.Split(ddl, ";\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("catalog: apply schema: %w", err)
		}
	}

	return &Catalog{db: db, d: d}, nil
}

// Close releases the underlying SQLite connection.
func (c *Catalog) Close() error {
	return c.d.CloseDB()
}

// RegisterTable upserts a table's schema-object record. mainIndexColumn is
// -1 when no column has been claimed as the main index yet.
func (c *Catalog) RegisterTable(name string, mainIndexColumn int) error {
	rec := TableRecord{Name: name, MainIndexColumn: mainIndexColumn, CreatedAt: time.Now()}
	return c.db.Save(&rec).Error
}

// GetTable looks up a table's schema-object record.
func (c *Catalog) GetTable(name string) (*TableRecord, error) {
	var rec TableRecord
	err := c.db.First(&rec, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RemoveTable deletes a table's schema-object record and every index
// record registered under it (mirrors Table.RemoveChildrenAndResources
// tearing down a table's secondary indexes).
func (c *Catalog) RemoveTable(name string) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("table_name = ?", name).Delete(&IndexRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("table_name = ?", name).Delete(&AnalyzeStat{}).Error; err != nil {
			return err
		}
		return tx.Delete(&TableRecord{}, "name = ?", name).Error
	})
}

// RegisterIndex records a newly built secondary index, once the online
// build that populates it completes successfully.
func (c *Catalog) RegisterIndex(tableName, name, kind string, columns []int, unique, persistent bool) error {
	rec := IndexRecord{
		TableName:  tableName,
		Name:       name,
		Kind:       kind,
		ColumnsCSV: columnsToCSV(columns),
		Unique:     unique,
		Persistent: persistent,
		CreatedAt:  time.Now(),
	}
	return c.db.Create(&rec).Error
}

// ListIndexes returns every index recorded under tableName.
func (c *Catalog) ListIndexes(tableName string) ([]IndexRecord, error) {
	var recs []IndexRecord
	err := c.db.Where("table_name = ?", tableName).Find(&recs).Error
	return recs, err
}

// RemoveIndex deletes a single index's schema-object record.
func (c *Catalog) RemoveIndex(tableName, name string) error {
	return c.db.Delete(&IndexRecord{}, "table_name = ? AND name = ?", tableName, name).Error
}

// RecordAnalyze upserts the row-count snapshot taken by an analyze run.
func (c *Catalog) RecordAnalyze(tableName string, rowCount int64) error {
	rec := AnalyzeStat{TableName: tableName, RowCount: rowCount, AnalyzedAt: time.Now()}
	return c.db.Save(&rec).Error
}

// GetAnalyzeStat returns the most recent analyze snapshot for tableName.
func (c *Catalog) GetAnalyzeStat(tableName string) (*AnalyzeStat, error) {
	var rec AnalyzeStat
	err := c.db.First(&rec, "table_name = ?", tableName).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// NextModificationID atomically increments and returns the persisted
// modification-ID counter. Called opportunistically alongside the
// in-memory atomic counter that Database.NextModificationID owns; a
// failure here is non-fatal since the in-memory counter remains the
// authoritative fast path for the life of the process.
func (c *Catalog) NextModificationID() (int64, error) {
	var next int64
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("UPDATE mod_counter SET value = value + 1 WHERE id = 1").Error; err != nil {
			return err
		}
		var row modCounter
		if err := tx.First(&row, "id = 1").Error; err != nil {
			return err
		}
		next = row.Value
		return nil
	})
	return next, err
}

func columnsToCSV(columns []int) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

// ColumnsFromCSV parses the columns_csv column back into a column-index
// slice.
func ColumnsFromCSV(csv string) []int {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	cols := make([]int, 0, len(parts))
	for _, p := range parts {
		if v, err := strconv.Atoi(p); err == nil {
			cols = append(cols, v)
		}
	}
	return cols
}
