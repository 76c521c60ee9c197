// Package catalog is the database registry's persistence layer: schema
// object registration (tables, indexes), analyze-stats, and the
// modification-ID counter survive a process restart here, backed by an
// embedded SQLite file through GORM.
//
// Dialector implements gorm.Dialector directly against a real SQLite
// connection opened through modernc.org/sqlite's database/sql driver,
// rather than routing through an in-process query engine.
package catalog

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/callbacks"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"

	_ "modernc.org/sqlite"
)

// Dialector implements gorm.Dialector against modernc.org/sqlite's
// database/sql driver (registered under the driver name "sqlite").
type Dialector struct {
	DSN   string
	sqlDB *sql.DB
}

// NewDialector builds a Dialector that will open dsn (a file path, or
// ":memory:") when Initialize runs.
func NewDialector(dsn string) *Dialector {
	return &Dialector{DSN: dsn}
}

func (d *Dialector) Name() string { return "sqlite" }

// Initialize opens the underlying connection and registers GORM's default
// callbacks.
func (d *Dialector) Initialize(db *gorm.DB) error {
	sqlDB, err := sql.Open("sqlite", d.DSN)
	if err != nil {
		return fmt.Errorf("catalog: open sqlite %s: %w", d.DSN, err)
	}
	d.sqlDB = sqlDB
	db.ConnPool = sqlDB

	callbacks.RegisterDefaultCallbacks(db, &callbacks.Config{})
	return nil
}

// CloseDB releases the underlying connection.
func (d *Dialector) CloseDB() error {
	if d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}

// Migrator returns GORM's generic SQL migrator. Table and index DDL for
// this package's own models is hand-written (the ddl constant in
// catalog.go) rather than
// driven through AutoMigrate, so no SQLite-specific overrides (PRAGMA
// table_info introspection, etc.) are needed here.
func (d *Dialector) Migrator(db *gorm.DB) gorm.Migrator {
	return migrator.Migrator{Config: migrator.Config{
		DB:                          db,
		Dialector:                   d,
		CreateIndexAfterCreateTable: true,
	}}
}

// DataTypeOf maps GORM schema field types to SQLite storage classes.
func (d *Dialector) DataTypeOf(field *schema.Field) string {
	switch field.DataType {
	case schema.Bool:
		return "BOOLEAN"
	case schema.Int, schema.Uint:
		return "INTEGER"
	case schema.Float:
		return "REAL"
	case schema.String:
		return "TEXT"
	case schema.Time:
		return "DATETIME"
	case schema.Bytes:
		return "BLOB"
	default:
		return "TEXT"
	}
}

func (d *Dialector) DefaultValueOf(field *schema.Field) clause.Expression {
	if field.DefaultValueInterface != nil {
		return clause.Expr{SQL: "?", Vars: []interface{}{field.DefaultValueInterface}}
	}
	if field.DefaultValue != "" {
		return clause.Expr{SQL: field.DefaultValue}
	}
	return nil
}

// BindVarTo writes a `?` placeholder, matching SQLite's default parameter
// style.
func (d *Dialector) BindVarTo(writer clause.Writer, _ *gorm.Statement, _ interface{}) {
	writer.WriteByte('?')
}

// QuoteTo quotes an identifier with double quotes, SQLite's ANSI-compatible
// quoting form (backtick-quoting is also accepted but not used here).
func (d *Dialector) QuoteTo(writer clause.Writer, str string) {
	writer.WriteByte('"')
	writer.WriteString(str)
	writer.WriteByte('"')
}

func (d *Dialector) Explain(sql string, vars ...interface{}) string {
	return fmt.Sprintf("%s %v", sql, vars)
}
