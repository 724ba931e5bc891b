package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// DB wraps the document database connection.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// Open connects to the database and applies migrations. For sqlite, dsn is a
// file path whose directory is created if needed.
func Open(dialect Dialect, dsn string) (*DB, error) {
	var conn *sql.DB
	var err error
	switch dialect {
	case SQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		conn, err = sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite only supports one writer; a single connection avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	case Postgres:
		conn, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
	case MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		// timestamps are scanned into time.Time and stored as UTC
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		conn, err = sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}

	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// rebind rewrites ? placeholders to $1, $2, ... for postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (db *DB) exec(e execer, query string, args ...any) (sql.Result, error) {
	return e.Exec(db.rebind(query), args...)
}

func (db *DB) query(e execer, query string, args ...any) (*sql.Rows, error) {
	return e.Query(db.rebind(query), args...)
}

func (db *DB) queryRow(e execer, query string, args ...any) *sql.Row {
	return e.QueryRow(db.rebind(query), args...)
}

func (db *DB) migrate() error {
	// key columns need a bounded type on mysql
	ts, key := "DATETIME", "TEXT"
	switch db.dialect {
	case Postgres:
		ts = "TIMESTAMPTZ"
	case MySQL:
		key = "VARCHAR(191)"
	}
	inlineIndex := func(name, cols string) string {
		if db.dialect != MySQL {
			return ""
		}
		return ",\n\t\t\tINDEX " + name + " (" + cols + ")"
	}
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id ` + key + ` PRIMARY KEY,
			title TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			id ` + key + ` NOT NULL,
			document_id ` + key + ` NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			data_json TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (document_id, id)` + inlineIndex("idx_blocks_document", "document_id, sort_order") + `
		)`,
		// History nodes: one snapshot of the block order per committed edit
		`CREATE TABLE IF NOT EXISTS history_nodes (
			id ` + key + ` PRIMARY KEY,
			document_id ` + key + ` NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			parent_id ` + key + `,
			label TEXT NOT NULL,
			snapshot_json TEXT NOT NULL,
			seq INTEGER NOT NULL,
			created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP` + inlineIndex("idx_history_nodes_document", "document_id, seq") + `
		)`,
		// Current position pointer per document
		`CREATE TABLE IF NOT EXISTS history_state (
			document_id ` + key + ` PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
			current_node_id ` + key + ` NOT NULL
		)`,
	}
	if db.dialect != MySQL {
		migrations = append(migrations,
			`CREATE INDEX IF NOT EXISTS idx_blocks_document ON blocks(document_id, sort_order)`,
			`CREATE INDEX IF NOT EXISTS idx_history_nodes_document ON history_nodes(document_id, seq)`,
		)
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", firstLine(m), err)
		}
	}
	return nil
}

// upsertCurrentSQL returns the statement that sets a document's history
// pointer, inserting the row on first use.
func (db *DB) upsertCurrentSQL() string {
	if db.dialect == MySQL {
		return `INSERT INTO history_state (document_id, current_node_id) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE current_node_id = VALUES(current_node_id)`
	}
	return `INSERT INTO history_state (document_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET current_node_id = excluded.current_node_id`
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
