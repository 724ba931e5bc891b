package storage

import (
	"strings"
	"testing"
)

func TestRebind(t *testing.T) {
	q := `UPDATE blocks SET sort_order = ? WHERE document_id = ? AND id = ?`
	pg := &DB{dialect: Postgres}
	if got, want := pg.rebind(q), `UPDATE blocks SET sort_order = $1 WHERE document_id = $2 AND id = $3`; got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
	for _, d := range []Dialect{SQLite, MySQL} {
		db := &DB{dialect: d}
		if got := db.rebind(q); got != q {
			t.Errorf("%s rebind changed query: %q", d, got)
		}
	}
}

func TestUpsertCurrentSQL(t *testing.T) {
	if q := (&DB{dialect: MySQL}).upsertCurrentSQL(); !strings.Contains(q, "ON DUPLICATE KEY UPDATE") {
		t.Errorf("mysql upsert = %q", q)
	}
	for _, d := range []Dialect{SQLite, Postgres} {
		if q := (&DB{dialect: d}).upsertCurrentSQL(); !strings.Contains(q, "ON CONFLICT(document_id)") {
			t.Errorf("%s upsert = %q", d, q)
		}
	}
}
